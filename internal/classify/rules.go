package classify

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/civiclens/grievance-analyzer/constants"
)

// CategoryRule binds one label to its lowercase keyword substrings.
// Rule order is the tie-break: the first matching rule wins.
type CategoryRule struct {
	Label    constants.Category `json:"label"`
	Keywords []string           `json:"keywords"`
}

// WeightRule scores one group of whole-word urgency terms. A group
// contributes its weight at most once no matter how often it matches.
type WeightRule struct {
	Terms  []string `json:"terms"`
	Weight int      `json:"weight"`

	re *regexp.Regexp
}

// Rules is the immutable classification configuration: loaded once at
// startup, passed into the Extractor, never mutated afterwards.
type Rules struct {
	Categories []CategoryRule `json:"categories"`
	Weights    []WeightRule   `json:"weights"`
}

// DefaultRules returns the stock tables from the external contract.
func DefaultRules() Rules {
	cats := make([]CategoryRule, 0, len(constants.Categories))
	for _, c := range constants.Categories {
		if c == constants.Other {
			continue
		}
		cats = append(cats, CategoryRule{Label: c, Keywords: constants.CategoryKeywords[c]})
	}
	r := Rules{
		Categories: cats,
		Weights: []WeightRule{
			{Terms: []string{"fire", "injury", "accident", "emergency", "critical", "danger"}, Weight: 50},
			{Terms: []string{"urgent", "immediately", "asap", "now", "please help"}, Weight: 25},
			{Terms: []string{"threat", "violent", "attack", "assault"}, Weight: 30},
			{Terms: []string{"fraud", "scam", "unauthorized", "refund"}, Weight: 20},
			{Terms: []string{"delay", "pending", "waiting"}, Weight: 10},
		},
	}
	if err := r.compile(); err != nil {
		// stock terms are plain words; a compile failure is a programming error
		panic(err)
	}
	return r
}

const rulesSchema = `{
  "type": "object",
  "required": ["categories", "weights"],
  "properties": {
    "categories": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["label", "keywords"],
        "properties": {
          "label": {"type": "string", "minLength": 1},
          "keywords": {"type": "array", "items": {"type": "string", "minLength": 1}}
        }
      }
    },
    "weights": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["terms", "weight"],
        "properties": {
          "terms": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
          "weight": {"type": "integer", "minimum": 0}
        }
      }
    }
  }
}`

// LoadRules reads a rules JSON file, validates it against the schema, and
// compiles the weight patterns. Used to substitute tables without touching
// the stock ones.
func LoadRules(path string) (Rules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules: %w", err)
	}

	sch, err := jsonschema.CompileString("rules.schema.json", rulesSchema)
	if err != nil {
		return Rules{}, fmt.Errorf("compile rules schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Rules{}, fmt.Errorf("parse rules: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return Rules{}, fmt.Errorf("validate rules: %w", err)
	}

	var r Rules
	if err := json.Unmarshal(raw, &r); err != nil {
		return Rules{}, fmt.Errorf("decode rules: %w", err)
	}
	if err := r.compile(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

// compile builds one whole-word alternation per weight group. Input text is
// lower-cased before matching, so terms are lower-cased here too.
func (r *Rules) compile() error {
	for i := range r.Weights {
		w := &r.Weights[i]
		quoted := make([]string, len(w.Terms))
		for j, t := range w.Terms {
			quoted[j] = regexp.QuoteMeta(strings.ToLower(t))
		}
		re, err := regexp.Compile(`\b(` + strings.Join(quoted, "|") + `)\b`)
		if err != nil {
			return fmt.Errorf("compile weight pattern %d: %w", i, err)
		}
		w.re = re
	}
	return nil
}
