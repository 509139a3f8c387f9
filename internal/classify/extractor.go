package classify

import (
	"regexp"
	"strings"

	"github.com/civiclens/grievance-analyzer/constants"
)

// titleRE finds a "Sub:"/"Subject:" marker; the trailing content is the
// title. (.+) stops at the end of the line.
var titleRE = regexp.MustCompile(`(?i)(sub:|subject:)\s*(.+)`)

const maxTitleLen = 80

// Extractor derives the three classification signals from normalized text.
// All three operations are stateless and independent of each other.
type Extractor struct {
	rules Rules
}

func NewExtractor(rules Rules) *Extractor {
	return &Extractor{rules: rules}
}

// Title returns the subject-line content when the text carries one, else
// the first line truncated to 80 characters. Never fails; empty text yields
// an empty title.
func (e *Extractor) Title(text string) string {
	if m := titleRE.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[2])
	}
	first, _, _ := strings.Cut(text, "\n")
	return truncateRunes(first, maxTitleLen)
}

// Category returns the first rule, in table order, whose keyword set has a
// substring match against the lower-cased text. No match means Other.
func (e *Extractor) Category(text string) constants.Category {
	t := strings.ToLower(text)
	for _, rule := range e.rules.Categories {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(t, kw) {
				return rule.Label
			}
		}
	}
	return constants.Other
}

// Priority sums the weights of every matching term group, each counted at
// most once, and derives the tier from the score.
func (e *Extractor) Priority(text string) (int, constants.Tier) {
	t := strings.ToLower(text)
	score := 0
	for _, w := range e.rules.Weights {
		if w.re != nil && w.re.MatchString(t) {
			score += w.Weight
		}
	}
	return score, constants.TierForScore(score)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
