// Package aggregate merges pre-cleaned tabular datasets into one regional
// time-sliced summary: complaint and post counts per (state, year-month),
// left-joined with governance attributes.
package aggregate

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// Key slices counts by region and month.
type Key struct {
	State string
	Month string // YYYY-MM
}

// Governance is the reference table keyed by state, with its attribute
// columns preserved in file order.
type Governance struct {
	Columns []string            // normalized attribute column names, state column excluded
	Rows    map[string][]string // state -> attribute values
}

// MergedRow is one output row. Missing counts are zero, and governance
// attributes are empty when the state has no reference entry.
type MergedRow struct {
	State      string
	Month      string
	Complaints int
	Posts      int
	Attrs      []string
}

const unknownState = "Unknown"

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"02-01-2006",
}

// LoadCounts reads a CSV with a header row and groups row counts by
// (state, year-month of dateField). Rows with a blank state fall into
// "Unknown"; rows with an unparseable date are skipped.
func LoadCounts(r io.Reader, dateField, stateField string) (map[Key]int, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	dateIdx, stateIdx := -1, -1
	for i, col := range header {
		switch normalizeColumn(col) {
		case normalizeColumn(dateField):
			dateIdx = i
		case normalizeColumn(stateField):
			stateIdx = i
		}
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("column %q not found", dateField)
	}

	counts := make(map[Key]int)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		month, ok := toMonth(row[dateIdx])
		if !ok {
			continue
		}
		state := unknownState
		if stateIdx >= 0 && strings.TrimSpace(row[stateIdx]) != "" {
			state = strings.TrimSpace(row[stateIdx])
		}
		counts[Key{State: state, Month: month}]++
	}
	return counts, nil
}

// LoadGovernance reads the reference table. Column names are normalized to
// lowercase with underscores; the state column is detected among
// "state/ut", "state_ut" and "state".
func LoadGovernance(r io.Reader) (Governance, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return Governance{}, fmt.Errorf("read header: %w", err)
	}

	stateIdx := -1
	var columns []string
	for i, col := range header {
		name := normalizeColumn(col)
		if name == "state/ut" || name == "state_ut" || name == "state" {
			stateIdx = i
			continue
		}
		columns = append(columns, name)
	}
	if stateIdx < 0 {
		return Governance{}, fmt.Errorf("governance table has no state column")
	}

	rows := make(map[string][]string)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Governance{}, fmt.Errorf("read row: %w", err)
		}
		attrs := make([]string, 0, len(columns))
		for i, v := range row {
			if i == stateIdx {
				continue
			}
			attrs = append(attrs, v)
		}
		rows[strings.TrimSpace(row[stateIdx])] = attrs
	}
	return Governance{Columns: columns, Rows: rows}, nil
}

// Merge outer-joins the two count tables on (state, month), left-joins the
// governance attributes on state, and fills missing counts with zero.
// Output is sorted by state then month.
func Merge(complaints, posts map[Key]int, gov Governance) []MergedRow {
	keys := make(map[Key]struct{}, len(complaints)+len(posts))
	for k := range complaints {
		keys[k] = struct{}{}
	}
	for k := range posts {
		keys[k] = struct{}{}
	}

	out := make([]MergedRow, 0, len(keys))
	for k := range keys {
		row := MergedRow{
			State:      k.State,
			Month:      k.Month,
			Complaints: complaints[k],
			Posts:      posts[k],
		}
		if attrs, ok := gov.Rows[k.State]; ok {
			row.Attrs = attrs
		} else {
			row.Attrs = make([]string, len(gov.Columns))
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].State != out[j].State {
			return out[i].State < out[j].State
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// WriteCSV writes the merged summary with a header row.
func WriteCSV(w io.Writer, gov Governance, rows []MergedRow) error {
	cw := csv.NewWriter(w)

	header := append([]string{"state_ut", "month_year", "complaints_count", "tweets_count"}, gov.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := append([]string{r.State, r.Month, fmt.Sprint(r.Complaints), fmt.Sprint(r.Posts)}, r.Attrs...)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func toMonth(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01"), true
		}
	}
	return "", false
}

func normalizeColumn(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
