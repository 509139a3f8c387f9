package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/civiclens/grievance-analyzer/internal/pipeline"
)

// Header is the export record schema, column for column.
var Header = []string{"File", "Title", "Complaint", "Category", "Priority", "Score"}

// WriteCSV writes the batch records as UTF-8 comma-separated values with a
// header row. Every ComplaintRecord field is included.
func WriteCSV(w io.Writer, res *pipeline.BatchResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range res.Records {
		row := []string{
			r.File,
			r.Title,
			r.Complaint,
			string(r.Category),
			string(r.Priority),
			strconv.Itoa(r.Score),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
