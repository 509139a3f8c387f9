package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/civiclens/grievance-analyzer/constants"
	"github.com/civiclens/grievance-analyzer/internal/pipeline"
)

// Service produces workbook exports of a BatchResult: the full record
// table, a summary sheet with the aggregate counts, and the high-priority
// complaints listed first for triage.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

const (
	sheetComplaints = "Complaints"
	sheetSummary    = "Summary"
)

// BuildXLSX returns an XLSX workbook (as bytes) for the batch.
func (s *Service) BuildXLSX(res *pipeline.BatchResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetComplaints); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return nil, err
	}

	if err := writeRecords(f, res); err != nil {
		return nil, err
	}
	if err := writeSummary(f, res); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"run_id", res.RunID.String(),
		"rows", len(res.Records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRecords(f *excelize.File, res *pipeline.BatchResult) error {
	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetComplaints, cell, h); err != nil {
			return err
		}
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheetComplaints, cell, v)
	}

	// high-priority complaints first, then the rest in upload order
	row := 2
	for _, pass := range []constants.Tier{constants.TierHigh, ""} {
		for _, r := range res.Records {
			if (pass == constants.TierHigh) != (r.Priority == constants.TierHigh) {
				continue
			}
			write(1, row, r.File)
			write(2, row, r.Title)
			write(3, row, truncate(r.Complaint, 500))
			write(4, row, string(r.Category))
			write(5, row, string(r.Priority))
			write(6, row, r.Score)
			row++
		}
	}

	_ = f.SetColWidth(sheetComplaints, "A", "A", 28) // file
	_ = f.SetColWidth(sheetComplaints, "B", "B", 40) // title
	_ = f.SetColWidth(sheetComplaints, "C", "C", 60) // complaint
	_ = f.SetColWidth(sheetComplaints, "D", "D", 24) // category
	_ = f.SetColWidth(sheetComplaints, "E", "F", 10) // priority, score
	return nil
}

func writeSummary(f *excelize.File, res *pipeline.BatchResult) error {
	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheetSummary, cell, v)
	}

	write(1, 1, "Total Complaints")
	write(2, 1, res.Summary.Total)

	row := 2
	for _, tier := range constants.Tiers {
		write(1, row, fmt.Sprintf("%s Priority", tier))
		write(2, row, res.Summary.ByTier[tier])
		row++
	}

	row++
	write(1, row, "Category")
	write(2, row, "Count")
	row++
	for _, cat := range constants.Categories {
		if n := res.Summary.ByCategory[cat]; n > 0 {
			write(1, row, string(cat))
			write(2, row, n)
			row++
		}
	}

	if len(res.Excluded) > 0 {
		row++
		write(1, row, "Excluded File")
		write(2, row, "Reason")
		row++
		for _, ex := range res.Excluded {
			write(1, row, ex.File)
			write(2, row, ex.Reason)
			row++
		}
	}

	_ = f.SetColWidth(sheetSummary, "A", "A", 28)
	return nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
