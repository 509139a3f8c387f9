package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/civiclens/grievance-analyzer/constants"
)

// Artifact is one uploaded document. Immutable once received; consumed
// exactly once by the extractor.
type Artifact struct {
	Name   string
	Data   []byte
	Format constants.FileFormat
}

// ComplaintRecord is the unit of output, one per successfully processed
// artifact. Fields mirror the export schema.
type ComplaintRecord struct {
	File      string
	Title     string
	Complaint string
	Category  constants.Category
	Priority  constants.Tier
	Score     int
}

// Exclusion reports an artifact dropped from the batch for an input-shape
// reason. Exclusions are surfaced, never silently swallowed.
type Exclusion struct {
	File   string
	Reason string // "UnsupportedFormat" | "DecodeError"
	Detail string
}

// Event is a per-artifact observability note (extraction failures,
// translation fallbacks) that does not affect the record set.
type Event struct {
	File    string
	Kind    string
	Message string
}

// Summary holds the aggregate counts, derived purely from the finished
// record set.
type Summary struct {
	Total      int
	ByTier     map[constants.Tier]int
	ByCategory map[constants.Category]int
}

// BatchResult is the complete outcome of one run. Records preserve the
// original upload order.
type BatchResult struct {
	RunID     uuid.UUID
	StartedAt time.Time
	Duration  time.Duration
	Records   []ComplaintRecord
	Excluded  []Exclusion
	Events    []Event
	Summary   Summary
}

func summarize(records []ComplaintRecord) Summary {
	s := Summary{
		Total:      len(records),
		ByTier:     make(map[constants.Tier]int, len(constants.Tiers)),
		ByCategory: make(map[constants.Category]int, len(constants.Categories)),
	}
	for _, r := range records {
		s.ByTier[r.Priority]++
		s.ByCategory[r.Category]++
	}
	return s
}
