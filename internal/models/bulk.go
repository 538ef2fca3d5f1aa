package models

// BulkItemResult reports the outcome for one submitted identifier.
type BulkItemResult struct {
	Identifier string `json:"identifier"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	RecordID   string `json:"record_id,omitempty"`
	EntryID    string `json:"entry_id,omitempty"`
}

// BulkSummary aggregates per-item results in submission order.
type BulkSummary struct {
	Attempted  int              `json:"attempted"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Results    []BulkItemResult `json:"results"`
}

// NewBulkSummary tallies results. The slice is kept as given.
func NewBulkSummary(results []BulkItemResult) BulkSummary {
	s := BulkSummary{Attempted: len(results), Results: results}
	if s.Results == nil {
		s.Results = []BulkItemResult{}
	}
	for _, r := range results {
		if r.Success {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	return s
}

// Partial reports whether some but not all items succeeded.
func (s BulkSummary) Partial() bool {
	return s.Successful > 0 && s.Failed > 0
}
