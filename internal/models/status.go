package models

// StatusValue is one distinct status option observed on a list's entries.
type StatusValue struct {
	StatusID          string `json:"status_id"`
	Title             string `json:"title"`
	IsArchived        bool   `json:"is_archived"`
	Attribute         string `json:"attribute"`
	ExampleEntryCount int    `json:"example_entry_count"`
}
