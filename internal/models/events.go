package models

import "time"

// Event types
const (
	EventTypeExportRequested = "EXPORT_REQUESTED"
	EventTypeExportCompleted = "EXPORT_COMPLETED"
	EventTypeExportFailed    = "EXPORT_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ExportRequestedEvent asks the export worker to produce a report for a
// date range without an interactive confirmation step
type ExportRequestedEvent struct {
	BaseEvent
	RangeStart  string `json:"range_start"`
	RangeEnd    string `json:"range_end"`
	RequestedBy string `json:"requested_by"`
}

// ExportCompletedEvent published after a document is saved
type ExportCompletedEvent struct {
	BaseEvent
	Filename   string `json:"filename"`
	Path       string `json:"path"`
	Pages      int    `json:"pages"`
	RangeStart string `json:"range_start"`
	RangeEnd   string `json:"range_end"`
}

// ExportFailedEvent published when capture, composition or save fails
type ExportFailedEvent struct {
	BaseEvent
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}
