package runclient

import (
	"encoding/json"

	"github.com/quantflow/quantflow/internal/report"
)

// Recognized stream event types.
const (
	EventStart    = "start"
	EventProgress = "progress"
	EventComplete = "complete"
	EventError    = "error"
)

// doneStatus is the backend's progress status string that marks an agent
// finished; anything else reads as still in progress.
const doneStatus = "Done"

// progressData is the payload of a progress event.
type progressData struct {
	Agent     string          `json:"agent"`
	Ticker    string          `json:"ticker,omitempty"`
	Status    string          `json:"status"`
	Analysis  json.RawMessage `json:"analysis,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// completeData is the payload of a complete event.
type completeData struct {
	Data *report.OutputNodeData `json:"data"`
}

// analysisText flattens an analysis payload to display text: JSON strings
// are unquoted, null yields no fragment, anything else passes through raw.
func analysisText(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	s = string(raw)
	return &s
}
