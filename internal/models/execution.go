package models

import (
	"time"

	"github.com/brickwatch/rita/pkg/money"
)

// Execution statuses shared by workflow steps, per-resource records, and
// dispatched runs.
const (
	StatusSuccess    = "success"
	StatusFailed     = "failed"
	StatusSkipped    = "skipped"
	StatusAccepted   = "accepted"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// ExecutionRecord is the per-resource outcome of one mutating action.
// Failures are captured here instead of propagating: one resource's error
// never aborts the rest of a batch.
type ExecutionRecord struct {
	ResourceID       string       `json:"resource_id"`
	ResourceType     ResourceType `json:"resource_type"`
	Action           string       `json:"action"`
	FromValue        string       `json:"from,omitempty"`
	ToValue          string       `json:"to,omitempty"`
	Status           string       `json:"status"`
	Error            string       `json:"error,omitempty"`
	Reason           string       `json:"reason,omitempty"`
	EstimatedSavings money.Amount `json:"estimated_savings"`
	Timestamp        time.Time    `json:"timestamp"`
}

// ExecutionSummary aggregates the records of one run.
type ExecutionSummary struct {
	ResourcesModified int          `json:"resources_modified"`
	ResourcesFailed   int          `json:"resources_failed"`
	ResourcesSkipped  int          `json:"resources_skipped"`
	TotalSavings      money.Amount `json:"total_savings"`
}

// Summarize computes an ExecutionSummary over a set of records. Savings
// count only resources that were actually modified.
func Summarize(records []ExecutionRecord) ExecutionSummary {
	var s ExecutionSummary
	for _, r := range records {
		switch r.Status {
		case StatusSuccess:
			s.ResourcesModified++
			s.TotalSavings += r.EstimatedSavings
		case StatusFailed:
			s.ResourcesFailed++
		case StatusSkipped:
			s.ResourcesSkipped++
		}
	}
	return s
}

// VerificationRecord is the outcome of re-reading a modified resource and
// comparing its live state against the expected post-change state.
type VerificationRecord struct {
	ResourceID    string `json:"resource_id"`
	Status        string `json:"verification_status"`
	CurrentValue  string `json:"current_value,omitempty"`
	ExpectedValue string `json:"expected_value,omitempty"`
	ResourceState string `json:"resource_state,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Error         string `json:"error,omitempty"`
	VerifiedAt    string `json:"verified_at,omitempty"`
}
