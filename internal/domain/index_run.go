package domain

import (
	"fmt"
	"time"
)

// IndexRunStatus represents the state of a search index rebuild
type IndexRunStatus string

const (
	IndexRunStatusRunning   IndexRunStatus = "running"
	IndexRunStatusCompleted IndexRunStatus = "completed"
	IndexRunStatusFailed    IndexRunStatus = "failed"
)

// IndexRunTrigger records what started a rebuild
type IndexRunTrigger string

const (
	IndexRunTriggerAPI      IndexRunTrigger = "api"
	IndexRunTriggerCLI      IndexRunTrigger = "cli"
	IndexRunTriggerSchedule IndexRunTrigger = "schedule"
)

// IndexRun is the audit record of one rebuild attempt
type IndexRun struct {
	ID         string
	Status     IndexRunStatus
	Trigger    IndexRunTrigger
	Total      int
	Indexed    int
	Failed     int
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// NewIndexRun creates a running IndexRun
func NewIndexRun(id string, trigger IndexRunTrigger, startedAt time.Time) *IndexRun {
	return &IndexRun{
		ID:        id,
		Status:    IndexRunStatusRunning,
		Trigger:   trigger,
		StartedAt: startedAt,
	}
}

// Complete marks the run as finished with the given counts
func (r *IndexRun) Complete(total, indexed, failed int, at time.Time) {
	r.Status = IndexRunStatusCompleted
	r.Total = total
	r.Indexed = indexed
	r.Failed = failed
	r.FinishedAt = &at
}

// Fail marks the run as aborted
func (r *IndexRun) Fail(err error, at time.Time) {
	r.Status = IndexRunStatusFailed
	if err != nil {
		r.Error = err.Error()
	}
	r.FinishedAt = &at
}

// ValidateIndexRun validates an IndexRun instance
func ValidateIndexRun(r *IndexRun) error {
	if r == nil {
		return fmt.Errorf("index run cannot be nil")
	}
	if r.ID == "" {
		return fmt.Errorf("index run ID is required")
	}
	switch r.Status {
	case IndexRunStatusRunning, IndexRunStatusCompleted, IndexRunStatusFailed:
	default:
		return fmt.Errorf("index run Status is invalid: %s", r.Status)
	}
	switch r.Trigger {
	case IndexRunTriggerAPI, IndexRunTriggerCLI, IndexRunTriggerSchedule:
	default:
		return fmt.Errorf("index run Trigger is invalid: %s", r.Trigger)
	}
	if r.Indexed < 0 || r.Failed < 0 || r.Indexed+r.Failed > r.Total {
		return fmt.Errorf("index run counts are inconsistent")
	}
	return nil
}
