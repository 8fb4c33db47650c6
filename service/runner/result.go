package runner

import (
	"fmt"
	"time"

	"github.com/termscript/termscript/internal/clock"
	"github.com/termscript/termscript/internal/idgen"
)

// Status classifies the outcome of a single script run.
type Status string

const (
	// StatusCompleted means every directive resolved and the recording, if
	// any, was written.
	StatusCompleted Status = "completed"
	// StatusFailed means a directive or the run setup failed.
	StatusFailed Status = "failed"
	// StatusTimedOut means a match window elapsed before its pattern arrived.
	StatusTimedOut Status = "timed_out"
)

// Result describes one script run. Script level failures are carried here
// instead of being returned as Go errors so that sibling runs are never
// aborted by one broken script.
type Result struct {
	// Script is the script name, URL its source location.
	Script string `json:"script"`
	URL    string `json:"url,omitempty"`

	// RunID identifies the run across progress updates and spans.
	RunID string `json:"runID"`

	Status Status `json:"status"`

	// FailedAt is the index of the failing directive, -1 when the run
	// completed or failed before dispatch started.
	FailedAt int `json:"failedAt"`

	// Directive is the rendering of the failing directive, empty on success.
	Directive string `json:"directive,omitempty"`

	// Reason is the failure cause; nil on success.
	Reason error `json:"-"`

	// Buffer holds the trailing unconsumed session output at failure time,
	// capped, for diagnosis of unmatched expects.
	Buffer string `json:"buffer,omitempty"`

	// Recording is the destination URL when a recording was written.
	Recording string `json:"recording,omitempty"`

	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
}

// NewFailure returns a failed Result for a script that never ran, typically
// because loading or parsing failed before a session could be spawned.
func NewFailure(name, URL string, reason error) *Result {
	now := clock.Now()
	return &Result{
		Script:    name,
		URL:       URL,
		RunID:     idgen.New(),
		Status:    StatusFailed,
		FailedAt:  -1,
		Reason:    reason,
		StartedAt: now,
		EndedAt:   now,
	}
}

// Completed reports whether the run finished without failure.
func (r *Result) Completed() bool {
	return r != nil && r.Status == StatusCompleted
}

// Err renders the result as a single error, nil when the run completed.
func (r *Result) Err() error {
	if r == nil || r.Status == StatusCompleted {
		return nil
	}
	if r.FailedAt < 0 {
		return fmt.Errorf("%s: %w", r.Script, r.Reason)
	}
	return fmt.Errorf("%s: directive %d (%s): %w", r.Script, r.FailedAt, r.Directive, r.Reason)
}
