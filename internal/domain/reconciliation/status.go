// Package reconciliation models one reconciliation request driven through a
// shared document, the tenant match policy applied before comparing, and
// the persisted history of processed requests.
package reconciliation

import (
	"fmt"
	"sync"
	"time"
)

// Status is the life-cycle state of the request currently tracked for a document.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusTriggered  Status = "triggered"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var validStatuses = map[Status]bool{
	StatusIdle:       true,
	StatusTriggered:  true,
	StatusProcessing: true,
	StatusCompleted:  true,
	StatusFailed:     true,
}

var statusTransitions = map[Status][]Status{
	StatusIdle: {
		StatusTriggered,
	},
	// a claimed trigger is handed back when another instance owns the document
	StatusTriggered: {
		StatusProcessing,
		StatusIdle,
	},
	StatusProcessing: {
		StatusCompleted,
		StatusFailed,
	},
	// a fresh trigger may be written over a terminal sentinel without
	// the operator clearing the cell first
	StatusCompleted: {
		StatusIdle,
		StatusTriggered,
	},
	StatusFailed: {
		StatusIdle,
		StatusTriggered,
	},
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal reports whether the request reached Completed or Failed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsBusy reports whether a request is between trigger and terminal write.
func (s Status) IsBusy() bool {
	return s == StatusTriggered || s == StatusProcessing
}

func (s Status) CanTransitionTo(target Status) bool {
	allowed, ok := statusTransitions[s]
	if !ok {
		return false
	}
	for _, candidate := range allowed {
		if candidate == target {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidStatusTransition when s cannot move to target.
func (s Status) ValidateTransition(target Status) error {
	if !s.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, s, target)
	}
	return nil
}

// Tracker holds the status of the request for one document. It is the
// re-entrancy guard of the polling loop: only one caller can move it out of
// Idle or a terminal state into Triggered.
type Tracker struct {
	mu      sync.Mutex
	status  Status
	changed time.Time
}

// NewTracker returns a tracker in Idle.
func NewTracker() *Tracker {
	return &Tracker{status: StatusIdle}
}

// Status returns the current status.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// ChangedAt returns when the status last changed.
func (t *Tracker) ChangedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.changed
}

// Transition moves to target if allowed.
func (t *Tracker) Transition(target Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.status.ValidateTransition(target); err != nil {
		return err
	}
	t.status = target
	t.changed = time.Now().UTC()
	return nil
}

// Claim moves the tracker to Triggered. It returns ErrRequestInProgress when
// another caller already holds the request.
func (t *Tracker) Claim() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsBusy() {
		return ErrRequestInProgress
	}
	if err := t.status.ValidateTransition(StatusTriggered); err != nil {
		return err
	}
	t.status = StatusTriggered
	t.changed = time.Now().UTC()
	return nil
}

// Release hands a claimed but unstarted request back, returning to Idle.
func (t *Tracker) Release() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusTriggered {
		return fmt.Errorf("%w: release from %s", ErrInvalidStatusTransition, t.status)
	}
	t.status = StatusIdle
	t.changed = time.Now().UTC()
	return nil
}

// Reset returns a terminal tracker to Idle. Busy or idle trackers are left alone.
func (t *Tracker) Reset() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.status.IsTerminal() {
		return false
	}
	t.status = StatusIdle
	t.changed = time.Now().UTC()
	return true
}
