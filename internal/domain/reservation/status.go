package reservation

import (
	"fmt"
	"time"
)

// Status represents the current state of a reservation in its lifecycle.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFinished   Status = "FINISHED"
	StatusCancelled  Status = "CANCELLED"
	StatusNoShow     Status = "NO_SHOW"
)

const (
	// CancellationCutoff is the minimum notice a client must give before the
	// reservation start to be allowed to cancel it.
	CancellationCutoff = time.Hour

	// NoShowGrace is how long after the start time a WAITING reservation is
	// still considered attendable. Past it, any attempted transition is
	// retargeted to NO_SHOW.
	NoShowGrace = 10 * time.Minute
)

// validTransitions defines the state machine for reservation status changes.
// Time-based rules (cancellation cutoff, no-show grace) are enforced on top
// of this table by the aggregate's transition methods.
var validTransitions = map[Status][]Status{
	StatusWaiting:    {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusFinished},
	StatusFinished:   {},
	StatusCancelled:  {},
	StatusNoShow:     {},
}

// IsValid returns true if the status is a recognized reservation status.
func (s Status) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target
// is allowed by the transition table.
func (s Status) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible.
func (s Status) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status, returning an error if invalid.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid reservation status: %s", s)
	}
	return status, nil
}
