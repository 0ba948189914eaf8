package reservation

import (
	"time"

	"github.com/google/uuid"
)

// Reservation is the aggregate root for the reservation domain. Behavior is
// always re-derived from the persisted status; no separate state object is
// ever stored, so state and status cannot diverge across reloads.
type Reservation struct {
	id        uuid.UUID
	clientID  string
	barberID  string
	serviceID string
	startTime time.Time
	endTime   time.Time
	price     float64
	status    Status

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewReservation creates a new Reservation in WAITING state.
func NewReservation(clientID, barberID, serviceID string, startTime, endTime time.Time, price float64) (*Reservation, error) {
	if clientID == "" {
		return nil, NewValidationError("required_fields", "client ID is required")
	}
	if barberID == "" {
		return nil, NewValidationError("required_fields", "barber ID is required")
	}
	if serviceID == "" {
		return nil, NewValidationError("required_fields", "service ID is required")
	}
	if price <= 0 {
		return nil, NewValidationError("required_fields", "price must be positive")
	}
	if !endTime.After(startTime) {
		return nil, NewValidationError("time_consistency", "end time must be after start time")
	}

	now := time.Now().UTC()
	return &Reservation{
		id:        uuid.New(),
		clientID:  clientID,
		barberID:  barberID,
		serviceID: serviceID,
		startTime: startTime,
		endTime:   endTime,
		price:     price,
		status:    StatusWaiting,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct rebuilds a Reservation from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	clientID, barberID, serviceID string,
	startTime, endTime time.Time,
	price float64,
	status Status,
	version int64,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:        id,
		clientID:  clientID,
		barberID:  barberID,
		serviceID: serviceID,
		startTime: startTime,
		endTime:   endTime,
		price:     price,
		status:    status,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the reservation's unique identifier.
func (r *Reservation) ID() uuid.UUID { return r.id }

// ClientID returns the owning client's identifier.
func (r *Reservation) ClientID() string { return r.clientID }

// BarberID returns the barber's identifier.
func (r *Reservation) BarberID() string { return r.barberID }

// ServiceID returns the booked service's identifier.
func (r *Reservation) ServiceID() string { return r.serviceID }

// StartTime returns the reserved slot start.
func (r *Reservation) StartTime() time.Time { return r.startTime }

// EndTime returns the reserved slot end.
func (r *Reservation) EndTime() time.Time { return r.endTime }

// Price returns the agreed price.
func (r *Reservation) Price() float64 { return r.price }

// Status returns the current lifecycle status.
func (r *Reservation) Status() Status { return r.status }

// Version returns the entity version for optimistic locking.
func (r *Reservation) Version() int64 { return r.version }

// CreatedAt returns the creation timestamp.
func (r *Reservation) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (r *Reservation) UpdatedAt() time.Time { return r.updatedAt }

// IncrementVersion bumps the version for optimistic locking.
func (r *Reservation) IncrementVersion() {
	r.version++
	r.updatedAt = time.Now().UTC()
}

// --- Transitions ---

// IsStaleWaiting reports whether the reservation is still WAITING past the
// no-show grace period. Such reservations are retargeted to NO_SHOW on the
// next transition attempt, whatever was requested.
func (r *Reservation) IsStaleWaiting(now time.Time) bool {
	return r.status == StatusWaiting && now.After(r.startTime.Add(NoShowGrace))
}

// Cancel transitions WAITING to CANCELLED. Cancellation requires at least
// CancellationCutoff of notice before the start time; an in-progress service
// can never be cancelled.
func (r *Reservation) Cancel(now time.Time) error {
	switch r.status {
	case StatusWaiting:
		if now.After(r.startTime.Add(-CancellationCutoff)) {
			return NewCancellationNotAllowedError("the deadline to cancel is 1 hour before the start time")
		}
		r.setStatus(StatusCancelled)
		return nil
	case StatusInProgress:
		return NewCancellationNotAllowedError("the service is already in progress")
	default:
		return NewInvalidStateTransitionError(r.status, "cancel")
	}
}

// Start transitions WAITING to IN_PROGRESS.
func (r *Reservation) Start(now time.Time) error {
	if r.status != StatusWaiting {
		return NewInvalidStateTransitionError(r.status, "start")
	}
	r.setStatus(StatusInProgress)
	return nil
}

// Finish transitions IN_PROGRESS to FINISHED.
func (r *Reservation) Finish(now time.Time) error {
	if r.status != StatusInProgress {
		return NewInvalidStateTransitionError(r.status, "finish")
	}
	r.setStatus(StatusFinished)
	return nil
}

// MarkNoShow transitions WAITING to NO_SHOW.
func (r *Reservation) MarkNoShow() error {
	if r.status != StatusWaiting {
		return NewInvalidStateTransitionError(r.status, "mark no-show")
	}
	r.setStatus(StatusNoShow)
	return nil
}

// ApplyTransition applies the transition leading to the requested target
// status. Stale-WAITING retargeting is the caller's responsibility; this
// method only enforces the transition table and time rules.
func (r *Reservation) ApplyTransition(target Status, now time.Time) error {
	switch target {
	case StatusCancelled:
		return r.Cancel(now)
	case StatusInProgress:
		return r.Start(now)
	case StatusFinished:
		return r.Finish(now)
	case StatusNoShow:
		return r.MarkNoShow()
	default:
		return NewInvalidStateTransitionError(r.status, "transition to "+target.String())
	}
}

// Reschedule moves the reservation to a new slot. Only WAITING reservations
// can be rescheduled; the status is left unchanged.
func (r *Reservation) Reschedule(newStart, newEnd time.Time) error {
	if r.status != StatusWaiting {
		return NewInvalidStateTransitionError(r.status, "reschedule")
	}
	if !newEnd.After(newStart) {
		return NewValidationError("time_consistency", "end time must be after start time")
	}
	r.startTime = newStart
	r.endTime = newEnd
	r.updatedAt = time.Now().UTC()
	return nil
}

// Deletable reports whether the reservation may be permanently removed.
func (r *Reservation) Deletable() bool {
	return r.status == StatusCancelled || r.status == StatusFinished
}

func (r *Reservation) setStatus(s Status) {
	r.status = s
	r.updatedAt = time.Now().UTC()
}
