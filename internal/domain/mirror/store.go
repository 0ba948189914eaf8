package mirror

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by reads when no mirror row exists. Validators
// treat it as "does not exist", never as a sync failure.
var ErrNotFound = errors.New("mirror record not found")

// Store is the persistence contract for mirror replicas. Upserts must be
// idempotent and last-write-wins per field: redelivery and reordering from
// the event transport must not corrupt state.
type Store interface {
	// UpsertBarber inserts or fully replaces the barber row and its offered
	// service set.
	UpsertBarber(ctx context.Context, b Barber) error

	// DeleteBarber removes the barber row and its service set. Deleting a
	// missing barber is a no-op.
	DeleteBarber(ctx context.Context, barberID string) error

	// UpsertService inserts or fully replaces the service row.
	UpsertService(ctx context.Context, s Service) error

	// DeleteService removes the service row. Deleting a missing service is a
	// no-op.
	DeleteService(ctx context.Context, serviceID string) error

	// UpsertShift inserts the shift window if an identical one is not already
	// present.
	UpsertShift(ctx context.Context, w WorkShift) error

	// ReplaceShifts atomically replaces all of the barber's shift windows.
	ReplaceShifts(ctx context.Context, barberID string, shifts []WorkShift) error

	// BarberByID retrieves a barber with its offered service set.
	BarberByID(ctx context.Context, barberID string) (*Barber, error)

	// ServiceByID retrieves a service.
	ServiceByID(ctx context.Context, serviceID string) (*Service, error)

	// ShiftsFor retrieves the barber's windows for a weekday, ordered by
	// start minute.
	ShiftsFor(ctx context.Context, barberID string, weekday time.Weekday) ([]WorkShift, error)
}
