package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for reservation aggregates.
//
// Create and UpdateTimes are atomic with respect to the overlap check: both
// must hold a per-barber lock across check-and-write and return ErrOverlap
// when a conflicting reservation exists. Operations on different barbers must
// not contend with each other.
type Repository interface {
	// Create persists a new reservation, guaranteeing no overlapping active
	// reservation exists for the same barber at commit time.
	Create(ctx context.Context, res *Reservation) error

	// Update persists status changes with optimistic locking.
	Update(ctx context.Context, res *Reservation) error

	// UpdateTimes persists a reschedule, re-checking overlap under the same
	// per-barber lock while excluding the reservation itself.
	UpdateTimes(ctx context.Context, res *Reservation) error

	// Delete permanently removes a reservation.
	Delete(ctx context.Context, res *Reservation) error

	// FindByID retrieves a reservation by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// FindByIDAndClient retrieves a reservation scoped to its owning client.
	// A missing reservation and one owned by another client are
	// indistinguishable to the caller.
	FindByIDAndClient(ctx context.Context, id uuid.UUID, clientID string) (*Reservation, error)

	// FindOverlapping returns reservations for the barber whose interval
	// strictly intersects [start, end), excluding CANCELLED ones. excludeID
	// may be uuid.Nil; a non-nil value removes that reservation from the
	// result, for reschedule checks.
	FindOverlapping(ctx context.Context, barberID string, start, end time.Time, excludeID uuid.UUID) ([]*Reservation, error)

	// ExistsFutureByBarber reports whether any non-CANCELLED reservation for
	// the barber starts after now.
	ExistsFutureByBarber(ctx context.Context, barberID string, now time.Time) (bool, error)

	// ExistsFutureByService reports whether any non-CANCELLED reservation for
	// the service starts after now.
	ExistsFutureByService(ctx context.Context, serviceID string, now time.Time) (bool, error)

	// FindActiveByClient returns the client's upcoming reservations ordered
	// by start time ascending.
	FindActiveByClient(ctx context.Context, clientID string, now time.Time) ([]*Reservation, error)

	// FindHistoryByClient returns the client's past reservations ordered by
	// start time descending.
	FindHistoryByClient(ctx context.Context, clientID string, now time.Time) ([]*Reservation, error)

	// FindByBarberAndDay returns the barber's reservations for the calendar
	// day containing the given time, ordered by start time ascending.
	FindByBarberAndDay(ctx context.Context, barberID string, day time.Time) ([]*Reservation, error)

	// ListAll retrieves all reservations with pagination.
	ListAll(ctx context.Context, page, limit int) ([]*Reservation, int64, error)
}
