package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sw3-barbershop/service-reservation/internal/domain/mirror"
	"github.com/sw3-barbershop/service-reservation/internal/domain/reservation"
)

// Rule names carried by ValidationError so callers can tell which check
// rejected the request.
const (
	RuleRequiredFields      = "required_fields"
	RuleTimeConsistency     = "time_consistency"
	RuleServiceExists       = "service_exists"
	RuleBarberOffersService = "barber_offers_service"
	RuleWithinWorkingShift  = "within_working_shift"
	RuleNoOverlap           = "no_overlap"
)

// RequiredFields checks the structurally mandatory fields of the request.
func RequiredFields(_ context.Context, req *Request) error {
	if strings.TrimSpace(req.ClientID) == "" {
		return reservation.NewValidationError(RuleRequiredFields, "client ID is required")
	}
	if strings.TrimSpace(req.BarberID) == "" {
		return reservation.NewValidationError(RuleRequiredFields, "barber ID is required")
	}
	if strings.TrimSpace(req.ServiceID) == "" {
		return reservation.NewValidationError(RuleRequiredFields, "service ID is required")
	}
	if req.Price <= 0 {
		return reservation.NewValidationError(RuleRequiredFields, "price must be positive")
	}
	return nil
}

// TimeConsistency checks that the start time is strictly in the future.
func TimeConsistency(now func() time.Time) Validator {
	return func(_ context.Context, req *Request) error {
		if req.StartTime.IsZero() {
			return reservation.NewValidationError(RuleTimeConsistency, "start time is required")
		}
		if !req.StartTime.After(now()) {
			return reservation.NewValidationError(RuleTimeConsistency, "start time must be in the future")
		}
		return nil
	}
}

// ServiceExists resolves the service mirror row, requires it to be active,
// and computes the block-snapped end time for the downstream validators.
func ServiceExists(mirrors mirror.Store) Validator {
	return func(ctx context.Context, req *Request) error {
		svc, err := mirrors.ServiceByID(ctx, req.ServiceID)
		if errors.Is(err, mirror.ErrNotFound) {
			return reservation.NewValidationError(RuleServiceExists, fmt.Sprintf("service %s does not exist", req.ServiceID))
		}
		if err != nil {
			return err
		}
		if !svc.Active {
			return reservation.NewValidationError(RuleServiceExists, fmt.Sprintf("service %s is not active", req.ServiceID))
		}

		end, err := reservation.ComputeEndTime(req.StartTime, svc.DurationMinutes)
		if err != nil {
			return err
		}
		req.Service = svc
		req.EndTime = end
		return nil
	}
}

// BarberOffersService requires an active barber mirror row with an active
// (barber, service) pair.
func BarberOffersService(mirrors mirror.Store) Validator {
	return func(ctx context.Context, req *Request) error {
		barber, err := mirrors.BarberByID(ctx, req.BarberID)
		if errors.Is(err, mirror.ErrNotFound) {
			return reservation.NewValidationError(RuleBarberOffersService, fmt.Sprintf("barber %s does not exist", req.BarberID))
		}
		if err != nil {
			return err
		}
		if !barber.Active {
			return reservation.NewValidationError(RuleBarberOffersService, fmt.Sprintf("barber %s is not active", req.BarberID))
		}
		if !barber.Offers(req.ServiceID) {
			return reservation.NewValidationError(RuleBarberOffersService,
				fmt.Sprintf("barber %s does not offer service %s", req.BarberID, req.ServiceID))
		}
		return nil
	}
}

// WithinWorkingShift requires the candidate interval to lie entirely inside
// at least one of the barber's shift windows for that weekday.
func WithinWorkingShift(mirrors mirror.Store) Validator {
	return func(ctx context.Context, req *Request) error {
		return checkShiftContainment(ctx, mirrors, req.BarberID, req.StartTime, req.EndTime)
	}
}

// NoOverlap rejects the request when any non-CANCELLED reservation for the
// barber strictly intersects the candidate interval.
func NoOverlap(overlaps OverlapIndex) Validator {
	return func(ctx context.Context, req *Request) error {
		return checkNoOverlap(ctx, overlaps, req.BarberID, req.StartTime, req.EndTime, uuid.Nil)
	}
}

func checkShiftContainment(ctx context.Context, mirrors mirror.Store, barberID string, start, end time.Time) error {
	shifts, err := mirrors.ShiftsFor(ctx, barberID, start.Weekday())
	if err != nil {
		return err
	}
	if len(shifts) == 0 {
		return reservation.NewValidationError(RuleWithinWorkingShift,
			fmt.Sprintf("barber %s has no shifts configured for %s", barberID, start.Weekday()))
	}
	for _, w := range shifts {
		if w.Contains(start, end) {
			return nil
		}
	}
	windows := make([]string, len(shifts))
	for i, w := range shifts {
		windows[i] = mirror.FormatClock(w.StartMinute) + " - " + mirror.FormatClock(w.EndMinute)
	}
	return reservation.NewValidationError(RuleWithinWorkingShift,
		fmt.Sprintf("reservation (%s - %s) must fall within one of the barber's shifts: %s",
			start.Format("15:04"), end.Format("15:04"), strings.Join(windows, ", ")))
}

func checkNoOverlap(ctx context.Context, overlaps OverlapIndex, barberID string, start, end time.Time, excludeID uuid.UUID) error {
	conflicting, err := overlaps.FindOverlapping(ctx, barberID, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(conflicting) > 0 {
		return reservation.NewValidationError(RuleNoOverlap,
			fmt.Sprintf("barber %s already has a reservation in the requested slot", barberID))
	}
	return nil
}
