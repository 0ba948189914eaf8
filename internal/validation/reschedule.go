package validation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sw3-barbershop/service-reservation/internal/domain/mirror"
	"github.com/sw3-barbershop/service-reservation/internal/domain/reservation"
)

// RescheduleRequest carries a reschedule through its pipeline. Both start and
// end are supplied by the caller; barber and service are already bound to the
// existing reservation, so existence checks are skipped.
type RescheduleRequest struct {
	ReservationID uuid.UUID
	BarberID      string
	StartTime     time.Time
	EndTime       time.Time
}

// RescheduleValidator is a single independent reschedule check.
type RescheduleValidator func(ctx context.Context, req *RescheduleRequest) error

// ReschedulePipeline runs reschedule validators in order, stopping at the
// first failure.
type ReschedulePipeline struct {
	validators []RescheduleValidator
}

// Run executes the pipeline against the request.
func (p *ReschedulePipeline) Run(ctx context.Context, req *RescheduleRequest) error {
	for _, v := range p.validators {
		if err := v(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// NewReschedulePipeline builds the reschedule chain: time consistency, shift
// containment, then overlap excluding the rescheduled reservation itself.
func NewReschedulePipeline(mirrors mirror.Store, overlaps OverlapIndex, now func() time.Time) *ReschedulePipeline {
	return &ReschedulePipeline{validators: []RescheduleValidator{
		RescheduleTimeConsistency(now),
		RescheduleWithinWorkingShift(mirrors),
		RescheduleNoOverlap(overlaps),
	}}
}

// RescheduleTimeConsistency checks that both bounds are supplied, the end is
// after the start, and the start is in the future.
func RescheduleTimeConsistency(now func() time.Time) RescheduleValidator {
	return func(_ context.Context, req *RescheduleRequest) error {
		if req.StartTime.IsZero() || req.EndTime.IsZero() {
			return reservation.NewValidationError(RuleTimeConsistency, "start and end times are required")
		}
		if !req.EndTime.After(req.StartTime) {
			return reservation.NewValidationError(RuleTimeConsistency, "end time must be after start time")
		}
		if !req.StartTime.After(now()) {
			return reservation.NewValidationError(RuleTimeConsistency, "start time must be in the future")
		}
		return nil
	}
}

// RescheduleWithinWorkingShift reuses the shift-containment check with the
// caller-supplied end time.
func RescheduleWithinWorkingShift(mirrors mirror.Store) RescheduleValidator {
	return func(ctx context.Context, req *RescheduleRequest) error {
		return checkShiftContainment(ctx, mirrors, req.BarberID, req.StartTime, req.EndTime)
	}
}

// RescheduleNoOverlap reuses the overlap check, excluding the reservation
// being rescheduled from the search.
func RescheduleNoOverlap(overlaps OverlapIndex) RescheduleValidator {
	return func(ctx context.Context, req *RescheduleRequest) error {
		return checkNoOverlap(ctx, overlaps, req.BarberID, req.StartTime, req.EndTime, req.ReservationID)
	}
}
