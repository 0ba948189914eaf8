// Package validation implements the ordered, fail-fast validation pipelines
// for new and rescheduled reservations. Each validator is an independent
// function; the first failure aborts the whole pipeline with its specific
// error and no aggregation of further violations is attempted.
package validation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sw3-barbershop/service-reservation/internal/domain/mirror"
	"github.com/sw3-barbershop/service-reservation/internal/domain/reservation"
)

// OverlapIndex finds reservations for a barber whose interval strictly
// intersects a candidate interval, excluding CANCELLED ones.
type OverlapIndex interface {
	FindOverlapping(ctx context.Context, barberID string, start, end time.Time, excludeID uuid.UUID) ([]*reservation.Reservation, error)
}

// Request carries a create request through the pipeline. Service and EndTime
// are resolved by the service-exists validator for the later, more expensive
// checks.
type Request struct {
	ClientID  string
	BarberID  string
	ServiceID string
	StartTime time.Time
	Price     float64

	Service *mirror.Service
	EndTime time.Time
}

// Validator is a single independent check. Validators run in pipeline order
// and may rely on fields resolved by earlier validators.
type Validator func(ctx context.Context, req *Request) error

// Pipeline runs validators in order, stopping at the first failure.
type Pipeline struct {
	validators []Validator
}

// Run executes the pipeline against the request.
func (p *Pipeline) Run(ctx context.Context, req *Request) error {
	for _, v := range p.validators {
		if err := v(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// NewCreatePipeline builds the canonical create chain: cheap structural
// checks first, mirror lookups and the overlap query last.
func NewCreatePipeline(mirrors mirror.Store, overlaps OverlapIndex, now func() time.Time) *Pipeline {
	return &Pipeline{validators: []Validator{
		RequiredFields,
		TimeConsistency(now),
		ServiceExists(mirrors),
		BarberOffersService(mirrors),
		WithinWorkingShift(mirrors),
		NoOverlap(overlaps),
	}}
}
