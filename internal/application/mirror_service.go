package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/sw3-barbershop/service-reservation/internal/domain/mirror"
	"github.com/sw3-barbershop/service-reservation/pkg/metrics"
)

// MirrorService applies catalog change events to the local mirror tables.
// Every apply is idempotent, so redelivered events are harmless.
type MirrorService struct {
	store     mirror.Store
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewMirrorService creates a MirrorService. collector may be nil in tests.
func NewMirrorService(store mirror.Store, collector *metrics.Collector, logger *zap.Logger) *MirrorService {
	return &MirrorService{store: store, collector: collector, logger: logger}
}

// ApplyBarberUpsert replaces the barber row and its offered service set.
func (s *MirrorService) ApplyBarberUpsert(ctx context.Context, b mirror.Barber) error {
	if err := s.store.UpsertBarber(ctx, b); err != nil {
		return err
	}
	s.logger.Info("barber mirror updated", zap.String("barber_id", b.BarberID))
	s.countApplied("barber_upsert")
	return nil
}

// ApplyBarberDelete removes the barber, its service set, and its shifts.
func (s *MirrorService) ApplyBarberDelete(ctx context.Context, barberID string) error {
	if err := s.store.DeleteBarber(ctx, barberID); err != nil {
		return err
	}
	s.logger.Info("barber mirror removed", zap.String("barber_id", barberID))
	s.countApplied("barber_delete")
	return nil
}

// ApplyServiceUpsert replaces the service row.
func (s *MirrorService) ApplyServiceUpsert(ctx context.Context, svc mirror.Service) error {
	if err := s.store.UpsertService(ctx, svc); err != nil {
		return err
	}
	s.logger.Info("service mirror updated", zap.String("service_id", svc.ServiceID))
	s.countApplied("service_upsert")
	return nil
}

// ApplyServiceDelete removes the service row.
func (s *MirrorService) ApplyServiceDelete(ctx context.Context, serviceID string) error {
	if err := s.store.DeleteService(ctx, serviceID); err != nil {
		return err
	}
	s.logger.Info("service mirror removed", zap.String("service_id", serviceID))
	s.countApplied("service_delete")
	return nil
}

// ApplyShiftUpsert records the shift window if it is not already mirrored.
func (s *MirrorService) ApplyShiftUpsert(ctx context.Context, w mirror.WorkShift) error {
	if err := s.store.UpsertShift(ctx, w); err != nil {
		return err
	}
	s.logger.Info("work shift mirror updated",
		zap.String("barber_id", w.BarberID),
		zap.Stringer("weekday", w.Weekday),
	)
	s.countApplied("shift_upsert")
	return nil
}

// ApplyShiftReplace swaps all of the barber's shift windows at once.
func (s *MirrorService) ApplyShiftReplace(ctx context.Context, barberID string, shifts []mirror.WorkShift) error {
	if err := s.store.ReplaceShifts(ctx, barberID, shifts); err != nil {
		return err
	}
	s.logger.Info("work shift mirror replaced",
		zap.String("barber_id", barberID),
		zap.Int("count", len(shifts)),
	)
	s.countApplied("shift_replace")
	return nil
}

// CountDropped records a catalog event that could not be applied.
func (s *MirrorService) CountDropped() {
	if s.collector != nil {
		s.collector.MirrorEventsDropped.Inc()
	}
}

func (s *MirrorService) countApplied(kind string) {
	if s.collector != nil {
		s.collector.MirrorEventsApplied.WithLabelValues(kind).Inc()
	}
}
