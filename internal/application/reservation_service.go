package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sw3-barbershop/service-reservation/internal/domain/mirror"
	"github.com/sw3-barbershop/service-reservation/internal/domain/reservation"
	"github.com/sw3-barbershop/service-reservation/internal/validation"
	"github.com/sw3-barbershop/service-reservation/pkg/kafka"
	"github.com/sw3-barbershop/service-reservation/pkg/metrics"
)

const eventSource = "service-reservation"

// TopicReservationEvents carries the change notifications this service emits.
const TopicReservationEvents = "reservation.events"

// Event types published after committed lifecycle changes.
const (
	EventReservationCreated       = "reservation.created"
	EventReservationCancelled     = "reservation.cancelled"
	EventReservationStatusChanged = "reservation.status_changed"
	EventReservationRescheduled   = "reservation.rescheduled"
)

// ReservationEvent is the payload of every reservation change notification.
type ReservationEvent struct {
	ID        string    `json:"id"`
	ServiceID string    `json:"service_id"`
	BarberID  string    `json:"barber_id"`
	Start     time.Time `json:"start"`
	Status    string    `json:"status"`
}

// EventPublisher is the outbound transport contract, satisfied by
// kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event kafka.CloudEvent) error
}

// CreateReservationRequest holds the data needed to create a reservation.
type CreateReservationRequest struct {
	ClientID  string    `json:"client_id" binding:"required"`
	BarberID  string    `json:"barber_id" binding:"required"`
	ServiceID string    `json:"service_id" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
	Price     float64   `json:"price" binding:"required"`
}

// RescheduleReservationRequest holds the new slot for a reschedule.
type RescheduleReservationRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

// ReservationDTO is the response representation of a reservation.
type ReservationDTO struct {
	ID        uuid.UUID `json:"id"`
	ClientID  string    `json:"client_id"`
	BarberID  string    `json:"barber_id"`
	ServiceID string    `json:"service_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Price     float64   `json:"price"`
	Status    string    `json:"status"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReservationService orchestrates the validation pipelines, the time-block
// calculator, the state machine, and persistence for the reservation
// lifecycle.
type ReservationService struct {
	repo       reservation.Repository
	mirrors    mirror.Store
	pipeline   *validation.Pipeline
	reschedule *validation.ReschedulePipeline
	publisher  EventPublisher
	collector  *metrics.Collector
	logger     *zap.Logger
	now        func() time.Time
}

// NewReservationService creates a ReservationService wired to the given
// stores. publisher and collector may be nil in tests.
func NewReservationService(
	repo reservation.Repository,
	mirrors mirror.Store,
	publisher EventPublisher,
	collector *metrics.Collector,
	logger *zap.Logger,
) *ReservationService {
	now := func() time.Time { return time.Now().UTC() }
	return &ReservationService{
		repo:       repo,
		mirrors:    mirrors,
		pipeline:   validation.NewCreatePipeline(mirrors, repo, now),
		reschedule: validation.NewReschedulePipeline(mirrors, repo, now),
		publisher:  publisher,
		collector:  collector,
		logger:     logger,
		now:        now,
	}
}

// Create validates the request, computes the block-snapped slot, and persists
// the reservation in WAITING state.
func (s *ReservationService) Create(ctx context.Context, req CreateReservationRequest) (*ReservationDTO, error) {
	vreq := &validation.Request{
		ClientID:  req.ClientID,
		BarberID:  req.BarberID,
		ServiceID: req.ServiceID,
		StartTime: req.StartTime,
		Price:     req.Price,
	}
	if err := s.pipeline.Run(ctx, vreq); err != nil {
		s.countRejection(err)
		return nil, err
	}

	res, err := reservation.NewReservation(
		req.ClientID, req.BarberID, req.ServiceID,
		vreq.StartTime, vreq.EndTime, req.Price,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, res); err != nil {
		if errors.Is(err, reservation.ErrOverlap) {
			if s.collector != nil {
				s.collector.OverlapConflicts.Inc()
			}
			return nil, reservation.NewValidationError(validation.RuleNoOverlap,
				fmt.Sprintf("barber %s already has a reservation in the requested slot", req.BarberID))
		}
		return nil, err
	}

	if s.collector != nil {
		s.collector.ReservationsCreated.Inc()
	}
	s.publish(ctx, EventReservationCreated, res)

	dto := toReservationDTO(res)
	return &dto, nil
}

// Cancel cancels the client's reservation, enforcing the one-hour notice
// window. A stale WAITING reservation is retargeted to NO_SHOW instead.
func (s *ReservationService) Cancel(ctx context.Context, id uuid.UUID, clientID string) (*ReservationDTO, error) {
	res, err := s.repo.FindByIDAndClient(ctx, id, clientID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if res.IsStaleWaiting(now) {
		return s.forceNoShow(ctx, res)
	}

	if err := res.Cancel(now); err != nil {
		return nil, err
	}
	res.IncrementVersion()
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}

	s.countTransition(res.Status())
	s.publish(ctx, EventReservationCancelled, res)

	dto := toReservationDTO(res)
	return &dto, nil
}

// Start marks the reservation's service as begun.
func (s *ReservationService) Start(ctx context.Context, id uuid.UUID) (*ReservationDTO, error) {
	return s.transition(ctx, id, reservation.StatusInProgress)
}

// Finish marks the reservation's service as completed.
func (s *ReservationService) Finish(ctx context.Context, id uuid.UUID) (*ReservationDTO, error) {
	return s.transition(ctx, id, reservation.StatusFinished)
}

// ChangeStatus applies an operator-requested transition. A WAITING
// reservation past the no-show grace window is forced to NO_SHOW regardless
// of the requested target.
func (s *ReservationService) ChangeStatus(ctx context.Context, id uuid.UUID, target reservation.Status) (*ReservationDTO, error) {
	return s.transition(ctx, id, target)
}

func (s *ReservationService) transition(ctx context.Context, id uuid.UUID, target reservation.Status) (*ReservationDTO, error) {
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if res.IsStaleWaiting(now) {
		return s.forceNoShow(ctx, res)
	}

	if err := res.ApplyTransition(target, now); err != nil {
		return nil, err
	}
	res.IncrementVersion()
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}

	s.countTransition(res.Status())
	s.publish(ctx, EventReservationStatusChanged, res)

	dto := toReservationDTO(res)
	return &dto, nil
}

// forceNoShow retargets a stale WAITING reservation to NO_SHOW and persists
// it. The caller receives the corrected reservation, not an error.
func (s *ReservationService) forceNoShow(ctx context.Context, res *reservation.Reservation) (*ReservationDTO, error) {
	if err := res.MarkNoShow(); err != nil {
		return nil, err
	}
	res.IncrementVersion()
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}

	s.logger.Info("stale waiting reservation retargeted to no-show",
		zap.String("reservation_id", res.ID().String()),
		zap.Time("start_time", res.StartTime()),
	)
	s.countTransition(res.Status())
	s.publish(ctx, EventReservationStatusChanged, res)

	dto := toReservationDTO(res)
	return &dto, nil
}

// Reschedule moves a WAITING reservation to a new slot after re-running the
// shift and overlap checks, excluding the reservation itself from the overlap
// search. The status is left unchanged.
func (s *ReservationService) Reschedule(ctx context.Context, id uuid.UUID, clientID string, req RescheduleReservationRequest) (*ReservationDTO, error) {
	res, err := s.repo.FindByIDAndClient(ctx, id, clientID)
	if err != nil {
		return nil, err
	}
	if res.Status() != reservation.StatusWaiting {
		return nil, reservation.NewInvalidStateTransitionError(res.Status(), "reschedule")
	}

	vreq := &validation.RescheduleRequest{
		ReservationID: res.ID(),
		BarberID:      res.BarberID(),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	}
	if err := s.reschedule.Run(ctx, vreq); err != nil {
		s.countRejection(err)
		return nil, err
	}

	if err := res.Reschedule(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	res.IncrementVersion()
	if err := s.repo.UpdateTimes(ctx, res); err != nil {
		if errors.Is(err, reservation.ErrOverlap) {
			if s.collector != nil {
				s.collector.OverlapConflicts.Inc()
			}
			return nil, reservation.NewValidationError(validation.RuleNoOverlap,
				fmt.Sprintf("barber %s already has a reservation in the requested slot", res.BarberID()))
		}
		return nil, err
	}

	s.publish(ctx, EventReservationRescheduled, res)

	dto := toReservationDTO(res)
	return &dto, nil
}

// Delete permanently removes a CANCELLED or FINISHED reservation owned by
// the client.
func (s *ReservationService) Delete(ctx context.Context, id uuid.UUID, clientID string) error {
	res, err := s.repo.FindByIDAndClient(ctx, id, clientID)
	if err != nil {
		return err
	}
	if !res.Deletable() {
		return reservation.NewInvalidDeletionError(res.Status())
	}
	return s.repo.Delete(ctx, res)
}

// CanDeactivateBarber reports whether the barber has no active future
// reservations, so the upstream service may disable them.
func (s *ReservationService) CanDeactivateBarber(ctx context.Context, barberID string) (bool, error) {
	exists, err := s.repo.ExistsFutureByBarber(ctx, barberID, s.now())
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// CanDeactivateService reports whether the service has no active future
// reservations.
func (s *ReservationService) CanDeactivateService(ctx context.Context, serviceID string) (bool, error) {
	exists, err := s.repo.ExistsFutureByService(ctx, serviceID, s.now())
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// GetByID retrieves a single reservation.
func (s *ReservationService) GetByID(ctx context.Context, id uuid.UUID) (*ReservationDTO, error) {
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toReservationDTO(res)
	return &dto, nil
}

// ListAll retrieves all reservations with pagination.
func (s *ReservationService) ListAll(ctx context.Context, page, limit int) ([]ReservationDTO, int64, error) {
	reservations, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toReservationDTOs(reservations), total, nil
}

// GetClientActive retrieves the client's upcoming reservations.
func (s *ReservationService) GetClientActive(ctx context.Context, clientID string) ([]ReservationDTO, error) {
	reservations, err := s.repo.FindActiveByClient(ctx, clientID, s.now())
	if err != nil {
		return nil, err
	}
	return toReservationDTOs(reservations), nil
}

// GetClientHistory retrieves the client's past reservations.
func (s *ReservationService) GetClientHistory(ctx context.Context, clientID string) ([]ReservationDTO, error) {
	reservations, err := s.repo.FindHistoryByClient(ctx, clientID, s.now())
	if err != nil {
		return nil, err
	}
	return toReservationDTOs(reservations), nil
}

// GetBarberDay retrieves the barber's agenda for one calendar day.
func (s *ReservationService) GetBarberDay(ctx context.Context, barberID string, day time.Time) ([]ReservationDTO, error) {
	reservations, err := s.repo.FindByBarberAndDay(ctx, barberID, day)
	if err != nil {
		return nil, err
	}
	return toReservationDTOs(reservations), nil
}

// --- Helpers ---

func (s *ReservationService) publish(ctx context.Context, eventType string, res *reservation.Reservation) {
	if s.publisher == nil {
		return
	}
	payload := ReservationEvent{
		ID:        res.ID().String(),
		ServiceID: res.ServiceID(),
		BarberID:  res.BarberID(),
		Start:     res.StartTime(),
		Status:    res.Status().String(),
	}
	event, err := kafka.NewCloudEvent(eventSource, eventType, payload)
	if err != nil {
		s.logger.Error("failed to build reservation event", zap.Error(err))
		return
	}
	if err := s.publisher.PublishEvent(ctx, TopicReservationEvents, res.ID().String(), event); err != nil {
		// The lifecycle change is already committed; a lost notification is
		// logged, not rolled back.
		s.logger.Error("failed to publish reservation event",
			zap.String("type", eventType),
			zap.String("reservation_id", res.ID().String()),
			zap.Error(err),
		)
	}
}

func (s *ReservationService) countTransition(status reservation.Status) {
	if s.collector != nil {
		s.collector.StatusTransitions.WithLabelValues(status.String()).Inc()
	}
}

func (s *ReservationService) countRejection(err error) {
	if s.collector == nil {
		return
	}
	var verr *reservation.ValidationError
	if errors.As(err, &verr) {
		s.collector.ValidationRejections.WithLabelValues(verr.Rule).Inc()
	}
}

func toReservationDTO(res *reservation.Reservation) ReservationDTO {
	return ReservationDTO{
		ID:        res.ID(),
		ClientID:  res.ClientID(),
		BarberID:  res.BarberID(),
		ServiceID: res.ServiceID(),
		StartTime: res.StartTime(),
		EndTime:   res.EndTime(),
		Price:     res.Price(),
		Status:    res.Status().String(),
		Version:   res.Version(),
		CreatedAt: res.CreatedAt(),
		UpdatedAt: res.UpdatedAt(),
	}
}

func toReservationDTOs(reservations []*reservation.Reservation) []ReservationDTO {
	dtos := make([]ReservationDTO, len(reservations))
	for i, res := range reservations {
		dtos[i] = toReservationDTO(res)
	}
	return dtos
}
