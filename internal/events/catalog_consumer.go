// Package events consumes catalog change notifications from the staff and
// service-catalog services and feeds them into the local mirror tables.
package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sw3-barbershop/service-reservation/internal/application"
	"github.com/sw3-barbershop/service-reservation/internal/domain/mirror"
	"github.com/sw3-barbershop/service-reservation/pkg/kafka"
)

// TopicCatalogEvents carries barber, service, and work shift changes.
const TopicCatalogEvents = "catalog.events"

// Catalog event types this service reacts to.
const (
	EventBarberUpserted  = "barber.upserted"
	EventBarberDeleted   = "barber.deleted"
	EventServiceUpserted = "service.upserted"
	EventServiceDeleted  = "service.deleted"
	EventShiftUpserted   = "workshift.upserted"
	EventShiftsReplaced  = "workshift.replaced"
)

// BarberEvent mirrors the staff service's barber representation.
type BarberEvent struct {
	BarberID  string               `json:"barber_id"`
	Name      string               `json:"name"`
	Available bool                 `json:"available"`
	Active    bool                 `json:"active"`
	Services  []BarberServiceEvent `json:"services"`
}

// BarberServiceEvent is one entry of a barber's offered service set.
type BarberServiceEvent struct {
	ServiceID string `json:"service_id"`
	Active    bool   `json:"active"`
}

// BarberDeletedEvent signals the removal of a barber.
type BarberDeletedEvent struct {
	BarberID string `json:"barber_id"`
}

// ServiceEvent mirrors the catalog's service representation.
type ServiceEvent struct {
	ServiceID       string  `json:"service_id"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
	Active          bool    `json:"active"`
}

// ServiceDeletedEvent signals the removal of a service.
type ServiceDeletedEvent struct {
	ServiceID string `json:"service_id"`
}

// ShiftEvent carries one work shift window. Times are wall-clock "HH:MM".
type ShiftEvent struct {
	BarberID  string `json:"barber_id"`
	DayOfWeek string `json:"day_of_week"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

// ShiftsReplacedEvent carries the full shift set of one barber.
type ShiftsReplacedEvent struct {
	BarberID string       `json:"barber_id"`
	Shifts   []ShiftEvent `json:"shifts"`
}

var weekdays = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

// CatalogEventConsumer listens to catalog events and keeps the mirror tables
// in sync. Events that cannot be parsed or applied are logged and dropped;
// the consumer never blocks the partition on a bad message.
type CatalogEventConsumer struct {
	consumer *kafka.Consumer
	service  *application.MirrorService
	logger   *zap.Logger
}

// NewCatalogEventConsumer creates a new CatalogEventConsumer.
func NewCatalogEventConsumer(
	brokers []string,
	groupID string,
	service *application.MirrorService,
	logger *zap.Logger,
) *CatalogEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicCatalogEvents, logger)
	return &CatalogEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming catalog events. Blocks until the context is cancelled.
func (c *CatalogEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *CatalogEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *CatalogEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from catalog topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		c.service.CountDropped()
		return nil // Don't retry malformed messages
	}

	var err error
	switch cloudEvent.Type {
	case EventBarberUpserted:
		err = c.handleBarberUpserted(ctx, cloudEvent)
	case EventBarberDeleted:
		err = c.handleBarberDeleted(ctx, cloudEvent)
	case EventServiceUpserted:
		err = c.handleServiceUpserted(ctx, cloudEvent)
	case EventServiceDeleted:
		err = c.handleServiceDeleted(ctx, cloudEvent)
	case EventShiftUpserted:
		err = c.handleShiftUpserted(ctx, cloudEvent)
	case EventShiftsReplaced:
		err = c.handleShiftsReplaced(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled catalog event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}

	if err != nil {
		// Mirror sync has no retry queue; the next upsert for the same
		// entity supersedes a lost one.
		c.logger.Error("failed to apply catalog event",
			zap.String("type", cloudEvent.Type),
			zap.String("event_id", cloudEvent.ID),
			zap.Error(err),
		)
		c.service.CountDropped()
	}
	return nil
}

func (c *CatalogEventConsumer) handleBarberUpserted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt BarberEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		return err
	}
	services := make([]mirror.BarberService, len(evt.Services))
	for i, svc := range evt.Services {
		services[i] = mirror.BarberService{ServiceID: svc.ServiceID, Active: svc.Active}
	}
	return c.service.ApplyBarberUpsert(ctx, mirror.Barber{
		BarberID:  evt.BarberID,
		Name:      evt.Name,
		Available: evt.Available,
		Active:    evt.Active,
		Services:  services,
	})
}

func (c *CatalogEventConsumer) handleBarberDeleted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt BarberDeletedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		return err
	}
	return c.service.ApplyBarberDelete(ctx, evt.BarberID)
}

func (c *CatalogEventConsumer) handleServiceUpserted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt ServiceEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		return err
	}
	return c.service.ApplyServiceUpsert(ctx, mirror.Service{
		ServiceID:       evt.ServiceID,
		Price:           evt.Price,
		DurationMinutes: evt.DurationMinutes,
		Active:          evt.Active,
	})
}

func (c *CatalogEventConsumer) handleServiceDeleted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt ServiceDeletedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		return err
	}
	return c.service.ApplyServiceDelete(ctx, evt.ServiceID)
}

func (c *CatalogEventConsumer) handleShiftUpserted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt ShiftEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		return err
	}
	shift, err := toWorkShift(evt)
	if err != nil {
		return err
	}
	return c.service.ApplyShiftUpsert(ctx, shift)
}

func (c *CatalogEventConsumer) handleShiftsReplaced(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt ShiftsReplacedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		return err
	}
	shifts := make([]mirror.WorkShift, len(evt.Shifts))
	for i, raw := range evt.Shifts {
		shift, err := toWorkShift(raw)
		if err != nil {
			return err
		}
		shifts[i] = shift
	}
	return c.service.ApplyShiftReplace(ctx, evt.BarberID, shifts)
}

func toWorkShift(evt ShiftEvent) (mirror.WorkShift, error) {
	weekday, ok := weekdays[strings.ToUpper(evt.DayOfWeek)]
	if !ok {
		return mirror.WorkShift{}, &unknownWeekdayError{day: evt.DayOfWeek}
	}
	start, err := mirror.ParseClock(evt.Start)
	if err != nil {
		return mirror.WorkShift{}, err
	}
	end, err := mirror.ParseClock(evt.End)
	if err != nil {
		return mirror.WorkShift{}, err
	}
	return mirror.WorkShift{
		BarberID:    evt.BarberID,
		Weekday:     weekday,
		StartMinute: start,
		EndMinute:   end,
	}, nil
}

type unknownWeekdayError struct {
	day string
}

func (e *unknownWeekdayError) Error() string {
	return "unknown day of week: " + e.day
}
