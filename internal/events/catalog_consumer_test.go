package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sw3-barbershop/service-reservation/internal/application"
	"github.com/sw3-barbershop/service-reservation/internal/domain/mirror"
	"github.com/sw3-barbershop/service-reservation/pkg/kafka"
)

// memoryStore is an in-memory mirror.Store for consumer tests.
type memoryStore struct {
	barbers  map[string]mirror.Barber
	services map[string]mirror.Service
	shifts   map[string][]mirror.WorkShift
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		barbers:  make(map[string]mirror.Barber),
		services: make(map[string]mirror.Service),
		shifts:   make(map[string][]mirror.WorkShift),
	}
}

func (m *memoryStore) UpsertBarber(_ context.Context, b mirror.Barber) error {
	m.barbers[b.BarberID] = b
	return nil
}

func (m *memoryStore) DeleteBarber(_ context.Context, barberID string) error {
	delete(m.barbers, barberID)
	delete(m.shifts, barberID)
	return nil
}

func (m *memoryStore) UpsertService(_ context.Context, svc mirror.Service) error {
	m.services[svc.ServiceID] = svc
	return nil
}

func (m *memoryStore) DeleteService(_ context.Context, serviceID string) error {
	delete(m.services, serviceID)
	return nil
}

func (m *memoryStore) UpsertShift(_ context.Context, w mirror.WorkShift) error {
	for _, existing := range m.shifts[w.BarberID] {
		if existing == w {
			return nil
		}
	}
	m.shifts[w.BarberID] = append(m.shifts[w.BarberID], w)
	return nil
}

func (m *memoryStore) ReplaceShifts(_ context.Context, barberID string, shifts []mirror.WorkShift) error {
	m.shifts[barberID] = shifts
	return nil
}

func (m *memoryStore) BarberByID(_ context.Context, barberID string) (*mirror.Barber, error) {
	b, ok := m.barbers[barberID]
	if !ok {
		return nil, mirror.ErrNotFound
	}
	return &b, nil
}

func (m *memoryStore) ServiceByID(_ context.Context, serviceID string) (*mirror.Service, error) {
	svc, ok := m.services[serviceID]
	if !ok {
		return nil, mirror.ErrNotFound
	}
	return &svc, nil
}

func (m *memoryStore) ShiftsFor(_ context.Context, barberID string, weekday time.Weekday) ([]mirror.WorkShift, error) {
	var out []mirror.WorkShift
	for _, w := range m.shifts[barberID] {
		if w.Weekday == weekday {
			out = append(out, w)
		}
	}
	return out, nil
}

func newTestConsumer(t *testing.T) (*CatalogEventConsumer, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	service := application.NewMirrorService(store, nil, zap.NewNop())
	return &CatalogEventConsumer{service: service, logger: zap.NewNop()}, store
}

func message(t *testing.T, eventType string, payload any) kafkago.Message {
	t.Helper()
	event, err := kafka.NewCloudEvent("service-staff", eventType, payload)
	require.NoError(t, err)
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return kafkago.Message{Value: raw}
}

func TestCatalogConsumer_BarberUpserted(t *testing.T) {
	consumer, store := newTestConsumer(t)

	msg := message(t, EventBarberUpserted, BarberEvent{
		BarberID:  "barber-1",
		Name:      "Sam",
		Available: true,
		Active:    true,
		Services:  []BarberServiceEvent{{ServiceID: "cut", Active: true}},
	})
	require.NoError(t, consumer.handleMessage(context.Background(), msg))

	barber, err := store.BarberByID(context.Background(), "barber-1")
	require.NoError(t, err)
	assert.Equal(t, "Sam", barber.Name)
	assert.True(t, barber.Offers("cut"))
}

func TestCatalogConsumer_BarberUpserted_Idempotent(t *testing.T) {
	consumer, store := newTestConsumer(t)

	msg := message(t, EventBarberUpserted, BarberEvent{
		BarberID: "barber-1", Name: "Sam", Active: true,
		Services: []BarberServiceEvent{{ServiceID: "cut", Active: true}},
	})
	require.NoError(t, consumer.handleMessage(context.Background(), msg))
	require.NoError(t, consumer.handleMessage(context.Background(), msg))

	barber, err := store.BarberByID(context.Background(), "barber-1")
	require.NoError(t, err)
	assert.Len(t, barber.Services, 1)
}

func TestCatalogConsumer_BarberDeleted(t *testing.T) {
	consumer, store := newTestConsumer(t)

	require.NoError(t, consumer.handleMessage(context.Background(),
		message(t, EventBarberUpserted, BarberEvent{BarberID: "barber-1", Active: true})))
	require.NoError(t, consumer.handleMessage(context.Background(),
		message(t, EventBarberDeleted, BarberDeletedEvent{BarberID: "barber-1"})))

	_, err := store.BarberByID(context.Background(), "barber-1")
	assert.ErrorIs(t, err, mirror.ErrNotFound)
}

func TestCatalogConsumer_ServiceEvents(t *testing.T) {
	consumer, store := newTestConsumer(t)

	require.NoError(t, consumer.handleMessage(context.Background(),
		message(t, EventServiceUpserted, ServiceEvent{
			ServiceID: "cut", Price: 30, DurationMinutes: 35, Active: true,
		})))

	svc, err := store.ServiceByID(context.Background(), "cut")
	require.NoError(t, err)
	assert.Equal(t, 35, svc.DurationMinutes)

	require.NoError(t, consumer.handleMessage(context.Background(),
		message(t, EventServiceDeleted, ServiceDeletedEvent{ServiceID: "cut"})))

	_, err = store.ServiceByID(context.Background(), "cut")
	assert.ErrorIs(t, err, mirror.ErrNotFound)
}

func TestCatalogConsumer_ShiftUpserted(t *testing.T) {
	consumer, store := newTestConsumer(t)

	msg := message(t, EventShiftUpserted, ShiftEvent{
		BarberID:  "barber-1",
		DayOfWeek: "monday",
		Start:     "09:00",
		End:       "17:00",
	})
	require.NoError(t, consumer.handleMessage(context.Background(), msg))

	shifts, err := store.ShiftsFor(context.Background(), "barber-1", time.Monday)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, 9*60, shifts[0].StartMinute)
	assert.Equal(t, 17*60, shifts[0].EndMinute)
}

func TestCatalogConsumer_ShiftsReplaced(t *testing.T) {
	consumer, store := newTestConsumer(t)

	require.NoError(t, consumer.handleMessage(context.Background(),
		message(t, EventShiftUpserted, ShiftEvent{
			BarberID: "barber-1", DayOfWeek: "MONDAY", Start: "09:00", End: "12:00",
		})))

	require.NoError(t, consumer.handleMessage(context.Background(),
		message(t, EventShiftsReplaced, ShiftsReplacedEvent{
			BarberID: "barber-1",
			Shifts: []ShiftEvent{
				{BarberID: "barber-1", DayOfWeek: "TUESDAY", Start: "13:00", End: "18:00"},
			},
		})))

	monday, err := store.ShiftsFor(context.Background(), "barber-1", time.Monday)
	require.NoError(t, err)
	assert.Empty(t, monday)

	tuesday, err := store.ShiftsFor(context.Background(), "barber-1", time.Tuesday)
	require.NoError(t, err)
	require.Len(t, tuesday, 1)
	assert.Equal(t, 13*60, tuesday[0].StartMinute)
}

func TestCatalogConsumer_DropsBadMessages(t *testing.T) {
	consumer, store := newTestConsumer(t)

	// Not a CloudEvent at all.
	require.NoError(t, consumer.handleMessage(context.Background(),
		kafkago.Message{Value: []byte("not json")}))

	// Valid envelope, unparsable shift window.
	require.NoError(t, consumer.handleMessage(context.Background(),
		message(t, EventShiftUpserted, ShiftEvent{
			BarberID: "barber-1", DayOfWeek: "FUNDAY", Start: "09:00", End: "17:00",
		})))

	// Unknown event types are ignored.
	require.NoError(t, consumer.handleMessage(context.Background(),
		message(t, "payment.settled", map[string]string{"id": "x"})))

	shifts, err := store.ShiftsFor(context.Background(), "barber-1", time.Monday)
	require.NoError(t, err)
	assert.Empty(t, shifts)
}
