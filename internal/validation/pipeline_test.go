package validation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw3-barbershop/service-reservation/internal/domain/mirror"
	"github.com/sw3-barbershop/service-reservation/internal/domain/reservation"
)

// fakeMirrorStore is an in-memory mirror.Store for pipeline tests.
type fakeMirrorStore struct {
	barbers  map[string]*mirror.Barber
	services map[string]*mirror.Service
	shifts   map[string][]mirror.WorkShift
}

func newFakeMirrorStore() *fakeMirrorStore {
	return &fakeMirrorStore{
		barbers:  make(map[string]*mirror.Barber),
		services: make(map[string]*mirror.Service),
		shifts:   make(map[string][]mirror.WorkShift),
	}
}

func (f *fakeMirrorStore) UpsertBarber(_ context.Context, b mirror.Barber) error {
	f.barbers[b.BarberID] = &b
	return nil
}

func (f *fakeMirrorStore) DeleteBarber(_ context.Context, barberID string) error {
	delete(f.barbers, barberID)
	delete(f.shifts, barberID)
	return nil
}

func (f *fakeMirrorStore) UpsertService(_ context.Context, svc mirror.Service) error {
	f.services[svc.ServiceID] = &svc
	return nil
}

func (f *fakeMirrorStore) DeleteService(_ context.Context, serviceID string) error {
	delete(f.services, serviceID)
	return nil
}

func (f *fakeMirrorStore) UpsertShift(_ context.Context, w mirror.WorkShift) error {
	for _, existing := range f.shifts[w.BarberID] {
		if existing == w {
			return nil
		}
	}
	f.shifts[w.BarberID] = append(f.shifts[w.BarberID], w)
	return nil
}

func (f *fakeMirrorStore) ReplaceShifts(_ context.Context, barberID string, shifts []mirror.WorkShift) error {
	f.shifts[barberID] = shifts
	return nil
}

func (f *fakeMirrorStore) BarberByID(_ context.Context, barberID string) (*mirror.Barber, error) {
	b, ok := f.barbers[barberID]
	if !ok {
		return nil, mirror.ErrNotFound
	}
	return b, nil
}

func (f *fakeMirrorStore) ServiceByID(_ context.Context, serviceID string) (*mirror.Service, error) {
	svc, ok := f.services[serviceID]
	if !ok {
		return nil, mirror.ErrNotFound
	}
	return svc, nil
}

func (f *fakeMirrorStore) ShiftsFor(_ context.Context, barberID string, weekday time.Weekday) ([]mirror.WorkShift, error) {
	var out []mirror.WorkShift
	for _, w := range f.shifts[barberID] {
		if w.Weekday == weekday {
			out = append(out, w)
		}
	}
	return out, nil
}

// fakeOverlapIndex is an in-memory OverlapIndex for pipeline tests.
type fakeOverlapIndex struct {
	reservations []*reservation.Reservation
}

func (f *fakeOverlapIndex) FindOverlapping(_ context.Context, barberID string, start, end time.Time, excludeID uuid.UUID) ([]*reservation.Reservation, error) {
	var out []*reservation.Reservation
	for _, res := range f.reservations {
		if res.BarberID() != barberID || res.Status() == reservation.StatusCancelled {
			continue
		}
		if excludeID != uuid.Nil && res.ID() == excludeID {
			continue
		}
		if res.StartTime().Before(end) && res.EndTime().After(start) {
			out = append(out, res)
		}
	}
	return out, nil
}

// Monday 2026-03-02, a fixed reference week.
var testMonday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func fixedNow() time.Time {
	return testMonday.Add(-24 * time.Hour)
}

func seedCatalog(t *testing.T, store *fakeMirrorStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.UpsertService(ctx, mirror.Service{
		ServiceID: "cut", Price: 30, DurationMinutes: 35, Active: true,
	}))
	require.NoError(t, store.UpsertBarber(ctx, mirror.Barber{
		BarberID: "barber-1", Name: "Sam", Available: true, Active: true,
		Services: []mirror.BarberService{{ServiceID: "cut", Active: true}},
	}))
	require.NoError(t, store.UpsertShift(ctx, mirror.WorkShift{
		BarberID: "barber-1", Weekday: time.Monday, StartMinute: 9 * 60, EndMinute: 17 * 60,
	}))
}

func validCreateRequest() *Request {
	return &Request{
		ClientID:  "client-1",
		BarberID:  "barber-1",
		ServiceID: "cut",
		StartTime: testMonday.Add(9 * time.Hour),
		Price:     30,
	}
}

func TestCreatePipeline_AcceptsValidRequest(t *testing.T) {
	store := newFakeMirrorStore()
	seedCatalog(t, store)
	pipeline := NewCreatePipeline(store, &fakeOverlapIndex{}, fixedNow)

	req := validCreateRequest()
	require.NoError(t, pipeline.Run(context.Background(), req))

	// 35-minute service occupies four 10-minute blocks.
	assert.Equal(t, req.StartTime.Add(40*time.Minute), req.EndTime)
	require.NotNil(t, req.Service)
	assert.Equal(t, 35, req.Service.DurationMinutes)
}

func TestCreatePipeline_RejectionRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(store *fakeMirrorStore, req *Request)
		rule   string
	}{
		{
			name:   "missing client",
			mutate: func(_ *fakeMirrorStore, req *Request) { req.ClientID = "" },
			rule:   RuleRequiredFields,
		},
		{
			name:   "non-positive price",
			mutate: func(_ *fakeMirrorStore, req *Request) { req.Price = 0 },
			rule:   RuleRequiredFields,
		},
		{
			name:   "start in the past",
			mutate: func(_ *fakeMirrorStore, req *Request) { req.StartTime = fixedNow().Add(-time.Hour) },
			rule:   RuleTimeConsistency,
		},
		{
			name:   "unknown service",
			mutate: func(_ *fakeMirrorStore, req *Request) { req.ServiceID = "perm" },
			rule:   RuleServiceExists,
		},
		{
			name: "inactive service",
			mutate: func(store *fakeMirrorStore, _ *Request) {
				store.services["cut"].Active = false
			},
			rule: RuleServiceExists,
		},
		{
			name:   "unknown barber",
			mutate: func(_ *fakeMirrorStore, req *Request) { req.BarberID = "barber-9" },
			rule:   RuleBarberOffersService,
		},
		{
			name: "barber does not offer the service",
			mutate: func(store *fakeMirrorStore, _ *Request) {
				store.barbers["barber-1"].Services = nil
			},
			rule: RuleBarberOffersService,
		},
		{
			name: "inactive barber",
			mutate: func(store *fakeMirrorStore, _ *Request) {
				store.barbers["barber-1"].Active = false
			},
			rule: RuleBarberOffersService,
		},
		{
			name: "outside working shift",
			mutate: func(_ *fakeMirrorStore, req *Request) {
				req.StartTime = testMonday.Add(16*time.Hour + 30*time.Minute)
			},
			rule: RuleWithinWorkingShift,
		},
		{
			name: "no shifts that weekday",
			mutate: func(_ *fakeMirrorStore, req *Request) {
				req.StartTime = testMonday.Add(24*time.Hour + 9*time.Hour)
			},
			rule: RuleWithinWorkingShift,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeMirrorStore()
			seedCatalog(t, store)
			req := validCreateRequest()
			tt.mutate(store, req)

			pipeline := NewCreatePipeline(store, &fakeOverlapIndex{}, fixedNow)
			err := pipeline.Run(context.Background(), req)

			var verr *reservation.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.rule, verr.Rule)
		})
	}
}

func TestCreatePipeline_RejectsOverlap(t *testing.T) {
	store := newFakeMirrorStore()
	seedCatalog(t, store)

	existingStart := testMonday.Add(9 * time.Hour)
	existing, err := reservation.NewReservation(
		"client-2", "barber-1", "cut",
		existingStart, existingStart.Add(40*time.Minute), 30,
	)
	require.NoError(t, err)
	overlaps := &fakeOverlapIndex{reservations: []*reservation.Reservation{existing}}

	pipeline := NewCreatePipeline(store, overlaps, fixedNow)

	// Same barber, intersecting slot.
	req := validCreateRequest()
	req.StartTime = existingStart.Add(30 * time.Minute)
	runErr := pipeline.Run(context.Background(), req)
	var verr *reservation.ValidationError
	require.ErrorAs(t, runErr, &verr)
	assert.Equal(t, RuleNoOverlap, verr.Rule)

	// Back-to-back slots share only the boundary instant and do not overlap.
	req = validCreateRequest()
	req.StartTime = existingStart.Add(40 * time.Minute)
	require.NoError(t, pipeline.Run(context.Background(), req))
}

func TestCreatePipeline_CancelledReservationDoesNotBlock(t *testing.T) {
	store := newFakeMirrorStore()
	seedCatalog(t, store)

	existingStart := testMonday.Add(9 * time.Hour)
	existing, err := reservation.NewReservation(
		"client-2", "barber-1", "cut",
		existingStart, existingStart.Add(40*time.Minute), 30,
	)
	require.NoError(t, err)
	require.NoError(t, existing.Cancel(fixedNow()))
	overlaps := &fakeOverlapIndex{reservations: []*reservation.Reservation{existing}}

	pipeline := NewCreatePipeline(store, overlaps, fixedNow)
	req := validCreateRequest()
	require.NoError(t, pipeline.Run(context.Background(), req))
}

func TestCreatePipeline_StopsAtFirstFailure(t *testing.T) {
	store := newFakeMirrorStore()
	seedCatalog(t, store)

	// Both the client ID and the service are invalid; the earlier rule wins.
	req := validCreateRequest()
	req.ClientID = ""
	req.ServiceID = "perm"

	pipeline := NewCreatePipeline(store, &fakeOverlapIndex{}, fixedNow)
	err := pipeline.Run(context.Background(), req)

	var verr *reservation.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, RuleRequiredFields, verr.Rule)
}

func TestReschedulePipeline(t *testing.T) {
	store := newFakeMirrorStore()
	seedCatalog(t, store)

	existingStart := testMonday.Add(9 * time.Hour)
	existing, err := reservation.NewReservation(
		"client-1", "barber-1", "cut",
		existingStart, existingStart.Add(40*time.Minute), 30,
	)
	require.NoError(t, err)
	overlaps := &fakeOverlapIndex{reservations: []*reservation.Reservation{existing}}

	pipeline := NewReschedulePipeline(store, overlaps, fixedNow)

	t.Run("own slot does not conflict with itself", func(t *testing.T) {
		req := &RescheduleRequest{
			ReservationID: existing.ID(),
			BarberID:      "barber-1",
			StartTime:     existingStart.Add(10 * time.Minute),
			EndTime:       existingStart.Add(50 * time.Minute),
		}
		require.NoError(t, pipeline.Run(context.Background(), req))
	})

	t.Run("conflicts with another reservation", func(t *testing.T) {
		req := &RescheduleRequest{
			ReservationID: uuid.New(),
			BarberID:      "barber-1",
			StartTime:     existingStart.Add(10 * time.Minute),
			EndTime:       existingStart.Add(50 * time.Minute),
		}
		runErr := pipeline.Run(context.Background(), req)
		var verr *reservation.ValidationError
		require.ErrorAs(t, runErr, &verr)
		assert.Equal(t, RuleNoOverlap, verr.Rule)
	})

	t.Run("end before start", func(t *testing.T) {
		req := &RescheduleRequest{
			ReservationID: existing.ID(),
			BarberID:      "barber-1",
			StartTime:     existingStart.Add(time.Hour),
			EndTime:       existingStart,
		}
		runErr := pipeline.Run(context.Background(), req)
		var verr *reservation.ValidationError
		require.ErrorAs(t, runErr, &verr)
		assert.Equal(t, RuleTimeConsistency, verr.Rule)
	})

	t.Run("outside working shift", func(t *testing.T) {
		req := &RescheduleRequest{
			ReservationID: existing.ID(),
			BarberID:      "barber-1",
			StartTime:     testMonday.Add(20 * time.Hour),
			EndTime:       testMonday.Add(20*time.Hour + 40*time.Minute),
		}
		runErr := pipeline.Run(context.Background(), req)
		var verr *reservation.ValidationError
		require.ErrorAs(t, runErr, &verr)
		assert.Equal(t, RuleWithinWorkingShift, verr.Rule)
	})
}
