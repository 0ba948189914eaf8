package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sw3-barbershop/service-reservation/internal/domain/reservation"
)

// ReservationModel is the GORM model for the reservations table.
type ReservationModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ClientID  string    `gorm:"size:64;not null;index"`
	BarberID  string    `gorm:"size:64;not null;index:idx_reservations_barber_window,priority:1"`
	ServiceID string    `gorm:"size:64;not null;index"`
	StartTime time.Time `gorm:"not null;index:idx_reservations_barber_window,priority:2"`
	EndTime   time.Time `gorm:"not null"`
	Price     float64   `gorm:"not null"`
	Status    string    `gorm:"size:20;not null;index"`
	Version   int64     `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ReservationModel) TableName() string {
	return "reservations"
}

// GormReservationRepository is the GORM-based implementation of
// reservation.Repository.
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository.
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// lockBarber serializes writers for one barber within the transaction. The
// advisory lock closes the check-then-write race without contending across
// barbers; it is released automatically at commit or rollback.
func lockBarber(tx *gorm.DB, barberID string) error {
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", barberID).Error; err != nil {
		return fmt.Errorf("acquiring barber lock: %w", err)
	}
	return nil
}

func overlapQuery(tx *gorm.DB, barberID string, start, end time.Time, excludeID uuid.UUID) *gorm.DB {
	q := tx.Model(&ReservationModel{}).
		Where("barber_id = ? AND status <> ?", barberID, reservation.StatusCancelled.String()).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	return q
}

// Create persists a new reservation inside a transaction that re-checks the
// overlap condition under the per-barber lock.
func (r *GormReservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	model := toReservationModel(res)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockBarber(tx, res.BarberID()); err != nil {
			return err
		}

		var conflicting int64
		if err := overlapQuery(tx, res.BarberID(), res.StartTime(), res.EndTime(), uuid.Nil).
			Count(&conflicting).Error; err != nil {
			return fmt.Errorf("checking overlap: %w", err)
		}
		if conflicting > 0 {
			return reservation.ErrOverlap
		}

		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("saving reservation: %w", err)
		}
		return nil
	})
}

// Update persists changes to an existing reservation with optimistic locking.
func (r *GormReservationRepository) Update(ctx context.Context, res *reservation.Reservation) error {
	model := toReservationModel(res)

	expectedVersion := res.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&ReservationModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":     model.Status,
			"start_time": model.StartTime,
			"end_time":   model.EndTime,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("updating reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return reservation.NewConflictError("reservation was modified by another transaction")
	}
	return nil
}

// UpdateTimes persists a reschedule, re-checking overlap under the per-barber
// lock while excluding the reservation itself.
func (r *GormReservationRepository) UpdateTimes(ctx context.Context, res *reservation.Reservation) error {
	model := toReservationModel(res)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockBarber(tx, res.BarberID()); err != nil {
			return err
		}

		var conflicting int64
		if err := overlapQuery(tx, res.BarberID(), res.StartTime(), res.EndTime(), res.ID()).
			Count(&conflicting).Error; err != nil {
			return fmt.Errorf("checking overlap: %w", err)
		}
		if conflicting > 0 {
			return reservation.ErrOverlap
		}

		expectedVersion := res.Version() - 1
		result := tx.Model(&ReservationModel{}).
			Where("id = ? AND version = ?", model.ID, expectedVersion).
			Updates(map[string]interface{}{
				"start_time": model.StartTime,
				"end_time":   model.EndTime,
				"version":    model.Version,
				"updated_at": model.UpdatedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("updating reservation times: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return reservation.NewConflictError("reservation was modified by another transaction")
		}
		return nil
	})
}

// Delete permanently removes a reservation.
func (r *GormReservationRepository) Delete(ctx context.Context, res *reservation.Reservation) error {
	if err := r.db.WithContext(ctx).Delete(&ReservationModel{}, "id = ?", res.ID()).Error; err != nil {
		return fmt.Errorf("deleting reservation: %w", err)
	}
	return nil
}

// FindByID retrieves a reservation by its unique identifier.
func (r *GormReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	var model ReservationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reservation.NewNotFoundOrNotOwnedError(id.String())
		}
		return nil, fmt.Errorf("finding reservation by ID: %w", err)
	}
	return toDomainReservation(&model)
}

// FindByIDAndClient retrieves a reservation scoped to its owning client.
func (r *GormReservationRepository) FindByIDAndClient(ctx context.Context, id uuid.UUID, clientID string) (*reservation.Reservation, error) {
	var model ReservationModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND client_id = ?", id, clientID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reservation.NewNotFoundOrNotOwnedError(id.String())
		}
		return nil, fmt.Errorf("finding reservation by ID and client: %w", err)
	}
	return toDomainReservation(&model)
}

// FindOverlapping returns non-CANCELLED reservations for the barber whose
// interval strictly intersects [start, end).
func (r *GormReservationRepository) FindOverlapping(ctx context.Context, barberID string, start, end time.Time, excludeID uuid.UUID) ([]*reservation.Reservation, error) {
	var models []ReservationModel
	if err := overlapQuery(r.db.WithContext(ctx), barberID, start, end, excludeID).
		Order("start_time ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("finding overlapping reservations: %w", err)
	}
	return toDomainReservations(models)
}

// ExistsFutureByBarber reports whether the barber has any non-CANCELLED
// reservation starting after now.
func (r *GormReservationRepository) ExistsFutureByBarber(ctx context.Context, barberID string, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ReservationModel{}).
		Where("barber_id = ? AND status <> ? AND start_time > ?",
			barberID, reservation.StatusCancelled.String(), now).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking future reservations by barber: %w", err)
	}
	return count > 0, nil
}

// ExistsFutureByService reports whether the service has any non-CANCELLED
// reservation starting after now.
func (r *GormReservationRepository) ExistsFutureByService(ctx context.Context, serviceID string, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ReservationModel{}).
		Where("service_id = ? AND status <> ? AND start_time > ?",
			serviceID, reservation.StatusCancelled.String(), now).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking future reservations by service: %w", err)
	}
	return count > 0, nil
}

// FindActiveByClient returns the client's upcoming reservations.
func (r *GormReservationRepository) FindActiveByClient(ctx context.Context, clientID string, now time.Time) ([]*reservation.Reservation, error) {
	var models []ReservationModel
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND start_time > ?", clientID, now).
		Order("start_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("finding active reservations by client: %w", err)
	}
	return toDomainReservations(models)
}

// FindHistoryByClient returns the client's past reservations.
func (r *GormReservationRepository) FindHistoryByClient(ctx context.Context, clientID string, now time.Time) ([]*reservation.Reservation, error) {
	var models []ReservationModel
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND start_time <= ?", clientID, now).
		Order("start_time DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("finding reservation history by client: %w", err)
	}
	return toDomainReservations(models)
}

// FindByBarberAndDay returns the barber's reservations for one calendar day.
func (r *GormReservationRepository) FindByBarberAndDay(ctx context.Context, barberID string, day time.Time) ([]*reservation.Reservation, error) {
	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	var models []ReservationModel
	err := r.db.WithContext(ctx).
		Where("barber_id = ? AND start_time >= ? AND start_time < ?", barberID, startOfDay, endOfDay).
		Order("start_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("finding reservations by barber and day: %w", err)
	}
	return toDomainReservations(models)
}

// ListAll retrieves all reservations with pagination.
func (r *GormReservationRepository) ListAll(ctx context.Context, page, limit int) ([]*reservation.Reservation, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReservationModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting reservations: %w", err)
	}

	var models []ReservationModel
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Order("start_time DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing reservations: %w", err)
	}

	reservations, err := toDomainReservations(models)
	if err != nil {
		return nil, 0, err
	}
	return reservations, total, nil
}

// --- Conversion helpers ---

func toReservationModel(res *reservation.Reservation) *ReservationModel {
	return &ReservationModel{
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

func toDomainReservation(m *ReservationModel) (*reservation.Reservation, error) {
	status, err := reservation.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return reservation.Reconstruct(
		m.ID,
		m.ClientID,
		m.BarberID,
		m.ServiceID,
		m.StartTime,
		m.EndTime,
		m.Price,
		status,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainReservations(models []ReservationModel) ([]*reservation.Reservation, error) {
	out := make([]*reservation.Reservation, len(models))
	for i, m := range models {
		res, err := toDomainReservation(&m)
		if err != nil {
			return nil, err
		}
		out[i] = res
	}
	return out, nil
}
