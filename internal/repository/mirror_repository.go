package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sw3-barbershop/service-reservation/internal/domain/mirror"
)

// BarberModel is the GORM model for the barbers mirror table.
type BarberModel struct {
	BarberID  string    `gorm:"size:64;primaryKey"`
	Name      string    `gorm:"size:120"`
	Available bool      `gorm:"not null;default:true"`
	Active    bool      `gorm:"not null;default:true"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BarberModel) TableName() string { return "barbers" }

// BarberServiceModel is the GORM model for the barber/service relation.
type BarberServiceModel struct {
	BarberID  string `gorm:"size:64;primaryKey"`
	ServiceID string `gorm:"size:64;primaryKey"`
	Active    bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for the GORM model.
func (BarberServiceModel) TableName() string { return "barber_services" }

// ServiceModel is the GORM model for the services mirror table.
type ServiceModel struct {
	ServiceID       string    `gorm:"size:64;primaryKey"`
	Price           float64   `gorm:"not null"`
	DurationMinutes int       `gorm:"not null"`
	Active          bool      `gorm:"not null;default:true"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ServiceModel) TableName() string { return "services" }

// WorkShiftModel is the GORM model for the work_shifts mirror table. The
// composite unique index makes shift upserts naturally idempotent.
type WorkShiftModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	BarberID    string `gorm:"size:64;not null;uniqueIndex:idx_work_shifts_window,priority:1"`
	Weekday     int    `gorm:"not null;uniqueIndex:idx_work_shifts_window,priority:2"`
	StartMinute int    `gorm:"not null;uniqueIndex:idx_work_shifts_window,priority:3"`
	EndMinute   int    `gorm:"not null;uniqueIndex:idx_work_shifts_window,priority:4"`
}

// TableName returns the table name for the GORM model.
func (WorkShiftModel) TableName() string { return "work_shifts" }

// GormMirrorStore is the GORM-based implementation of mirror.Store.
type GormMirrorStore struct {
	db *gorm.DB
}

// NewGormMirrorStore creates a new GormMirrorStore.
func NewGormMirrorStore(db *gorm.DB) *GormMirrorStore {
	return &GormMirrorStore{db: db}
}

// UpsertBarber inserts or fully replaces the barber row and its offered
// service set in one transaction. Applying the same event twice yields the
// same state as applying it once.
func (s *GormMirrorStore) UpsertBarber(ctx context.Context, b mirror.Barber) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := BarberModel{
			BarberID:  b.BarberID,
			Name:      b.Name,
			Available: b.Available,
			Active:    b.Active,
			UpdatedAt: time.Now().UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "barber_id"}},
			UpdateAll: true,
		}).Create(&model).Error; err != nil {
			return fmt.Errorf("upserting barber: %w", err)
		}

		if err := tx.Where("barber_id = ?", b.BarberID).Delete(&BarberServiceModel{}).Error; err != nil {
			return fmt.Errorf("clearing barber services: %w", err)
		}
		if len(b.Services) == 0 {
			return nil
		}
		rows := make([]BarberServiceModel, len(b.Services))
		for i, svc := range b.Services {
			rows[i] = BarberServiceModel{BarberID: b.BarberID, ServiceID: svc.ServiceID, Active: svc.Active}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("inserting barber services: %w", err)
		}
		return nil
	})
}

// DeleteBarber removes the barber row, its service set, and its shifts.
func (s *GormMirrorStore) DeleteBarber(ctx context.Context, barberID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("barber_id = ?", barberID).Delete(&BarberServiceModel{}).Error; err != nil {
			return fmt.Errorf("deleting barber services: %w", err)
		}
		if err := tx.Where("barber_id = ?", barberID).Delete(&WorkShiftModel{}).Error; err != nil {
			return fmt.Errorf("deleting barber shifts: %w", err)
		}
		if err := tx.Where("barber_id = ?", barberID).Delete(&BarberModel{}).Error; err != nil {
			return fmt.Errorf("deleting barber: %w", err)
		}
		return nil
	})
}

// UpsertService inserts or fully replaces the service row.
func (s *GormMirrorStore) UpsertService(ctx context.Context, svc mirror.Service) error {
	model := ServiceModel{
		ServiceID:       svc.ServiceID,
		Price:           svc.Price,
		DurationMinutes: svc.DurationMinutes,
		Active:          svc.Active,
		UpdatedAt:       time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "service_id"}},
		UpdateAll: true,
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("upserting service: %w", err)
	}
	return nil
}

// DeleteService removes the service row.
func (s *GormMirrorStore) DeleteService(ctx context.Context, serviceID string) error {
	if err := s.db.WithContext(ctx).Where("service_id = ?", serviceID).Delete(&ServiceModel{}).Error; err != nil {
		return fmt.Errorf("deleting service: %w", err)
	}
	return nil
}

// UpsertShift inserts the shift window unless an identical one exists.
func (s *GormMirrorStore) UpsertShift(ctx context.Context, w mirror.WorkShift) error {
	model := WorkShiftModel{
		BarberID:    w.BarberID,
		Weekday:     int(w.Weekday),
		StartMinute: w.StartMinute,
		EndMinute:   w.EndMinute,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "barber_id"}, {Name: "weekday"}, {Name: "start_minute"}, {Name: "end_minute"},
		},
		DoNothing: true,
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("upserting work shift: %w", err)
	}
	return nil
}

// ReplaceShifts atomically replaces all of the barber's shift windows.
func (s *GormMirrorStore) ReplaceShifts(ctx context.Context, barberID string, shifts []mirror.WorkShift) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("barber_id = ?", barberID).Delete(&WorkShiftModel{}).Error; err != nil {
			return fmt.Errorf("clearing work shifts: %w", err)
		}
		if len(shifts) == 0 {
			return nil
		}
		rows := make([]WorkShiftModel, len(shifts))
		for i, w := range shifts {
			rows[i] = WorkShiftModel{
				BarberID:    barberID,
				Weekday:     int(w.Weekday),
				StartMinute: w.StartMinute,
				EndMinute:   w.EndMinute,
			}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("inserting work shifts: %w", err)
		}
		return nil
	})
}

// BarberByID retrieves a barber with its offered service set.
func (s *GormMirrorStore) BarberByID(ctx context.Context, barberID string) (*mirror.Barber, error) {
	var model BarberModel
	if err := s.db.WithContext(ctx).Where("barber_id = ?", barberID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, mirror.ErrNotFound
		}
		return nil, fmt.Errorf("finding barber: %w", err)
	}

	var relations []BarberServiceModel
	if err := s.db.WithContext(ctx).Where("barber_id = ?", barberID).Find(&relations).Error; err != nil {
		return nil, fmt.Errorf("finding barber services: %w", err)
	}

	services := make([]mirror.BarberService, len(relations))
	for i, rel := range relations {
		services[i] = mirror.BarberService{ServiceID: rel.ServiceID, Active: rel.Active}
	}
	return &mirror.Barber{
		BarberID:  model.BarberID,
		Name:      model.Name,
		Available: model.Available,
		Active:    model.Active,
		Services:  services,
	}, nil
}

// ServiceByID retrieves a service.
func (s *GormMirrorStore) ServiceByID(ctx context.Context, serviceID string) (*mirror.Service, error) {
	var model ServiceModel
	if err := s.db.WithContext(ctx).Where("service_id = ?", serviceID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, mirror.ErrNotFound
		}
		return nil, fmt.Errorf("finding service: %w", err)
	}
	return &mirror.Service{
		ServiceID:       model.ServiceID,
		Price:           model.Price,
		DurationMinutes: model.DurationMinutes,
		Active:          model.Active,
	}, nil
}

// ShiftsFor retrieves the barber's windows for a weekday.
func (s *GormMirrorStore) ShiftsFor(ctx context.Context, barberID string, weekday time.Weekday) ([]mirror.WorkShift, error) {
	var models []WorkShiftModel
	err := s.db.WithContext(ctx).
		Where("barber_id = ? AND weekday = ?", barberID, int(weekday)).
		Order("start_minute ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("finding work shifts: %w", err)
	}

	shifts := make([]mirror.WorkShift, len(models))
	for i, m := range models {
		shifts[i] = mirror.WorkShift{
			BarberID:    m.BarberID,
			Weekday:     time.Weekday(m.Weekday),
			StartMinute: m.StartMinute,
			EndMinute:   m.EndMinute,
		}
	}
	return shifts, nil
}
