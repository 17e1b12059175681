package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"walkin-queue-backend/internal/model"
)

// CatalogStore persists salons and their service menus.
type CatalogStore interface {
	UpsertSalons(ctx context.Context, salons []model.Salon) error
	Salons(ctx context.Context) ([]model.Salon, error)
	Salon(ctx context.Context, salonID string) (model.Salon, error)
	ServiceDurations(ctx context.Context, salonID string) (map[string]int, error)
}

// UpsertSalons writes salons and their menus, keyed by salon id and (salon_id, name).
func (s *gormStore) UpsertSalons(ctx context.Context, salons []model.Salon) error {
	if len(salons) == 0 {
		return nil
	}

	var services []model.Service
	salonRows := make([]model.Salon, 0, len(salons))
	for _, salon := range salons {
		for _, svc := range salon.Menu {
			svc.SalonID = salon.ID
			services = append(services, svc)
		}
		salonRows = append(salonRows, model.Salon{ID: salon.ID, Name: salon.Name})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).Create(&salonRows).Error; err != nil {
			return errors.Wrap(err, "batch upsert salons failed")
		}

		if len(services) == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "salon_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"duration_minutes", "price", "updated_at"}),
		}).Create(&services).Error; err != nil {
			return errors.Wrap(err, "batch upsert services failed")
		}
		return nil
	})
}

func (s *gormStore) Salons(ctx context.Context) ([]model.Salon, error) {
	var salons []model.Salon
	if err := s.db.WithContext(ctx).
		Preload("Menu", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Order("name ASC").
		Find(&salons).Error; err != nil {
		return nil, errors.Wrap(err, "list salons")
	}
	return salons, nil
}

func (s *gormStore) Salon(ctx context.Context, salonID string) (model.Salon, error) {
	var salon model.Salon
	err := s.db.WithContext(ctx).
		Preload("Menu", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Where("id = ?", salonID).
		First(&salon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return salon, ErrNotFound
	}
	if err != nil {
		return salon, errors.Wrapf(err, "load salon %s", salonID)
	}
	return salon, nil
}

// ServiceDurations maps service name to duration in minutes for one salon.
func (s *gormStore) ServiceDurations(ctx context.Context, salonID string) (map[string]int, error) {
	var services []model.Service
	if err := s.db.WithContext(ctx).
		Select("name", "duration_minutes").
		Where("salon_id = ?", salonID).
		Find(&services).Error; err != nil {
		return nil, errors.Wrapf(err, "load menu of salon %s", salonID)
	}

	durations := make(map[string]int, len(services))
	for _, svc := range services {
		durations[svc.Name] = svc.DurationMinutes
	}
	return durations, nil
}
