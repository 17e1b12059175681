package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Salon is one location with its own queue, timer and token sequence.
type Salon struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:256;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`

	// Associations
	Menu []Service `gorm:"foreignKey:SalonID" json:"menu"`
}

// Service is a menu item of a salon. DurationMinutes feeds the wait projection.
type Service struct {
	ID              int64           `gorm:"primaryKey" json:"-"`
	SalonID         string          `gorm:"size:64;not null;uniqueIndex:idx_services_salon_name" json:"-"`
	Name            string          `gorm:"size:128;not null;uniqueIndex:idx_services_salon_name" json:"name"`
	DurationMinutes int             `gorm:"not null" json:"duration_minutes"`
	Price           decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	CreatedAt       time.Time       `json:"-"`
	UpdatedAt       time.Time       `json:"-"`
}
