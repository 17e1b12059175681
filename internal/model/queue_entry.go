package model

import "time"

// EntryStatus is the lifecycle state of a queue entry.
type EntryStatus string

const (
	StatusWaiting   EntryStatus = "waiting"
	StatusCompleted EntryStatus = "completed"
)

// QueueEntry is a waiting customer in a salon's active queue (hot table).
type QueueEntry struct {
	ID                   int64       `gorm:"primaryKey" json:"id"`
	SalonID              string      `gorm:"size:64;not null;uniqueIndex:idx_entries_salon_token;index:idx_entries_salon_order" json:"salon_id"`
	Token                int64       `gorm:"not null;uniqueIndex:idx_entries_salon_token" json:"token"`
	CustomerName         string      `gorm:"size:128;not null" json:"name"`
	Phone                string      `gorm:"size:10;not null" json:"phone"`
	Services             []string    `gorm:"serializer:json;type:text;not null" json:"services"`
	TotalDurationMinutes int         `gorm:"not null" json:"total_duration_minutes"`
	OrderIndex           int64       `gorm:"not null;index:idx_entries_salon_order" json:"order_index"`
	Status               EntryStatus `gorm:"size:16;not null" json:"status"`
	JoinedAt             time.Time   `gorm:"not null" json:"joined_at"`
}

// DurationSeconds is the full service time of the entry.
func (e QueueEntry) DurationSeconds() int64 {
	return int64(e.TotalDurationMinutes) * 60
}

// QueueHistory is a completed entry (cold table).
type QueueHistory struct {
	ID                   int64       `gorm:"primaryKey" json:"id"`
	SalonID              string      `gorm:"size:64;not null;uniqueIndex:idx_histories_salon_token;index:idx_histories_salon_completed" json:"salon_id"`
	Token                int64       `gorm:"not null;uniqueIndex:idx_histories_salon_token" json:"token"`
	CustomerName         string      `gorm:"size:128;not null" json:"name"`
	Phone                string      `gorm:"size:10;not null" json:"phone"`
	Services             []string    `gorm:"serializer:json;type:text;not null" json:"services"`
	TotalDurationMinutes int         `gorm:"not null" json:"total_duration_minutes"`
	Status               EntryStatus `gorm:"size:16;not null" json:"status"`
	JoinedAt             time.Time   `gorm:"not null" json:"joined_at"`
	CompletedAt          time.Time   `gorm:"not null;index:idx_histories_salon_completed" json:"completed_at"`
}

// SalonState is the per-salon consistency anchor: the service timer and the token high-water mark.
type SalonState struct {
	SalonID          string `gorm:"primaryKey;size:64"`
	ServiceStartTime *time.Time
	LastToken        int64 `gorm:"not null;default:0"`
	UpdatedAt        time.Time
}
