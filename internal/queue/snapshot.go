package queue

import (
	"time"

	"walkin-queue-backend/internal/model"
)

// ProjectedEntry is one waiting entry with its computed wait.
type ProjectedEntry struct {
	Token                  int64     `json:"token"`
	Name                   string    `json:"name"`
	Phone                  string    `json:"phone"`
	Services               []string  `json:"services"`
	TotalDurationMinutes   int       `json:"total_duration_minutes"`
	OrderIndex             int64     `json:"order_index"`
	Position               int       `json:"position"`
	EstimatedWait          int64     `json:"estimated_wait"`
	TimeRemainingInService *int64    `json:"time_remaining_in_service,omitempty"`
	JoinedAt               time.Time `json:"joined_at"`
}

// Snapshot is the read-only projection of a salon's queue at one instant.
type Snapshot struct {
	SalonID        string           `json:"salon_id"`
	Queue          []ProjectedEntry `json:"queue"`
	PeopleWaiting  int              `json:"people_waiting"`
	SecondsLeft    int64            `json:"seconds_left"`
	ServiceStarted *time.Time       `json:"service_started_at,omitempty"`
	GeneratedAt    time.Time        `json:"generated_at"`
}

// Project computes wait estimates for entries already sorted by order_index.
// Rank 0 is in service: its remaining time is its duration minus the timer's elapsed time.
// Every later entry waits for that remainder plus the full duration of everyone between.
func Project(salonID string, entries []model.QueueEntry, state model.SalonState, now time.Time) Snapshot {
	snap := Snapshot{
		SalonID:        salonID,
		Queue:          make([]ProjectedEntry, 0, len(entries)),
		PeopleWaiting:  len(entries),
		ServiceStarted: state.ServiceStartTime,
		GeneratedAt:    now.UTC(),
	}

	var cumulative int64
	for i, e := range entries {
		p := ProjectedEntry{
			Token:                e.Token,
			Name:                 e.CustomerName,
			Phone:                e.Phone,
			Services:             e.Services,
			TotalDurationMinutes: e.TotalDurationMinutes,
			OrderIndex:           e.OrderIndex,
			Position:             i,
			JoinedAt:             e.JoinedAt,
		}

		if i == 0 {
			remaining := e.DurationSeconds() - ElapsedSeconds(state, now)
			if remaining < 0 {
				remaining = 0
			}
			p.TimeRemainingInService = &remaining
			cumulative = remaining
		} else {
			p.EstimatedWait = cumulative
			cumulative += e.DurationSeconds()
		}
		snap.Queue = append(snap.Queue, p)
	}
	snap.SecondsLeft = cumulative
	return snap
}
