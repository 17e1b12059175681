package queue

import (
	"time"

	"walkin-queue-backend/internal/model"
)

// The timer tracker lives on model.SalonState. Callers persist the state in the
// same transaction as the queue change that triggered it.

func startTimer(state *model.SalonState, now time.Time) {
	t := now.UTC()
	state.ServiceStartTime = &t
}

func clearTimer(state *model.SalonState) {
	state.ServiceStartTime = nil
}

// restartOrClear starts a fresh service period when someone is left in line, otherwise stops the clock.
func restartOrClear(state *model.SalonState, remaining int64, now time.Time) {
	if remaining > 0 {
		startTimer(state, now)
		return
	}
	clearTimer(state)
}

// ElapsedSeconds is the whole seconds since service started, or 0 when the timer is unset.
func ElapsedSeconds(state model.SalonState, now time.Time) int64 {
	if state.ServiceStartTime == nil {
		return 0
	}
	d := now.Sub(*state.ServiceStartTime)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
