// Package queue implements the per-salon walk-in queue: ordering, wait projections,
// the service timer and token allocation.
package queue

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"walkin-queue-backend/internal/catalog"
	"walkin-queue-backend/internal/lock"
	"walkin-queue-backend/internal/model"
	"walkin-queue-backend/internal/parse"
	"walkin-queue-backend/internal/store"
)

// Outcome reports what a mutating operation did.
type Outcome string

const (
	OutcomeJoined         Outcome = "joined"
	OutcomeAdvanced       Outcome = "advanced"
	OutcomeEmpty          Outcome = "empty"
	OutcomeMoved          Outcome = "moved"
	OutcomeBoundary       Outcome = "boundary"
	OutcomeServed         Outcome = "served"
	OutcomeAlreadyServing Outcome = "already_serving"
	OutcomeUpdated        Outcome = "updated"
	OutcomeCanceled       Outcome = "canceled"
	OutcomeReset          Outcome = "reset"
)

// MoveDirection is the direction of a one-step reorder.
type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

// ParseDirection accepts "up" or "down", case-insensitively.
func ParseDirection(raw string) (MoveDirection, error) {
	switch MoveDirection(strings.ToLower(strings.TrimSpace(raw))) {
	case MoveUp:
		return MoveUp, nil
	case MoveDown:
		return MoveDown, nil
	}
	return "", invalid("direction", "must be up or down")
}

// EditMode selects whether EditServices replaces or extends the service set.
type EditMode int

const (
	EditReplace EditMode = iota
	EditAdd
)

// Options tunes an Engine. Zero values fall back to defaults.
type Options struct {
	TokenFloor        int64
	InitialOrderIndex int64
	PhoneRegion       string
	HistoryLimit      int
	Now               func() time.Time
}

// Engine owns every salon's consistency domain: its waiting entries, timer and token counter.
// Each mutation holds the salon's lock and applies its reads and writes in one transaction.
type Engine struct {
	store   store.Store
	catalog catalog.Lookup
	locker  lock.Locker
	log     logrus.FieldLogger

	tokenFloor   int64
	initialOrder int64
	phoneRegion  string
	historyLimit int
	now          func() time.Time
}

// NewEngine wires an engine over its collaborators.
func NewEngine(s store.Store, c catalog.Lookup, l lock.Locker, log logrus.FieldLogger, opts Options) *Engine {
	e := &Engine{
		store:        s,
		catalog:      c,
		locker:       l,
		log:          log,
		tokenFloor:   opts.TokenFloor,
		initialOrder: opts.InitialOrderIndex,
		phoneRegion:  opts.PhoneRegion,
		historyLimit: opts.HistoryLimit,
		now:          opts.Now,
	}
	if e.tokenFloor <= 0 {
		e.tokenFloor = DefaultTokenFloor
	}
	if e.initialOrder == 0 {
		e.initialOrder = 1
	}
	if e.historyLimit <= 0 {
		e.historyLimit = 50
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// JoinRequest is a walk-in customer asking for a place in line.
type JoinRequest struct {
	SalonID  string
	Name     string
	Phone    string
	Services []string
}

// JoinResult is the new entry with its place in line at the moment it joined.
type JoinResult struct {
	model.QueueEntry
	// Position is the entry's rank; 0 means it went straight into service.
	Position      int
	EstimatedWait int64
}

// Join validates the request, allocates a token and appends the customer to the salon's queue.
func (e *Engine) Join(ctx context.Context, req JoinRequest) (JoinResult, error) {
	var res JoinResult

	salonID := strings.TrimSpace(req.SalonID)
	if salonID == "" {
		return res, invalid("salon_id", "is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return res, invalid("name", "is required")
	}
	phone, err := parse.Phone(strings.TrimSpace(req.Phone), e.phoneRegion)
	if err != nil {
		return res, invalid("phone", err.Error())
	}
	if _, err := e.store.Salon(ctx, salonID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return res, ErrSalonNotFound
		}
		return res, &StorageError{Op: "join", Err: err}
	}
	services, total, err := e.resolveServices(ctx, salonID, req.Services)
	if err != nil {
		return res, err
	}

	err = e.mutate(ctx, salonID, "join", func(tx store.Store, now time.Time) error {
		state, err := tx.State(ctx, salonID)
		if err != nil {
			return err
		}
		highest, err := tx.MaxToken(ctx, salonID)
		if err != nil {
			return err
		}
		_, maxIdx, count, err := tx.OrderBounds(ctx, salonID)
		if err != nil {
			return err
		}

		order := e.initialOrder
		if count > 0 {
			order = maxIdx + 1
		}

		entry := model.QueueEntry{
			SalonID:              salonID,
			Token:                NextToken(highest, e.tokenFloor),
			CustomerName:         name,
			Phone:                phone,
			Services:             services,
			TotalDurationMinutes: total,
			OrderIndex:           order,
			Status:               model.StatusWaiting,
			JoinedAt:             now.UTC(),
		}
		if err := tx.CreateEntry(ctx, &entry); err != nil {
			return err
		}

		state.LastToken = entry.Token
		if count == 0 {
			startTimer(&state, now)
		}
		if err := tx.SaveState(ctx, &state); err != nil {
			return err
		}

		entries, err := tx.Waiting(ctx, salonID)
		if err != nil {
			return err
		}
		res = JoinResult{QueueEntry: entry}
		for _, p := range Project(salonID, entries, state, now).Queue {
			if p.Token == entry.Token {
				res.Position = p.Position
				res.EstimatedWait = p.EstimatedWait
				break
			}
		}
		return nil
	})
	if err != nil {
		return JoinResult{}, err
	}

	e.log.WithFields(logrus.Fields{
		"op":       "join",
		"salon_id": salonID,
		"token":    res.Token,
		"minutes":  res.TotalDurationMinutes,
		"position": res.Position,
	}).Info("customer joined queue")
	return res, nil
}

// Status projects the salon's waiting entries with their estimated waits. It takes no lock.
func (e *Engine) Status(ctx context.Context, salonID string) (Snapshot, error) {
	state, entries, err := e.store.Snapshot(ctx, salonID)
	if err != nil {
		return Snapshot{}, &StorageError{Op: "status", Err: err}
	}
	return Project(salonID, entries, state, e.now()), nil
}

// History returns the most recently completed entries, newest first.
func (e *Engine) History(ctx context.Context, salonID string, limit int) ([]model.QueueHistory, error) {
	if limit <= 0 || limit > e.historyLimit {
		limit = e.historyLimit
	}
	rows, err := e.store.History(ctx, salonID, limit)
	if err != nil {
		return nil, &StorageError{Op: "history", Err: err}
	}
	return rows, nil
}

// AdvanceResult describes the effect of AdvanceToNext.
type AdvanceResult struct {
	Outcome   Outcome             `json:"outcome"`
	Completed *model.QueueHistory `json:"completed,omitempty"`
	Remaining int64               `json:"remaining"`
}

// AdvanceToNext completes the customer in service and starts the next one.
func (e *Engine) AdvanceToNext(ctx context.Context, salonID string) (AdvanceResult, error) {
	res := AdvanceResult{Outcome: OutcomeEmpty}

	err := e.mutate(ctx, salonID, "advance", func(tx store.Store, now time.Time) error {
		state, err := tx.State(ctx, salonID)
		if err != nil {
			return err
		}
		head, err := tx.Head(ctx, salonID)
		if errors.Is(err, store.ErrNotFound) {
			if state.ServiceStartTime == nil {
				return nil
			}
			clearTimer(&state)
			return tx.SaveState(ctx, &state)
		}
		if err != nil {
			return err
		}

		done, err := tx.Archive(ctx, head, now.UTC())
		if err != nil {
			return err
		}
		_, _, count, err := tx.OrderBounds(ctx, salonID)
		if err != nil {
			return err
		}

		restartOrClear(&state, count, now)
		if err := tx.SaveState(ctx, &state); err != nil {
			return err
		}

		res = AdvanceResult{Outcome: OutcomeAdvanced, Completed: &done, Remaining: count}
		return nil
	})
	if err != nil {
		return AdvanceResult{}, err
	}

	entry := e.log.WithFields(logrus.Fields{"op": "advance", "salon_id": salonID, "outcome": res.Outcome})
	if res.Completed != nil {
		entry = entry.WithField("token", res.Completed.Token)
	}
	entry.Info("queue advanced")
	return res, nil
}

// Move swaps an entry with its neighbor in the given direction. At the boundary it is a no-op.
func (e *Engine) Move(ctx context.Context, salonID string, token int64, dir MoveDirection) (Outcome, error) {
	var storeDir store.Direction
	switch dir {
	case MoveUp:
		storeDir = store.Before
	case MoveDown:
		storeDir = store.After
	default:
		return "", invalid("direction", "must be up or down")
	}

	outcome := OutcomeBoundary
	err := e.mutate(ctx, salonID, "move", func(tx store.Store, now time.Time) error {
		entry, err := tx.FindWaiting(ctx, salonID, token)
		if err != nil {
			return err
		}
		neighbor, err := tx.Neighbor(ctx, salonID, entry.OrderIndex, storeDir)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		head, err := tx.Head(ctx, salonID)
		if err != nil {
			return err
		}

		if err := tx.SetOrderIndex(ctx, entry.ID, neighbor.OrderIndex); err != nil {
			return err
		}
		if err := tx.SetOrderIndex(ctx, neighbor.ID, entry.OrderIndex); err != nil {
			return err
		}
		outcome = OutcomeMoved

		// Someone new is in service.
		if head.ID == entry.ID || head.ID == neighbor.ID {
			state, err := tx.State(ctx, salonID)
			if err != nil {
				return err
			}
			startTimer(&state, now)
			return tx.SaveState(ctx, &state)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	e.log.WithFields(logrus.Fields{
		"op":        "move",
		"salon_id":  salonID,
		"token":     token,
		"direction": dir,
		"outcome":   outcome,
	}).Info("queue entry moved")
	return outcome, nil
}

// ServeNow puts an entry ahead of the current rank 0 and restarts the service timer for it.
func (e *Engine) ServeNow(ctx context.Context, salonID string, token int64) (Outcome, error) {
	outcome := OutcomeServed
	err := e.mutate(ctx, salonID, "serve_now", func(tx store.Store, now time.Time) error {
		entry, err := tx.FindWaiting(ctx, salonID, token)
		if err != nil {
			return err
		}
		minIdx, _, _, err := tx.OrderBounds(ctx, salonID)
		if err != nil {
			return err
		}
		if entry.OrderIndex == minIdx {
			outcome = OutcomeAlreadyServing
			return nil
		}

		if err := tx.SetOrderIndex(ctx, entry.ID, minIdx-1); err != nil {
			return err
		}
		state, err := tx.State(ctx, salonID)
		if err != nil {
			return err
		}
		startTimer(&state, now)
		return tx.SaveState(ctx, &state)
	})
	if err != nil {
		return "", err
	}

	e.log.WithFields(logrus.Fields{
		"op":       "serve_now",
		"salon_id": salonID,
		"token":    token,
		"outcome":  outcome,
	}).Info("queue entry expedited")
	return outcome, nil
}

// EditResult is the entry's service set after an edit.
type EditResult struct {
	Outcome              Outcome  `json:"outcome"`
	Services             []string `json:"services"`
	TotalDurationMinutes int      `json:"total_duration_minutes"`
}

// EditServices replaces or extends an entry's services and recomputes its duration.
// Order and status are left alone.
func (e *Engine) EditServices(ctx context.Context, salonID string, token int64, services []string, mode EditMode) (EditResult, error) {
	names := parse.ServiceNames(services)
	if len(names) == 0 {
		return EditResult{}, invalid("services", "must not be empty")
	}
	durations, err := e.catalog.Durations(ctx, salonID)
	if err != nil {
		return EditResult{}, &StorageError{Op: "catalog", Err: err}
	}

	var res EditResult
	err = e.mutate(ctx, salonID, "edit_services", func(tx store.Store, _ time.Time) error {
		entry, err := tx.FindWaiting(ctx, salonID, token)
		if err != nil {
			return err
		}

		wanted := names
		if mode == EditAdd {
			wanted = parse.ServiceNames(append(append([]string{}, entry.Services...), names...))
		}
		known, total := catalog.Resolve(durations, wanted)
		if len(known) == 0 {
			return invalid("services", "none of the services are on this salon's menu")
		}
		if dropped := droppedServices(wanted, known); len(dropped) > 0 {
			e.log.WithFields(logrus.Fields{
				"salon_id": salonID,
				"token":    token,
				"dropped":  dropped,
			}).Warn("dropping services that are not on the menu")
		}

		if err := tx.SetServices(ctx, entry.ID, known, total); err != nil {
			return err
		}
		res = EditResult{Outcome: OutcomeUpdated, Services: known, TotalDurationMinutes: total}
		return nil
	})
	if err != nil {
		return EditResult{}, err
	}

	e.log.WithFields(logrus.Fields{
		"op":       "edit_services",
		"salon_id": salonID,
		"token":    token,
		"add":      mode == EditAdd,
		"minutes":  res.TotalDurationMinutes,
	}).Info("queue entry services updated")
	return res, nil
}

// Cancel removes a waiting entry without recording history.
func (e *Engine) Cancel(ctx context.Context, salonID string, token int64) (Outcome, error) {
	err := e.mutate(ctx, salonID, "cancel", func(tx store.Store, now time.Time) error {
		entry, err := tx.FindWaiting(ctx, salonID, token)
		if err != nil {
			return err
		}
		head, err := tx.Head(ctx, salonID)
		if err != nil {
			return err
		}
		if err := tx.DeleteEntry(ctx, entry.ID); err != nil {
			return err
		}
		if head.ID != entry.ID {
			return nil
		}

		_, _, count, err := tx.OrderBounds(ctx, salonID)
		if err != nil {
			return err
		}
		state, err := tx.State(ctx, salonID)
		if err != nil {
			return err
		}
		restartOrClear(&state, count, now)
		return tx.SaveState(ctx, &state)
	})
	if err != nil {
		return "", err
	}

	e.log.WithFields(logrus.Fields{
		"op":       "cancel",
		"salon_id": salonID,
		"token":    token,
	}).Info("queue entry canceled")
	return OutcomeCanceled, nil
}

// Reset clears the salon's waiting entries, its timer and optionally its history.
// The token counter is kept so tokens are not reissued.
func (e *Engine) Reset(ctx context.Context, salonID string, includeHistory bool) (int64, error) {
	var removed int64
	err := e.mutate(ctx, salonID, "reset", func(tx store.Store, _ time.Time) error {
		n, err := tx.Reset(ctx, salonID, includeHistory)
		removed = n
		return err
	})
	if err != nil {
		return 0, err
	}

	e.log.WithFields(logrus.Fields{
		"op":              "reset",
		"salon_id":        salonID,
		"removed":         removed,
		"include_history": includeHistory,
	}).Warn("salon queue reset")
	return removed, nil
}

func (e *Engine) resolveServices(ctx context.Context, salonID string, raw []string) ([]string, int, error) {
	names := parse.ServiceNames(raw)
	if len(names) == 0 {
		return nil, 0, invalid("services", "must not be empty")
	}
	durations, err := e.catalog.Durations(ctx, salonID)
	if err != nil {
		return nil, 0, &StorageError{Op: "catalog", Err: err}
	}
	known, total := catalog.Resolve(durations, names)
	if len(known) == 0 {
		return nil, 0, invalid("services", "none of the services are on this salon's menu")
	}
	if dropped := droppedServices(names, known); len(dropped) > 0 {
		e.log.WithFields(logrus.Fields{"salon_id": salonID, "dropped": dropped}).Debug("ignoring unknown services")
	}
	return known, total, nil
}

// droppedServices lists the names in wanted that did not survive menu resolution.
func droppedServices(wanted, known []string) []string {
	kept := make(map[string]bool, len(known))
	for _, k := range known {
		kept[k] = true
	}
	var dropped []string
	for _, w := range wanted {
		if !kept[w] {
			dropped = append(dropped, w)
		}
	}
	return dropped
}

// mutate runs fn in the salon's critical section and a single transaction.
// Any error rolls the transaction back.
func (e *Engine) mutate(ctx context.Context, salonID, op string, fn func(tx store.Store, now time.Time) error) error {
	if strings.TrimSpace(salonID) == "" {
		return invalid("salon_id", "is required")
	}

	unlock, err := e.locker.Lock(ctx, salonID)
	if err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{"op": op, "salon_id": salonID}).Warn("failed to lock salon queue")
		return classify(op, err)
	}
	defer unlock()

	now := e.now()
	err = e.store.InTx(ctx, func(tx store.Store) error {
		return fn(tx, now)
	})
	if err = classify(op, err); err != nil {
		var serr *StorageError
		if errors.As(err, &serr) {
			e.log.WithError(err).WithFields(logrus.Fields{"op": op, "salon_id": salonID}).Error("queue operation failed")
		}
		return err
	}
	return nil
}
