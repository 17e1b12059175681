package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"walkin-queue-backend/internal/model"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// Direction selects a neighbor in queue order.
type Direction int

const (
	Before Direction = iota // lower order_index
	After                   // higher order_index
)

// Store defines the interface for all database operations.
type Store interface {
	QueueStore
	CatalogStore
}

// QueueStore persists active entries, history and per-salon state.
type QueueStore interface {
	// InTx runs fn inside one transaction; fn must only use the Store it is given.
	InTx(ctx context.Context, fn func(tx Store) error) error

	Waiting(ctx context.Context, salonID string) ([]model.QueueEntry, error)
	FindWaiting(ctx context.Context, salonID string, token int64) (model.QueueEntry, error)
	Head(ctx context.Context, salonID string) (model.QueueEntry, error)
	Neighbor(ctx context.Context, salonID string, orderIndex int64, dir Direction) (model.QueueEntry, error)
	OrderBounds(ctx context.Context, salonID string) (min, max int64, count int64, err error)
	MaxToken(ctx context.Context, salonID string) (int64, error)

	State(ctx context.Context, salonID string) (model.SalonState, error)
	SaveState(ctx context.Context, state *model.SalonState) error

	CreateEntry(ctx context.Context, entry *model.QueueEntry) error
	SetOrderIndex(ctx context.Context, entryID, orderIndex int64) error
	SetServices(ctx context.Context, entryID int64, services []string, totalMinutes int) error
	DeleteEntry(ctx context.Context, entryID int64) error
	Archive(ctx context.Context, entry model.QueueEntry, completedAt time.Time) (model.QueueHistory, error)
	Reset(ctx context.Context, salonID string, includeHistory bool) (int64, error)

	History(ctx context.Context, salonID string, limit int) ([]model.QueueHistory, error)
	Snapshot(ctx context.Context, salonID string) (model.SalonState, []model.QueueEntry, error)
	PurgeHistory(ctx context.Context, before time.Time) (int64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func (s *gormStore) Waiting(ctx context.Context, salonID string) ([]model.QueueEntry, error) {
	var entries []model.QueueEntry
	if err := s.db.WithContext(ctx).
		Where("salon_id = ? AND status = ?", salonID, model.StatusWaiting).
		Order("order_index ASC").
		Find(&entries).Error; err != nil {
		return nil, errors.Wrapf(err, "list waiting entries for salon %s", salonID)
	}
	return entries, nil
}

func (s *gormStore) FindWaiting(ctx context.Context, salonID string, token int64) (model.QueueEntry, error) {
	var entry model.QueueEntry
	err := s.db.WithContext(ctx).
		Where("salon_id = ? AND token = ? AND status = ?", salonID, token, model.StatusWaiting).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entry, ErrNotFound
	}
	if err != nil {
		return entry, errors.Wrapf(err, "find token %d in salon %s", token, salonID)
	}
	return entry, nil
}

// Head returns the waiting entry with the lowest order_index.
func (s *gormStore) Head(ctx context.Context, salonID string) (model.QueueEntry, error) {
	var entry model.QueueEntry
	err := s.db.WithContext(ctx).
		Where("salon_id = ? AND status = ?", salonID, model.StatusWaiting).
		Order("order_index ASC").
		Limit(1).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entry, ErrNotFound
	}
	if err != nil {
		return entry, errors.Wrapf(err, "head of salon %s", salonID)
	}
	return entry, nil
}

// Neighbor returns the closest waiting entry before or after orderIndex, using the (salon_id, order_index) index.
func (s *gormStore) Neighbor(ctx context.Context, salonID string, orderIndex int64, dir Direction) (model.QueueEntry, error) {
	q := s.db.WithContext(ctx).Where("salon_id = ? AND status = ?", salonID, model.StatusWaiting)
	if dir == Before {
		q = q.Where("order_index < ?", orderIndex).Order("order_index DESC")
	} else {
		q = q.Where("order_index > ?", orderIndex).Order("order_index ASC")
	}

	var entry model.QueueEntry
	err := q.Limit(1).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entry, ErrNotFound
	}
	if err != nil {
		return entry, errors.Wrapf(err, "neighbor lookup in salon %s", salonID)
	}
	return entry, nil
}

func (s *gormStore) OrderBounds(ctx context.Context, salonID string) (int64, int64, int64, error) {
	var row struct {
		MinIndex sql.NullInt64
		MaxIndex sql.NullInt64
		Total    int64
	}
	if err := s.db.WithContext(ctx).
		Model(&model.QueueEntry{}).
		Select("MIN(order_index) AS min_index, MAX(order_index) AS max_index, COUNT(*) AS total").
		Where("salon_id = ? AND status = ?", salonID, model.StatusWaiting).
		Scan(&row).Error; err != nil {
		return 0, 0, 0, errors.Wrapf(err, "order bounds for salon %s", salonID)
	}
	return row.MinIndex.Int64, row.MaxIndex.Int64, row.Total, nil
}

// MaxToken is the highest token ever issued for the salon across state, active and history.
func (s *gormStore) MaxToken(ctx context.Context, salonID string) (int64, error) {
	var active, history sql.NullInt64
	if err := s.db.WithContext(ctx).Model(&model.QueueEntry{}).
		Select("MAX(token)").Where("salon_id = ?", salonID).Scan(&active).Error; err != nil {
		return 0, errors.Wrapf(err, "max active token for salon %s", salonID)
	}
	if err := s.db.WithContext(ctx).Model(&model.QueueHistory{}).
		Select("MAX(token)").Where("salon_id = ?", salonID).Scan(&history).Error; err != nil {
		return 0, errors.Wrapf(err, "max history token for salon %s", salonID)
	}
	state, err := s.State(ctx, salonID)
	if err != nil {
		return 0, err
	}

	max := state.LastToken
	if active.Int64 > max {
		max = active.Int64
	}
	if history.Int64 > max {
		max = history.Int64
	}
	return max, nil
}

// State returns the salon's state row, or a zero state when none was written yet.
func (s *gormStore) State(ctx context.Context, salonID string) (model.SalonState, error) {
	var state model.SalonState
	err := s.db.WithContext(ctx).Where("salon_id = ?", salonID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.SalonState{SalonID: salonID}, nil
	}
	if err != nil {
		return state, errors.Wrapf(err, "load state for salon %s", salonID)
	}
	return state, nil
}

func (s *gormStore) SaveState(ctx context.Context, state *model.SalonState) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "salon_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"service_start_time", "last_token", "updated_at"}),
	}).Create(state).Error; err != nil {
		return errors.Wrapf(err, "save state for salon %s", state.SalonID)
	}
	return nil
}

func (s *gormStore) CreateEntry(ctx context.Context, entry *model.QueueEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return errors.Wrapf(err, "create entry %d in salon %s", entry.Token, entry.SalonID)
	}
	return nil
}

func (s *gormStore) SetOrderIndex(ctx context.Context, entryID, orderIndex int64) error {
	if err := s.db.WithContext(ctx).Model(&model.QueueEntry{}).
		Where("id = ?", entryID).
		Update("order_index", orderIndex).Error; err != nil {
		return errors.Wrapf(err, "set order index of entry %d", entryID)
	}
	return nil
}

func (s *gormStore) SetServices(ctx context.Context, entryID int64, services []string, totalMinutes int) error {
	if err := s.db.WithContext(ctx).Model(&model.QueueEntry{ID: entryID}).
		Select("services", "total_duration_minutes").
		Updates(model.QueueEntry{Services: services, TotalDurationMinutes: totalMinutes}).Error; err != nil {
		return errors.Wrapf(err, "set services of entry %d", entryID)
	}
	return nil
}

func (s *gormStore) DeleteEntry(ctx context.Context, entryID int64) error {
	if err := s.db.WithContext(ctx).Delete(&model.QueueEntry{}, entryID).Error; err != nil {
		return errors.Wrapf(err, "delete entry %d", entryID)
	}
	return nil
}

// Archive moves a served entry from the active table into history.
func (s *gormStore) Archive(ctx context.Context, entry model.QueueEntry, completedAt time.Time) (model.QueueHistory, error) {
	history := model.QueueHistory{
		SalonID:              entry.SalonID,
		Token:                entry.Token,
		CustomerName:         entry.CustomerName,
		Phone:                entry.Phone,
		Services:             entry.Services,
		TotalDurationMinutes: entry.TotalDurationMinutes,
		Status:               model.StatusCompleted,
		JoinedAt:             entry.JoinedAt,
		CompletedAt:          completedAt,
	}

	if err := s.db.WithContext(ctx).Create(&history).Error; err != nil {
		return history, errors.Wrapf(err, "archive token %d of salon %s", entry.Token, entry.SalonID)
	}
	if err := s.DeleteEntry(ctx, entry.ID); err != nil {
		return history, err
	}
	return history, nil
}

// Reset removes the salon's active entries (and optionally history) and stops its timer.
// The token high-water mark is kept so tokens are never reissued.
func (s *gormStore) Reset(ctx context.Context, salonID string, includeHistory bool) (int64, error) {
	db := s.db.WithContext(ctx)

	res := db.Where("salon_id = ?", salonID).Delete(&model.QueueEntry{})
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "clear active entries of salon %s", salonID)
	}
	if includeHistory {
		if err := db.Where("salon_id = ?", salonID).Delete(&model.QueueHistory{}).Error; err != nil {
			return 0, errors.Wrapf(err, "clear history of salon %s", salonID)
		}
	}
	if err := db.Model(&model.SalonState{}).
		Where("salon_id = ?", salonID).
		Update("service_start_time", nil).Error; err != nil {
		return 0, errors.Wrapf(err, "clear timer of salon %s", salonID)
	}
	return res.RowsAffected, nil
}

func (s *gormStore) History(ctx context.Context, salonID string, limit int) ([]model.QueueHistory, error) {
	var history []model.QueueHistory
	q := s.db.WithContext(ctx).Where("salon_id = ?", salonID).Order("completed_at DESC, token DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&history).Error; err != nil {
		return nil, errors.Wrapf(err, "list history of salon %s", salonID)
	}
	return history, nil
}

// Snapshot reads the state and the waiting entries from one consistent read transaction.
func (s *gormStore) Snapshot(ctx context.Context, salonID string) (model.SalonState, []model.QueueEntry, error) {
	var (
		state   model.SalonState
		entries []model.QueueEntry
	)

	var opts []*sql.TxOptions
	if s.db.Dialector.Name() == "postgres" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := &gormStore{db: tx}
		var err error
		if state, err = inner.State(ctx, salonID); err != nil {
			return err
		}
		entries, err = inner.Waiting(ctx, salonID)
		return err
	}, opts...)
	return state, entries, err
}

func (s *gormStore) PurgeHistory(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("completed_at < ?", before).Delete(&model.QueueHistory{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "purge history")
	}
	return res.RowsAffected, nil
}
