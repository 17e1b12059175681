package retention

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walkin-queue-backend/config"
	"walkin-queue-backend/internal/model"
	"walkin-queue-backend/internal/store"
	"walkin-queue-backend/internal/testutil"
)

type mockPurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (m *mockPurger) PurgeHistory(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs = append(m.cutoffs, before)
	return 1, m.err
}

func (m *mockPurger) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cutoffs)
}

func TestSweepOnce_Cutoff(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	p := &mockPurger{}
	s := NewSweeper(config.RetentionConfig{Enabled: true, MaxAge: 24 * time.Hour}, p, testutil.Logger())
	s.now = func() time.Time { return now }

	assert.Equal(t, int64(1), s.SweepOnce(context.Background()))
	require.Len(t, p.cutoffs, 1)
	assert.Equal(t, now.Add(-24*time.Hour), p.cutoffs[0])

	p.err = errors.New("db down")
	assert.Equal(t, int64(0), s.SweepOnce(context.Background()))
}

func TestSweepOnce_PurgesOnlyOldHistory(t *testing.T) {
	gdb := testutil.OpenSQLite(t)
	st := store.NewGormStore(gdb)
	now := time.Now().UTC()

	rows := []model.QueueHistory{
		{SalonID: "a", Token: 101, CustomerName: "old", Phone: "9876543210", Services: []string{"Haircut"}, TotalDurationMinutes: 20, Status: model.StatusCompleted, JoinedAt: now.Add(-49 * time.Hour), CompletedAt: now.Add(-48 * time.Hour)},
		{SalonID: "a", Token: 102, CustomerName: "new", Phone: "9876543210", Services: []string{"Shave"}, TotalDurationMinutes: 10, Status: model.StatusCompleted, JoinedAt: now.Add(-2 * time.Hour), CompletedAt: now.Add(-time.Hour)},
	}
	require.NoError(t, gdb.Create(&rows).Error)

	s := NewSweeper(config.RetentionConfig{Enabled: true, MaxAge: 24 * time.Hour}, st, testutil.Logger())
	assert.Equal(t, int64(1), s.SweepOnce(context.Background()))

	left, err := st.History(context.Background(), "a", 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, int64(102), left[0].Token)
}

func TestRun_DisabledAndCanceled(t *testing.T) {
	p := &mockPurger{}
	NewSweeper(config.RetentionConfig{Enabled: false}, p, testutil.Logger()).Run(context.Background())
	assert.Equal(t, 0, p.calls())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s := NewSweeper(config.RetentionConfig{Enabled: true, Interval: time.Hour, MaxAge: time.Hour}, p, testutil.Logger())
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return p.calls() == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
