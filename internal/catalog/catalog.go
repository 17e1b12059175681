// Package catalog resolves service names to durations for a salon.
package catalog

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"walkin-queue-backend/internal/model"
)

// Lookup is the service catalog consumed by the queue engine.
type Lookup interface {
	// Durations returns name -> minutes for every service of the salon.
	Durations(ctx context.Context, salonID string) (map[string]int, error)
}

// Source is the persistent side of the catalog.
type Source interface {
	ServiceDurations(ctx context.Context, salonID string) (map[string]int, error)
	UpsertSalons(ctx context.Context, salons []model.Salon) error
}

// Cached is a read-through cache over a Source.
type Cached struct {
	src   Source
	cache *cache.Cache
	ttl   time.Duration
}

// NewCached creates a catalog lookup whose entries expire after ttl.
func NewCached(src Source, ttl time.Duration) *Cached {
	return &Cached{
		src:   src,
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (c *Cached) Durations(ctx context.Context, salonID string) (map[string]int, error) {
	if v, found := c.cache.Get(salonID); found {
		return v.(map[string]int), nil
	}

	durations, err := c.src.ServiceDurations(ctx, salonID)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog lookup for salon %s", salonID)
	}
	c.cache.Set(salonID, durations, c.ttl)
	return durations, nil
}

// Seed upserts salons and drops their cached menus.
func (c *Cached) Seed(ctx context.Context, salons []model.Salon) error {
	if err := c.src.UpsertSalons(ctx, salons); err != nil {
		return err
	}
	for _, s := range salons {
		c.cache.Delete(s.ID)
	}
	return nil
}

// Resolve filters names down to those the menu knows and sums their durations.
// Unknown names are dropped.
func Resolve(durations map[string]int, names []string) (known []string, totalMinutes int) {
	known = make([]string, 0, len(names))
	for _, name := range names {
		minutes, ok := durations[name]
		if !ok {
			continue
		}
		known = append(known, name)
		totalMinutes += minutes
	}
	return known, totalMinutes
}
