package command

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"walkin-queue-backend/config"
	"walkin-queue-backend/internal/catalog"
	"walkin-queue-backend/internal/db"
	"walkin-queue-backend/internal/lock"
	"walkin-queue-backend/internal/queue"
	"walkin-queue-backend/internal/store"
)

// NewLogger builds the process logger from config.
func NewLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.WithField("level", cfg.Level).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// app is everything a subcommand needs to touch the queue.
type app struct {
	db      *gorm.DB
	store   store.Store
	catalog *catalog.Cached
	locker  lock.Locker
	engine  *queue.Engine
	redis   *redis.Client
}

func (a *app) Close(log logrus.FieldLogger) {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.WithError(err).Warn("failed to close redis client")
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.WithError(err).Warn("failed to close database")
		}
	}
}

// bootstrap opens storage, seeds the catalog and wires the engine.
func bootstrap(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	gdb, err := db.Init(&cfg.Database, log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize database")
	}

	a := &app{db: gdb, store: store.NewGormStore(gdb)}
	a.catalog = catalog.NewCached(a.store, cfg.Queue.CatalogCacheTTL)

	salons, err := catalog.FromConfig(cfg.Salons)
	if err != nil {
		a.Close(log)
		return nil, errors.Wrap(err, "invalid salon configuration")
	}
	if len(salons) > 0 {
		if err := a.catalog.Seed(ctx, salons); err != nil {
			a.Close(log)
			return nil, errors.Wrap(err, "failed to seed salons")
		}
		log.WithField("salons", len(salons)).Info("salon catalog seeded")
	}

	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.Close(log)
			return nil, errors.Wrapf(err, "failed to connect to redis at %s", cfg.Redis.Addr)
		}
		a.locker = lock.NewRedisLocker(a.redis, cfg.Redis.LockTTL, log)
		log.WithField("addr", cfg.Redis.Addr).Info("using redis queue locks")
	} else {
		a.locker = lock.NewLocalLocker()
		log.Info("using in-process queue locks")
	}

	a.engine = queue.NewEngine(a.store, a.catalog, a.locker, log, queue.Options{
		TokenFloor:        cfg.Queue.TokenFloor,
		InitialOrderIndex: cfg.Queue.InitialOrderIndex,
		PhoneRegion:       cfg.Queue.PhoneRegion,
		HistoryLimit:      cfg.Queue.HistoryLimit,
	})
	return a, nil
}
