package server

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/oshokin/commute-alarm/internal/config"
	"github.com/oshokin/commute-alarm/internal/feed"
	"github.com/oshokin/commute-alarm/internal/logger"
	"github.com/oshokin/commute-alarm/internal/notify"
	alarmrepo "github.com/oshokin/commute-alarm/internal/repository/alarms"
	"github.com/oshokin/commute-alarm/internal/repository/linecache"
	"github.com/oshokin/commute-alarm/internal/repository/postgres"
	"github.com/oshokin/commute-alarm/internal/scheduler"
	"github.com/oshokin/commute-alarm/internal/service/alarms"
	"github.com/oshokin/commute-alarm/internal/service/dispatcher"
	"github.com/oshokin/commute-alarm/internal/service/linestatus"
)

// app holds the wired daemon components.
type app struct {
	// alarmRepo persists alarm configurations.
	alarmRepo alarmrepo.Repository
	// lines is the offline-first line status repository.
	lines *linestatus.Repository
	// platform holds the armed timers.
	platform *scheduler.TimerPlatform
	// scheduler registers alarm wake-ups on platform.
	scheduler *scheduler.Scheduler
	// dispatcher handles fired triggers.
	dispatcher *dispatcher.Dispatcher
	// alarms is the alarm management service.
	alarms *alarms.Service
	// db is the PostgreSQL handle for the postgres driver, nil otherwise.
	db *sql.DB
}

// build wires every component from settings.
func build(ctx context.Context, settings *config.Config) (*app, error) {
	a := new(app)

	// Open persistence for alarms and the line cache.
	cache, err := a.openStores(ctx, settings.Store)
	if err != nil {
		return nil, err
	}

	// Create the feed client and the repository on top of the cache.
	client, err := feed.NewClient(settings.FeedURL, settings.Timeout, feed.WithAppKey(settings.AppKey))
	if err != nil {
		a.Close()

		return nil, fmt.Errorf("create feed client: %w", err)
	}

	a.lines = linestatus.New(client, cache, settings.CacheTTL)

	// Prepare notification delivery; a failing presenter is logged, not fatal.
	presenter := presenters(settings.Notify)
	if err = presenter.Setup(ctx); err != nil {
		logger.WarnKV(ctx, "Notification setup incomplete", "error", err)
	}

	// The platform needs a handler before the dispatcher exists, so it is attached afterwards.
	a.platform = scheduler.NewTimerPlatform(
		ctx,
		nil,
		scheduler.WithPrecise(settings.Precise()),
		scheduler.WithMaxRegistrations(settings.MaxRegistrations),
	)
	a.scheduler = scheduler.New(a.platform)
	a.alarms = alarms.New(a.alarmRepo, a.scheduler)

	// Post-dispatch rescheduling shares the per-alarm lock of the alarm service.
	a.dispatcher = dispatcher.New(
		a.alarmRepo,
		a.lines,
		a.scheduler,
		presenter,
		dispatcher.WithTimeout(settings.DispatchTimeout),
		dispatcher.WithLocker(a.alarms),
	)
	a.platform.SetHandler(a.dispatcher.OnTrigger)

	return a, nil
}

// openStores opens the alarm repository and returns the line cache for store.
func (a *app) openStores(ctx context.Context, store config.StoreConfig) (linecache.Store, error) {
	if store.Driver == config.DriverPostgres {
		db, err := postgres.Open(ctx, store.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}

		if err = postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()

			return nil, fmt.Errorf("migrate postgres: %w", err)
		}

		a.db = db
		a.alarmRepo = postgres.NewAlarmRepository(db)

		return postgres.NewLineCache(db), nil
	}

	repo, err := alarmrepo.NewFileRepository(filepath.Join(store.Dir, alarmrepo.DefaultFilename))
	if err != nil {
		return nil, fmt.Errorf("open alarm store: %w", err)
	}

	cache, err := linecache.NewFileStore(filepath.Join(store.Dir, linecache.DefaultFilename))
	if err != nil {
		return nil, fmt.Errorf("open line cache: %w", err)
	}

	a.alarmRepo = repo

	return cache, nil
}

// Close stops the timers and releases the database handle.
func (a *app) Close() {
	if a.platform != nil {
		a.platform.Close()
	}

	if a.db != nil {
		_ = a.db.Close()
	}
}

// presenters returns the notification chain for cfg.
func presenters(cfg config.NotifyConfig) notify.Fanout {
	chain := notify.Fanout{notify.LogPresenter{}}

	if cfg.WebhookURL != "" {
		chain = append(chain, notify.NewWebhookPresenter(cfg.WebhookURL, nil))
	}

	return chain
}
