package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pizza-ordering-api/catalog"
	"pizza-ordering-api/checkout"
	"pizza-ordering-api/config"
	"pizza-ordering-api/handlers"
	"pizza-ordering-api/logger"
	"pizza-ordering-api/metrics"
	"pizza-ordering-api/orders"
	"pizza-ordering-api/routes"
	"pizza-ordering-api/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// App is the fully wired service.
type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Catalog  *catalog.Store
	Orders   *orders.Store
	Sessions *session.Manager
	Metrics  *metrics.Metrics
	Engine   *gin.Engine

	// sweep is set when sessions live in process memory.
	sweep   *session.MemoryStore
	closers []func() error
}

// Build opens storage, imports the legacy order file into an empty store and
// assembles the HTTP engine. reg may be nil to skip metric registration.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger, reg prometheus.Registerer) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	a := &App{Config: cfg}

	db, err := config.OpenDB(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	fail := func(err error) (*App, error) {
		_ = a.Close()
		return nil, err
	}

	if a.Catalog, err = catalog.NewStore(ctx, db, log); err != nil {
		return fail(fmt.Errorf("loading catalog: %w", err))
	}

	a.Orders = orders.NewStore(db, log, orders.WithMirror(cfg.Orders.MirrorFile))
	if imported, err := a.Orders.MigrateLegacy(ctx, cfg.Orders.LegacyFile); err != nil {
		return fail(fmt.Errorf("migrating legacy orders: %w", err))
	} else if imported > 0 {
		log.Info(log.WithField(ctx, "imported", imported), "orders.legacy_migrated")
	}

	store, err := a.sessionStore(ctx)
	if err != nil {
		return fail(err)
	}
	a.Sessions, err = session.NewManager(store, session.Options{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.Secure,
	})
	if err != nil {
		return fail(err)
	}
	if cfg.Session.UsingDevSecret {
		log.Warn(ctx, "SESSION_SECRET is not set; using the development fallback. Do not use this in production.")
	}
	if !cfg.Admin.LoginEnabled() {
		log.Warn(ctx, "ADMIN_PASSWORD_HASH not set; admin login is disabled.")
	}

	a.Metrics = metrics.New(reg)
	checkoutSvc := checkout.NewService(a.Orders, cfg.App.TaxRate, log, a.Metrics)

	h := handlers.New(handlers.Deps{
		DB:       db,
		Catalog:  a.Catalog,
		Orders:   a.Orders,
		Checkout: checkoutSvc,
		Sessions: a.Sessions,
		Metrics:  a.Metrics,
		Log:      log,
		TaxRate:  cfg.App.TaxRate,
		Admin:    cfg.Admin,
	})
	a.Engine = routes.NewEngine(h, a.Sessions, a.Metrics, log)
	return a, nil
}

func (a *App) sessionStore(ctx context.Context) (session.Store, error) {
	if a.Config.Session.Store != config.SessionStoreRedis {
		mem := session.NewMemoryStore()
		a.sweep = mem
		return mem, nil
	}
	client, err := session.DialRedis(ctx, a.Config.Session.RedisURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	return session.NewRedisStore(client), nil
}

// RunSweeper expires in-memory sessions until ctx is done. It returns at once
// when sessions are kept in redis.
func (a *App) RunSweeper(ctx context.Context) {
	if a.sweep != nil {
		a.sweep.Run(ctx, time.Minute)
	}
}

// Close releases storage handles in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
