package config

import (
	"context"
	"fmt"
	"time"

	"pizza-ordering-api/logger"
	"pizza-ordering-api/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// gormWriter sends gorm's warnings and errors to the service logger.
type gormWriter struct {
	log *logger.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	ctx := w.log.WithField(context.Background(), "component", "gorm")
	w.log.Warn(ctx, fmt.Sprintf(format, args...))
}

// OpenDB connects to the configured database and migrates every table. log
// may be nil.
func OpenDB(cfg DBConfig, log *logger.Logger) (*gorm.DB, error) {
	if log == nil {
		log = logger.Nop()
	}
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres:
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		})
	case DriverSQLite, "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(gormWriter{log: log}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	if cfg.Driver == DriverPostgres {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	} else {
		// sqlite allows one writer; serialize through a single connection
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.BuilderConfigRecord{},
		&models.PresetItem{},
		&models.Order{},
		&models.OrderStatusHistory{},
	)
	if err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}
