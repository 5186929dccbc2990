package database

import (
	"context"
	"sync"
	"time"

	"luxverify-backend/internal/config"
	"luxverify-backend/internal/logging"
	"luxverify-backend/internal/models"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	initOnce sync.Once
	shared   *gorm.DB
	initErr  error
)

// Init opens the process-wide connection pool and migrates the schema. Later
// calls return the same handle.
func Init(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	initOnce.Do(func() {
		var db *gorm.DB
		db, initErr = Open(cfg.DatabaseDSN, cfg.DB, logger)
		if initErr != nil {
			return
		}
		if initErr = Migrate(db); initErr != nil {
			return
		}
		shared = db
		logger.Info("database connected, migration complete")
	})
	return shared, initErr
}

// Open connects without migrating.
func Open(dsn string, pool config.DBConfig, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logging.NewGormLogger(logger, gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.Tables...); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	return nil
}

// Ping is used by the health endpoint.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
