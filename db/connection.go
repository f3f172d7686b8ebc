package db

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection opens the session storage database. The default DSN is an
// in-memory sqlite database, so nothing outlives the process.
func NewConnection(dsn string, lgr *slog.Logger) (*gorm.DB, error) {
	dblgr := logger.New(
		slog.NewLogLogger(lgr.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: dblgr})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", errors.WithStack(err))
	}

	err = db.AutoMigrate(&SessionEntry{})
	if err != nil {
		return nil, fmt.Errorf("auto-migrating database: %w", errors.WithStack(err))
	}

	return db, nil
}
