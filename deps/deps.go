package deps

import (
	"log/slog"

	"gocloud.dev/blob"
	"gorm.io/gorm"
)

// Dependency provider passed by value into components.
// HARD-LIMITED to logger, DB connection and the bundle bucket. NEVER EVER expand it.
type Deps struct {
	Logger *slog.Logger
	DBC    *gorm.DB
	Files  *blob.Bucket
}

func NewDeps(logger *slog.Logger, dbc *gorm.DB, files *blob.Bucket) Deps {
	return Deps{Logger: logger, DBC: dbc, Files: files}
}
