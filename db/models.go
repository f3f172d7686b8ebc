package db

import (
	"time"
)

const (
	KeyProvider = "ai_rm_provider"
	KeyApiKey   = "ai_rm_key"
)

// A session-scoped storage item. Rows are hard-deleted on reset, so there is
// no soft-delete column.
type SessionEntry struct {
	ID        uint   `gorm:"primarykey"`
	SessionID string `gorm:"type:varchar(64);uniqueIndex:idx_session_key"`
	Key       string `gorm:"column:item_key;type:varchar(128);uniqueIndex:idx_session_key"`
	Value     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
