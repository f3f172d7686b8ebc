package db

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage keeps per-session string items, the way a browser keeps
// sessionStorage.
type Storage struct {
	dbc *gorm.DB
}

func NewStorage(dbc *gorm.DB) *Storage {
	return &Storage{dbc: dbc}
}

func (s *Storage) SetItem(ctx context.Context, sessionID, key, value string) error {
	entry := SessionEntry{SessionID: sessionID, Key: key, Value: value}
	err := s.dbc.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "item_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("saving session item %s: %w", key, errors.WithStack(err))
	}
	return nil
}

// GetItem returns "" and false when the item is absent.
func (s *Storage) GetItem(ctx context.Context, sessionID, key string) (string, bool, error) {
	var entry SessionEntry
	err := s.dbc.WithContext(ctx).Where("session_id = ? AND item_key = ?", sessionID, key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("loading session item %s: %w", key, errors.WithStack(err))
	}
	return entry.Value, true, nil
}

func (s *Storage) RemoveItem(ctx context.Context, sessionID, key string) error {
	err := s.dbc.WithContext(ctx).Where("session_id = ? AND item_key = ?", sessionID, key).Delete(&SessionEntry{}).Error
	if err != nil {
		return fmt.Errorf("removing session item %s: %w", key, errors.WithStack(err))
	}
	return nil
}

// Items lists all stored items of a session.
func (s *Storage) Items(ctx context.Context, sessionID string) (map[string]string, error) {
	var entries []SessionEntry
	if err := s.dbc.WithContext(ctx).Where("session_id = ?", sessionID).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("listing session items: %w", errors.WithStack(err))
	}
	items := make(map[string]string, len(entries))
	for _, entry := range entries {
		items[entry.Key] = entry.Value
	}
	return items, nil
}
