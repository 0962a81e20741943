package storage

import (
	"context"
	"errors"

	"rewards-dashboard/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DB stores items in the client_storage_items table.
type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

func (s *DB) GetItem(ctx context.Context, key string) (string, bool, error) {
	var item models.ClientStorageItem
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return item.Value, true, nil
}

func (s *DB) SetItem(ctx context.Context, key, value string) error {
	item := models.ClientStorageItem{Key: key, Value: value}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&item).Error
}

func (s *DB) RemoveItem(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&models.ClientStorageItem{}).Error
}
