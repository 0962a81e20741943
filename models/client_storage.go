package models

import "time"

// ClientStorageItem is one persisted client-storage entry. Values are opaque
// strings, usually JSON documents.
type ClientStorageItem struct {
	Key       string    `gorm:"primaryKey;type:varchar(100)" json:"key"`
	Value     string    `gorm:"not null;type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ClientStorageItem) TableName() string {
	return "client_storage_items"
}
