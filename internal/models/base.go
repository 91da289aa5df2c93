package models

import (
	"time"

	"tirelire/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for all tables.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// SoftDeleteBase is Base plus a soft-delete marker. Rows are never
// hard-deleted through normal flow; the default GORM scope hides
// deleted rows from every query.
type SoftDeleteBase struct {
	Base
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
