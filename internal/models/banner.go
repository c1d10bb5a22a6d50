package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FeatureBanner is a promotional image shown on the storefront home page.
type FeatureBanner struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ImageURL  string    `json:"imageUrl" gorm:"type:varchar(500);not null"`
	CreatedAt time.Time `json:"createdAt"`
}

func (b *FeatureBanner) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}
