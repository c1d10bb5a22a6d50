package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address is a shipping address. At most one address per user has IsDefault set.
type Address struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string    `json:"userId" gorm:"type:varchar(36);not null;index"`
	Name       string    `json:"name" gorm:"type:varchar(100)"`
	Address    string    `json:"address" gorm:"type:varchar(255)"`
	City       string    `json:"city" gorm:"type:varchar(100)"`
	Country    string    `json:"country" gorm:"type:varchar(100)"`
	PostalCode string    `json:"postalCode" gorm:"type:varchar(20)"`
	Phone      string    `json:"phone" gorm:"type:varchar(30)"`
	IsDefault  bool      `json:"isDefault" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
