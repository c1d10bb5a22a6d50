package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Coupon is a percentage discount code. UsageCount only ever increases.
type Coupon struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code            string    `json:"code" gorm:"uniqueIndex;type:varchar(50);not null"`
	DiscountPercent int       `json:"discountPercent" gorm:"not null"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	UsageLimit      int       `json:"usageLimit" gorm:"not null"`
	UsageCount      int       `json:"usageCount" gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (c *Coupon) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
