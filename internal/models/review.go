package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a rating left by a user for a product bought in a delivered order.
type Review struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string         `json:"userId" gorm:"type:varchar(36);not null;uniqueIndex:idx_review_purchase"`
	ProductID string         `json:"productId" gorm:"type:varchar(36);not null;uniqueIndex:idx_review_purchase;index"`
	OrderID   string         `json:"orderId" gorm:"type:varchar(36);not null;uniqueIndex:idx_review_purchase"`
	Rating    int            `json:"rating" gorm:"not null"`
	Title     string         `json:"title" gorm:"type:varchar(200)"`
	Comment   string         `json:"comment" gorm:"type:text"`
	User      *UserSummary   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Product   *ReviewProduct `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Order     *Order         `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// ReviewProduct is the product projection embedded in review listings.
type ReviewProduct struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Images []string `json:"images" gorm:"serializer:json"`
}

func (ReviewProduct) TableName() string { return "products" }
