package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog entry. Sizes, colors and images are stored as JSON text so the
// schema stays portable across postgres, mysql and sqlite.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string          `json:"name" gorm:"type:varchar(200);not null"`
	Brand       string          `json:"brand" gorm:"type:varchar(100);index"`
	Category    string          `json:"category" gorm:"type:varchar(100);index"`
	Description string          `json:"description" gorm:"type:text"`
	Gender      string          `json:"gender" gorm:"type:varchar(20)"`
	Sizes       []string        `json:"sizes" gorm:"serializer:json;type:text"`
	Colors      []string        `json:"colors" gorm:"serializer:json;type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(16,2);not null"`
	Stock       int             `json:"stock" gorm:"not null;default:0"`
	SoldCount   int             `json:"soldCount" gorm:"not null;default:0"`
	Rating      *float64        `json:"rating"`
	IsFeatured  bool            `json:"isFeatured" gorm:"not null;default:false;index"`
	Images      []string        `json:"images" gorm:"serializer:json;type:text"`
	Reviews     []Review        `json:"reviews,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// FirstImage returns the cover image or an empty string.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
