package repositories

import (
	"context"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

// ProductFilter narrows the client catalog listing. Empty sets match everything.
type ProductFilter struct {
	Categories []string
	Brands     []string
	Sizes      []string
	Colors     []string
	MinPrice   decimal.Decimal
	MaxPrice   *decimal.Decimal
	SortBy     string
	SortOrder  string
	Page       int
	Limit      int
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetWithReviews(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	ListFiltered(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	ListFeatured(ctx context.Context) ([]models.Product, error)
	SetFeatured(ctx context.Context, ids []string) error
	CountByIDs(ctx context.Context, ids []string) (int64, error)
}
