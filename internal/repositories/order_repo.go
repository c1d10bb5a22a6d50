package repositories

import (
	"context"

	"storefront/internal/models"
)

// PlaceOrderOptions tunes the order placement transaction.
type PlaceOrderOptions struct {
	// AllowBackorder lets stock go negative instead of rejecting the order.
	AllowBackorder bool
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	PlaceOrder(ctx context.Context, order *models.Order, opts PlaceOrderOptions) error
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id, status string) error
	HasDeliveredPurchase(ctx context.Context, userID, orderID, productID string) (bool, error)
}
