package repositories

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/database"
	"storefront/internal/models"

	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// PlaceOrder writes order with its items, moves stock into the sold counter of
// every ordered product, deletes the user's cart and consumes the coupon. All
// of it commits together or not at all.
func (r *GORMOrderRepository) PlaceOrder(ctx context.Context, order *models.Order, opts PlaceOrderOptions) error {
	db := r.db.WithContext(ctx)
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for _, item := range order.Items {
			if err := decrementStock(tx, item, opts.AllowBackorder); err != nil {
				return err
			}
		}

		cartIDs := tx.Session(&gorm.Session{NewDB: true}).Model(&models.Cart{}).Select("id").Where("user_id = ?", order.UserID)
		if err := tx.Where("cart_id IN (?)", cartIDs).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart items: %w", err)
		}
		if err := tx.Where("user_id = ?", order.UserID).Delete(&models.Cart{}).Error; err != nil {
			return fmt.Errorf("failed to delete cart: %w", err)
		}

		if order.CouponID != nil {
			res := tx.Model(&models.Coupon{}).Where("id = ?", *order.CouponID).
				Update("usage_count", gorm.Expr("usage_count + ?", 1))
			if res.Error != nil {
				return fmt.Errorf("failed to consume coupon: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("coupon with ID %s: %w", *order.CouponID, ErrNotFound)
			}
		}
		return nil
	}, database.TxOptions(db))
}

func decrementStock(tx *gorm.DB, item models.OrderItem, allowBackorder bool) error {
	q := tx.Model(&models.Product{}).Where("id = ?", item.ProductID)
	if !allowBackorder {
		q = q.Where("stock >= ?", item.Quantity)
	}
	res := q.Updates(map[string]any{
		"stock":      gorm.Expr("stock - ?", item.Quantity),
		"sold_count": gorm.Expr("sold_count + ?", item.Quantity),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update stock of product %s: %w", item.ProductID, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var product models.Product
	if err := tx.Select("id", "name").First(&product, "id = ?", item.ProductID).Error; err != nil {
		return notFoundOr(err, "get product %s", item.ProductID)
	}
	return &StockError{ProductID: product.ID, ProductName: product.Name, Requested: item.Quantity}
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Address").
		Preload("Coupon")
}

// GetAll retrieves every order with its buyer, newest first.
func (r *GORMOrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := withDetails(r.db.WithContext(ctx)).Preload("User").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves a single order by its ID from the database.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := withDetails(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "get order by ID %s", id)
	}
	return &order, nil
}

// ListByUser retrieves the orders of a user, newest first.
func (r *GORMOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := withDetails(r.db.WithContext(ctx)).Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders of user %s: %w", userID, err)
	}
	return orders, nil
}

// UpdateStatus sets the status of an order.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s not found for status update: %w", id, ErrNotFound)
	}
	return nil
}

// HasDeliveredPurchase reports whether orderID belongs to userID, is delivered
// and contains productID.
func (r *GORMOrderRepository) HasDeliveredPurchase(ctx context.Context, userID, orderID, productID string) (bool, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.id = ? AND orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?",
			orderID, userID, models.OrderStatusDelivered, productID).
		Select("order_items.id").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check purchase: %w", err)
	}
	return true, nil
}
