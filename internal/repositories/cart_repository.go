package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Cart, error)
	AddItem(ctx context.Context, userID string, item models.CartItem) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID string) error
	ClearItems(ctx context.Context, userID string) error
}

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

// GetByUserID returns the user's cart with its items, oldest first.
func (r *GORMCartRepository) GetByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&cart, "user_id = ?", userID).Error
	if err != nil {
		return nil, notFoundOr(err, "get cart of user %s", userID)
	}
	return &cart, nil
}

var cartVariantColumns = []clause.Column{{Name: "cart_id"}, {Name: "product_id"}, {Name: "size"}, {Name: "color"}}

// AddItem merges item into the user's cart, creating the cart on first use.
// An existing line with the same product, size and color has its quantity increased.
func (r *GORMCartRepository) AddItem(ctx context.Context, userID string, item models.CartItem) (*models.CartItem, error) {
	var result models.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Cart{UserID: userID}).Error; err != nil {
			return fmt.Errorf("failed to create cart: %w", err)
		}
		var cart models.Cart
		if err := tx.First(&cart, "user_id = ?", userID).Error; err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}

		line := models.CartItem{
			CartID:    cart.ID,
			ProductID: item.ProductID,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
		}
		merge := clause.Assignments(map[string]any{
			"quantity":   gorm.Expr("cart_items.quantity + ?", item.Quantity),
			"updated_at": tx.NowFunc(),
		})
		err := tx.Clauses(clause.OnConflict{Columns: cartVariantColumns, DoUpdates: merge}).Create(&line).Error
		if err != nil {
			return fmt.Errorf("failed to upsert cart item: %w", err)
		}
		err = tx.Where("cart_id = ? AND product_id = ? AND size = ? AND color = ?",
			cart.ID, item.ProductID, item.Size, item.Color).First(&result).Error
		if err != nil {
			return fmt.Errorf("failed to load cart item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func ownedItem(tx *gorm.DB, userID, itemID string) *gorm.DB {
	return tx.Where("id = ? AND cart_id IN (?)", itemID,
		tx.Session(&gorm.Session{NewDB: true}).Model(&models.Cart{}).Select("id").Where("user_id = ?", userID))
}

// UpdateItemQuantity sets the quantity of a line in the user's cart.
func (r *GORMCartRepository) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*models.CartItem, error) {
	db := r.db.WithContext(ctx)
	res := ownedItem(db.Model(&models.CartItem{}), userID, itemID).Update("quantity", quantity)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update cart item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("cart item %s not found: %w", itemID, ErrNotFound)
	}
	var item models.CartItem
	if err := db.First(&item, "id = ?", itemID).Error; err != nil {
		return nil, notFoundOr(err, "get cart item %s", itemID)
	}
	return &item, nil
}

// RemoveItem deletes a line from the user's cart.
func (r *GORMCartRepository) RemoveItem(ctx context.Context, userID, itemID string) error {
	res := ownedItem(r.db.WithContext(ctx), userID, itemID).Delete(&models.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove cart item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item %s not found: %w", itemID, ErrNotFound)
	}
	return nil
}

// ClearItems empties the user's cart but keeps the cart row.
func (r *GORMCartRepository) ClearItems(ctx context.Context, userID string) error {
	db := r.db.WithContext(ctx)
	err := db.Where("cart_id IN (?)", db.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&models.CartItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear cart of user %s: %w", userID, err)
	}
	return nil
}
