package services

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
)

// CartLine is a cart item joined with the product it points to.
type CartLine struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Color     string          `json:"color"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
}

// AddToCartInput is one product variant to put in the cart.
type AddToCartInput struct {
	ProductID string
	Quantity  int
	Size      string
	Color     string
}

// CartService handles business logic related to shopping carts.
type CartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(carts repositories.CartRepository, products repositories.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

func (s *CartService) line(ctx context.Context, item *models.CartItem) CartLine {
	line := CartLine{
		ID:        item.ID,
		ProductID: item.ProductID,
		Color:     item.Color,
		Size:      item.Size,
		Quantity:  item.Quantity,
	}
	if product, err := s.products.GetByID(ctx, item.ProductID); err == nil {
		line.Name = product.Name
		line.Price = product.Price
		line.Image = product.FirstImage()
	}
	return line
}

// AddToCart merges the variant into the user's cart.
func (s *CartService) AddToCart(ctx context.Context, userID string, in AddToCartInput) (*CartLine, error) {
	if in.Quantity < 1 {
		return nil, apperr.Validation("Quantity must be at least 1")
	}
	if _, err := s.products.GetByID(ctx, in.ProductID); err != nil {
		return nil, repoErr(err, "Product not found", "failed to fetch product")
	}

	item, err := s.carts.AddItem(ctx, userID, models.CartItem{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Size:      strings.TrimSpace(in.Size),
		Color:     strings.TrimSpace(in.Color),
	})
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to add item to cart")
	}
	line := s.line(ctx, item)
	return &line, nil
}

// GetCart returns the lines of the user's cart; a user without a cart gets none.
func (s *CartService) GetCart(ctx context.Context, userID string) ([]CartLine, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return []CartLine{}, nil
	}
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to fetch cart")
	}

	lines := make([]CartLine, 0, len(cart.Items))
	for i := range cart.Items {
		lines = append(lines, s.line(ctx, &cart.Items[i]))
	}
	return lines, nil
}

// UpdateQuantity sets the quantity of one of the user's cart lines.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*CartLine, error) {
	if quantity < 1 {
		return nil, apperr.Validation("Quantity must be at least 1")
	}
	item, err := s.carts.UpdateItemQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		return nil, repoErr(err, "Cart item not found", "failed to update cart item quantity")
	}
	line := s.line(ctx, item)
	return &line, nil
}

// RemoveItem deletes one of the user's cart lines.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) error {
	if err := s.carts.RemoveItem(ctx, userID, itemID); err != nil {
		return repoErr(err, "Cart item not found", "failed to remove from cart")
	}
	return nil
}

// ClearCart removes every line of the user's cart.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if err := s.carts.ClearItems(ctx, userID); err != nil {
		return apperr.Unexpected(err, "failed to clear cart")
	}
	return nil
}
