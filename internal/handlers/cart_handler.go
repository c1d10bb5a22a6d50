package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CartHandler handles HTTP requests for the shopping cart.
type CartHandler struct {
	service  *services.CartService
	guards   Guards
	validate *validator.Validate
	log      *zap.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService, guards Guards, log *zap.Logger) *CartHandler {
	return &CartHandler{service: service, guards: guards, validate: newValidator(), log: log}
}

// RegisterRoutes registers the cart routes.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cart := router.Group("/cart", h.guards.Auth)
	cart.Get("/fetch-cart", h.HandleGetCart)
	cart.Post("/add-to-cart", h.HandleAddToCart)
	cart.Delete("/remove/:id", h.HandleRemoveItem)
	cart.Put("/update/:id", h.HandleUpdateQuantity)
	cart.Post("/clear-cart", h.HandleClearCart)
}

type addToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Size      string `json:"size" validate:"max=20"`
	Color     string `json:"color" validate:"max=40"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// HandleAddToCart adds a product variant, merging with an existing line.
func (h *CartHandler) HandleAddToCart(c *fiber.Ctx) error {
	var req addToCartRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	line, err := h.service.AddToCart(c.UserContext(), middleware.UserID(c), services.AddToCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Size:      req.Size,
		Color:     req.Color,
	})
	if err != nil {
		return respondError(c, h.log, err, "Failed to add item to cart!")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": line})
}

// HandleGetCart returns the signed-in user's cart lines.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	lines, err := h.service.GetCart(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.log, err, "Failed to fetch cart!")
	}
	return c.JSON(fiber.Map{"success": true, "data": lines})
}

// HandleRemoveItem deletes one cart line.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	if err := h.service.RemoveItem(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, h.log, err, "Failed to remove from cart!")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Item is removed from cart"})
}

// HandleUpdateQuantity sets the quantity of one cart line.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	var req updateQuantityRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	line, err := h.service.UpdateQuantity(c.UserContext(), middleware.UserID(c), c.Params("id"), req.Quantity)
	if err != nil {
		return respondError(c, h.log, err, "Failed to update cart item quantity")
	}
	return c.JSON(fiber.Map{"success": true, "data": line})
}

// HandleClearCart empties the signed-in user's cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	if err := h.service.ClearCart(c.UserContext(), middleware.UserID(c)); err != nil {
		return respondError(c, h.log, err, "Failed to clear cart!")
	}
	return c.JSON(fiber.Map{"success": true, "message": "cart cleared successfully!"})
}
