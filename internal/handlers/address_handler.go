package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AddressHandler handles HTTP requests for shipping addresses.
type AddressHandler struct {
	service  *services.AddressService
	guards   Guards
	validate *validator.Validate
	log      *zap.Logger
}

// NewAddressHandler creates a new AddressHandler.
func NewAddressHandler(service *services.AddressService, guards Guards, log *zap.Logger) *AddressHandler {
	return &AddressHandler{service: service, guards: guards, validate: newValidator(), log: log}
}

// RegisterRoutes registers the address routes.
func (h *AddressHandler) RegisterRoutes(router fiber.Router) {
	address := router.Group("/address", h.guards.Auth)
	address.Post("/add-address", h.HandleCreateAddress)
	address.Get("/get-address", h.HandleGetAddresses)
	address.Put("/update-address/:id", h.HandleUpdateAddress)
	address.Delete("/delete-address/:id", h.HandleDeleteAddress)
}

type addressRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Address    string `json:"address" validate:"required,max=255"`
	City       string `json:"city" validate:"required,max=100"`
	Country    string `json:"country" validate:"required,max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Phone      string `json:"phone" validate:"required,max=30"`
	IsDefault  bool   `json:"isDefault"`
}

func (r addressRequest) input() services.AddressInput {
	return services.AddressInput{
		Name:       r.Name,
		Address:    r.Address,
		City:       r.City,
		Country:    r.Country,
		PostalCode: r.PostalCode,
		Phone:      r.Phone,
		IsDefault:  r.IsDefault,
	}
}

// HandleCreateAddress stores a new address for the signed-in user.
func (h *AddressHandler) HandleCreateAddress(c *fiber.Ctx) error {
	var req addressRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	address, err := h.service.CreateAddress(c.UserContext(), middleware.UserID(c), req.input())
	if err != nil {
		return respondError(c, h.log, err, "Some error occured")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "address": address})
}

// HandleGetAddresses lists the signed-in user's addresses.
func (h *AddressHandler) HandleGetAddresses(c *fiber.Ctx) error {
	addresses, err := h.service.GetAddresses(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.log, err, "Some error occured")
	}
	return c.JSON(fiber.Map{"success": true, "address": addresses})
}

// HandleUpdateAddress overwrites one of the signed-in user's addresses.
func (h *AddressHandler) HandleUpdateAddress(c *fiber.Ctx) error {
	var req addressRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	address, err := h.service.UpdateAddress(c.UserContext(), middleware.UserID(c), c.Params("id"), req.input())
	if err != nil {
		return respondError(c, h.log, err, "Some error occured")
	}
	return c.JSON(fiber.Map{"success": true, "address": address})
}

// HandleDeleteAddress removes one of the signed-in user's addresses.
func (h *AddressHandler) HandleDeleteAddress(c *fiber.Ctx) error {
	if err := h.service.DeleteAddress(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, h.log, err, "Some error occured")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Address deleted successfully"})
}
