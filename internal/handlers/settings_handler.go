package handlers

import (
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SettingsHandler handles HTTP requests for storefront banners and featured products.
type SettingsHandler struct {
	service  *services.SettingsService
	guards   Guards
	validate *validator.Validate
	log      *zap.Logger
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(service *services.SettingsService, guards Guards, log *zap.Logger) *SettingsHandler {
	return &SettingsHandler{service: service, guards: guards, validate: newValidator(), log: log}
}

// RegisterRoutes registers the settings routes.
func (h *SettingsHandler) RegisterRoutes(router fiber.Router) {
	settings := router.Group("/settings", h.guards.Auth)
	settings.Post("/banners", h.guards.Admin, h.HandleAddBanners)
	settings.Get("/get-banners", h.HandleGetBanners)
	settings.Delete("/delete-banner/:id", h.guards.Admin, h.HandleDeleteBanner)
	settings.Post("/update-feature-products", h.guards.Admin, h.HandleUpdateFeaturedProducts)
	settings.Get("/fetch-feature-products", h.HandleGetFeaturedProducts)
}

type featuredProductsRequest struct {
	ProductIDs []string `json:"productIds" validate:"required,min=1,dive,required"`
}

// HandleAddBanners uploads the "images" files as banners.
func (h *SettingsHandler) HandleAddBanners(c *fiber.Ctx) error {
	files, closeFiles, err := imageUploads(c, "images")
	if err != nil {
		return respondError(c, h.log, err, "Failed to upload banners")
	}
	defer closeFiles()

	banners, err := h.service.AddBanners(c.UserContext(), files)
	if err != nil {
		return respondError(c, h.log, err, "Failed to upload banners")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "banners": banners})
}

// HandleGetBanners lists the banners, newest first.
func (h *SettingsHandler) HandleGetBanners(c *fiber.Ctx) error {
	banners, err := h.service.GetBanners(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err, "Failed to fetch banners")
	}
	return c.JSON(fiber.Map{"success": true, "banners": banners})
}

// HandleDeleteBanner removes a banner and its image.
func (h *SettingsHandler) HandleDeleteBanner(c *fiber.Ctx) error {
	if err := h.service.DeleteBanner(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, h.log, err, "Failed to delete banner")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Banner deleted successfully"})
}

// HandleUpdateFeaturedProducts replaces the featured product set.
func (h *SettingsHandler) HandleUpdateFeaturedProducts(c *fiber.Ctx) error {
	var req featuredProductsRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	if err := h.service.UpdateFeaturedProducts(c.UserContext(), req.ProductIDs); err != nil {
		return respondError(c, h.log, err, "Failed to update feature products")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Featured products updated successfully!"})
}

// HandleGetFeaturedProducts lists the featured products.
func (h *SettingsHandler) HandleGetFeaturedProducts(c *fiber.Ctx) error {
	products, err := h.service.GetFeaturedProducts(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err, "Failed to fetch feature products")
	}
	return c.JSON(fiber.Map{"success": true, "featuredProducts": products})
}
