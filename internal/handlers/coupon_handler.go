package handlers

import (
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CouponHandler handles HTTP requests for discount coupons.
type CouponHandler struct {
	service  *services.CouponService
	guards   Guards
	validate *validator.Validate
	log      *zap.Logger
}

// NewCouponHandler creates a new CouponHandler.
func NewCouponHandler(service *services.CouponService, guards Guards, log *zap.Logger) *CouponHandler {
	return &CouponHandler{service: service, guards: guards, validate: newValidator(), log: log}
}

// RegisterRoutes registers the coupon routes.
func (h *CouponHandler) RegisterRoutes(router fiber.Router) {
	coupon := router.Group("/coupon", h.guards.Auth)
	coupon.Get("/fetch-all-coupons", h.HandleGetAllCoupons)
	coupon.Post("/create-coupon", h.guards.Admin, h.HandleCreateCoupon)
	coupon.Delete("/:id", h.guards.Admin, h.HandleDeleteCoupon)
}

type couponRequest struct {
	Code            string `json:"code" validate:"required,max=50"`
	DiscountPercent int    `json:"discountPercent" validate:"required,min=1,max=100"`
	StartDate       string `json:"startDate" validate:"required"`
	EndDate         string `json:"endDate" validate:"required"`
	UsageLimit      int    `json:"usageLimit" validate:"required,min=1"`
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.Validation("%s must be a date", field)
}

// HandleCreateCoupon creates a coupon.
func (h *CouponHandler) HandleCreateCoupon(c *fiber.Ctx) error {
	var req couponRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return respondError(c, h.log, err, "Failed to create coupon")
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		return respondError(c, h.log, err, "Failed to create coupon")
	}

	coupon, err := h.service.CreateCoupon(c.UserContext(), services.CouponInput{
		Code:            req.Code,
		DiscountPercent: req.DiscountPercent,
		StartDate:       start,
		EndDate:         end,
		UsageLimit:      req.UsageLimit,
	})
	if err != nil {
		return respondError(c, h.log, err, "Failed to create coupon")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Coupon created successfully!",
		"coupon":  coupon,
	})
}

// HandleGetAllCoupons lists every coupon.
func (h *CouponHandler) HandleGetAllCoupons(c *fiber.Ctx) error {
	coupons, err := h.service.GetAllCoupons(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err, "Failed to fetch coupon list")
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"couponList": coupons,
	})
}

// HandleDeleteCoupon removes a coupon.
func (h *CouponHandler) HandleDeleteCoupon(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteCoupon(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err, "Failed to delete coupon")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Coupon deleted successfully!",
		"id":      id,
	})
}
