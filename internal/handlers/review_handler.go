package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ReviewHandler handles HTTP requests for product reviews.
type ReviewHandler struct {
	service  *services.ReviewService
	guards   Guards
	validate *validator.Validate
	log      *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service *services.ReviewService, guards Guards, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{service: service, guards: guards, validate: newValidator(), log: log}
}

// RegisterRoutes registers the review routes. Product reviews are public.
func (h *ReviewHandler) RegisterRoutes(router fiber.Router) {
	reviews := router.Group("/reviews")
	reviews.Get("/product/:productId", h.HandleGetProductReviews)

	reviews.Post("/create", h.guards.Auth, h.HandleCreateReview)
	reviews.Get("/user", h.guards.Auth, h.HandleGetUserReviews)
	reviews.Get("/can-review/:productId/:orderId", h.guards.Auth, h.HandleCanReview)
	reviews.Get("/", h.guards.Auth, h.guards.Admin, h.HandleGetAllReviews)
	reviews.Put("/admin/:reviewId", h.guards.Auth, h.guards.Admin, h.HandleAdminUpdateReview)
	reviews.Delete("/admin/:reviewId", h.guards.Auth, h.guards.Admin, h.HandleAdminDeleteReview)
	reviews.Put("/:reviewId", h.guards.Auth, h.HandleUpdateReview)
	reviews.Delete("/:reviewId", h.guards.Auth, h.HandleDeleteReview)
}

type createReviewRequest struct {
	ProductID string `json:"productId" validate:"required"`
	OrderID   string `json:"orderId" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Title     string `json:"title" validate:"max=200"`
	Comment   string `json:"comment"`
}

type updateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Title   string `json:"title" validate:"max=200"`
	Comment string `json:"comment"`
}

func (r updateReviewRequest) input() services.ReviewInput {
	return services.ReviewInput{Rating: r.Rating, Title: r.Title, Comment: r.Comment}
}

// HandleCreateReview records a review for a delivered purchase.
func (h *ReviewHandler) HandleCreateReview(c *fiber.Ctx) error {
	var req createReviewRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	review, err := h.service.CreateReview(c.UserContext(), middleware.UserID(c), req.ProductID, req.OrderID,
		services.ReviewInput{Rating: req.Rating, Title: req.Title, Comment: req.Comment})
	if err != nil {
		return respondError(c, h.log, err, "Failed to create review")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Review created successfully",
		"review":  review,
	})
}

// HandleGetProductReviews lists the reviews of a product.
func (h *ReviewHandler) HandleGetProductReviews(c *fiber.Ctx) error {
	reviews, err := h.service.GetProductReviews(c.UserContext(), c.Params("productId"))
	if err != nil {
		return respondError(c, h.log, err, "Failed to fetch reviews")
	}
	return c.JSON(fiber.Map{"success": true, "reviews": reviews})
}

// HandleGetUserReviews lists the reviews of the signed-in user.
func (h *ReviewHandler) HandleGetUserReviews(c *fiber.Ctx) error {
	reviews, err := h.service.GetUserReviews(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.log, err, "Failed to fetch user reviews")
	}
	return c.JSON(fiber.Map{"success": true, "reviews": reviews})
}

// HandleUpdateReview changes one of the signed-in user's reviews.
func (h *ReviewHandler) HandleUpdateReview(c *fiber.Ctx) error {
	var req updateReviewRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	review, err := h.service.UpdateReview(c.UserContext(), middleware.UserID(c), c.Params("reviewId"), req.input())
	if err != nil {
		return respondError(c, h.log, err, "Failed to update review")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Review updated successfully",
		"review":  review,
	})
}

// HandleDeleteReview removes one of the signed-in user's reviews.
func (h *ReviewHandler) HandleDeleteReview(c *fiber.Ctx) error {
	if err := h.service.DeleteReview(c.UserContext(), middleware.UserID(c), c.Params("reviewId")); err != nil {
		return respondError(c, h.log, err, "Failed to delete review")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Review deleted successfully"})
}

// HandleCanReview reports whether the signed-in user may review a product of an order.
func (h *ReviewHandler) HandleCanReview(c *fiber.Ctx) error {
	eligibility, err := h.service.CanReview(c.UserContext(), middleware.UserID(c), c.Params("productId"), c.Params("orderId"))
	if err != nil {
		return respondError(c, h.log, err, "Failed to check review eligibility")
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"canReview": eligibility.CanReview,
		"message":   eligibility.Message,
	})
}

// HandleGetAllReviews lists every review for administrators.
func (h *ReviewHandler) HandleGetAllReviews(c *fiber.Ctx) error {
	reviews, err := h.service.GetAllReviews(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err, "Failed to fetch reviews")
	}
	return c.JSON(fiber.Map{"success": true, "reviews": reviews})
}

// HandleAdminUpdateReview changes any review.
func (h *ReviewHandler) HandleAdminUpdateReview(c *fiber.Ctx) error {
	var req updateReviewRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	review, err := h.service.AdminUpdateReview(c.UserContext(), c.Params("reviewId"), req.input())
	if err != nil {
		return respondError(c, h.log, err, "Failed to update review")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Review updated successfully",
		"review":  review,
	})
}

// HandleAdminDeleteReview removes any review.
func (h *ReviewHandler) HandleAdminDeleteReview(c *fiber.Ctx) error {
	if err := h.service.AdminDeleteReview(c.UserContext(), c.Params("reviewId")); err != nil {
		return respondError(c, h.log, err, "Failed to delete review")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Review deleted successfully"})
}
