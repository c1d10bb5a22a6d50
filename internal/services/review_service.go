package services

import (
	"context"
	"errors"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ReviewInput carries the rating and text of a review.
type ReviewInput struct {
	Rating  int
	Title   string
	Comment string
}

func (in ReviewInput) validate() error {
	if in.Rating < 1 || in.Rating > 5 {
		return apperr.Validation("Rating must be between 1 and 5")
	}
	return nil
}

// Eligibility answers whether a user may review a product of an order.
type Eligibility struct {
	CanReview bool   `json:"canReview"`
	Message   string `json:"message"`
}

// ReviewService handles business logic related to product reviews.
type ReviewService struct {
	reviews repositories.ReviewRepository
	orders  repositories.OrderRepository
	cache   CacheInvalidator
}

// NewReviewService creates a new ReviewService. c may be nil.
func NewReviewService(reviews repositories.ReviewRepository, orders repositories.OrderRepository, c CacheInvalidator) *ReviewService {
	return &ReviewService{reviews: reviews, orders: orders, cache: c}
}

// CreateReview records a review for a product the user received in orderID.
func (s *ReviewService) CreateReview(ctx context.Context, userID, productID, orderID string, in ReviewInput) (*models.Review, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	purchased, err := s.orders.HasDeliveredPurchase(ctx, userID, orderID, productID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to check purchase")
	}
	if !purchased {
		return nil, apperr.Forbidden("You can only review products that you have purchased and that have been delivered")
	}

	exists, err := s.reviews.Exists(ctx, userID, productID, orderID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to check existing review")
	}
	if exists {
		return nil, apperr.Conflict("You have already reviewed this product for this order")
	}

	review := &models.Review{
		UserID:    userID,
		ProductID: productID,
		OrderID:   orderID,
		Rating:    in.Rating,
		Title:     in.Title,
		Comment:   in.Comment,
	}
	err = s.reviews.Create(ctx, review)
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, apperr.Conflict("You have already reviewed this product for this order")
	}
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to create review")
	}
	invalidateProducts(ctx, s.cache)
	return review, nil
}

// GetProductReviews lists the reviews of a product.
func (s *ReviewService) GetProductReviews(ctx context.Context, productID string) ([]models.Review, error) {
	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to fetch reviews")
	}
	return reviews, nil
}

// GetUserReviews lists the reviews written by userID.
func (s *ReviewService) GetUserReviews(ctx context.Context, userID string) ([]models.Review, error) {
	reviews, err := s.reviews.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to fetch reviews")
	}
	return reviews, nil
}

func (s *ReviewService) ownReview(ctx context.Context, userID, reviewID, notFoundMsg string) error {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return repoErr(err, notFoundMsg, "failed to fetch review")
	}
	if review.UserID != userID {
		return apperr.NotFound("%s", notFoundMsg)
	}
	return nil
}

// UpdateReview changes a review written by userID.
func (s *ReviewService) UpdateReview(ctx context.Context, userID, reviewID string, in ReviewInput) (*models.Review, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	const notFound = "Review not found or you don't have permission to update it"
	if err := s.ownReview(ctx, userID, reviewID, notFound); err != nil {
		return nil, err
	}
	review, err := s.reviews.Update(ctx, reviewID, in.Rating, in.Title, in.Comment)
	if err != nil {
		return nil, repoErr(err, notFound, "failed to update review")
	}
	invalidateProducts(ctx, s.cache)
	return review, nil
}

// DeleteReview removes a review written by userID.
func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID string) error {
	const notFound = "Review not found or you don't have permission to delete it"
	if err := s.ownReview(ctx, userID, reviewID, notFound); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return repoErr(err, notFound, "failed to delete review")
	}
	invalidateProducts(ctx, s.cache)
	return nil
}

// CanReview reports whether userID may review productID bought in orderID.
func (s *ReviewService) CanReview(ctx context.Context, userID, productID, orderID string) (*Eligibility, error) {
	purchased, err := s.orders.HasDeliveredPurchase(ctx, userID, orderID, productID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to check purchase")
	}
	if !purchased {
		return &Eligibility{CanReview: false, Message: "You cannot review this product"}, nil
	}

	exists, err := s.reviews.Exists(ctx, userID, productID, orderID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to check existing review")
	}
	if exists {
		return &Eligibility{CanReview: false, Message: "You have already reviewed this product for this order"}, nil
	}
	return &Eligibility{CanReview: true, Message: "You can review this product"}, nil
}

// GetAllReviews lists every review for administrators.
func (s *ReviewService) GetAllReviews(ctx context.Context) ([]models.Review, error) {
	reviews, err := s.reviews.GetAll(ctx)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to fetch reviews")
	}
	return reviews, nil
}

// AdminUpdateReview changes any review.
func (s *ReviewService) AdminUpdateReview(ctx context.Context, reviewID string, in ReviewInput) (*models.Review, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	review, err := s.reviews.Update(ctx, reviewID, in.Rating, in.Title, in.Comment)
	if err != nil {
		return nil, repoErr(err, "Review not found", "failed to update review")
	}
	invalidateProducts(ctx, s.cache)
	return review, nil
}

// AdminDeleteReview removes any review.
func (s *ReviewService) AdminDeleteReview(ctx context.Context, reviewID string) error {
	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return repoErr(err, "Review not found", "failed to delete review")
	}
	invalidateProducts(ctx, s.cache)
	return nil
}
