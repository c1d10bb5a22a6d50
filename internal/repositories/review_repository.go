package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// ReviewRepository defines the interface for review data access. Every
// mutation recomputes the rating of the reviewed product before committing.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, id string, rating int, title, comment string) (*models.Review, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Review, error)
	Exists(ctx context.Context, userID, productID, orderID string) (bool, error)
	ListByProduct(ctx context.Context, productID string) ([]models.Review, error)
	ListByUser(ctx context.Context, userID string) ([]models.Review, error)
	GetAll(ctx context.Context) ([]models.Review, error)
}

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{db: db}
}

// recomputeRating stores the mean review rating of productID, or NULL when
// the product has no reviews left.
func recomputeRating(tx *gorm.DB, productID string) error {
	var avg sql.NullFloat64
	if err := tx.Model(&models.Review{}).Where("product_id = ?", productID).
		Select("AVG(rating)").Row().Scan(&avg); err != nil {
		return fmt.Errorf("failed to aggregate ratings of product %s: %w", productID, err)
	}
	var rating *float64
	if avg.Valid {
		rating = &avg.Float64
	}
	if err := tx.Model(&models.Product{}).Where("id = ?", productID).Update("rating", rating).Error; err != nil {
		return fmt.Errorf("failed to store rating of product %s: %w", productID, err)
	}
	return nil
}

// Create inserts review and refreshes the product rating.
func (r *GORMReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return duplicateOr(err, "create review")
		}
		return recomputeRating(tx, review.ProductID)
	})
}

// Update changes the rating and text of a review and refreshes the product rating.
func (r *GORMReviewRepository) Update(ctx context.Context, id string, rating int, title, comment string) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&review, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "get review %s", id)
		}
		err := tx.Model(&review).Updates(map[string]any{
			"rating":  rating,
			"title":   title,
			"comment": comment,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update review %s: %w", id, err)
		}
		if err := recomputeRating(tx, review.ProductID); err != nil {
			return err
		}
		return tx.Preload("User").Preload("Product").First(&review, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// Delete removes a review and refreshes the product rating.
func (r *GORMReviewRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.First(&review, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "get review %s", id)
		}
		if err := tx.Delete(&models.Review{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete review %s: %w", id, err)
		}
		return recomputeRating(tx, review.ProductID)
	})
}

func (r *GORMReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "get review %s", id)
	}
	return &review, nil
}

// Exists reports whether userID already reviewed productID for orderID.
func (r *GORMReviewRepository) Exists(ctx context.Context, userID, productID, orderID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("user_id = ? AND product_id = ? AND order_id = ?", userID, productID, orderID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing review: %w", err)
	}
	return n > 0, nil
}

// ListByProduct returns the reviews of a product with their authors, newest first.
func (r *GORMReviewRepository) ListByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).Preload("User").Where("product_id = ?", productID).
		Order("created_at DESC").Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews of product %s: %w", productID, err)
	}
	return reviews, nil
}

// ListByUser returns the reviews written by a user with their products, newest first.
func (r *GORMReviewRepository) ListByUser(ctx context.Context, userID string) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).Preload("Product").Where("user_id = ?", userID).
		Order("created_at DESC").Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews of user %s: %w", userID, err)
	}
	return reviews, nil
}

// GetAll returns every review with author and product, newest first.
func (r *GORMReviewRepository) GetAll(ctx context.Context) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.db.WithContext(ctx).Preload("User").Preload("Product").Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	return reviews, nil
}
