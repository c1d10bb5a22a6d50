package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// BannerRepository defines the interface for feature banner data access.
type BannerRepository interface {
	CreateMany(ctx context.Context, banners []models.FeatureBanner) error
	GetAll(ctx context.Context) ([]models.FeatureBanner, error)
	GetByID(ctx context.Context, id string) (*models.FeatureBanner, error)
	Delete(ctx context.Context, id string) error
}

// GORMBannerRepository is a GORM implementation of BannerRepository.
type GORMBannerRepository struct {
	db *gorm.DB
}

// NewGORMBannerRepository creates a new instance of GORMBannerRepository.
func NewGORMBannerRepository(db *gorm.DB) *GORMBannerRepository {
	return &GORMBannerRepository{db: db}
}

func (r *GORMBannerRepository) CreateMany(ctx context.Context, banners []models.FeatureBanner) error {
	if len(banners) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&banners).Error; err != nil {
		return fmt.Errorf("failed to create banners: %w", err)
	}
	return nil
}

// GetAll returns every banner, newest first.
func (r *GORMBannerRepository) GetAll(ctx context.Context) ([]models.FeatureBanner, error) {
	var banners []models.FeatureBanner
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&banners).Error; err != nil {
		return nil, fmt.Errorf("failed to get banners: %w", err)
	}
	return banners, nil
}

func (r *GORMBannerRepository) GetByID(ctx context.Context, id string) (*models.FeatureBanner, error) {
	var banner models.FeatureBanner
	if err := r.db.WithContext(ctx).First(&banner, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "get banner %s", id)
	}
	return &banner, nil
}

func (r *GORMBannerRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.FeatureBanner{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete banner: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("banner with ID %s not found for deletion: %w", id, ErrNotFound)
	}
	return nil
}
