package services

import (
	"context"
	"errors"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/cache"
	"storefront/pkg/storage"

	"go.uber.org/zap"
)

// SettingsService manages the home page banners and featured products.
type SettingsService struct {
	banners     repositories.BannerRepository
	products    repositories.ProductRepository
	uploader    storage.Uploader
	cache       *cache.Cache
	maxFeatured int
	log         *zap.Logger
}

// NewSettingsService creates a new SettingsService. c may be nil.
func NewSettingsService(banners repositories.BannerRepository, products repositories.ProductRepository, uploader storage.Uploader, c *cache.Cache, maxFeatured int, log *zap.Logger) *SettingsService {
	return &SettingsService{
		banners:     banners,
		products:    products,
		uploader:    uploader,
		cache:       c,
		maxFeatured: maxFeatured,
		log:         log,
	}
}

// AddBanners uploads files and stores one banner per file.
func (s *SettingsService) AddBanners(ctx context.Context, files []ImageUpload) ([]models.FeatureBanner, error) {
	if len(files) == 0 {
		return nil, apperr.Validation("No files provided")
	}

	banners := make([]models.FeatureBanner, 0, len(files))
	for _, f := range files {
		url, err := s.uploader.Upload(ctx, f.Filename, f.Content)
		if err != nil {
			s.discard(ctx, banners)
			if errors.Is(err, storage.ErrUnsupportedType) {
				return nil, apperr.Validation("Only image files are allowed")
			}
			return nil, apperr.Unexpected(err, "failed to upload banner")
		}
		banners = append(banners, models.FeatureBanner{ImageURL: url})
	}

	if err := s.banners.CreateMany(ctx, banners); err != nil {
		s.discard(ctx, banners)
		return nil, apperr.Unexpected(err, "failed to add feature banners")
	}
	s.cache.Invalidate(ctx, cache.KeyBanners)
	return banners, nil
}

func (s *SettingsService) discard(ctx context.Context, banners []models.FeatureBanner) {
	for _, b := range banners {
		if err := s.uploader.Delete(ctx, b.ImageURL); err != nil {
			s.log.Warn("failed to delete banner image", zap.String("url", b.ImageURL), zap.Error(err))
		}
	}
}

// GetBanners lists banners, newest first.
func (s *SettingsService) GetBanners(ctx context.Context) ([]models.FeatureBanner, error) {
	var banners []models.FeatureBanner
	if s.cache.GetJSON(ctx, cache.KeyBanners, &banners) {
		return banners, nil
	}
	banners, err := s.banners.GetAll(ctx)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to fetch feature banners")
	}
	s.cache.SetJSON(ctx, cache.KeyBanners, banners)
	return banners, nil
}

// DeleteBanner removes a banner and its image.
func (s *SettingsService) DeleteBanner(ctx context.Context, id string) error {
	banner, err := s.banners.GetByID(ctx, id)
	if err != nil {
		return repoErr(err, "Banner not found", "failed to fetch banner")
	}
	if err := s.banners.Delete(ctx, id); err != nil {
		return repoErr(err, "Banner not found", "failed to delete banner")
	}
	if err := s.uploader.Delete(ctx, banner.ImageURL); err != nil {
		s.log.Warn("failed to delete banner image", zap.String("url", banner.ImageURL), zap.Error(err))
	}
	s.cache.Invalidate(ctx, cache.KeyBanners)
	return nil
}

// UpdateFeaturedProducts makes exactly productIDs the featured products.
func (s *SettingsService) UpdateFeaturedProducts(ctx context.Context, productIDs []string) error {
	if len(productIDs) > s.maxFeatured {
		return apperr.Validation("Invalid product Id's or too many requests")
	}
	ids := dedupe(productIDs)
	if len(ids) > 0 {
		n, err := s.products.CountByIDs(ctx, ids)
		if err != nil {
			return apperr.Unexpected(err, "failed to check products")
		}
		if int(n) != len(ids) {
			return apperr.Validation("Invalid product Id's or too many requests")
		}
	}

	if err := s.products.SetFeatured(ctx, ids); err != nil {
		return apperr.Unexpected(err, "failed to update feature products")
	}
	s.cache.Invalidate(ctx, cache.KeyFeaturedProducts)
	return nil
}

// GetFeaturedProducts lists the featured products.
func (s *SettingsService) GetFeaturedProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if s.cache.GetJSON(ctx, cache.KeyFeaturedProducts, &products) {
		return products, nil
	}
	products, err := s.products.ListFeatured(ctx)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to fetch feature products")
	}
	s.cache.SetJSON(ctx, cache.KeyFeaturedProducts, products)
	return products, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
