package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/cache"
	"storefront/pkg/storage"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultPageSize  = 10
	maxProductImages = 5
)

// ImageUpload is a file received from a multipart form.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	Name        string
	Brand       string
	Category    string
	Description string
	Gender      string
	Sizes       []string
	Colors      []string
	Price       decimal.Decimal
	Stock       int
	Images      []string
	IsFeatured  bool
}

// ProductQuery is the raw client catalog query.
type ProductQuery struct {
	Categories []string
	Brands     []string
	Sizes      []string
	Colors     []string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	SortBy     string
	SortOrder  string
	Page       int
	Limit      int
}

// ProductPage is one page of the client catalog.
type ProductPage struct {
	Products      []models.Product `json:"products"`
	CurrentPage   int              `json:"currentPage"`
	TotalPages    int              `json:"totalPages"`
	TotalProducts int64            `json:"totalProducts"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo     repositories.ProductRepository
	uploader storage.Uploader
	cache    *cache.Cache
	log      *zap.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, uploader storage.Uploader, c *cache.Cache, log *zap.Logger) *ProductService {
	return &ProductService{repo: repo, uploader: uploader, cache: c, log: log}
}

func (in *ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("Product name is required")
	}
	if in.Price.IsNegative() {
		return apperr.Validation("Price must not be negative")
	}
	if in.Stock < 0 {
		return apperr.Validation("Stock must not be negative")
	}
	return nil
}

func (s *ProductService) uploadImages(ctx context.Context, files []ImageUpload) ([]string, error) {
	if len(files) > maxProductImages {
		return nil, apperr.Validation("At most %d images are allowed", maxProductImages)
	}
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.uploader.Upload(ctx, f.Filename, f.Content)
		if err != nil {
			s.discardImages(ctx, urls)
			if errors.Is(err, storage.ErrUnsupportedType) {
				return nil, apperr.Validation("Only image files are allowed")
			}
			return nil, apperr.Unexpected(err, "failed to upload image")
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *ProductService) discardImages(ctx context.Context, urls []string) {
	for _, u := range urls {
		if err := s.uploader.Delete(ctx, u); err != nil {
			s.log.Warn("failed to delete uploaded image", zap.String("url", u), zap.Error(err))
		}
	}
}

func (in *ProductInput) apply(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Brand = in.Brand
	p.Category = in.Category
	p.Description = in.Description
	p.Gender = in.Gender
	p.Sizes = nonNil(in.Sizes)
	p.Colors = nonNil(in.Colors)
	p.Price = in.Price
	p.Stock = in.Stock
	p.IsFeatured = in.IsFeatured
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// CreateProduct stores a product. Uploaded files are appended after in.Images.
func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput, files []ImageUpload) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	uploaded, err := s.uploadImages(ctx, files)
	if err != nil {
		return nil, err
	}

	product := &models.Product{}
	in.apply(product)
	product.Images = append(nonNil(in.Images), uploaded...)
	if len(product.Images) > maxProductImages {
		s.discardImages(ctx, uploaded)
		return nil, apperr.Validation("At most %d images are allowed", maxProductImages)
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.discardImages(ctx, uploaded)
		return nil, apperr.Unexpected(err, "failed to create product")
	}
	if product.IsFeatured {
		s.cache.Invalidate(ctx, cache.KeyFeaturedProducts)
	}
	return product, nil
}

// GetAllProducts returns every product for the admin listing.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to fetch products")
	}
	return products, nil
}

// GetProductByID returns a product with its reviews.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetWithReviews(ctx, id)
	if err != nil {
		return nil, repoErr(err, "Product not found", "failed to fetch product")
	}
	return product, nil
}

// UpdateProduct replaces the editable fields of a product. New uploads are
// appended to in.Images; when both are empty the current images are kept.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, in ProductInput, files []ImageUpload) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, repoErr(err, "Product not found", "failed to fetch product")
	}
	uploaded, err := s.uploadImages(ctx, files)
	if err != nil {
		return nil, err
	}

	in.apply(product)
	if images := append(nonNil(in.Images), uploaded...); len(images) > 0 {
		product.Images = images
	}
	if len(product.Images) > maxProductImages {
		s.discardImages(ctx, uploaded)
		return nil, apperr.Validation("At most %d images are allowed", maxProductImages)
	}

	if err := s.repo.Update(ctx, product); err != nil {
		s.discardImages(ctx, uploaded)
		return nil, repoErr(err, "Product not found", "failed to update product")
	}
	s.cache.Invalidate(ctx, cache.KeyFeaturedProducts)
	return product, nil
}

// DeleteProduct removes a product and its reviews.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return repoErr(err, "Product not found", "failed to delete product")
	}
	s.cache.Invalidate(ctx, cache.KeyFeaturedProducts)
	return nil
}

// ListClientProducts filters, sorts and paginates the catalog.
func (s *ProductService) ListClientProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	filter := repositories.ProductFilter{
		Categories: q.Categories,
		Brands:     q.Brands,
		Sizes:      q.Sizes,
		Colors:     q.Colors,
		MinPrice:   decimal.Zero,
		MaxPrice:   q.MaxPrice,
		SortBy:     q.SortBy,
		SortOrder:  strings.ToLower(q.SortOrder),
		Page:       q.Page,
		Limit:      q.Limit,
	}
	if q.MinPrice != nil {
		filter.MinPrice = *q.MinPrice
	}
	if filter.SortBy == "" {
		filter.SortBy = "createdAt"
	}
	if !repositories.ValidSortField(filter.SortBy) {
		return nil, apperr.Validation("Invalid sortBy value %q", filter.SortBy)
	}
	switch filter.SortOrder {
	case "":
		filter.SortOrder = "desc"
	case "asc", "desc":
	default:
		return nil, apperr.Validation("sortOrder must be asc or desc")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageSize
	}

	products, total, err := s.repo.ListFiltered(ctx, filter)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to fetch products")
	}
	return &ProductPage{
		Products:      products,
		CurrentPage:   filter.Page,
		TotalPages:    int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
		TotalProducts: total,
	}, nil
}
