package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// sortColumns maps the accepted sortBy values to columns.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"price":     "price",
	"name":      "name",
	"rating":    "rating",
	"soldCount": "sold_count",
}

// ValidSortField reports whether field can be used as ProductFilter.SortBy.
func ValidSortField(field string) bool {
	_, ok := sortColumns[field]
	return ok
}

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products, newest first.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "get product by ID %s", id)
	}
	return &product, nil
}

// GetWithReviews retrieves a product with its reviews, newest first.
func (r *GORMProductRepository) GetWithReviews(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Reviews.User").
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "get product by ID %s", id)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update writes the editable catalog fields of product. Stock counters owned by
// order placement (sold count, rating) are left untouched.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).Model(&models.Product{ID: product.ID}).
		Select("name", "brand", "category", "description", "gender", "sizes", "colors", "price", "stock", "images", "is_featured", "updated_at").
		Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s not found for update: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a product and its reviews.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("failed to delete reviews of product %s: %w", id, err)
		}
		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product with ID %s not found for deletion: %w", id, ErrNotFound)
		}
		return nil
	})
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(v))
	}
	return out
}

// likeEscaper escapes LIKE wildcards for patterns used with ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// listElementPattern returns a LIKE pattern matching v as an element of a JSON
// encoded string list. v is encoded the way the json serializer stores it.
func listElementPattern(v string) string {
	encoded, _ := json.Marshal(strings.ToLower(v))
	return "%" + likeEscaper.Replace(string(encoded)) + "%"
}

// hasAny matches rows whose JSON list column contains at least one of values,
// ignoring case on every driver.
func hasAny(db *gorm.DB, column string, values []string) *gorm.DB {
	cond := db.Session(&gorm.Session{NewDB: true})
	expr := "LOWER(" + column + ") LIKE ? ESCAPE '!'"
	for i, v := range values {
		if i == 0 {
			cond = cond.Where(expr, listElementPattern(v))
			continue
		}
		cond = cond.Or(expr, listElementPattern(v))
	}
	return db.Where(cond)
}

func (r *GORMProductRepository) applyFilter(db *gorm.DB, f ProductFilter) *gorm.DB {
	if len(f.Categories) > 0 {
		db = db.Where("LOWER(category) IN ?", lowerAll(f.Categories))
	}
	if len(f.Brands) > 0 {
		db = db.Where("LOWER(brand) IN ?", lowerAll(f.Brands))
	}
	if len(f.Sizes) > 0 {
		db = hasAny(db, "sizes", f.Sizes)
	}
	if len(f.Colors) > 0 {
		db = hasAny(db, "colors", f.Colors)
	}
	db = db.Where("price >= ?", f.MinPrice)
	if f.MaxPrice != nil {
		db = db.Where("price <= ?", *f.MaxPrice)
	}
	return db
}

// ListFiltered returns one page of products matching f and the total match count.
func (r *GORMProductRepository) ListFiltered(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		return nil, 0, fmt.Errorf("unsupported sort field %q", f.SortBy)
	}
	direction := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		direction = "ASC"
	}

	var total int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.Product{}), f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.Product{}), f).
		Order(fmt.Sprintf("%s %s", column, direction)).
		Order("id").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// ListFeatured returns every product flagged as featured.
func (r *GORMProductRepository) ListFeatured(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("is_featured = ?", true).Order("name").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get featured products: %w", err)
	}
	return products, nil
}

// SetFeatured clears the featured flag on all products and sets it on ids, atomically.
func (r *GORMProductRepository) SetFeatured(ctx context.Context, ids []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).Where("is_featured = ?", true).Update("is_featured", false).Error; err != nil {
			return fmt.Errorf("failed to reset featured products: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Model(&models.Product{}).Where("id IN ?", ids).Update("is_featured", true).Error; err != nil {
			return fmt.Errorf("failed to set featured products: %w", err)
		}
		return nil
	})
}

// CountByIDs counts how many of ids exist.
func (r *GORMProductRepository) CountByIDs(ctx context.Context, ids []string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}
