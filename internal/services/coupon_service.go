package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// CouponInput describes a new coupon.
type CouponInput struct {
	Code            string
	DiscountPercent int
	StartDate       time.Time
	EndDate         time.Time
	UsageLimit      int
}

// CouponService handles business logic related to discount coupons.
type CouponService struct {
	repo repositories.CouponRepository
}

// NewCouponService creates a new CouponService.
func NewCouponService(repo repositories.CouponRepository) *CouponService {
	return &CouponService{repo: repo}
}

// CreateCoupon stores a coupon. Codes are unique and case-insensitive.
func (s *CouponService) CreateCoupon(ctx context.Context, in CouponInput) (*models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	switch {
	case code == "":
		return nil, apperr.Validation("Coupon code is required")
	case in.DiscountPercent < 1 || in.DiscountPercent > 100:
		return nil, apperr.Validation("Discount percent must be between 1 and 100")
	case !in.EndDate.After(in.StartDate):
		return nil, apperr.Validation("End date must be after start date")
	case in.UsageLimit < 1:
		return nil, apperr.Validation("Usage limit must be at least 1")
	}

	if _, err := s.repo.GetByCode(ctx, code); err == nil {
		return nil, apperr.Conflict("Coupon code %s already exists", code)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.Unexpected(err, "failed to look up coupon")
	}

	coupon := &models.Coupon{
		Code:            code,
		DiscountPercent: in.DiscountPercent,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		UsageLimit:      in.UsageLimit,
	}
	err := s.repo.Create(ctx, coupon)
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, apperr.Conflict("Coupon code %s already exists", code)
	}
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to create coupon")
	}
	return coupon, nil
}

// GetAllCoupons lists every coupon.
func (s *CouponService) GetAllCoupons(ctx context.Context) ([]models.Coupon, error) {
	coupons, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to fetch coupon list")
	}
	return coupons, nil
}

// DeleteCoupon removes a coupon.
func (s *CouponService) DeleteCoupon(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return repoErr(err, "Coupon not found", "failed to delete coupon")
	}
	return nil
}
