package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
)

// CouponResult is what a successful apply returns to the caller. The caller
// persists the rounded discount; apply never mutates the coupon record.
type CouponResult struct {
	Code          string              `json:"code"`
	DiscountType  domain.DiscountType `json:"discount_type"`
	DiscountValue float64             `json:"discount_value"`
	Discount      float64             `json:"discount"`
	Message       string              `json:"message"`
}

type CouponService struct {
	repo repository.CouponRepository
}

func NewCouponService(repo repository.CouponRepository) *CouponService {
	return &CouponService{repo: repo}
}

// Apply validates the coupon against the subtotal and computes the discount.
func (s *CouponService) Apply(ctx context.Context, code string, subtotal float64) (*CouponResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	coupon, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCouponNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("coupon lookup failed: %w", err)
	}

	if !coupon.IsValid(time.Now()) {
		return nil, ErrCouponInvalid
	}

	if subtotal < coupon.MinPurchase {
		return nil, &MinPurchaseError{Required: coupon.MinPurchase}
	}

	discount := coupon.DiscountFor(subtotal)

	return &CouponResult{
		Code:          coupon.Code,
		DiscountType:  coupon.DiscountType,
		DiscountValue: coupon.DiscountValue,
		Discount:      discount,
		Message:       fmt.Sprintf("You save ₹%.2f", discount),
	}, nil
}

// Consume counts one usage of the coupon. Order creation calls this exactly
// once per successful order that carries a coupon.
func (s *CouponService) Consume(ctx context.Context, code string) error {
	return s.repo.IncrementUsage(ctx, code)
}

func (s *CouponService) Create(ctx context.Context, coupon *domain.Coupon) error {
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	if coupon.Code == "" {
		return errors.New("coupon code is required")
	}
	if coupon.DiscountType != domain.DiscountPercentage && coupon.DiscountType != domain.DiscountFixed {
		return fmt.Errorf("unknown discount type %q", coupon.DiscountType)
	}
	if coupon.DiscountValue <= 0 {
		return errors.New("discount value must be positive")
	}
	if coupon.DiscountType == domain.DiscountPercentage && coupon.DiscountValue > 100 {
		return errors.New("percentage discount cannot exceed 100")
	}

	return s.repo.Create(ctx, coupon)
}

func (s *CouponService) List(ctx context.Context) ([]*domain.Coupon, error) {
	return s.repo.List(ctx)
}

func (s *CouponService) Deactivate(ctx context.Context, code string) error {
	err := s.repo.Deactivate(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if errors.Is(err, repository.ErrCouponNotFound) {
		return ErrCouponNotFound
	}
	return err
}
