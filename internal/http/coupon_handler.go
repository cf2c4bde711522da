package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/service"
	"github.com/go-chi/chi/v5"
)

type CouponService interface {
	Apply(ctx context.Context, code string, subtotal float64) (*service.CouponResult, error)
	Create(ctx context.Context, coupon *domain.Coupon) error
	List(ctx context.Context) ([]*domain.Coupon, error)
	Deactivate(ctx context.Context, code string) error
}

type CouponHandler struct {
	service CouponService
	timeout time.Duration
}

func NewCouponHandler(service CouponService, timeout time.Duration) *CouponHandler {
	return &CouponHandler{
		service: service,
		timeout: timeout,
	}
}

type ValidateCouponRequestDTO struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
}

// Validate checks a coupon against a subtotal without touching any cart.
// The storefront uses it to preview a discount before applying.
func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ValidateCouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "coupon code is required")
		return
	}
	if req.Subtotal < 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "subtotal must be non-negative")
		return
	}

	result, err := h.service.Apply(ctx, req.Code, req.Subtotal)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var coupon domain.Coupon
	if err := json.NewDecoder(r.Body).Decode(&coupon); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.service.Create(ctx, &coupon); err != nil {
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, coupon)
}

func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	coupons, err := h.service.List(ctx)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, coupons)
}

func (h *CouponHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.service.Deactivate(ctx, chi.URLParam(r, "code")); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
