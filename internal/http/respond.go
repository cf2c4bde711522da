package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/fjod/go_shop/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// respondServiceError maps the service error taxonomy onto HTTP status codes.
func respondServiceError(w http.ResponseWriter, err error) {
	var minErr *service.MinPurchaseError
	if errors.As(err, &minErr) {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   minErr.Error(),
			Code:    "minimum_purchase_not_met",
			Details: fmt.Sprintf("%.2f", minErr.Required),
		})
		return
	}

	var cancelErr *service.CancelError
	if errors.As(err, &cancelErr) {
		respondError(w, http.StatusConflict, "invalid_transition", cancelErr.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrCouponNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrCouponInvalid),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrUnknownStatus),
		errors.Is(err, service.ErrUnknownPaymentMethod),
		errors.Is(err, service.ErrPricingMismatch):
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, service.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
