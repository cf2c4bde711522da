package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the storefront routes. Admin routes sit behind RequireAdmin;
// everything else only needs an authenticated identity.
func NewRouter(cart *CartHandler, orders *OrderHandler, coupons *CouponHandler, products *ProductHandler, requestTimeout time.Duration) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(IdentityMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.List)
			r.Get("/{product_id}", products.Get)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cart.GetCart)
			r.Delete("/", cart.ClearCart)
			r.Post("/items", cart.AddItem)
			r.Put("/items/{product_id}", cart.UpdateQuantity)
			r.Delete("/items/{product_id}", cart.RemoveItem)
			r.Post("/sync", cart.SyncCart)
			r.Post("/coupon", cart.ApplyCoupon)
			r.Delete("/coupon", cart.RemoveCoupon)
		})

		r.Post("/coupons/validate", coupons.Validate)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orders.Create)
			r.Get("/", orders.ListMine)
			r.Get("/{order_id}", orders.Get)
			r.Post("/{order_id}/cancel", orders.Cancel)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/orders", orders.ListAll)
			r.Put("/orders/{order_id}/status", orders.UpdateStatus)
			r.Put("/orders/{order_id}/pay", orders.MarkPaid)
			r.Post("/coupons", coupons.Create)
			r.Get("/coupons", coupons.List)
			r.Delete("/coupons/{code}", coupons.Deactivate)
		})
	})

	return r
}
