package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/viatura/checkout/internal/session"
)

// NewRouter assembles the public HTTP surface.
func NewRouter(manager *session.Manager, requestTimeout time.Duration) chi.Router {
	cartHandler := NewCartHandler(manager)
	checkoutHandler := NewCheckoutHandler(manager)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(SessionMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddLine)
			r.Put("/items/{line_id}", cartHandler.UpdateLine)
			r.Put("/items/{line_id}/quantity", cartHandler.UpdateQuantity)
			r.Delete("/items/{line_id}", cartHandler.RemoveLine)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.Checkout)
			r.Get("/result", checkoutHandler.Result)
			r.Post("/abandon", checkoutHandler.Abandon)
		})
	})

	return r
}
