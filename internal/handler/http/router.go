package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/naveen554/jaggaer-storefront/pkg/health"
	"github.com/naveen554/jaggaer-storefront/pkg/middleware"
)

// RouterConfig bundles the handlers and cross-cutting dependencies for the
// storefront router.
type RouterConfig struct {
	ServiceName string
	Logger      *slog.Logger
	Catalog     *CatalogHandler
	Cart        *CartHandler
	Checkout    *CheckoutHandler
	Health      *health.Handler
}

// NewRouter builds the storefront HTTP router with the full middleware chain.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(cfg.Logger))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", cfg.Catalog.ListProducts)
			r.Get("/{productID}", cfg.Catalog.GetProduct)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(RequireSession)
			r.Get("/", cfg.Cart.GetCart)
			r.Delete("/", cfg.Cart.ClearCart)
			r.Get("/count", cfg.Cart.GetCartCount)
			r.Post("/items", cfg.Cart.AddItem)
			r.Delete("/items/{itemID}", cfg.Cart.RemoveItem)

			r.Route("/staging/{productID}", func(r chi.Router) {
				r.Get("/", cfg.Cart.GetStaged)
				r.Post("/increment", cfg.Cart.IncrementStaged)
				r.Post("/decrement", cfg.Cart.DecrementStaged)
			})
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(RequireSession)
			r.Get("/", cfg.Checkout.GetState)
			r.Post("/purchase", cfg.Checkout.Purchase)
			r.Post("/acknowledge", cfg.Checkout.Acknowledge)
			r.Get("/purchases", cfg.Checkout.ListPurchases)
		})
	})

	return r
}
