package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/marketcore-backend/api/controllers"
	"github.com/angelmondragon/marketcore-backend/api/middleware"
	"github.com/angelmondragon/marketcore-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/marketcore-backend/internal/checkout"
	"github.com/angelmondragon/marketcore-backend/internal/orders"
	"github.com/angelmondragon/marketcore-backend/pkg/config"
	"github.com/angelmondragon/marketcore-backend/pkg/enums"
	"github.com/angelmondragon/marketcore-backend/pkg/logger"
	"github.com/angelmondragon/marketcore-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	pingers map[string]controllers.Pinger,
	idempotencyStore redis.IdempotencyStore,
	gatherer prometheus.Gatherer,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersSvc orders.Service,
	viewRecorder controllers.ViewRecorder,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Post("/checkout", controllers.Checkout(checkoutService, logg))
		r.Post("/checkout/buy-now", controllers.BuyNow(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(ordersSvc, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersSvc, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(ordersSvc, logg))
			r.Post("/{orderId}/pay", controllers.OrderPay(ordersSvc, logg))
			r.Post("/{orderId}/receipt", controllers.OrderReceipt(ordersSvc, logg))
		})

		r.Post("/products/{productId}/views", controllers.ProductView(viewRecorder, logg))

		r.Route("/merchant", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleMerchant, enums.RoleAdmin))
			r.Get("/orders", controllers.MerchantOrdersList(ordersSvc, logg))
			r.Post("/orders/{orderId}/ship", controllers.MerchantShipOrder(ordersSvc, logg))
		})
	})

	return r
}
