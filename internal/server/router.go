package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"mostrador/internal/auth"
	ordercontroller "mostrador/internal/order/controller"
	"mostrador/internal/product"
	"mostrador/internal/slot"
)

type Handlers struct {
	Auth     *auth.Controller
	Orders   *ordercontroller.OrderController
	Products *product.Controller
	Slots    *slot.Controller
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

func NewRouter(h Handlers, tokens *auth.TokenIssuer, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	r.Post("/auth/login", h.Auth.Login)

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(tokens, logger))

		r.Route("/orders", h.Orders.Routes)
		r.Get("/products", h.Products.HandleListProducts)
		r.Post("/products/search", h.Products.HandleSearchProducts)
		r.Get("/delivery-slots", h.Slots.HandleListSlots)
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("requestId", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(started)),
			)
		})
	}
}
