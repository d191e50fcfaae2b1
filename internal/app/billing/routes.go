// Package billing предоставляет маршруты биллингового сервиса.
package billing

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	addonlist "github.com/instatools/billing/internal/http/handlers/addon/list"
	"github.com/instatools/billing/internal/http/handlers/billing/addoninvoice"
	"github.com/instatools/billing/internal/http/handlers/billing/callback"
	"github.com/instatools/billing/internal/http/handlers/billing/planinvoice"
	"github.com/instatools/billing/internal/http/handlers/billing/plans"
	"github.com/instatools/billing/internal/http/handlers/billing/upgradeinvoice"
	"github.com/instatools/billing/internal/http/handlers/health"
	subcurrent "github.com/instatools/billing/internal/http/handlers/subscription/current"
	"github.com/instatools/billing/internal/http/middlewarectx"
	"github.com/instatools/billing/internal/lib/jwt"
	billingservice "github.com/instatools/billing/internal/services/billing"
	catalogservice "github.com/instatools/billing/internal/services/catalog"
	webhookservice "github.com/instatools/billing/internal/services/webhook"
	"github.com/instatools/billing/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker, callbackToken string,
	billingService *billingservice.Service, webhookService *webhookservice.Service,
	catalogService *catalogservice.Service, db *repository.Storage) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	invoiceLimiter := rate.NewLimiter(1, 3)

	r.Route("/api/v1", func(r chi.Router) {
		// Вызовы платёжного шлюза: аутентификация по общему секрету,
		// JWT здесь не применяется.
		r.Post("/billing/callback", callback.New(logger, webhookService, callbackToken).ServeHTTP)

		// Открытая витрина каталога
		r.Get("/billing/plans", plans.New(logger, catalogService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Get("/subscriptions/current", subcurrent.New(logger, catalogService).ServeHTTP)
			r.Get("/addons/list", addonlist.New(logger, catalogService).ServeHTTP)

			// Выставление счетов дополнительно ограничено по частоте
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RateLimitMiddleware(logger, invoiceLimiter))
				r.Post("/billing/invoice", planinvoice.New(logger, billingService).ServeHTTP)
				r.Post("/billing/upgrade", upgradeinvoice.New(logger, billingService).ServeHTTP)
				r.Post("/billing/addon", addoninvoice.New(logger, billingService).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
