// Package plans реализует HTTP-обработчик каталога тарифных планов.
package plans

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/instatools/billing/internal/http/response"
	"github.com/instatools/billing/internal/lib/pricing"
	"github.com/instatools/billing/internal/lib/sl"
	"github.com/instatools/billing/internal/models"
)

// Handler управляет HTTP-запросами каталога планов.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис витрины каталога
}

// Service описывает интерфейс витрины каталога.
type Service interface {
	ListPlans(ctx context.Context) ([]*models.Plan, error)
	ProxyBundles() []pricing.ProxyBundle
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Каталог тарифных планов
// @Description Возвращает доступные к покупке планы и готовые пакеты proxy.
// @Tags Catalog
// @Produce  json
// @Success 200 {object} map[string]any "Каталог планов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /billing/plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.plans"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	plans, err := h.service.ListPlans(r.Context())
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list plans"))
		return
	}

	render.JSON(w, r, response.SuccessWithData(map[string]any{
		"plans":         plans,
		"proxy_bundles": h.service.ProxyBundles(),
	}))
}
