// Package addoninvoice реализует HTTP-обработчик выставления счёта
// на покупку дополнения к активной подписке.
package addoninvoice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/instatools/billing/internal/http/middlewarectx"
	"github.com/instatools/billing/internal/http/response"
	"github.com/instatools/billing/internal/lib/sl"
	"github.com/instatools/billing/internal/models"
	"github.com/instatools/billing/internal/paymentprovider"
	"github.com/instatools/billing/internal/services/billing"
)

// Handler управляет HTTP-запросами на покупку дополнений.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики выставления счетов
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики выставления счёта на дополнение.
type Service interface {
	CreateAddonInvoice(ctx context.Context, userID int64, addonType, subType string, quantity int) (*billing.InvoiceResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Выставить счёт на покупку дополнения
// @Description Создает счёт на дополнение (proxy, quota, cross_posting, cross_threads) к активной подписке.
// @Tags Billing
// @Accept  json
// @Produce  json
// @Param request body models.DummyAddonInvoice true "Тип, подтип и количество"
// @Success 200 {object} map[string]any "Счёт выставлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Покупка запрещена ограничениями"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Ошибка платёжного шлюза"
// @Router /billing/addon [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.addoninvoice"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyAddonInvoice
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.CreateAddonInvoice(r.Context(), userID, req.AddonType, req.SubType, req.Quantity)
	if err != nil {
		var gwErr *paymentprovider.GatewayError
		switch {
		case errors.Is(err, billing.ErrNoActiveSubscription):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("no active subscription"))
		case errors.Is(err, billing.ErrAddonsNotAllowed):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("addons are not available on this plan"))
		case errors.As(err, &gwErr):
			log.Error("payment gateway error", sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error("payment gateway unavailable"))
		default:
			log.Error("failed to create addon invoice", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create invoice"))
		}
		return
	}

	log.Info("addon invoice issued", sl.UserID(userID),
		slog.String("addon_type", req.AddonType),
		slog.String("external_id", result.ExternalID))
	render.JSON(w, r, response.SuccessWithData(result))
}
