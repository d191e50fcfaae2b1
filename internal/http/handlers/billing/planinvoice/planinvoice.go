// Package planinvoice реализует HTTP-обработчик выставления счёта
// на покупку тарифного плана.
//
// Handler принимает JSON-запрос с идентификатором плана, валидирует его,
// извлекает пользователя из контекста, выставляет счёт через бизнес-логику
// и возвращает ссылку на оплату в JSON-формате.
package planinvoice

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
	"github.com/instatools/billing/internal/storage/repository"
)

// Handler управляет HTTP-запросами на покупку тарифного плана.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики выставления счетов
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики выставления счёта на план.
type Service interface {
	CreatePlanInvoice(ctx context.Context, userID, planID int64) (*billing.InvoiceResult, error)
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
// @Summary Выставить счёт на покупку плана
// @Description Создает счёт платёжного шлюза на покупку тарифного плана. Возвращает ссылку на оплату.
// @Tags Billing
// @Accept  json
// @Produce  json
// @Param request body models.DummyPlanInvoice true "Идентификатор плана"
// @Success 200 {object} map[string]any "Счёт выставлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Failure 409 {object} response.ErrorResponse "Покупка запрещена ограничениями"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Ошибка платёжного шлюза"
// @Router /billing/invoice [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.planinvoice"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyPlanInvoice
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

	result, err := h.service.CreatePlanInvoice(r.Context(), userID, req.PlanID)
	if err != nil {
		var gwErr *paymentprovider.GatewayError
		switch {
		case errors.Is(err, repository.ErrPlanNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("plan not found"))
		case errors.Is(err, billing.ErrDowngradeLocked):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("downgrade is not allowed"))
		case errors.Is(err, billing.ErrCooldownActive):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("current subscription is still active"))
		case errors.As(err, &gwErr):
			log.Error("payment gateway error", sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error("payment gateway unavailable"))
		default:
			log.Error("failed to create invoice", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create invoice"))
		}
		return
	}

	log.Info("invoice issued", sl.UserID(userID), slog.String("external_id", result.ExternalID))
	render.JSON(w, r, response.SuccessWithData(result))
}
