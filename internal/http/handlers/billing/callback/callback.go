// Package callback реализует HTTP-обработчик платёжных уведомлений шлюза.
//
// Контракт шлюза жёсткий: при неверном общем секрете — 403, во всех
// остальных случаях вызов подтверждается кодом 200 и телом
// {"status":"success"}, иначе шлюз будет доставлять уведомление повторно.
package callback

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/instatools/billing/internal/http/response"
	"github.com/instatools/billing/internal/lib/sl"
	"github.com/instatools/billing/internal/paymentprovider"
	"github.com/instatools/billing/internal/services/webhook"
)

// Заголовок с общим секретом, который шлюз присылает в каждом вызове.
const tokenHeader = "X-Callback-Token"

// Service описывает интерфейс обработки платёжного уведомления.
type Service interface {
	ProcessNotification(ctx context.Context, n webhook.Notification) error
}

// Handler управляет HTTP-вызовами платёжного шлюза.
type Handler struct {
	log           *slog.Logger // Логгер для записи информации и ошибок
	service       Service
	callbackToken string // Общий секрет для проверки подлинности вызова
}

// New создает новый Handler с переданными логгером, сервисом и секретом.
func New(log *slog.Logger, service Service, callbackToken string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		callbackToken: callbackToken,
	}
}

// ServeHTTP godoc
// @Summary Принять уведомление платёжного шлюза
// @Description Принимает асинхронное уведомление о статусе счёта. Аутентификация по заголовку X-Callback-Token.
// @Tags Billing
// @Accept  json
// @Produce  json
// @Param X-Callback-Token header string true "Общий секрет шлюза"
// @Param request body paymentprovider.CallbackPayload true "Уведомление о платеже"
// @Success 200 {object} response.Response "Уведомление принято"
// @Failure 403 {object} response.ErrorResponse "Неверный секрет"
// @Router /billing/callback [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.callback"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := r.Header.Get(tokenHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.callbackToken)) != 1 {
		log.Error("invalid callback token")
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("forbidden"))
		return
	}

	var payload paymentprovider.CallbackPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		// Нечитаемое тело подтверждаем: повторная доставка того же
		// мусора ничего не исправит.
		log.Error("failed to decode callback payload", sl.Err(err))
		render.JSON(w, r, response.Success())
		return
	}

	err := h.service.ProcessNotification(r.Context(), webhook.Notification{
		ExternalID: payload.ExternalID,
		Status:     payload.Status,
		Amount:     payload.Amount,
	})
	if err != nil {
		// Сбой хранилища — единственный случай, когда повтор шлюза
		// желателен: не подтверждаем приём.
		log.Error("failed to process notification", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("callback processed",
		slog.String("external_id", payload.ExternalID),
		slog.String("payment_status", payload.Status))
	render.JSON(w, r, response.Success())
}
