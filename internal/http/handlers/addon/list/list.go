// Package list реализует HTTP-обработчик чтения дополнений пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/instatools/billing/internal/http/middlewarectx"
	"github.com/instatools/billing/internal/http/response"
	"github.com/instatools/billing/internal/lib/sl"
	"github.com/instatools/billing/internal/models"
)

// Handler управляет HTTP-запросами списка дополнений.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис витрины состояния пользователя
}

// Service описывает интерфейс чтения дополнений пользователя.
type Service interface {
	ListAddons(ctx context.Context, userID int64) ([]*models.Addon, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Дополнения пользователя
// @Description Возвращает выданные пользователю дополнения, новые первыми.
// @Tags Addons
// @Produce  json
// @Success 200 {object} map[string]any "Список дополнений"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /addons/list [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.addon.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	addons, err := h.service.ListAddons(r.Context(), userID)
	if err != nil {
		log.Error("failed to list addons", sl.Err(err), sl.UserID(userID))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list addons"))
		return
	}

	render.JSON(w, r, response.SuccessWithData(addons))
}
