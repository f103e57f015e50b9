// Package remove содержит обработчик удаления пользователя администратором.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/contractforge-auth/internal/http/response"
)

// Service удаляет пользователя вместе с его сессиями.
type Service interface {
	DeleteUser(ctx context.Context, id string) error
}

// Handler обрабатывает DELETE /admin/users/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удаление пользователя
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Идентификатор пользователя"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/auth/admin/users/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("user deleted", slog.String("user_id", id))
	render.JSON(w, r, response.OK("User deleted successfully"))
}
