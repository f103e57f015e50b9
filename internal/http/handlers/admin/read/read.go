// Package read содержит обработчик получения пользователя по идентификатору.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/contractforge-auth/internal/http/response"
	"github.com/magabrotheeeer/contractforge-auth/internal/models"
)

// Service возвращает пользователя по идентификатору.
type Service interface {
	GetUser(ctx context.Context, id string) (models.PublicUser, error)
}

// Handler обрабатывает GET /admin/users/{id}.
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
// @Summary Пользователь по идентификатору
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Идентификатор пользователя"
// @Success 200 {object} response.Response{data=models.PublicUser}
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/auth/admin/users/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(user))
}
