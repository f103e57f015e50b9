// Package list содержит обработчик списка пользователей для администратора.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/contractforge-auth/internal/http/response"
	"github.com/magabrotheeeer/contractforge-auth/internal/models"
)

// Service возвращает всех пользователей.
type Service interface {
	ListUsers(ctx context.Context) []models.PublicUser
}

// Handler обрабатывает GET /admin/users.
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
// @Summary Список пользователей
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.PublicUser}
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /api/auth/admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	users := h.service.ListUsers(r.Context())
	if users == nil {
		users = []models.PublicUser{}
	}

	log.Info("users listed", slog.Int("count", len(users)))
	render.JSON(w, r, response.StatusOKWithData(users))
}
