// Package sessions содержит обработчик списка активных сессий пользователя.
package sessions

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/contractforge-auth/internal/http/middlewarectx"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/response"
	"github.com/magabrotheeeer/contractforge-auth/internal/models"
)

// Service возвращает сессии пользователя без токенов.
type Service interface {
	GetSessions(ctx context.Context, userID string) []models.SessionView
}

// Handler обрабатывает GET /sessions.
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
// @Summary Активные сессии текущего пользователя
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.SessionView}
// @Failure 401 {object} response.ErrorResponse
// @Router /api/auth/sessions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.sessions"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	list := h.service.GetSessions(r.Context(), user.ID)
	if list == nil {
		list = []models.SessionView{}
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}
