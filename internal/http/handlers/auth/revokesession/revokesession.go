// Package revokesession содержит обработчик отзыва сессии текущего пользователя.
package revokesession

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/contractforge-auth/internal/http/middlewarectx"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/response"
)

// Service отзывает сессию по токену или идентификатору.
type Service interface {
	RevokeSession(ctx context.Context, tokenOrID, callerUserID string) error
}

// Handler обрабатывает DELETE /sessions/{token}.
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
// @Summary Отзыв сессии
// @Description Принимает токен сессии или её идентификатор из списка сессий
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param token path string true "Токен или идентификатор сессии"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/auth/sessions/{token} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.revokesession"

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

	if err := h.service.RevokeSession(r.Context(), chi.URLParam(r, "token"), user.ID); err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("session revoked", slog.String("user_id", user.ID))
	render.JSON(w, r, response.OK("Session revoked successfully"))
}
