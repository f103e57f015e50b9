// Package verifyemail содержит обработчик подтверждения почты по одноразовому токену.
package verifyemail

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/contractforge-auth/internal/http/response"
)

// Service подтверждает почту.
type Service interface {
	VerifyEmail(ctx context.Context, token string) error
}

// Handler обрабатывает GET /verify-email/{token}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт обработчик подтверждения почты.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Подтверждение почты
// @Tags auth
// @Produce json
// @Param token path string true "Токен из письма"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /api/auth/verify-email/{token} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verifyemail"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.service.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("email verified")
	render.JSON(w, r, response.OK("Email verified successfully"))
}
