// Package resetpassword содержит обработчик установки нового пароля по токену сброса.
package resetpassword

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/contractforge-auth/internal/http/response"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/sl"
)

// Request — новый пароль.
type Request struct {
	Password string `json:"password" validate:"required,min=6"`
}

// Service меняет пароль по токену сброса.
type Service interface {
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Handler обрабатывает POST /reset-password/{token}.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Сброс пароля
// @Tags auth
// @Accept json
// @Produce json
// @Param token path string true "Токен из письма"
// @Param request body Request true "Новый пароль"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /api/auth/reset-password/{token} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.resetpassword"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		errors.As(err, &verrs)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(verrs))
		return
	}

	if err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password); err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("password reset")
	render.JSON(w, r, response.OK("Password reset successful"))
}
