// Package forgotpassword содержит обработчик запроса на сброс пароля.
package forgotpassword

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/contractforge-auth/internal/http/response"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/sl"
)

// Request — почта, на которую отправляется ссылка для сброса.
type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Service выпускает токен сброса пароля и отправляет письмо.
type Service interface {
	ForgotPassword(ctx context.Context, email string) error
}

// Handler обрабатывает POST /forgot-password.
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
// @Summary Запрос на сброс пароля
// @Tags auth
// @Accept json
// @Produce json
// @Param request body Request true "Почта"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/auth/forgot-password [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.forgotpassword"

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

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.OK("Password reset email sent"))
}
