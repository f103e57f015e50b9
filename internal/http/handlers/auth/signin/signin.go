// Package signin содержит обработчик входа по почте и паролю.
package signin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/contractforge-auth/internal/http/middlewarectx"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/response"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/sl"
	services "github.com/magabrotheeeer/contractforge-auth/internal/services/auth"
)

// Request — входные данные для входа.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service выполняет вход и создаёт сессию.
type Service interface {
	Signin(ctx context.Context, email, password, device, ip string) (services.SigninResult, error)
}

// Handler обрабатывает POST /signin.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт обработчик входа.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход пользователя
// @Description Проверяет учётные данные, создаёт сессию и возвращает токен
// @Tags auth
// @Accept json
// @Produce json
// @Param request body Request true "Учётные данные"
// @Success 200 {object} response.Response{data=services.SigninResult}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 429 {object} response.ErrorResponse
// @Router /api/auth/signin [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signin"

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
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(verrs))
		return
	}

	res, err := h.service.Signin(r.Context(), req.Email, req.Password, r.UserAgent(), middlewarectx.ClientIP(r))
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("user signed in", slog.String("user_id", res.User.ID))
	render.JSON(w, r, response.StatusOKWithData(res))
}
