// Package update содержит обработчик изменения пользователя администратором.
package update

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
	"github.com/magabrotheeeer/contractforge-auth/internal/models"
)

// Request — изменяемые поля. Отсутствующие поля не меняются.
type Request struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Role  *string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
}

// Service изменяет пользователя.
type Service interface {
	UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (models.PublicUser, error)
}

// Handler обрабатывает PUT /admin/users/{id}.
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
// @Summary Изменение пользователя
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Идентификатор пользователя"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.PublicUser}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/auth/admin/users/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.update"

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

	upd := models.UserUpdate{Name: req.Name, Email: req.Email}
	if req.Role != nil {
		role := models.Role(*req.Role)
		upd.Role = &role
	}

	id := chi.URLParam(r, "id")
	user, err := h.service.UpdateUser(r.Context(), id, upd)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("user updated", slog.String("user_id", id))
	render.JSON(w, r, response.StatusOKWithData(user))
}
