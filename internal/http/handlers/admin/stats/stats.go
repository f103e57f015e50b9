// Package stats содержит обработчик системной статистики.
package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/contractforge-auth/internal/http/response"
	"github.com/magabrotheeeer/contractforge-auth/internal/models"
)

// Service считает пользователей и сессии.
type Service interface {
	GetSystemStats(ctx context.Context) models.Stats
}

// Handler обрабатывает GET /admin/stats.
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
// @Summary Системная статистика
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.Stats}
// @Failure 403 {object} response.ErrorResponse
// @Router /api/auth/admin/stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.stats"

	stats := h.service.GetSystemStats(r.Context())
	h.log.Debug("system stats computed",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("total_users", stats.TotalUsers),
	)
	render.JSON(w, r, response.StatusOKWithData(stats))
}
