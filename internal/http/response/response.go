// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок и сообщений валидации в едином формате.
package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/contractforge-auth/internal/lib/apperr"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/sl"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status — статус запроса ("OK" или "Error").
// Поле Error — текст ошибки (опционально, при неуспехе).
// Поле Data — данные ответа (опционально, при успехе).
// Поле Message — текст подтверждения для операций без данных.
type Response struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// OK возвращает успешный Response с текстом подтверждения.
func OK(msg string) Response {
	return Response{
		Status:  StatusOK,
		Message: msg,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s characters long", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s characters long", err.Field(), err.Param()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// InternalError — сообщение для ошибок, которые не раскрываются клиенту.
const InternalError = "internal error"

// FromError сопоставляет ошибку сервиса с HTTP статусом и текстом ответа.
// Неизвестные ошибки превращаются в 500 с общим сообщением.
func FromError(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusBadRequest, apperr.ErrConflict.Error()
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized, apperr.ErrInvalidCredentials.Error()
	case errors.Is(err, apperr.ErrEmailNotVerified):
		return http.StatusUnauthorized, apperr.ErrEmailNotVerified.Error()
	case errors.Is(err, apperr.ErrInvalidToken):
		return http.StatusBadRequest, apperr.ErrInvalidToken.Error()
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized, apperr.ErrUnauthorized.Error()
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, apperr.ErrForbidden.Error()
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, apperr.ErrNotFound.Error()
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, apperr.ErrValidation.Error()
	default:
		return http.StatusInternalServerError, InternalError
	}
}

// RenderError пишет ответ для ошибки сервиса. Ошибки со статусом 500
// логируются на уровне Error, отказы бизнес-логики на уровне Info.
func RenderError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, msg := FromError(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", sl.Err(err))
	} else {
		log.Info("request rejected", sl.Err(err))
	}
	render.Status(r, status)
	render.JSON(w, r, Error(msg))
}
