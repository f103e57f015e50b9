// Package apperr содержит типизированные ошибки сервиса аутентификации.
//
// Бизнес-логика оборачивает их через fmt.Errorf("%s: %w", op, err),
// а HTTP-слой сопоставляет их с кодами ответа через errors.Is.
package apperr

import "errors"

var (
	// ErrConflict — почта уже зарегистрирована.
	ErrConflict = errors.New("email already registered")
	// ErrInvalidCredentials — неверная почта или пароль. Сообщение одинаково для обоих случаев.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotVerified — вход запрещён до подтверждения почты.
	ErrEmailNotVerified = errors.New("please verify your email first")
	// ErrInvalidToken — одноразовый токен неизвестен или истёк.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUnauthorized — отсутствует, неверен или отозван токен сессии.
	ErrUnauthorized = errors.New("not authorized to access this route")
	// ErrForbidden — у пользователя нет нужной роли.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound — пользователь или сессия не найдены.
	ErrNotFound = errors.New("not found")
	// ErrValidation — некорректные входные данные.
	ErrValidation = errors.New("validation error")
)
