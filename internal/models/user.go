// Package models содержит доменную модель сервиса аутентификации:
// пользователей, сессии и их публичные представления.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// Role — роль пользователя в системе.
type Role string

const (
	// RoleUser — роль, которую получает каждый зарегистрированный пользователь.
	RoleUser Role = "user"
	// RoleAdmin — роль с доступом к административным операциям.
	RoleAdmin Role = "admin"
)

// Valid сообщает, является ли значение известной ролью.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID                       string     `json:"id"`              // Уникальный идентификатор пользователя
	Name                     string     `json:"name"`            // Отображаемое имя
	Email                    string     `json:"email"`           // Электронная почта (уникальная, с учётом регистра)
	PasswordHash             string     `json:"-"`               // Хэш пароля пользователя
	Role                     Role       `json:"role"`            // Роль пользователя, admin или user
	IsEmailVerified          bool       `json:"isEmailVerified"` // Подтверждена ли почта
	EmailVerificationToken   *string    `json:"-"`               // Одноразовый токен подтверждения почты
	EmailVerificationExpires *time.Time `json:"-"`               // Срок действия токена подтверждения
	ResetPasswordToken       *string    `json:"-"`               // Одноразовый токен сброса пароля
	ResetPasswordExpires     *time.Time `json:"-"`               // Срок действия токена сброса
	CreatedAt                time.Time  `json:"createdAt"`
	UpdatedAt                time.Time  `json:"updatedAt"`
}

// PublicUser — представление пользователя без пароля и служебных токенов.
type PublicUser struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            Role      `json:"role"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Public возвращает публичную проекцию пользователя.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// UserUpdate описывает изменения, которые администратор может внести в пользователя.
// Поля со значением nil не изменяются.
type UserUpdate struct {
	Name  *string
	Email *string
	Role  *Role
}

// Stats — агрегированная статистика для администратора.
type Stats struct {
	TotalUsers    int `json:"totalUsers"`
	VerifiedUsers int `json:"verifiedUsers"`
	AdminUsers    int `json:"adminUsers"`
	TotalSessions int `json:"totalSessions"`
}
