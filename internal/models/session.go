package models

import "time"

// Session — активная сессия пользователя, созданная при входе.
type Session struct {
	ID         string // Идентификатор сессии, не совпадает с токеном
	Token      string // Bearer-токен, выданный при входе
	UserID     string
	Device     string // User-Agent клиента
	IP         string
	CreatedAt  time.Time
	LastActive time.Time
}

// SessionView — представление сессии для клиента, без токена.
type SessionView struct {
	ID         string    `json:"id"`
	Device     string    `json:"device"`
	IP         string    `json:"ip"`
	LastActive time.Time `json:"lastActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

// View возвращает представление сессии для клиента.
func (s Session) View() SessionView {
	return SessionView{
		ID:         s.ID,
		Device:     s.Device,
		IP:         s.IP,
		LastActive: s.LastActive,
		CreatedAt:  s.CreatedAt,
	}
}
