// Package jwt реализует генерацию и парсинг JWT токенов сессий.
//
// Maker определяет интерфейс для создания и проверки токенов, привязанных
// к идентификатору пользователя. MakerImpl — реализация на HS256 с
// секретным ключом и фиксированным сроком жизни.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken возвращается для повреждённых, поддельных и неподписанных токенов.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken возвращается для токенов с истёкшим сроком действия.
	ErrExpiredToken = errors.New("token has expired")
)

// DefaultTTL — срок жизни токена сессии по умолчанию.
const DefaultTTL = 30 * 24 * time.Hour

// CustomClaims описывает данные, хранящиеся в токене сессии.
type CustomClaims struct {
	UserID               string `json:"id"` // Идентификатор пользователя
	jwt.RegisteredClaims        // ExpiresAt, IssuedAt, ID (jti) и пр.
}

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	GenerateToken(userID string) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
// Неположительный TTL заменяется на DefaultTTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		now:       time.Now,
	}
}
