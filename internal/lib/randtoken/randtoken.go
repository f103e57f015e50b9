// Package randtoken выдаёт одноразовые токены для подтверждения почты и сброса пароля.
package randtoken

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Size — количество случайных байт в токене.
const Size = 32

// New возвращает 64-символьную hex-строку из Size случайных байт.
func New() (string, error) {
	const op = "randtoken.New"
	buf := make([]byte, Size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hex.EncodeToString(buf), nil
}
