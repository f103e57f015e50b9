// Package storage реализует хранилище пользователей и сессий в памяти процесса.
//
// Данные не переживают перезапуск. Все методы безопасны для конкурентного
// использования: один RWMutex защищает обе коллекции и вторичные индексы.
// Методы возвращают копии записей, а не ссылки на хранимые значения.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrUserNotFound — пользователь с таким идентификатором или почтой не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound — сессия не найдена.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEmailTaken — почта уже занята другим пользователем.
	ErrEmailTaken = errors.New("email already taken")
	// ErrTokenTaken — токен уже принадлежит другой сессии.
	ErrTokenTaken = errors.New("session token already taken")
)

// Storage хранит пользователей и сессии в памяти.
type Storage struct {
	mu sync.RWMutex

	users      map[string]userRecord
	emailIndex map[string]string // email -> user id

	sessions   map[string]sessionRecord
	tokenIndex map[string]string // token -> session id

	seq uint64
	now func() time.Time
}

// Option настраивает Storage.
type Option func(*Storage)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		s.now = now
	}
}

// New создаёт пустое хранилище.
func New(opts ...Option) *Storage {
	s := &Storage{
		users:      make(map[string]userRecord),
		emailIndex: make(map[string]string),
		sessions:   make(map[string]sessionRecord),
		tokenIndex: make(map[string]string),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// nextSeq возвращает порядковый номер вставки. Вызывается под записывающей блокировкой.
func (s *Storage) nextSeq() uint64 {
	s.seq++
	return s.seq
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}
