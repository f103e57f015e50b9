package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/contractforge-auth/internal/models"
)

// fakeClock — управляемые часы для тестов.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testDataFactory создает тестовые записи в хранилище.
type testDataFactory struct {
	storage *Storage
}

func newTestDataFactory(s *Storage) *testDataFactory {
	return &testDataFactory{storage: s}
}

func (f *testDataFactory) CreateUser(t *testing.T, name, email string) models.User {
	t.Helper()
	u, err := f.storage.CreateUser(context.Background(), models.User{
		Name:         name,
		Email:        email,
		PasswordHash: "hashedpassword",
		Role:         models.RoleUser,
	})
	require.NoError(t, err)
	return u
}

func (f *testDataFactory) CreateSession(t *testing.T, userID, token string) models.Session {
	t.Helper()
	sess, err := f.storage.CreateSession(context.Background(), models.Session{
		Token:  token,
		UserID: userID,
		Device: "Mozilla/5.0",
		IP:     "127.0.0.1",
	})
	require.NoError(t, err)
	return sess
}
