package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/contractforge-auth/internal/models"
)

func TestStorage_CreateUser(t *testing.T) {
	clock := newFakeClock()
	s := New(WithClock(clock.Now))
	ctx := context.Background()

	tests := []struct {
		name    string
		user    models.User
		wantErr error
	}{
		{
			name: "successful create",
			user: models.User{Name: "Alice", Email: "alice@example.com", Role: models.RoleUser},
		},
		{
			name: "second user",
			user: models.User{Name: "Bob", Email: "bob@example.com", Role: models.RoleUser},
		},
		{
			name:    "duplicate email",
			user:    models.User{Name: "Alice 2", Email: "alice@example.com", Role: models.RoleUser},
			wantErr: ErrEmailTaken,
		},
		{
			name: "email match is case sensitive",
			user: models.User{Name: "Alice 3", Email: "Alice@example.com", Role: models.RoleUser},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.CreateUser(ctx, tt.user)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, tt.user.Email, got.Email)
			assert.Equal(t, clock.Now(), got.CreatedAt)
			assert.Equal(t, got.CreatedAt, got.UpdatedAt)
		})
	}
}

func TestStorage_FindUser(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := newTestDataFactory(s).CreateUser(t, "Alice", "alice@example.com")

	byID, err := s.FindUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, byID)

	byEmail, err := s.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice, byEmail)

	_, err = s.FindUserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.FindUserByEmail(ctx, "ALICE@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStorage_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := newTestDataFactory(s).CreateUser(t, "Alice", "alice@example.com")

	got, err := s.FindUserByID(ctx, alice.ID)
	require.NoError(t, err)
	got.Name = "Mallory"

	again, err := s.FindUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", again.Name)
}

func TestStorage_UpdateUser(t *testing.T) {
	clock := newFakeClock()
	s := New(WithClock(clock.Now))
	ctx := context.Background()
	factory := newTestDataFactory(s)
	alice := factory.CreateUser(t, "Alice", "alice@example.com")
	bob := factory.CreateUser(t, "Bob", "bob@example.com")

	t.Run("patch applied and updatedAt bumped", func(t *testing.T) {
		clock.Advance(time.Minute)
		got, err := s.UpdateUser(ctx, alice.ID, func(u *models.User) error {
			u.Name = "Alice Cooper"
			u.IsEmailVerified = true
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "Alice Cooper", got.Name)
		assert.True(t, got.IsEmailVerified)
		assert.Equal(t, alice.CreatedAt, got.CreatedAt)
		assert.Equal(t, clock.Now(), got.UpdatedAt)
	})

	t.Run("email change re-indexes", func(t *testing.T) {
		_, err := s.UpdateUser(ctx, alice.ID, func(u *models.User) error {
			u.Email = "cooper@example.com"
			return nil
		})
		require.NoError(t, err)

		_, err = s.FindUserByEmail(ctx, "alice@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
		found, err := s.FindUserByEmail(ctx, "cooper@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, found.ID)
	})

	t.Run("email collision", func(t *testing.T) {
		_, err := s.UpdateUser(ctx, alice.ID, func(u *models.User) error {
			u.Email = bob.Email
			return nil
		})
		assert.ErrorIs(t, err, ErrEmailTaken)

		found, err := s.FindUserByEmail(ctx, bob.Email)
		require.NoError(t, err)
		assert.Equal(t, bob.ID, found.ID)
	})

	t.Run("patch error aborts", func(t *testing.T) {
		errAbort := errors.New("abort")
		_, err := s.UpdateUser(ctx, bob.ID, func(u *models.User) error {
			u.Name = "changed"
			return errAbort
		})
		assert.Equal(t, errAbort, err)

		got, err := s.FindUserByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bob", got.Name)
	})

	t.Run("id and createdAt are immutable", func(t *testing.T) {
		got, err := s.UpdateUser(ctx, bob.ID, func(u *models.User) error {
			u.ID = "other"
			u.CreatedAt = time.Time{}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, bob.ID, got.ID)
		assert.Equal(t, bob.CreatedAt, got.CreatedAt)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := s.UpdateUser(ctx, "missing", func(*models.User) error { return nil })
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestStorage_DeleteUser(t *testing.T) {
	s := New()
	ctx := context.Background()
	factory := newTestDataFactory(s)
	alice := factory.CreateUser(t, "Alice", "alice@example.com")
	factory.CreateSession(t, alice.ID, "token-1")

	assert.True(t, s.DeleteUser(ctx, alice.ID))
	assert.False(t, s.DeleteUser(ctx, alice.ID))

	_, err := s.FindUserByEmail(ctx, alice.Email)
	assert.ErrorIs(t, err, ErrUserNotFound)

	// сессии не удаляются каскадно на уровне хранилища
	assert.Equal(t, 1, s.CountSessions(ctx))

	_, err = s.CreateUser(ctx, models.User{Name: "Alice", Email: alice.Email})
	assert.NoError(t, err)
}

func TestStorage_GetAllUsers(t *testing.T) {
	s := New()
	ctx := context.Background()
	factory := newTestDataFactory(s)

	assert.Empty(t, s.GetAllUsers(ctx))

	var want []string
	for i := 0; i < 5; i++ {
		u := factory.CreateUser(t, fmt.Sprintf("user%d", i), fmt.Sprintf("user%d@example.com", i))
		want = append(want, u.ID)
	}

	users := s.GetAllUsers(ctx)
	require.Len(t, users, 5)
	for i, u := range users {
		assert.Equal(t, want[i], u.ID)
	}
}

func TestStorage_CreateUserConcurrentSameEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateUser(ctx, models.User{Name: "race", Email: "race@example.com"})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Len(t, s.GetAllUsers(ctx), 1)
}

func TestStorage_CanceledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.CreateUser(ctx, models.User{Email: "a@example.com"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.GetAllUsers(context.Background()))
}
