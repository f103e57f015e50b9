package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/contractforge-auth/internal/models"
)

type userRecord struct {
	user models.User
	seq  uint64
}

// CreateUser присваивает пользователю новый идентификатор и время создания
// и сохраняет его. Уникальность почты проверяется атомарно.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emailIndex[user.Email]; taken {
		return models.User{}, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}

	now := s.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	s.users[user.ID] = userRecord{user: user, seq: s.nextSeq()}
	s.emailIndex[user.Email] = user.ID
	return user, nil
}

// FindUserByID возвращает пользователя по идентификатору.
func (s *Storage) FindUserByID(ctx context.Context, id string) (models.User, error) {
	const op = "storage.FindUserByID"
	if err := checkCtx(ctx, op); err != nil {
		return models.User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return rec.user, nil
}

// FindUserByEmail возвращает пользователя по точному совпадению почты.
func (s *Storage) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.FindUserByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return models.User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emailIndex[email]
	if !ok {
		return models.User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return s.users[id].user, nil
}

// UpdateUser применяет patch к копии пользователя под блокировкой записи.
//
// Если patch возвращает ошибку, изменения отбрасываются и ошибка
// возвращается без обёртки. При смене почты проверяется её уникальность.
// UpdatedAt обновляется автоматически.
func (s *Storage) UpdateUser(ctx context.Context, id string, patch func(*models.User) error) (models.User, error) {
	const op = "storage.UpdateUser"
	if err := checkCtx(ctx, op); err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	updated := rec.user
	if err := patch(&updated); err != nil {
		return models.User{}, err
	}
	updated.ID = rec.user.ID
	updated.CreatedAt = rec.user.CreatedAt

	if updated.Email != rec.user.Email {
		if owner, taken := s.emailIndex[updated.Email]; taken && owner != id {
			return models.User{}, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		delete(s.emailIndex, rec.user.Email)
		s.emailIndex[updated.Email] = id
	}

	updated.UpdatedAt = s.now()
	s.users[id] = userRecord{user: updated, seq: rec.seq}
	return updated, nil
}

// DeleteUser удаляет пользователя. Сессии пользователя не затрагиваются.
func (s *Storage) DeleteUser(ctx context.Context, id string) bool {
	if checkCtx(ctx, "storage.DeleteUser") != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return false
	}
	delete(s.users, id)
	delete(s.emailIndex, rec.user.Email)
	return true
}

// GetAllUsers возвращает снимок всех пользователей в порядке создания.
func (s *Storage) GetAllUsers(ctx context.Context) []models.User {
	if checkCtx(ctx, "storage.GetAllUsers") != nil {
		return nil
	}

	s.mu.RLock()
	records := make([]userRecord, 0, len(s.users))
	for _, rec := range s.users {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })

	users := make([]models.User, len(records))
	for i, rec := range records {
		users[i] = rec.user
	}
	return users
}
