package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/contractforge-auth/internal/models"
)

type sessionRecord struct {
	session models.Session
	seq     uint64
}

// CreateSession сохраняет новую сессию с собственным идентификатором.
// CreatedAt и LastActive устанавливаются в текущее время.
func (s *Storage) CreateSession(ctx context.Context, session models.Session) (models.Session, error) {
	const op = "storage.CreateSession"
	if err := checkCtx(ctx, op); err != nil {
		return models.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.tokenIndex[session.Token]; taken {
		return models.Session{}, fmt.Errorf("%s: %w", op, ErrTokenTaken)
	}

	now := s.now()
	session.ID = uuid.NewString()
	session.CreatedAt = now
	session.LastActive = now

	s.sessions[session.ID] = sessionRecord{session: session, seq: s.nextSeq()}
	s.tokenIndex[session.Token] = session.ID
	return session, nil
}

// FindSessionByToken возвращает сессию по токену.
func (s *Storage) FindSessionByToken(ctx context.Context, token string) (models.Session, error) {
	const op = "storage.FindSessionByToken"
	if err := checkCtx(ctx, op); err != nil {
		return models.Session{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tokenIndex[token]
	if !ok {
		return models.Session{}, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}
	return s.sessions[id].session, nil
}

// FindSessionByID возвращает сессию по её идентификатору.
func (s *Storage) FindSessionByID(ctx context.Context, id string) (models.Session, error) {
	const op = "storage.FindSessionByID"
	if err := checkCtx(ctx, op); err != nil {
		return models.Session{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[id]
	if !ok {
		return models.Session{}, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}
	return rec.session, nil
}

// FindSessionsByUserID возвращает сессии пользователя, от старых к новым.
func (s *Storage) FindSessionsByUserID(ctx context.Context, userID string) []models.Session {
	if checkCtx(ctx, "storage.FindSessionsByUserID") != nil {
		return nil
	}

	s.mu.RLock()
	records := s.userSessionsLocked(userID)
	s.mu.RUnlock()

	sessions := make([]models.Session, len(records))
	for i, rec := range records {
		sessions[i] = rec.session
	}
	return sessions
}

// TouchSession обновляет время последней активности сессии.
func (s *Storage) TouchSession(ctx context.Context, token string, at time.Time) error {
	const op = "storage.TouchSession"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.tokenIndex[token]
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}
	rec := s.sessions[id]
	rec.session.LastActive = at
	s.sessions[id] = rec
	return nil
}

// DeleteSession удаляет сессию по токену.
func (s *Storage) DeleteSession(ctx context.Context, token string) bool {
	if checkCtx(ctx, "storage.DeleteSession") != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.tokenIndex[token]
	if !ok {
		return false
	}
	s.deleteSessionLocked(id)
	return true
}

// DeleteSessionsByUserID удаляет все сессии пользователя и возвращает их количество.
func (s *Storage) DeleteSessionsByUserID(ctx context.Context, userID string) int {
	if checkCtx(ctx, "storage.DeleteSessionsByUserID") != nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.userSessionsLocked(userID)
	for _, rec := range records {
		s.deleteSessionLocked(rec.session.ID)
	}
	return len(records)
}

// TrimSessions оставляет keep самых новых сессий пользователя,
// остальные удаляет. Возвращает количество удалённых сессий.
func (s *Storage) TrimSessions(ctx context.Context, userID string, keep int) int {
	if checkCtx(ctx, "storage.TrimSessions") != nil {
		return 0
	}
	if keep < 0 {
		keep = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.userSessionsLocked(userID)
	if len(records) <= keep {
		return 0
	}
	stale := records[:len(records)-keep]
	for _, rec := range stale {
		s.deleteSessionLocked(rec.session.ID)
	}
	return len(stale)
}

// CountSessions возвращает общее число сессий в хранилище.
func (s *Storage) CountSessions(ctx context.Context) int {
	if checkCtx(ctx, "storage.CountSessions") != nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Storage) userSessionsLocked(userID string) []sessionRecord {
	var records []sessionRecord
	for _, rec := range s.sessions {
		if rec.session.UserID == userID {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })
	return records
}

func (s *Storage) deleteSessionLocked(id string) {
	rec, ok := s.sessions[id]
	if !ok {
		return
	}
	delete(s.sessions, id)
	delete(s.tokenIndex, rec.session.Token)
}
