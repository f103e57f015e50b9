// Package services содержит бизнес-логику аутентификации: регистрацию,
// вход, подтверждение почты, сброс пароля, управление сессиями и
// административные операции над пользователями.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/contractforge-auth/internal/lib/apperr"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/jwt"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/randtoken"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/sl"
	"github.com/magabrotheeeer/contractforge-auth/internal/metrics"
	"github.com/magabrotheeeer/contractforge-auth/internal/models"
	"github.com/magabrotheeeer/contractforge-auth/internal/storage"
)

const unknownClient = "Unknown"

// Store описывает контракт хранилища пользователей и сессий.
type Store interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByID(ctx context.Context, id string) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUser(ctx context.Context, id string, patch func(*models.User) error) (models.User, error)
	DeleteUser(ctx context.Context, id string) bool
	GetAllUsers(ctx context.Context) []models.User

	CreateSession(ctx context.Context, session models.Session) (models.Session, error)
	FindSessionByToken(ctx context.Context, token string) (models.Session, error)
	FindSessionByID(ctx context.Context, id string) (models.Session, error)
	FindSessionsByUserID(ctx context.Context, userID string) []models.Session
	DeleteSession(ctx context.Context, token string) bool
	DeleteSessionsByUserID(ctx context.Context, userID string) int
	TrimSessions(ctx context.Context, userID string, keep int) int
	CountSessions(ctx context.Context) int
}

// PasswordHasher хеширует и проверяет пароли.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Notifier доставляет письма пользователям: напрямую по SMTP или через очередь.
type Notifier interface {
	Notify(ctx context.Context, msg models.EmailMessage) error
}

// Options настраивает поведение AuthService.
type Options struct {
	// StrictEmailVerification запрещает вход до подтверждения почты.
	StrictEmailVerification bool
	// MaxSessions — сколько последних сессий пользователя сохраняется при входе.
	MaxSessions int
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	// ConcealUnknownAccounts скрывает, зарегистрирована ли почта, при запросе сброса пароля.
	ConcealUnknownAccounts bool
	// RevokeSessionsOnPasswordReset завершает все сессии пользователя после сброса пароля.
	RevokeSessionsOnPasswordReset bool
	// SendTimeout ограничивает время отправки одного письма.
	SendTimeout time.Duration
	Now         func() time.Time
}

// Значения Options по умолчанию.
const (
	DefaultMaxSessions     = 5
	DefaultVerificationTTL = 24 * time.Hour
	DefaultResetTTL        = 10 * time.Minute
	DefaultSendTimeout     = 30 * time.Second
)

func (o Options) withDefaults() Options {
	if o.MaxSessions <= 0 {
		o.MaxSessions = DefaultMaxSessions
	}
	if o.VerificationTTL <= 0 {
		o.VerificationTTL = DefaultVerificationTTL
	}
	if o.ResetTTL <= 0 {
		o.ResetTTL = DefaultResetTTL
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = DefaultSendTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// SigninResult — результат успешного входа.
type SigninResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// AuthService отвечает за регистрацию, вход, одноразовые токены,
// сессии и администрирование пользователей.
type AuthService struct {
	log      *slog.Logger
	store    Store
	tokens   jwt.Maker
	hasher   PasswordHasher
	notifier Notifier
	metrics  *metrics.Metrics
	opts     Options

	wg sync.WaitGroup

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService создает новый экземпляр AuthService.
// notifier может быть nil: тогда письма не отправляются.
func NewAuthService(
	log *slog.Logger,
	store Store,
	tokens jwt.Maker,
	hasher PasswordHasher,
	notifier Notifier,
	m *metrics.Metrics,
	opts Options,
) *AuthService {
	if m == nil {
		m = metrics.New(nil)
	}
	return &AuthService{
		log:      log,
		store:    store,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
		metrics:  m,
		opts:     opts.withDefaults(),
	}
}

// Signup регистрирует неподтверждённого пользователя с ролью user
// и отправляет письмо для подтверждения почты.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (err error) {
	const op = "auth.Signup"
	defer func() {
		s.metrics.Signups.WithLabelValues(metrics.Result(err)).Inc()
	}()

	if _, err := s.store.FindUserByEmail(ctx, email); err == nil {
		return fmt.Errorf("%s: %w", op, apperr.ErrConflict)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	token, err := randtoken.New()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	expires := s.opts.Now().Add(s.opts.VerificationTTL)

	user, err := s.store.CreateUser(ctx, models.User{
		Name:                     name,
		Email:                    email,
		PasswordHash:             hash,
		Role:                     models.RoleUser,
		EmailVerificationToken:   &token,
		EmailVerificationExpires: &expires,
	})
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return fmt.Errorf("%s: %w", op, apperr.ErrConflict)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user signed up", slog.String("user_id", user.ID))
	s.dispatch(models.EmailMessage{
		Kind:  models.EmailVerification,
		To:    user.Email,
		Name:  user.Name,
		Token: token,
	})
	return nil
}

// Signin проверяет почту и пароль, создаёт сессию и выдаёт токен.
// У пользователя сохраняются только MaxSessions последних сессий.
func (s *AuthService) Signin(ctx context.Context, email, password, device, ip string) (res SigninResult, err error) {
	const op = "auth.Signin"
	defer func() {
		s.metrics.Signins.WithLabelValues(metrics.Result(err)).Inc()
	}()

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// сравнение с заглушкой выравнивает время ответа для неизвестной почты
			_ = s.hasher.Compare(s.dummyPasswordHash(), password)
			return SigninResult{}, fmt.Errorf("%s: %w", op, apperr.ErrInvalidCredentials)
		}
		return SigninResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return SigninResult{}, fmt.Errorf("%s: %w", op, apperr.ErrInvalidCredentials)
	}
	if s.opts.StrictEmailVerification && !user.IsEmailVerified {
		return SigninResult{}, fmt.Errorf("%s: %w", op, apperr.ErrEmailNotVerified)
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return SigninResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if device == "" {
		device = unknownClient
	}
	if ip == "" {
		ip = unknownClient
	}
	if _, err := s.store.CreateSession(ctx, models.Session{
		Token:  token,
		UserID: user.ID,
		Device: device,
		IP:     ip,
	}); err != nil {
		return SigninResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if pruned := s.store.TrimSessions(ctx, user.ID, s.opts.MaxSessions); pruned > 0 {
		s.metrics.SessionsRevoked.Add(float64(pruned))
		s.log.Debug("old sessions pruned", slog.String("user_id", user.ID), slog.Int("count", pruned))
	}

	return SigninResult{Token: token, User: user.Public()}, nil
}

// dummyPasswordHash возвращает хеш с той же стоимостью, что и у настоящих паролей.
func (s *AuthService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("contractforge-dummy-password")
		if err != nil {
			s.log.Error("failed to prepare dummy password hash", sl.Err(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// VerifyEmail подтверждает почту по одноразовому токену.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	const op = "auth.VerifyEmail"

	user, ok := s.findByVerificationToken(ctx, token)
	if !ok {
		return fmt.Errorf("%s: %w", op, apperr.ErrInvalidToken)
	}

	_, err := s.store.UpdateUser(ctx, user.ID, func(u *models.User) error {
		if !tokenValid(u.EmailVerificationToken, u.EmailVerificationExpires, token, s.opts.Now()) {
			return apperr.ErrInvalidToken
		}
		u.IsEmailVerified = true
		u.EmailVerificationToken = nil
		u.EmailVerificationExpires = nil
		return nil
	})
	if err != nil {
		return wrapStoreErr(op, err)
	}

	s.log.Info("email verified", slog.String("user_id", user.ID))
	return nil
}

// ForgotPassword выдаёт токен сброса пароля и отправляет его на почту.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	const op = "auth.ForgotPassword"

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			if s.opts.ConcealUnknownAccounts {
				return nil
			}
			return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := randtoken.New()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	expires := s.opts.Now().Add(s.opts.ResetTTL)

	user, err = s.store.UpdateUser(ctx, user.ID, func(u *models.User) error {
		u.ResetPasswordToken = &token
		u.ResetPasswordExpires = &expires
		return nil
	})
	if err != nil {
		return wrapStoreErr(op, err)
	}

	s.dispatch(models.EmailMessage{
		Kind:  models.EmailPasswordReset,
		To:    user.Email,
		Name:  user.Name,
		Token: token,
	})
	return nil
}

// ResetPassword устанавливает новый пароль по одноразовому токену сброса.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "auth.ResetPassword"

	user, ok := s.findByResetToken(ctx, token)
	if !ok {
		return fmt.Errorf("%s: %w", op, apperr.ErrInvalidToken)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.store.UpdateUser(ctx, user.ID, func(u *models.User) error {
		if !tokenValid(u.ResetPasswordToken, u.ResetPasswordExpires, token, s.opts.Now()) {
			return apperr.ErrInvalidToken
		}
		u.PasswordHash = hash
		u.ResetPasswordToken = nil
		u.ResetPasswordExpires = nil
		return nil
	})
	if err != nil {
		return wrapStoreErr(op, err)
	}

	if s.opts.RevokeSessionsOnPasswordReset {
		if n := s.store.DeleteSessionsByUserID(ctx, user.ID); n > 0 {
			s.metrics.SessionsRevoked.Add(float64(n))
		}
	}

	s.log.Info("password reset", slog.String("user_id", user.ID))
	return nil
}

// GetProfile возвращает публичные данные пользователя.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (models.PublicUser, error) {
	const op = "auth.GetProfile"

	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return models.PublicUser{}, wrapStoreErr(op, err)
	}
	return user.Public(), nil
}

// GetSessions возвращает сессии пользователя без токенов, от старых к новым.
func (s *AuthService) GetSessions(ctx context.Context, userID string) []models.SessionView {
	sessions := s.store.FindSessionsByUserID(ctx, userID)
	views := make([]models.SessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, sess.View())
	}
	return views
}

// RevokeSession удаляет сессию вызывающего пользователя. Сессия ищется
// по токену, а если такого токена нет, по идентификатору сессии.
// Чужая сессия неотличима от несуществующей.
func (s *AuthService) RevokeSession(ctx context.Context, tokenOrID, callerUserID string) error {
	const op = "auth.RevokeSession"

	sess, err := s.store.FindSessionByToken(ctx, tokenOrID)
	if errors.Is(err, storage.ErrSessionNotFound) {
		sess, err = s.store.FindSessionByID(ctx, tokenOrID)
	}
	if err != nil {
		return wrapStoreErr(op, err)
	}
	if sess.UserID != callerUserID {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if !s.store.DeleteSession(ctx, sess.Token) {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}

	s.metrics.SessionsRevoked.Inc()
	return nil
}

// ListUsers возвращает всех пользователей в порядке регистрации.
func (s *AuthService) ListUsers(ctx context.Context) []models.PublicUser {
	users := s.store.GetAllUsers(ctx)
	res := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		res = append(res, u.Public())
	}
	return res
}

// GetUser возвращает пользователя по идентификатору.
func (s *AuthService) GetUser(ctx context.Context, id string) (models.PublicUser, error) {
	const op = "auth.GetUser"

	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return models.PublicUser{}, wrapStoreErr(op, err)
	}
	return user.Public(), nil
}

// UpdateUser изменяет имя, почту или роль пользователя.
// Поля, не переданные в upd, остаются прежними.
func (s *AuthService) UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (models.PublicUser, error) {
	const op = "auth.UpdateUser"

	if upd.Role != nil && !upd.Role.Valid() {
		return models.PublicUser{}, fmt.Errorf("%s: %w", op, apperr.ErrValidation)
	}

	user, err := s.store.UpdateUser(ctx, id, func(u *models.User) error {
		if upd.Name != nil {
			u.Name = *upd.Name
		}
		if upd.Email != nil {
			u.Email = *upd.Email
		}
		if upd.Role != nil {
			u.Role = *upd.Role
		}
		return nil
	})
	if err != nil {
		return models.PublicUser{}, wrapStoreErr(op, err)
	}

	s.log.Info("user updated", slog.String("user_id", id))
	return user.Public(), nil
}

// DeleteUser удаляет пользователя вместе со всеми его сессиями.
func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	const op = "auth.DeleteUser"

	if !s.store.DeleteUser(ctx, id) {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if n := s.store.DeleteSessionsByUserID(ctx, id); n > 0 {
		s.metrics.SessionsRevoked.Add(float64(n))
	}

	s.log.Info("user deleted", slog.String("user_id", id))
	return nil
}

// GetSystemStats возвращает агрегированную статистику по пользователям и сессиям.
func (s *AuthService) GetSystemStats(ctx context.Context) models.Stats {
	users := s.store.GetAllUsers(ctx)
	stats := models.Stats{
		TotalUsers:    len(users),
		TotalSessions: s.store.CountSessions(ctx),
	}
	for _, u := range users {
		if u.IsEmailVerified {
			stats.VerifiedUsers++
		}
		if u.Role == models.RoleAdmin {
			stats.AdminUsers++
		}
	}
	return stats
}

// EnsureAdmin создаёт подтверждённого администратора, если пользователя
// с такой почтой ещё нет. Существующий пользователь не изменяется.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	const op = "auth.EnsureAdmin"

	if email == "" || password == "" {
		return nil
	}
	if _, err := s.store.FindUserByEmail(ctx, email); err == nil {
		return nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.store.CreateUser(ctx, models.User{
		Name:            name,
		Email:           email,
		PasswordHash:    hash,
		Role:            models.RoleAdmin,
		IsEmailVerified: true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("admin account created", slog.String("user_id", user.ID))
	return nil
}

// Wait блокируется до завершения всех начатых отправок писем.
func (s *AuthService) Wait() {
	s.wg.Wait()
}

// dispatch отправляет письмо в фоне. Ошибка доставки только логируется
// и не влияет на результат операции.
func (s *AuthService) dispatch(msg models.EmailMessage) {
	if s.notifier == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.SendTimeout)
		defer cancel()

		err := s.notifier.Notify(ctx, msg)
		s.metrics.Emails.WithLabelValues(string(msg.Kind), metrics.Result(err)).Inc()
		if err != nil {
			s.log.Error("failed to send email", slog.String("kind", string(msg.Kind)), sl.Err(err))
		}
	}()
}

func (s *AuthService) findByVerificationToken(ctx context.Context, token string) (models.User, bool) {
	now := s.opts.Now()
	for _, u := range s.store.GetAllUsers(ctx) {
		if tokenValid(u.EmailVerificationToken, u.EmailVerificationExpires, token, now) {
			return u, true
		}
	}
	return models.User{}, false
}

func (s *AuthService) findByResetToken(ctx context.Context, token string) (models.User, bool) {
	now := s.opts.Now()
	for _, u := range s.store.GetAllUsers(ctx) {
		if tokenValid(u.ResetPasswordToken, u.ResetPasswordExpires, token, now) {
			return u, true
		}
	}
	return models.User{}, false
}

// tokenValid сообщает, совпадает ли сохранённый одноразовый токен
// с предъявленным и не истёк ли его срок.
func tokenValid(stored *string, expires *time.Time, token string, now time.Time) bool {
	if token == "" || stored == nil || expires == nil {
		return false
	}
	return *stored == token && expires.After(now)
}

// wrapStoreErr переводит ошибки хранилища в ошибки сервиса.
func wrapStoreErr(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrUserNotFound), errors.Is(err, storage.ErrSessionNotFound):
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	case errors.Is(err, storage.ErrEmailTaken):
		return fmt.Errorf("%s: %w", op, apperr.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
