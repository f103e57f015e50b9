// Package cache содержит счётчики ограничения частоты запросов в Redis.
// Используется, когда несколько экземпляров сервиса должны делить один бюджет запросов.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/contractforge-auth/internal/config"
)

// Cache хранит подключение к Redis.
type Cache struct {
	Db *redis.Client
}

// InitServer подключается к Redis и проверяет соединение через PING.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddress,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		Username:     cfg.RedisUser,
		MaxRetries:   cfg.RedisMaxRetries,
		DialTimeout:  cfg.RedisDialTimeout,
		ReadTimeout:  cfg.RedisTimeoutRedis,
		WriteTimeout: cfg.RedisTimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Close закрывает подключение.
func (c *Cache) Close() error {
	return c.Db.Close()
}

// windowScript увеличивает счётчик и выставляет TTL в одной операции. TTL ставится
// и ключу без срока жизни, чтобы счётчик не остался навсегда.
var windowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 or redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// WindowLimiter — ограничитель с фиксированным окном: INCR по ключу клиента,
// на первом запросе окна ключу выставляется TTL.
type WindowLimiter struct {
	db     *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewWindowLimiter создаёт ограничитель на limit запросов за window.
// prefix отделяет счётчики разных политик друг от друга.
func (c *Cache) NewWindowLimiter(prefix string, limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		db:     c.Db,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

// Allow увеличивает счётчик клиента и сообщает, укладывается ли запрос в лимит.
func (l *WindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	const op = "cache.WindowLimiter.Allow"
	k := "ratelimit:" + l.prefix + ":" + key

	count, err := windowScript.Run(ctx, l.db, []string{k}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return count <= l.limit, nil
}
