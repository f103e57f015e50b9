// Package config предоставляет структуры и функции для загрузки конфигурации сервиса.
//
// Конфигурация читается из YAML-файла, путь к которому задаёт CONFIG_PATH.
// Если CONFIG_PATH не задан, значения берутся только из переменных окружения.
// Переменные окружения имеют приоритет над значениями из файла.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"development"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	FrontendURL string `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:3000"`

	HTTPServer      `yaml:"http_server"`
	JWTToken        `yaml:"jwttoken"`
	Auth            `yaml:"auth"`
	SMTP            `yaml:"smtp"`
	RateLimit       `yaml:"rate_limit"`
	RedisConnection `yaml:"redis_connection"`
	RabbitMQ        `yaml:"rabbitmq"`
	Admin           `yaml:"admin"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP     string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":9876"`
	TimeoutHTTP     time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"JWT_TOKEN_TTL" env-default:"720h"`
}

// Auth настройки правил аутентификации
type Auth struct {
	StrictEmailVerification       bool          `yaml:"strict_email_verification" env:"AUTH_STRICT_EMAIL_VERIFICATION" env-default:"false"`
	MaxSessions                   int           `yaml:"max_sessions" env:"AUTH_MAX_SESSIONS" env-default:"5"`
	VerificationTTL               time.Duration `yaml:"verification_ttl" env:"AUTH_VERIFICATION_TTL" env-default:"24h"`
	ResetTTL                      time.Duration `yaml:"reset_ttl" env:"AUTH_RESET_TTL" env-default:"10m"`
	ConcealUnknownAccounts        bool          `yaml:"conceal_unknown_accounts" env:"AUTH_CONCEAL_UNKNOWN_ACCOUNTS" env-default:"false"`
	RevokeSessionsOnPasswordReset bool          `yaml:"revoke_sessions_on_password_reset" env:"AUTH_REVOKE_SESSIONS_ON_PASSWORD_RESET" env-default:"false"`
	BcryptCost                    int           `yaml:"bcrypt_cost" env:"AUTH_BCRYPT_COST" env-default:"12"`
}

// SMTP настройки почтового сервера
type SMTP struct {
	SMTPHost        string        `yaml:"host" env:"SMTP_HOST" env-default:"smtp.gmail.com"`
	SMTPPort        string        `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser        string        `yaml:"user" env:"SMTP_USER"`
	SMTPPass        string        `yaml:"pass" env:"SMTP_PASS"`
	SMTPFrom        string        `yaml:"from" env:"SMTP_FROM"`
	SMTPSendTimeout time.Duration `yaml:"send_timeout" env:"SMTP_SEND_TIMEOUT" env-default:"30s"`
}

// RateLimit настройки ограничения частоты запросов
type RateLimit struct {
	GeneralRequests int           `yaml:"general_requests" env:"RATE_LIMIT_GENERAL_REQUESTS" env-default:"100"`
	GeneralWindow   time.Duration `yaml:"general_window" env:"RATE_LIMIT_GENERAL_WINDOW" env-default:"15m"`
	AuthRequests    int           `yaml:"auth_requests" env:"RATE_LIMIT_AUTH_REQUESTS" env-default:"5"`
	AuthWindow      time.Duration `yaml:"auth_window" env:"RATE_LIMIT_AUTH_WINDOW" env-default:"1h"`
}

// RedisConnection структура для настройки подключения к redis.
// Если адрес не задан, счётчики лимитов хранятся в памяти процесса.
type RedisConnection struct {
	RedisAddress      string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	RedisPassword     string        `yaml:"password" env:"REDIS_PASSWORD"`
	RedisUser         string        `yaml:"user" env:"REDIS_USER"`
	RedisDB           int           `yaml:"db" env:"REDIS_DB"`
	RedisMaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES"`
	RedisDialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT"`
	RedisTimeoutRedis time.Duration `yaml:"timeoutredis" env:"REDIS_TIMEOUT"`
}

// RabbitMQ настройки очереди писем.
// Если URL не задан, письма отправляются напрямую по SMTP.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQRetries    int           `yaml:"retries" env:"RABBITMQ_RETRIES" env-default:"5"`
	RabbitMQDelay      time.Duration `yaml:"delay" env:"RABBITMQ_DELAY" env-default:"2s"`
	RabbitMQExchange   string        `yaml:"exchange" env:"RABBITMQ_EXCHANGE" env-default:"auth.notifications"`
	RabbitMQQueue      string        `yaml:"queue" env:"RABBITMQ_QUEUE" env-default:"auth.emails"`
	RabbitMQRoutingKey string        `yaml:"routing_key" env:"RABBITMQ_ROUTING_KEY" env-default:"email"`
}

// Admin учётная запись администратора, создаваемая при старте
type Admin struct {
	AdminName     string `yaml:"name" env:"ADMIN_NAME" env-default:"Administrator"`
	AdminEmail    string `yaml:"email" env:"ADMIN_EMAIL"`
	AdminPassword string `yaml:"password" env:"ADMIN_PASSWORD"`
}

// Load читает конфигурацию из файла CONFIG_PATH, если он задан, и из окружения.
func Load() (*Config, error) {
	const op = "config.Load"
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфигурацию и завершает процесс при ошибке.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// IsProduction сообщает, запущен ли сервис в production-окружении.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"LogLevel: %s\n"+
			"FrontendURL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  JWTSecretKey: %s\n"+
			"  TokenTTL: %s\n"+
			"Auth:\n"+
			"  StrictEmailVerification: %t\n"+
			"  MaxSessions: %d\n"+
			"  BcryptCost: %d\n"+
			"SMTP:\n"+
			"  Host: %s\n"+
			"  Port: %s\n"+
			"  User: %s\n"+
			"  Pass: %s\n"+
			"RateLimit:\n"+
			"  General: %d per %s\n"+
			"  Auth: %d per %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  Password: %s\n"+
			"RabbitMQ:\n"+
			"  URL: %s\n"+
			"Admin:\n"+
			"  Email: %s\n"+
			"  Password: %s\n",
		c.Env,
		c.LogLevel,
		c.FrontendURL,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		redact(c.JWTSecretKey),
		c.TokenTTL,
		c.StrictEmailVerification,
		c.MaxSessions,
		c.BcryptCost,
		c.SMTPHost,
		c.SMTPPort,
		c.SMTPUser,
		redact(c.SMTPPass),
		c.GeneralRequests,
		c.GeneralWindow,
		c.AuthRequests,
		c.AuthWindow,
		c.RedisAddress,
		redact(c.RedisPassword),
		redact(c.RabbitMQURL),
		c.AdminEmail,
		redact(c.AdminPassword),
	)
}
