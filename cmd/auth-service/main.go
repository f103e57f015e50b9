// Package main ContractForge Auth API
//
// @title           ContractForge Auth API
// @version         1.0
// @description     Регистрация, вход, подтверждение почты, сброс пароля, управление сессиями и пользователями.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:9876
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/contractforge-auth/internal/app/auth"
	"github.com/magabrotheeeer/contractforge-auth/internal/config"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.New(cfg.Env, cfg.LogLevel)

	logger.Info("starting auth-service", slog.String("env", cfg.Env))
	logger.Debug("loaded config", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := auth.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("auth-service stopped gracefully")
}
