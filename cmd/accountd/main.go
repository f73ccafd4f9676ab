// Command accountd runs the in-memory backend account API for local development.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"

	"github.com/tendant/socialconnect/pkg/config"
	"github.com/tendant/socialconnect/pkg/devbackend"
)

type Config struct {
	Port         int           `env:"ACCOUNTD_PORT" env-default:"4000"`
	BasePath     string        `env:"ACCOUNTD_BASE_PATH" env-default:"/v1"`
	JWTSecret    string        `env:"ACCOUNTD_JWT_SECRET" env-default:"accountd-dev-secret"`
	TokenTTL     time.Duration `env:"ACCOUNTD_TOKEN_TTL" env-default:"24h"`
	CookieSecure bool          `env:"ACCOUNTD_COOKIE_SECURE" env-default:"false"`

	// Optional account created at startup
	SeedUsername string `env:"ACCOUNTD_SEED_USERNAME"`
	SeedPassword string `env:"ACCOUNTD_SEED_PASSWORD"`
	SeedEmail    string `env:"ACCOUNTD_SEED_EMAIL" env-default:"demo@example.com"`
}

func main() {
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	if config.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))

	loadEnvFile()

	cfg := Config{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to read configuration", "error", err)
		os.Exit(1)
	}
	if config.IsProduction() && cfg.JWTSecret == "accountd-dev-secret" {
		slog.Error("ACCOUNTD_JWT_SECRET must be set in production")
		os.Exit(1)
	}

	repo := devbackend.NewInMemoryRepository()
	svc := devbackend.NewService(repo)
	if cfg.SeedUsername != "" {
		account, err := svc.Register(context.Background(), cfg.SeedUsername, cfg.SeedPassword, cfg.SeedEmail, "")
		if err != nil {
			slog.Error("Failed to create seed account", "username", cfg.SeedUsername, "error", err)
			os.Exit(1)
		}
		slog.Info("Seed account created", "username", account.Username, "id", account.ID)
	}

	h := devbackend.NewHandler(svc, []byte(cfg.JWTSecret),
		devbackend.WithTokenTTL(cfg.TokenTTL),
		devbackend.WithSecureCookie(cfg.CookieSecure),
	)

	server := app.NewApp(app.WithPort(cfg.Port))
	app.RegisterHealthzRoutes(server.R)
	server.R.Mount(cfg.BasePath, h.Routes())

	slog.Info(strings.Repeat("=", 60))
	slog.Info("Account API Ready", "port", cfg.Port, "base_path", cfg.BasePath)
	slog.Info("  POST " + cfg.BasePath + "/auth/register")
	slog.Info("  POST " + cfg.BasePath + "/auth/login")
	slog.Info("  POST " + cfg.BasePath + "/auth/logout")
	slog.Info("  POST " + cfg.BasePath + "/auth/{provider}/connect")
	slog.Info("  POST " + cfg.BasePath + "/users/me")
	slog.Info(strings.Repeat("=", 60))

	server.Run()
}

// loadEnvFile loads .env from the executable's directory or the working directory, if present
func loadEnvFile() {
	candidates := []string{}
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), ".env"))
	}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, ".env"))
	}

	for _, envFile := range candidates {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		slog.Info("Loading configuration from .env file", "path", envFile)
		if err := godotenv.Load(envFile); err != nil {
			slog.Warn("Failed to load .env file", "error", err)
		}
		return
	}
	slog.Debug("No .env file found (using environment variables or defaults)")
}
