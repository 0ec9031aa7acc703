package main

import (
	"flag"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

type Config struct {
	Address             string        `env:"RUN_ADDRESS" envDefault:"localhost:8080"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"INFO"`
	Environment         string        `env:"APP_ENV" envDefault:"development"`
	DatabaseConnection  string        `env:"DATABASE_URI"`
	BotToken            string        `env:"TELEGRAM_BOT_TOKEN"`
	AdminTelegramIDs    string        `env:"ADMIN_TELEGRAM_IDS"`
	AllowedOrigins      string        `env:"ALLOWED_ORIGINS"`
	InitDataMaxAge      time.Duration `env:"TELEGRAM_AUTH_MAX_AGE" envDefault:"24h"`
	PendingReminderSpec string        `env:"PENDING_REMINDER_CRON" envDefault:"@every 1h"`
}

func NewConfig() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	address := flag.String("a", cfg.Address, "{Host:port} for server")
	loglevel := flag.String("l", cfg.LogLevel, "Log level for server")
	environment := flag.String("e", cfg.Environment, "Runtime mode (development or production)")
	databaseConnection := flag.String("d", cfg.DatabaseConnection, "Database connection string")
	botToken := flag.String("t", cfg.BotToken, "Telegram bot token for init-data verification and notifications")
	adminIDs := flag.String("admins", cfg.AdminTelegramIDs, "Comma-separated admin telegram ids")
	initDataMaxAge := flag.Duration("max-age", cfg.InitDataMaxAge, "Max accepted age of Telegram init data")

	flag.Parse()

	cfg.Address = *address
	cfg.LogLevel = *loglevel
	cfg.Environment = *environment
	cfg.DatabaseConnection = *databaseConnection
	cfg.BotToken = *botToken
	cfg.AdminTelegramIDs = *adminIDs
	cfg.InitDataMaxAge = *initDataMaxAge

	return cfg, nil
}

func (c *Config) AdminIDs() []string {
	return splitTrimmed(c.AdminTelegramIDs)
}

func (c *Config) Origins() []string {
	return splitTrimmed(c.AllowedOrigins)
}

func splitTrimmed(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
