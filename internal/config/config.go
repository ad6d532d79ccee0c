// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/database"
)

// Config is the complete runtime configuration of the service.
type Config struct {
	Port       int        `env:"PORT" envDefault:"8080"`
	LogLevel   slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	AppBaseURL string     `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	Database database.Config `envPrefix:"DB_"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	SMTP     SMTPConfig     `envPrefix:"SMTP_"`
	Telegram TelegramConfig `envPrefix:"TELEGRAM_"`
	Calendar CalendarConfig

	RetryMaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"25"`
	RetryStep        time.Duration `env:"RETRY_STEP" envDefault:"250ms"`

	ReminderInterval time.Duration `env:"REMINDER_INTERVAL" envDefault:"1h"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// SMTPConfig holds outgoing mail settings.
type SMTPConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"25"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"lnd-events@localhost"`
}

// TelegramConfig holds the team channel bot settings. TeamChats maps an
// L&D team id to the chat its cards are posted to.
type TelegramConfig struct {
	Token     string           `env:"TOKEN"`
	TeamChats map[string]int64 `env:"TEAM_CHATS"`
}

// CalendarConfig holds Google Calendar settings.
type CalendarConfig struct {
	CredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE"`
	CalendarID      string `env:"GOOGLE_CALENDAR_ID" envDefault:"primary"`
	TimeZone        string `env:"CALENDAR_TIME_ZONE" envDefault:"UTC"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
