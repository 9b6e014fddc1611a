package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8000"`
	DBDSN   string `env:"DB_DSN" envDefault:"rbac.db"`
	LogFile string `env:"LOG_FILE"`

	// JWTSecret signs session tokens. Changing it invalidates every session.
	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	VerificationTTL time.Duration `env:"VERIFICATION_TTL" envDefault:"24h"`
	CookieSecure    bool          `env:"COOKIE_SECURE" envDefault:"true"`

	ClientURL   string   `env:"CLIENT_URL" envDefault:"http://localhost:3000"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	SMTP SMTP
}

// SMTP holds mail transport credentials. An empty Host means mail is only logged.
type SMTP struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"2525"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" envDefault:"mail.rbac@example.com"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	return env.ParseAs[Config]()
}

// Fields returns the effective settings for startup logging, secrets redacted.
func (c Config) Fields() map[string]any {
	return map[string]any{
		"port":             c.Port,
		"db_dsn":           c.DBDSN,
		"log_file":         c.LogFile,
		"jwt_secret":       redact(c.JWTSecret),
		"session_ttl":      c.SessionTTL.String(),
		"verification_ttl": c.VerificationTTL.String(),
		"cookie_secure":    c.CookieSecure,
		"client_url":       c.ClientURL,
		"cors_origins":     c.CORSOrigins,
		"smtp_host":        c.SMTP.Host,
		"smtp_port":        c.SMTP.Port,
		"smtp_username":    c.SMTP.Username,
		"smtp_password":    redact(c.SMTP.Password),
		"smtp_from":        c.SMTP.From,
	}
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
