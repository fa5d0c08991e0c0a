package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// OtpTTL is how long an issued passcode stays valid.
	OtpTTL = 5 * time.Minute
	// TokenTTL is the session token validity window.
	TokenTTL = 365 * 24 * time.Hour
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type TwilioConfig struct {
	AccountSID       string
	AuthToken        string
	VerifyServiceSID string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type Config struct {
	Addr        string
	Env         string
	DatabaseURL string
	JWTSecret   string
	SMTP        SMTPConfig
	Twilio      TwilioConfig
	Cloudinary  CloudinaryConfig
}

// Load reads configuration from the environment, picking up a local .env
// file when present. Only DATABASE_URL and JWT_SECRET are hard requirements;
// provider credentials are validated lazily when the provider is first used.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:        ":" + envOrDefault("PORT", "8080"),
		Env:         envOrDefault("APP_ENV", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		SMTP: SMTPConfig{
			Host:     envOrDefault("SMTP_HOST", "smtp.gmail.com"),
			Port:     envIntOrDefault("SMTP_PORT", 587),
			Username: os.Getenv("EMAIL_USER"),
			Password: os.Getenv("EMAIL_PASS"),
			From:     envOrDefault("EMAIL_FROM", os.Getenv("EMAIL_USER")),
		},
		Twilio: TwilioConfig{
			AccountSID:       os.Getenv("TWILIO_SID"),
			AuthToken:        os.Getenv("TWILIO_AUTH_TOKEN"),
			VerifyServiceSID: os.Getenv("TWILIO_SERVICE"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
