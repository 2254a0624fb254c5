package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr     string
	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers []string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	LinkTokenSecret string
	LinkTokenTTL    time.Duration

	MailCooldown time.Duration
	StoreTimeout time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFromName string

	GoogleClientID     string
	GoogleClientSecret string

	BaseURL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, using default values", "error", err)
	}

	cfg := &Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		PostgresDSN:        getEnv("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=threadlens sslmode=disable"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:       []string{getEnv("KAFKA_BROKER", "localhost:9092")},
		JWTSecret:          getEnv("JWT_SECRET", "supersecret"),
		AccessTokenTTL:     getDuration("ACCESS_TOKEN_TTL", 10*time.Minute),
		RefreshTokenTTL:    getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		LinkTokenSecret:    getEnv("LINK_TOKEN_SECRET", "linksecret"),
		LinkTokenTTL:       getDuration("LINK_TOKEN_TTL", 24*time.Hour),
		MailCooldown:       getDuration("MAIL_COOLDOWN", 5*time.Minute),
		StoreTimeout:       getDuration("STORE_TIMEOUT", 3*time.Second),
		SMTPHost:           getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:           getInt("SMTP_PORT", 587),
		SMTPUsername:       os.Getenv("SMTP_USERNAME"),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
		MailFromName:       getEnv("MAIL_FROM_NAME", "ThreadLens"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
	}

	slog.Info("config loaded",
		"http_addr", cfg.HTTPAddr,
		"redis_addr", cfg.RedisAddr,
		"kafka_brokers", cfg.KafkaBrokers,
		"access_token_ttl", cfg.AccessTokenTTL,
		"refresh_token_ttl", cfg.RefreshTokenTTL)
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in env, using default", "key", key, "value", v)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in env, using default", "key", key, "value", v)
		return fallback
	}
	return d
}
