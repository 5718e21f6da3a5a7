package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=fishledger port=5432 sslmode=disable"

type Config struct {
	HTTPPort       string
	DatabaseDSN    string
	JWTSecret      string
	CORSOrigins    string
	AttachmentPath string // purchase invoice/receipt uploads
	LogLevel       string

	// Printed in the header of receipts and report PDFs
	BusinessName    string
	BusinessAddress string
	BusinessPhone   string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	// Empty RedisAddress disables the report cache
	RedisAddress   string
	ReportCacheTTL int
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:     getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		CORSOrigins:     getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		AttachmentPath:  getEnv("ATTACHMENT_PATH", "./attachments"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		BusinessName:    getEnv("BUSINESS_NAME", "Fish Trading"),
		BusinessAddress: getEnv("BUSINESS_ADDRESS", ""),
		BusinessPhone:   getEnv("BUSINESS_PHONE", ""),
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getEnvInt("SMTP_PORT", 587),
		SMTPUser:        getEnv("SMTP_USER", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:        getEnv("SMTP_FROM", ""),
		RedisAddress:    getEnv("REDIS_ADDRESS", ""),
		ReportCacheTTL:  getEnvInt("REPORT_CACHE_TTL_SECONDS", 120),
	}

	logger := NewLogger(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is not set, it is required in production")
	}
	if len(cfg.JWTSecret) < 32 {
		logger.Fatal("JWT_SECRET must be at least 32 characters long")
	}
	if cfg.DatabaseDSN == defaultDSN {
		logger.Warn("DATABASE_DSN is using the default value, set your own Postgres connection for production")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		logger.Warn("CORS_ALLOWED_ORIGINS is using the default value, set your own domain for production")
	}
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST is not set, emailing receipts is disabled")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid integer %q, using default %d", v, def)
		return def
	}
	return n
}
