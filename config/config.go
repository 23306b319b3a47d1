package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Database connection settings
var PostgresHost string
var PostgresPort string
var PostgresUser string
var PostgresPassword string
var PostgresDB string

// Redis connection settings
var RedisAddr string
var RedisPassword string

// Auth settings
var JWTSecret string
var DefaultPassword string

// Orchestration backend settings
var OrchestratorURL string
var OrchestratorTimeout time.Duration
var OrchestratorRetries int

// Access code settings
var CodeDefaultTTL time.Duration
var CodeDefaultMaxUses int

// Mail settings for password reset emails
var MailHost string
var MailPort string
var MailUsername string
var MailPassword string
var ClientUrl string

// Server settings
var ServerPort string
var AllowedOrigins string

// LoadConfig loads the configuration from the .env file or the environment
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, reading configuration from environment")
	}

	PostgresHost = getEnv("POSTGRES_HOST", "localhost")
	PostgresPort = getEnv("POSTGRES_PORT", "5432")
	PostgresUser = getEnv("POSTGRES_USER", "postgres")
	PostgresPassword = getEnv("POSTGRES_PASSWORD", "postgres")
	PostgresDB = getEnv("POSTGRES_DB", "rangeapi")

	RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	RedisPassword = getEnv("REDIS_PASSWORD", "")

	JWTSecret = getEnv("JWT_SECRET", "")
	DefaultPassword = getEnv("DEFAULT_PASSWORD", "")

	OrchestratorURL = getEnv("ORCHESTRATOR_URL", "http://localhost:8081")
	OrchestratorTimeout = getDurationEnv("ORCHESTRATOR_TIMEOUT", 30*time.Second)
	OrchestratorRetries = getIntEnv("ORCHESTRATOR_RETRIES", 1)

	CodeDefaultTTL = getDurationEnv("CODE_DEFAULT_TTL", 24*time.Hour)
	CodeDefaultMaxUses = getIntEnv("CODE_DEFAULT_MAX_USES", 0)

	MailHost = getEnv("MAIL_HOST", "")
	MailPort = getEnv("MAIL_PORT", "587")
	MailUsername = getEnv("MAIL_USERNAME", "")
	MailPassword = getEnv("MAIL_PASSWORD", "")
	ClientUrl = getEnv("CLIENT_URL", "http://localhost:5173")

	ServerPort = getEnv("SERVER_PORT", "8080")
	AllowedOrigins = getEnv("ALLOWED_ORIGINS", "http://localhost:5173")

	if JWTSecret == "" {
		logrus.Fatal("JWT_SECRET is required")
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.WithField("key", key).Warnf("Invalid integer value %q, using default", value)
		return fallback
	}
	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logrus.WithField("key", key).Warnf("Invalid duration value %q, using default", value)
		return fallback
	}
	return parsed
}
