package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv   string
	JWTSecret string
	Database  DatabaseConfig
	Server    ServerConfig
	Log       LogConfig
	QR        QRConfig
	Sweep     SweepConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Silent   bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// LogConfig selects the zap encoder and level
type LogConfig struct {
	Level  string
	Format string
}

// QRConfig configures where rendered QR images are stored
type QRConfig struct {
	BaseURL string
	Driver  string // "file" or "minio"
	Dir     string
	MinIO   MinIOConfig
}

// MinIOConfig holds object storage credentials for the minio QR driver
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// SweepConfig controls the upcoming-maintenance reminder sweep
type SweepConfig struct {
	Enabled    bool
	Interval   time.Duration
	WithinDays int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	shutdown, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	interval, err := getDuration("SWEEP_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	withinDays, err := getInt("SWEEP_WITHIN_DAYS", 7)
	if err != nil {
		return nil, err
	}

	return &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		JWTSecret: jwtSecret,
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "eckassets"),
			Silent:   getEnv("DB_LOG_SILENT", "false") == "true",
		},
		Server: ServerConfig{
			Port:            getEnv("PORT", "3210"),
			ShutdownTimeout: shutdown,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		QR: QRConfig{
			BaseURL: getEnv("QR_BASE_URL", "http://localhost:3210/assets"),
			Driver:  getEnv("QR_DRIVER", "file"),
			Dir:     getEnv("QR_DIR", "./uploads/qr"),
			MinIO: MinIOConfig{
				Endpoint:  os.Getenv("MINIO_ENDPOINT"),
				AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
				SecretKey: os.Getenv("MINIO_SECRET_KEY"),
				Bucket:    getEnv("MINIO_BUCKET", "asset-qr"),
				UseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
			},
		},
		Sweep: SweepConfig{
			Enabled:    getEnv("SWEEP_ENABLED", "true") == "true",
			Interval:   interval,
			WithinDays: withinDays,
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
