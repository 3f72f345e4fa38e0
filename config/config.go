package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerHost string
	ServerPort string

	// Database configuration. Driver is "postgres" or "sqlite"; the
	// sqlite path is only consulted when the sqlite driver is selected.
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration (only needed when RateLimitBackend is "redis")
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Rate limiting backend: "memory" (default) or "redis"
	RateLimitBackend string

	// Mistral API configuration
	MistralAPIKey  string
	MistralModel   string
	MistralBaseURL string

	// Image pipeline configuration
	ImageProvider    string
	ImagesDir        string
	DefaultImagePath string

	// Optional S3 mirror for generated images
	S3Bucket  string
	AWSRegion string

	// CORS allowed origins
	CORSOrigins []string
}

// Load builds a Config from the environment, reading an optional .env
// file first. Missing values fall back to development defaults; required
// values are checked by Validate according to the current environment.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		ServerHost: getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "mixologue"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "cocktails"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "cocktails.db"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		RateLimitBackend: getEnv("RATE_LIMIT_BACKEND", "memory"),

		MistralAPIKey:  os.Getenv("MISTRAL_API_KEY"),
		MistralModel:   getEnv("MISTRAL_MODEL", "mistral-large-latest"),
		MistralBaseURL: getEnv("MISTRAL_BASE_URL", "https://api.mistral.ai"),

		ImageProvider:    getEnv("IMAGE_PROVIDER", "mistral_agents"),
		ImagesDir:        getEnv("IMAGES_DIR", "public"),
		DefaultImagePath: getEnv("DEFAULT_IMAGE_PATH", "/cocktail_default.png"),

		S3Bucket:  os.Getenv("S3_BUCKET_NAME"),
		AWSRegion: getEnv("AWS_REGION", "us-east-1"),
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", dbStr, err)
		}
		cfg.RedisDB = db
	}

	origins := getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// RedisAddr returns the host:port address of the Redis server
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// PostgresDSN builds the Postgres connection string
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
