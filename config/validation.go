package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validDrivers = map[string]bool{"postgres": true, "sqlite": true}

var validBackends = map[string]bool{"memory": true, "redis": true}

var validProviders = map[string]bool{"mistral_agents": true, "none": true}

// Validate checks that the configuration is usable for the current
// environment. Development and test tolerate a missing Mistral key (the
// generation endpoints will fail upstream); production does not.
func Validate(cfg *Config) error {
	var errs []string

	if !validDrivers[cfg.DBDriver] {
		errs = append(errs, fmt.Sprintf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver))
	}
	if !validBackends[cfg.RateLimitBackend] {
		errs = append(errs, fmt.Sprintf("RATE_LIMIT_BACKEND must be memory or redis, got %q", cfg.RateLimitBackend))
	}
	if !validProviders[cfg.ImageProvider] {
		errs = append(errs, fmt.Sprintf("IMAGE_PROVIDER must be mistral_agents or none, got %q", cfg.ImageProvider))
	}
	if cfg.ImagesDir == "" {
		errs = append(errs, "IMAGES_DIR must not be empty")
	}

	if IsProduction() {
		if cfg.MistralAPIKey == "" {
			errs = append(errs, "MISTRAL_API_KEY is required in production")
		}
		if cfg.DBDriver == "postgres" && cfg.DBPassword == "" {
			errs = append(errs, "DB_PASSWORD is required in production")
		}
	}

	if cfg.DBDriver == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, "SQLITE_PATH must not be empty when using the sqlite driver")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n%s", strings.Join(errs, "\n"))
	}
	return nil
}
