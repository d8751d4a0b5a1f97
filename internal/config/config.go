package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	defaultPort                 = "8080"
	defaultStorageDriver        = "postgres"
	defaultBoltPath             = "data/fileuploader.db"
	defaultStorageRoot          = "wwwroot"
	defaultMaxUploadBytes int64 = 512 * 1024 * 1024 // 512MB per request
)

// Driver names accepted in STORAGE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
)

// Config captures server runtime configuration.
type Config struct {
	Port           string
	StorageDriver  string
	DatabaseURL    string
	BoltPath       string
	StorageRoot    string
	APIKey         string
	MaxUploadBytes int64
	LogLevel       string
}

// Load reads environment variables into a Config structure.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("UPLOAD_SERVER_PORT", defaultPort),
		StorageDriver:  getEnv("STORAGE_DRIVER", defaultStorageDriver),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		BoltPath:       getEnv("BOLT_PATH", defaultBoltPath),
		StorageRoot:    getEnv("STORAGE_ROOT", defaultStorageRoot),
		APIKey:         os.Getenv("UPLOAD_API_KEY"),
		MaxUploadBytes: parseInt64("UPLOAD_MAX_SIZE", defaultMaxUploadBytes),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required with the postgres driver")
		}
	case DriverBolt:
	default:
		return nil, errors.New("STORAGE_DRIVER must be postgres or bolt")
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if !filepath.IsAbs(cfg.StorageRoot) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		cfg.StorageRoot = filepath.Join(wd, cfg.StorageRoot)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func parseInt64(key string, fallback int64) int64 {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
