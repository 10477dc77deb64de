package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kapu/society-cms-go/internal/constants"
)

type Config struct {
	API        APIConfig
	Session    SessionConfig
	Redis      RedisConfig
	Images     ImageConfig
	Newsletter NewsletterConfig
	Logging    LoggingConfig
}

type APIConfig struct {
	BaseURL string
	Prefix  string
	Timeout time.Duration
}

// Endpoint is the root every REST path is joined to.
func (c APIConfig) Endpoint() string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.Trim(c.Prefix, "/")
}

type SessionConfig struct {
	Backend string
	File    string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type ImageConfig struct {
	MaxBytes    int64
	Placeholder string
}

type NewsletterConfig struct {
	// SendOnPublish mails subscribers the first time an article is published.
	SendOnPublish bool
}

type LoggingConfig struct {
	Level string
	File  string
}

const (
	SessionBackendFile   = "file"
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		API: APIConfig{
			BaseURL: getEnv("CMS_API_BASE_URL", constants.APIConfig.DefaultBaseURL),
			Prefix:  getEnv("CMS_API_PREFIX", constants.APIConfig.DefaultPrefix),
			Timeout: time.Duration(getEnvInt("CMS_HTTP_TIMEOUT_SECONDS", int(constants.APIConfig.DefaultTimeout/time.Second))) * time.Second,
		},
		Session: SessionConfig{
			Backend: strings.ToLower(getEnv("CMS_SESSION_BACKEND", SessionBackendFile)),
			File:    getEnv("CMS_SESSION_FILE", defaultSessionFile()),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Images: ImageConfig{
			MaxBytes:    int64(getEnvInt("CMS_IMAGE_MAX_BYTES", int(constants.ImageConfig.MaxBytes))),
			Placeholder: getEnv("CMS_PLACEHOLDER_IMAGE", constants.ImageConfig.PlaceholderImage),
		},
		Newsletter: NewsletterConfig{
			SendOnPublish: getEnvBool("CMS_NEWSLETTER_ON_PUBLISH", true),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("CMS_API_BASE_URL is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("CMS_API_BASE_URL must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("CMS_HTTP_TIMEOUT_SECONDS must be positive")
	}
	switch c.Session.Backend {
	case SessionBackendFile:
		if c.Session.File == "" {
			return fmt.Errorf("CMS_SESSION_FILE is required for the file session backend")
		}
	case SessionBackendRedis, SessionBackendMemory:
	default:
		return fmt.Errorf("unknown CMS_SESSION_BACKEND %q", c.Session.Backend)
	}
	if c.Images.MaxBytes <= 0 {
		return fmt.Errorf("CMS_IMAGE_MAX_BYTES must be positive")
	}
	return nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Base(constants.SessionConfig.DefaultFile)
	}
	return filepath.Join(home, constants.SessionConfig.DefaultFile)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
