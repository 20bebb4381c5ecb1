package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const minSigningKeyLen = 32

type Config struct {
	DatabaseURL    string
	RedisAddress   string
	RedisPassword  string
	RedisDB        int
	HTTPAddress    string
	SigningKey     string
	Issuer         string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	RequestTimeout time.Duration
	AllowedOrigins []string
	LogLevel       string
}

// Load reads configuration from the environment. A missing or short
// SIGNING_KEY is a startup error: token signing must never fail per-request.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	for _, key := range []string{
		"DATABASE_URL", "REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
		"HTTP_ADDRESS", "SIGNING_KEY", "JWT_ISSUER",
		"ACCESS_TTL", "REFRESH_TTL", "REQUEST_TIMEOUT",
		"ALLOWED_ORIGINS", "LOG_LEVEL",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("JWT_ISSUER", "ecomanager")
	v.SetDefault("ACCESS_TTL", "15m")
	v.SetDefault("REFRESH_TTL", "168h")
	v.SetDefault("REQUEST_TIMEOUT", "5s")

	cfg := &Config{
		DatabaseURL:    v.GetString("DATABASE_URL"),
		RedisAddress:   v.GetString("REDIS_ADDRESS"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		RedisDB:        v.GetInt("REDIS_DB"),
		HTTPAddress:    v.GetString("HTTP_ADDRESS"),
		SigningKey:     v.GetString("SIGNING_KEY"),
		Issuer:         v.GetString("JWT_ISSUER"),
		AccessTTL:      v.GetDuration("ACCESS_TTL"),
		RefreshTTL:     v.GetDuration("REFRESH_TTL"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		AllowedOrigins: v.GetStringSlice("ALLOWED_ORIGINS"),
		LogLevel:       v.GetString("LOG_LEVEL"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if len(cfg.SigningKey) < minSigningKeyLen {
		return nil, fmt.Errorf("SIGNING_KEY is required and must be at least %d bytes", minSigningKeyLen)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}
	if cfg.AccessTTL >= cfg.RefreshTTL {
		return nil, fmt.Errorf("ACCESS_TTL must be shorter than REFRESH_TTL")
	}

	return cfg, nil
}
