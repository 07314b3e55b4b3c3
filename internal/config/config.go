// Package config loads and validates app config from env and an optional
// .env file using Viper. TTL-style options are plain seconds, matching how
// the platform's deployment manifests spell them.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded once at startup. Stores
// receive the values through their constructors and never re-read them.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// RedisAddr is the Redis host:port for the ephemeral-state stores.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the Redis AUTH password; empty for none.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// SessionMax caps concurrent sessions per user.
	SessionMax int `mapstructure:"SESSION_MAX"`
	// SessionTTLSeconds is the sliding session lifetime in seconds.
	SessionTTLSeconds int `mapstructure:"SESSION_TTL"`

	// TokenVerifyTTLSeconds is the email-verification token lifetime in seconds.
	TokenVerifyTTLSeconds int `mapstructure:"TOKEN_VERIFY_TTL"`
	// TokenResetTTLSeconds is the password-reset token lifetime in seconds.
	TokenResetTTLSeconds int `mapstructure:"TOKEN_RESET_TTL"`
	// TokenInviteTTLSeconds is the company-invite token lifetime in seconds.
	TokenInviteTTLSeconds int `mapstructure:"TOKEN_INVITE_TTL"`

	// BcryptCost is the bcrypt cost factor (4-31).
	BcryptCost int `mapstructure:"BCRYPT_COST"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment via Viper. Missing .env is ignored; env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("SESSION_MAX", 5)
	v.SetDefault("SESSION_TTL", 3600)
	v.SetDefault("TOKEN_VERIFY_TTL", 3600)
	v.SetDefault("TOKEN_RESET_TTL", 3600)
	v.SetDefault("TOKEN_INVITE_TTL", 3600)
	v.SetDefault("BCRYPT_COST", 12)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.RedisAddr == "" {
		return nil, errors.New("config: REDIS_ADDR must be set")
	}
	if cfg.SessionMax < 1 {
		return nil, errors.New("config: SESSION_MAX must be at least 1")
	}
	if cfg.SessionTTLSeconds < 1 ||
		cfg.TokenVerifyTTLSeconds < 1 ||
		cfg.TokenResetTTLSeconds < 1 ||
		cfg.TokenInviteTTLSeconds < 1 {
		return nil, errors.New("config: TTLs must be positive")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// SessionTTL returns the sliding session lifetime.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// TokenVerifyTTL returns the email-verification token lifetime.
func (c *Config) TokenVerifyTTL() time.Duration {
	return time.Duration(c.TokenVerifyTTLSeconds) * time.Second
}

// TokenResetTTL returns the password-reset token lifetime.
func (c *Config) TokenResetTTL() time.Duration {
	return time.Duration(c.TokenResetTTLSeconds) * time.Second
}

// TokenInviteTTL returns the company-invite token lifetime.
func (c *Config) TokenInviteTTL() time.Duration {
	return time.Duration(c.TokenInviteTTLSeconds) * time.Second
}
