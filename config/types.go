package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Session SessionConfig `mapstructure:"session"`
	Want    WantConfig    `mapstructure:"want"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig holds the Very Goods endpoints and transport settings
type APIConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	SiteURL     string        `mapstructure:"site_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RateLimit   float64       `mapstructure:"rate_limit"`
	CSRFRefresh time.Duration `mapstructure:"csrf_refresh"`
	MaxFailures uint32        `mapstructure:"max_failures"`
}

// AuthConfig holds credentials used by the login command
type AuthConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// SessionConfig controls where the signed-in session is stored
type SessionConfig struct {
	Path string `mapstructure:"path"`
}

// WantConfig tunes the want controller
type WantConfig struct {
	TokenTimeout time.Duration `mapstructure:"token_timeout"`
	Workers      int           `mapstructure:"workers"`
}

// FilterConfig contains named filter expressions
type FilterConfig struct {
	Presets map[string]string `mapstructure:"presets"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
