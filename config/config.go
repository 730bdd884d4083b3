package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. VERYGOODS_AUTH_PASSWORD
const EnvPrefix = "VERYGOODS"

// Load loads the configuration. An explicit configPath must exist; otherwise
// the standard locations are searched and a missing file leaves the defaults.
// A .env file in the working directory is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".verygoods"))
		}

		v.AddConfigPath("/etc/verygoods/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values. Every key that may come
// from the environment needs a default so viper knows about it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://verygoods.co/site-api-0.1/")
	v.SetDefault("api.site_url", "https://verygoods.co")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.rate_limit", 5)
	v.SetDefault("api.csrf_refresh", "1h")
	v.SetDefault("api.max_failures", 5)

	v.SetDefault("auth.username", "")
	v.SetDefault("auth.password", "")

	v.SetDefault("session.path", defaultSessionPath())

	v.SetDefault("want.token_timeout", "10s")
	v.SetDefault("want.workers", 4)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.db"
	}
	return filepath.Join(home, ".verygoods", "session.db")
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if cfg.API.SiteURL == "" {
		return fmt.Errorf("api.site_url is required")
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if cfg.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative")
	}
	if cfg.API.CSRFRefresh <= 0 {
		return fmt.Errorf("api.csrf_refresh must be positive")
	}

	if cfg.Session.Path == "" {
		return fmt.Errorf("session.path is required")
	}

	if cfg.Want.TokenTimeout <= 0 {
		return fmt.Errorf("want.token_timeout must be positive")
	}
	if cfg.Want.Workers <= 0 {
		return fmt.Errorf("want.workers must be positive")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	for name, expression := range cfg.Filter.Presets {
		if strings.TrimSpace(expression) == "" {
			return fmt.Errorf("filter preset '%s' has an empty expression", name)
		}
	}

	return nil
}
