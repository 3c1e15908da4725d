package configinfra

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything the CLI needs to reach a bearer-protected API.
type Config struct {
	BaseURL          string `mapstructure:"base_url"`
	TokenURL         string `mapstructure:"token_url"`
	ClientID         string `mapstructure:"client_id"`
	ClientSecret     string `mapstructure:"client_secret"`
	Scope            string `mapstructure:"scope"`
	Token            string `mapstructure:"token"` // fixed token, used when no token endpoint is configured
	QueueSize        int    `mapstructure:"queue_size"`
	UnauthorizedOnly bool   `mapstructure:"unauthorized_only"`
	CacheDir         string `mapstructure:"cache_dir"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		QueueSize:      1,
		CacheDir:       "~/.config/tokengate",
		TimeoutSeconds: 30,
	}
}

// Load reads the config file and applies TOKENGATE_* environment overrides.
// path may be empty, in which case ~/.config/tokengate/config.yaml and the
// working directory are searched; a missing file is fine since the
// environment can carry everything.
func Load(path string) (Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("token_url", defaults.TokenURL)
	v.SetDefault("client_id", defaults.ClientID)
	v.SetDefault("client_secret", defaults.ClientSecret)
	v.SetDefault("scope", defaults.Scope)
	v.SetDefault("token", defaults.Token)
	v.SetDefault("queue_size", defaults.QueueSize)
	v.SetDefault("unauthorized_only", defaults.UnauthorizedOnly)
	v.SetDefault("cache_dir", defaults.CacheDir)
	v.SetDefault("timeout_seconds", defaults.TimeoutSeconds)

	v.SetEnvPrefix("TOKENGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/tokengate")
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.QueueSize < 1 {
		return fmt.Errorf("queue_size must be positive, got %d", c.QueueSize)
	}
	if c.TokenURL != "" && c.ClientID == "" {
		return fmt.Errorf("client_id is required when token_url is set")
	}
	if c.TimeoutSeconds < 1 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	return nil
}
