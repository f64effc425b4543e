// Package config loads welfare-desk settings from a YAML file, a .env file
// and WELFARE_DESK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configName = "welfare-desk"
	envPrefix  = "WELFARE_DESK"
)

type Config struct {
	DB       string       `mapstructure:"db"`
	Language string       `mapstructure:"language"`
	Log      LogConfig    `mapstructure:"log"`
	Gemini   GeminiConfig `mapstructure:"gemini"`
	Redis    RedisConfig  `mapstructure:"redis"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GeminiConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	FlashModel string        `mapstructure:"flash_model"`
	ProModel   string        `mapstructure:"pro_model"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// RedisConfig enables the search answer cache when URL is set.
type RedisConfig struct {
	URL      string        `mapstructure:"url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// DefaultDBPath is ~/.welfare-desk/welfare.db.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".welfare-desk", "welfare.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", DefaultDBPath())
	v.SetDefault("language", "en")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.flash_model", "gemini-3-flash-preview")
	v.SetDefault("gemini.pro_model", "gemini-3-pro-preview")
	v.SetDefault("gemini.timeout", 30*time.Second)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.cache_ttl", 6*time.Hour)
}

// Load reads configuration. An empty configFile searches for
// welfare-desk.yaml in the working directory and ~/.welfare-desk; a missing
// file there is not an error. An explicit configFile must exist.
func Load(configFile string) (*Config, error) {
	// Existing environment variables win over .env entries.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".welfare-desk"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	overrideEmpty(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// overrideEmpty fills the API key from the variable names the hosted
// dashboard used.
func overrideEmpty(cfg *Config) {
	if cfg.Gemini.APIKey != "" {
		return
	}
	for _, name := range []string{"GEMINI_API_KEY", "API_KEY"} {
		if val := os.Getenv(name); val != "" {
			cfg.Gemini.APIKey = val
			return
		}
	}
}

func validate(cfg *Config) error {
	switch cfg.Language {
	case "en", "ta", "hi":
	default:
		return fmt.Errorf("language must be en, ta or hi, got %q", cfg.Language)
	}
	switch cfg.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", cfg.Log.Format)
	}
	if cfg.Gemini.Timeout <= 0 {
		return fmt.Errorf("gemini.timeout must be positive")
	}
	if cfg.DB == "" {
		return fmt.Errorf("db is required")
	}
	return nil
}
