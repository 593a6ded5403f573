package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds client and server configuration. Both binaries read the same file.
type Config struct {
	Client ClientConfig
	Server ServerConfig
	Logger LoggerConfig
}

type ClientConfig struct {
	ServerURL string
	Timeout   time.Duration
	Theme     string
	LogFile   string // where the TUI logs while it owns the terminal
}

type ServerConfig struct {
	Port        int
	Mode        string
	Environment string
	Storage     string // "json" | "sqlite"
	JSONPath    string
	SQLitePath  string
	RateLimit   float64 // requests per second, 0 disables
	RateBurst   int
}

type LoggerConfig struct {
	Level        string
	Encoding     string
	ColorEnabled bool
}

const (
	StorageJSON   = "json"
	StorageSQLite = "sqlite"
)

// Load reads tada.yaml (searched in ., ./config and $HOME/.tada, or the
// explicit path when given) and TADA_* environment variables on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tada")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.tada")
	}

	v.SetEnvPrefix("tada")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	cfg.Client.ServerURL = v.GetString("client.server_url")
	cfg.Client.Timeout = v.GetDuration("client.timeout")
	cfg.Client.Theme = v.GetString("client.theme")
	cfg.Client.LogFile = v.GetString("client.log_file")

	cfg.Server.Port = v.GetInt("server.port")
	cfg.Server.Mode = v.GetString("server.mode")
	cfg.Server.Environment = v.GetString("server.environment")
	cfg.Server.Storage = strings.ToLower(v.GetString("server.storage"))
	cfg.Server.JSONPath = v.GetString("server.json_path")
	cfg.Server.SQLitePath = v.GetString("server.sqlite_path")
	cfg.Server.RateLimit = v.GetFloat64("server.rate_limit")
	cfg.Server.RateBurst = v.GetInt("server.rate_burst")

	cfg.Logger.Level = v.GetString("logger.level")
	cfg.Logger.Encoding = v.GetString("logger.encoding")
	cfg.Logger.ColorEnabled = v.GetBool("logger.color_enabled")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("client.server_url", "http://localhost:8080")
	v.SetDefault("client.timeout", "10s")
	v.SetDefault("client.theme", "classic")
	v.SetDefault("client.log_file", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.storage", StorageJSON)
	v.SetDefault("server.json_path", "todos.json")
	v.SetDefault("server.sqlite_path", "todos.sqlite3")
	v.SetDefault("server.rate_limit", 50)
	v.SetDefault("server.rate_burst", 100)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.color_enabled", true)
}

func (c *Config) validate() error {
	if c.Client.ServerURL == "" {
		return errors.New("client.server_url is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Server.Storage {
	case StorageJSON, StorageSQLite:
	default:
		return fmt.Errorf("server.storage must be %q or %q, got %q", StorageJSON, StorageSQLite, c.Server.Storage)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	return nil
}
