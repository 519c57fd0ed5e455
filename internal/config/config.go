package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. STOCK_DATABASE_PATH.
const EnvPrefix = "STOCK"

// Config holds all runtime settings.
type Config struct {
	Server struct {
		Addr        string `mapstructure:"addr"`
		FrontendURL string `mapstructure:"frontend_url"`
		StaticDir   string `mapstructure:"static_dir"`
	} `mapstructure:"server"`

	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	JWT struct {
		Secret      string `mapstructure:"secret"`
		ExpiryHours int    `mapstructure:"expiry_hours"`
	} `mapstructure:"jwt"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Throttle struct {
		MaxAttempts   int `mapstructure:"max_attempts"`
		WindowMinutes int `mapstructure:"window_minutes"`
	} `mapstructure:"throttle"`

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		From     string `mapstructure:"from"`
	} `mapstructure:"smtp"`

	App struct {
		Name    string `mapstructure:"name"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"app"`

	Log struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"log"`
}

// TokenExpiry returns the configured session lifetime.
func (c *Config) TokenExpiry() time.Duration {
	return time.Duration(c.JWT.ExpiryHours) * time.Hour
}

// ThrottleWindow returns the login throttle window.
func (c *Config) ThrottleWindow() time.Duration {
	return time.Duration(c.Throttle.WindowMinutes) * time.Minute
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"db":   "database.path",
	"addr": "server.addr",
	"log":  "log.path",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.frontend_url", "http://localhost:3000")
	v.SetDefault("server.static_dir", "")
	v.SetDefault("database.path", "stock.sqlite3")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry_hours", 24*30)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("throttle.max_attempts", 5)
	v.SetDefault("throttle.window_minutes", 15)
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "no-reply@stock.local")
	v.SetDefault("app.name", "Stock Management")
	v.SetDefault("app.base_url", "http://localhost:3000")
	v.SetDefault("log.path", "")
}

// Load reads configuration from defaults, an optional YAML file, a .env file,
// STOCK_* environment variables and finally any changed flags, in increasing
// order of precedence. An empty configFile means config.yaml in the working
// directory, which may be absent.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("no config file found, using defaults")
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.JWT.ExpiryHours <= 0 {
		return fmt.Errorf("jwt.expiry_hours must be positive")
	}
	if c.Throttle.MaxAttempts < 0 || c.Throttle.WindowMinutes < 0 {
		return fmt.Errorf("throttle settings must not be negative")
	}
	return nil
}
