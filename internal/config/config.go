package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the service settings.
type Config struct {
	Addr          string        `mapstructure:"addr"`
	Env           string        `mapstructure:"env"`
	LogLevel      string        `mapstructure:"log_level"`
	StaticDir     string        `mapstructure:"static_dir"`
	FrontendURL   string        `mapstructure:"frontend_url"`
	SeedFile      string        `mapstructure:"seed_file"`
	Notifications Notifications `mapstructure:"notifications"`
	Redis         Redis         `mapstructure:"redis"`
}

// Notifications configures the inbox and the permission gate.
type Notifications struct {
	DBPath    string `mapstructure:"db_path"`
	AutoGrant bool   `mapstructure:"auto_grant"`
}

// Redis configures the optional pub/sub fan-out. An empty URL disables it.
type Redis struct {
	URL     string `mapstructure:"url"`
	Channel string `mapstructure:"channel"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("static_dir", "web/dist")
	v.SetDefault("frontend_url", "")
	v.SetDefault("seed_file", "")
	v.SetDefault("notifications.db_path", ":memory:")
	v.SetDefault("notifications.auto_grant", true)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.channel", "kanban:notifications")
}

// Load merges defaults, the optional YAML file at path and KANBAN_*
// environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("kanban")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// AllowedOrigins splits FrontendURL into CORS origins, falling back to the
// local dev server.
func (c *Config) AllowedOrigins() []string {
	if strings.TrimSpace(c.FrontendURL) == "" {
		return []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	var origins []string
	for _, o := range strings.Split(c.FrontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
