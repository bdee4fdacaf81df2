package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration, loaded from an optional
// config file with environment variable overrides (RCA_SERVER_PORT,
// RCA_DATABASE_URL, ...).
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Uploads   UploadsConfig   `mapstructure:"uploads"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
	// How long after creation a message may still be edited by its
	// sender. Enforced server-side, not left to the client.
	EditWindow time.Duration `mapstructure:"edit_window"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
}

type WebSocketConfig struct {
	// Interval between liveness probes. A connection that misses two
	// consecutive probes is evicted.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	From     string `mapstructure:"from"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type UploadsConfig struct {
	Dir     string `mapstructure:"dir"`
	BaseURL string `mapstructure:"base_url"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given file (may be empty to rely on
// defaults and environment only) and unmarshals it.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.edit_window", 15*time.Minute)
	v.SetDefault("jwt.expiry", 24*time.Hour)
	v.SetDefault("websocket.heartbeat_interval", 30*time.Second)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("uploads.dir", "./uploads")
	v.SetDefault("uploads.base_url", "/uploads")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetEnvPrefix("rca")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt.secret is required (set RCA_JWT_SECRET)")
	}
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url is required (set RCA_DATABASE_URL)")
	}

	return &cfg, nil
}
