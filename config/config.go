// Package config loads tool configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	// Device is the framebuffer node to map.
	Device string
	// PollInterval is the sleep between supervision loop iterations.
	PollInterval time.Duration
	// GracePeriod bounds how long a cancelled child may take to exit
	// voluntarily before it is killed.
	GracePeriod time.Duration
	Log         LogConfig
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

// Load reads configuration from file and env. Env var overrides use prefix
// APPINK_. An explicit path takes precedence over $APPINK_CONFIG and the
// default search path $XDG_CONFIG_HOME/appink/config.yaml.
func Load(path string) (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("device", "/dev/fb0")
	v.SetDefault("poll_interval", "150ms")
	v.SetDefault("grace_period", "3s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigType("yaml")

	if path == "" {
		path = os.Getenv("APPINK_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(configHome(), "appink"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("APPINK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present; a missing file on the default search
	// path is fine, anything else (explicit missing path, parse error) is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: %w", err)
		}
	}

	c := Config{
		Device:       v.GetString("device"),
		PollInterval: v.GetDuration("poll_interval"),
		GracePeriod:  v.GetDuration("grace_period"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.Device == "" {
		return fmt.Errorf("config: device must not be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("config: poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.GracePeriod < 0 {
		return fmt.Errorf("config: grace_period must not be negative, got %s", c.GracePeriod)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func configHome() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}
