package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. NAS_DEVICE_BASE_URL.
const EnvPrefix = "NAS"

type Config struct {
	Port     string         `mapstructure:"port"`
	Log      LogConfig      `mapstructure:"log"`
	Device   DeviceConfig   `mapstructure:"device"`
	Poll     PollConfig     `mapstructure:"poll"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	DB       DBConfig       `mapstructure:"db"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // console | json
	File       string `mapstructure:"file"`   // empty disables the rotating file sink
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// DeviceConfig locates the NAS control service.
type DeviceConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIPrefix string        `mapstructure:"api_prefix"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// IANA zone of the device wall clock; "Local" uses the host zone
	Location string `mapstructure:"location"`
}

type PollConfig struct {
	Fast            time.Duration `mapstructure:"fast"`
	Slow            time.Duration `mapstructure:"slow"`
	Countdown       time.Duration `mapstructure:"countdown"`
	ActionTimeout   time.Duration `mapstructure:"action_timeout"`
	ShutdownRefresh time.Duration `mapstructure:"shutdown_refresh"`
}

type ScheduleConfig struct {
	DefaultOffsetMinutes int `mapstructure:"default_offset_minutes"`
}

// DBConfig points at the sqlite file for client settings; empty keeps them in memory.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 14)

	v.SetDefault("device.base_url", "http://localhost:5000")
	v.SetDefault("device.api_prefix", "/api")
	v.SetDefault("device.timeout", 10*time.Second)
	v.SetDefault("device.location", "Local")

	v.SetDefault("poll.fast", 2*time.Second)
	v.SetDefault("poll.slow", 5*time.Second)
	v.SetDefault("poll.countdown", time.Second)
	v.SetDefault("poll.action_timeout", 180*time.Second)
	v.SetDefault("poll.shutdown_refresh", 10*time.Second)

	v.SetDefault("schedule.default_offset_minutes", 5)

	v.SetDefault("db.path", "")
}

// Load reads an optional .env file, then the YAML config at path
// (configs/config.yml when path is empty) and NAS_* environment overrides.
// A missing default config file is not an error; a missing explicit one is.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: port is required")
	}
	u, err := url.Parse(c.Device.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: device.base_url %q must be an http(s) URL", c.Device.BaseURL)
	}
	if c.Device.Timeout <= 0 {
		return errors.New("config: device.timeout must be positive")
	}
	for name, d := range map[string]time.Duration{
		"poll.fast":           c.Poll.Fast,
		"poll.slow":           c.Poll.Slow,
		"poll.countdown":      c.Poll.Countdown,
		"poll.action_timeout": c.Poll.ActionTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive", name)
		}
	}
	if c.Schedule.DefaultOffsetMinutes < 0 {
		return errors.New("config: schedule.default_offset_minutes must not be negative")
	}
	if _, err := c.Device.TimeLocation(); err != nil {
		return err
	}
	return nil
}

// TimeLocation resolves the device zone.
func (d DeviceConfig) TimeLocation() (*time.Location, error) {
	if d.Location == "" || d.Location == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(d.Location)
	if err != nil {
		return nil, fmt.Errorf("config: device.location: %w", err)
	}
	return loc, nil
}
