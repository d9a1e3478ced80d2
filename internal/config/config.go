package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TODO_DATABASE_PATH.
const EnvPrefix = "TODO"

// Config keeps runtime settings for the tool.
type Config struct {
	DatabasePath string         `mapstructure:"database_path" yaml:"database_path"`
	LogLevel     string         `mapstructure:"log_level" yaml:"log_level"`
	Reminder     ReminderConfig `mapstructure:"reminder" yaml:"reminder"`
	Telegram     TelegramConfig `mapstructure:"telegram" yaml:"telegram"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" yaml:"-"`
}

type ReminderConfig struct {
	DueSoonDays int           `mapstructure:"due_soon_days" yaml:"due_soon_days"`
	DailyAt     string        `mapstructure:"daily_at" yaml:"daily_at"`
	Interval    time.Duration `mapstructure:"interval" yaml:"interval"`
}

type TelegramConfig struct {
	Token       string `mapstructure:"token" yaml:"token"`
	ChatID      int64  `mapstructure:"chat_id" yaml:"chat_id"`
	APIEndpoint string `mapstructure:"api_endpoint" yaml:"api_endpoint"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		DatabasePath: "todo.db",
		LogLevel:     zerolog.WarnLevel.String(),
		Reminder: ReminderConfig{
			DueSoonDays: 3,
		},
		Telegram: TelegramConfig{
			APIEndpoint: tgbotapi.APIEndpoint,
		},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/todo/config.yaml or its platform equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "todo", "config.yaml")
}

// Load reads path, or DefaultPath when path is empty, and applies TODO_*
// environment overrides. A missing default file is not an error; a missing
// explicit one is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	var used string
	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			used = path
		case explicit || !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = used

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return errors.New("database_path must not be empty")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Reminder.DueSoonDays < 0 {
		return fmt.Errorf("reminder.due_soon_days must not be negative, got %d", c.Reminder.DueSoonDays)
	}
	if c.Reminder.Interval < 0 {
		return fmt.Errorf("reminder.interval must not be negative, got %s", c.Reminder.Interval)
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database_path", cfg.DatabasePath)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("reminder.due_soon_days", cfg.Reminder.DueSoonDays)
	v.SetDefault("reminder.daily_at", cfg.Reminder.DailyAt)
	v.SetDefault("reminder.interval", cfg.Reminder.Interval)
	v.SetDefault("telegram.token", cfg.Telegram.Token)
	v.SetDefault("telegram.chat_id", cfg.Telegram.ChatID)
	v.SetDefault("telegram.api_endpoint", cfg.Telegram.APIEndpoint)
}
