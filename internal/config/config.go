package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// EnvPrefix scopes environment overrides, e.g. TODO_ALARM_AUDIO__COMMAND.
const EnvPrefix = "TODO_ALARM_"

type Config struct {
	Storage StorageConfig `koanf:"storage"`
	Alarm   AlarmConfig   `koanf:"alarm"`
	Audio   AudioConfig   `koanf:"audio"`
	UI      UIConfig      `koanf:"ui"`
	Log     LogConfig     `koanf:"log"`
	Watch   WatchConfig   `koanf:"watch"`
	Notify  NotifyConfig  `koanf:"notify"`
}

type StorageConfig struct {
	Backend string `koanf:"backend"`
	Dir     string `koanf:"dir"`
	Key     string `koanf:"key"`    // storage key of the reminder collection
	DBFile  string `koanf:"db_file"` // relative to Dir, sqlite backend only
}

type AlarmConfig struct {
	PollIntervalMS int    `koanf:"poll_interval_ms"`
	ResetPolicy    string `koanf:"reset_policy"`
}

type AudioConfig struct {
	Source         string `koanf:"source"` // URL or local path
	Command        string `koanf:"command"`
	CacheDir       string `koanf:"cache_dir"`
	BellIntervalMS int    `koanf:"bell_interval_ms"`
}

type UIConfig struct {
	ColoredOutput bool `koanf:"colored_output"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // console | json
	File   string `koanf:"file"`   // empty or "stderr" logs to stderr
}

type WatchConfig struct {
	Enabled    bool `koanf:"enabled"`
	DebounceMS int  `koanf:"debounce_ms"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `koanf:"telegram"`
}

type TelegramConfig struct {
	BotToken string `koanf:"bot_token"`
	ChatID   string `koanf:"chat_id"`
}

func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		configPath = expandPath(configPath)

		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	// TODO_ALARM_AUDIO__COMMAND -> audio.command
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// Fall back to the conventional Telegram variables
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" && k.String("notify.telegram.bot_token") == "" {
		k.Set("notify.telegram.bot_token", token)
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" && k.String("notify.telegram.chat_id") == "" {
		k.Set("notify.telegram.chat_id", chatID)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Storage.Dir = expandPath(cfg.Storage.Dir)
	cfg.Audio.CacheDir = expandPath(cfg.Audio.CacheDir)
	cfg.Audio.Source = expandPath(cfg.Audio.Source)
	cfg.Log.File = expandPath(cfg.Log.File)

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendJSON, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend: %s (supported: %s, %s, %s)",
			c.Storage.Backend, BackendJSON, BackendSQLite, BackendMemory)
	}

	if c.Storage.Backend != BackendMemory && c.Storage.Dir == "" {
		return fmt.Errorf("storage.dir is required")
	}

	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key is required")
	}

	if c.Alarm.PollIntervalMS <= 0 {
		return fmt.Errorf("poll_interval_ms must be positive")
	}

	if c.Alarm.PollIntervalMS > 60_000 {
		return fmt.Errorf("poll_interval_ms must be at most 60000 or minutes would be skipped")
	}

	switch c.Alarm.ResetPolicy {
	case "session", "daily":
	default:
		return fmt.Errorf("unknown reset_policy: %s (supported: session, daily)", c.Alarm.ResetPolicy)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format: %s (supported: console, json)", c.Log.Format)
	}

	if (c.Notify.Telegram.BotToken == "") != (c.Notify.Telegram.ChatID == "") {
		return fmt.Errorf("telegram notifications need both bot_token and chat_id")
	}

	return nil
}

// PollInterval returns the engine tick period.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Alarm.PollIntervalMS) * time.Millisecond
}

// BellInterval returns the pause between terminal bells.
func (c *Config) BellInterval() time.Duration {
	return time.Duration(c.Audio.BellIntervalMS) * time.Millisecond
}

// WatchDebounce returns how long storage events are coalesced.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// DBPath returns the SQLite database path.
func (c *Config) DBPath() string {
	if filepath.IsAbs(c.Storage.DBFile) {
		return c.Storage.DBFile
	}
	return filepath.Join(c.Storage.Dir, c.Storage.DBFile)
}

// TelegramEnabled reports whether ring notifications go to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Notify.Telegram.BotToken != "" && c.Notify.Telegram.ChatID != ""
}

func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	return path
}
