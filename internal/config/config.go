package config

import (
	"strconv"
	"time"
)

const (
	// DefaultPort is used when neither addr nor port is configured.
	DefaultPort = 3000
	// DefaultHistoryLimit caps per-room history.
	DefaultHistoryLimit = 50
	// DefaultSystemName authors welcome, join and leave notices.
	DefaultSystemName = "Mio-System"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	Port              int           `mapstructure:"port" yaml:"port,omitempty"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	SystemName        string        `mapstructure:"system_name" yaml:"system_name"`
	History           HistoryConfig `mapstructure:"history" yaml:"history"`
	Client            ClientConfig  `mapstructure:"client" yaml:"client"`
	Bot               BotConfig     `mapstructure:"bot" yaml:"bot"`
}

// HistoryConfig bounds the per-room message ledger.
type HistoryConfig struct {
	Limit int `mapstructure:"limit" yaml:"limit"`
}

// ClientConfig tunes per-connection queues.
type ClientConfig struct {
	Buffer int `mapstructure:"buffer" yaml:"buffer"`
}

// BotConfig configures the completion service backing the bot personas.
// An empty APIKey disables bots.
type BotConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model   string `mapstructure:"model" yaml:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":" + strconv.Itoa(DefaultPort),
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		SystemName:        DefaultSystemName,
		History:           HistoryConfig{Limit: DefaultHistoryLimit},
		Client:            ClientConfig{Buffer: 128},
		Bot:               BotConfig{Model: "gpt-4o-mini"},
	}
}

// ListenAddr resolves the address the HTTP server binds to. An explicit port wins over addr.
func (c *Config) ListenAddr() string {
	if c.Port > 0 {
		return ":" + strconv.Itoa(c.Port)
	}
	if c.Addr == "" {
		return ":" + strconv.Itoa(DefaultPort)
	}
	return c.Addr
}

// BotsEnabled reports whether a completion service secret is configured.
func (c *Config) BotsEnabled() bool {
	return c.Bot.APIKey != ""
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.SystemName != "" {
		c.SystemName = other.SystemName
	}
	if other.History.Limit != 0 {
		c.History.Limit = other.History.Limit
	}
	if other.Client.Buffer != 0 {
		c.Client.Buffer = other.Client.Buffer
	}
	if other.Bot.APIKey != "" {
		c.Bot.APIKey = other.Bot.APIKey
	}
	if other.Bot.Model != "" {
		c.Bot.Model = other.Bot.Model
	}
	if other.Bot.BaseURL != "" {
		c.Bot.BaseURL = other.Bot.BaseURL
	}
}
