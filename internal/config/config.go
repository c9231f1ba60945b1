// Package config handles application configuration using Viper.
// Viper merges defaults, an optional YAML file and environment variables, in
// increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration struct.
// `mapstructure` tags tell Viper how to map YAML/env keys to struct fields.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Batch    BatchConfig    `mapstructure:"batch"`
	CORS     CORSConfig     `mapstructure:"cors"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type ResolverConfig struct {
	// ProbeTimeout bounds every outbound request (existence checks and page fetches).
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	UserAgent    string        `mapstructure:"user_agent"`

	// IconPaths are probed in order at the site root.
	IconPaths    []string `mapstructure:"icon_paths"`
	FallbackURL  string   `mapstructure:"fallback_url"`
	FallbackSize int      `mapstructure:"fallback_size"`

	// HTMLStrategies enables the homepage-parsing tier between the path
	// probes and the fallback service.
	HTMLStrategies bool `mapstructure:"html_strategies"`
}

type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LLMConfig struct {
	// ProviderOrder controls which LLM providers are used and in what order.
	// Providers without an API key are skipped; with no keys at all the LLM
	// tier is disabled.
	ProviderOrder []string        `mapstructure:"provider_order"`
	Anthropic     AnthropicConfig `mapstructure:"anthropic"`
	OpenAI        OpenAIConfig    `mapstructure:"openai"`
	RatePerMinute int             `mapstructure:"rate_per_minute"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type StorageConfig struct {
	// DatabasePath is the SQLite file for the LLM call log. Empty disables it.
	DatabasePath string `mapstructure:"database_path"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("resolver.probe_timeout", "10s")
	v.SetDefault("resolver.user_agent", "company-icons/1.0")
	v.SetDefault("resolver.icon_paths", []string{
		"/favicon.ico",
		"/favicon.png",
		"/apple-touch-icon.png",
		"/apple-touch-icon-precomposed.png",
	})
	v.SetDefault("resolver.fallback_url", "https://www.google.com/s2/favicons")
	v.SetDefault("resolver.fallback_size", 512)
	v.SetDefault("resolver.html_strategies", false)
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("llm.provider_order", []string{"anthropic", "openai"})
	// Keys need a default, even empty, for AutomaticEnv to reach them on Unmarshal.
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", "gpt-4o")
	v.SetDefault("llm.rate_per_minute", 10)
	v.SetDefault("storage.database_path", "./storage/company-icons.db")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("log.level", "info")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// A missing file is fine when no explicit path was given: defaults + env are enough.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// ICONS_ prefix + nested keys: ICONS_SERVER_PORT=9090 → server.port=9090
	v.SetEnvPrefix("ICONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Resolver.ProbeTimeout <= 0 {
		return fmt.Errorf("resolver.probe_timeout must be positive")
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1")
	}
	return nil
}

// Address returns the listen address string like "0.0.0.0:8000".
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Enabled reports whether any LLM provider has an API key.
func (l LLMConfig) Enabled() bool {
	return l.Anthropic.APIKey != "" || l.OpenAI.APIKey != ""
}
