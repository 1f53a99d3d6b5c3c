// Package config loads service configuration from YAML with environment
// overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"trenchwatch/internal/analysis"
	"trenchwatch/internal/pipeline"
	"trenchwatch/internal/signals"
)

// Config is the full service configuration.
type Config struct {
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Host           string `yaml:"host"`
		Port           int    `yaml:"port"`
		ReadTimeoutS   int    `yaml:"read_timeout_seconds"`
		WriteTimeoutS  int    `yaml:"write_timeout_seconds"`
		IdleTimeoutS   int    `yaml:"idle_timeout_seconds"`
		RequestTimeout int    `yaml:"request_timeout_seconds"`
	} `yaml:"server"`

	Source struct {
		BaseURL      string  `yaml:"base_url"`
		TimeoutS     int     `yaml:"timeout_seconds"`
		RateLimitRPS float64 `yaml:"rate_limit_rps"`
		Burst        int     `yaml:"burst"`
		// APIKey comes from SOURCE_API_KEY, never from the file.
		APIKey string `yaml:"-"`
	} `yaml:"source"`

	Cache struct {
		Backend    string `yaml:"backend"` // memory | redis
		TTLSeconds int    `yaml:"ttl_seconds"`
		MaxEntries int    `yaml:"max_entries"`
		Redis      struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Analysis analysis.Config `yaml:"analysis"`

	Signals struct {
		Graduation signals.GraduationConfig `yaml:"graduation"`
		EarlyGem   signals.EarlyGemConfig   `yaml:"early_gem"`
		Momentum   signals.MomentumConfig   `yaml:"momentum"`
	} `yaml:"signals"`

	Pipeline pipeline.Config `yaml:"pipeline"`

	Narrative struct {
		Provider  string `yaml:"provider"` // openai | anthropic
		Model     string `yaml:"model"`
		MaxTokens int    `yaml:"max_tokens"`
		// Keys come from OPENAI_API_KEY / ANTHROPIC_API_KEY.
		OpenAIKey    string `yaml:"-"`
		AnthropicKey string `yaml:"-"`
	} `yaml:"narrative"`
}

// Default returns the built-in configuration.
func Default() *Config {
	var c Config
	c.Log.Level = "info"

	c.Server.Host = "127.0.0.1"
	c.Server.Port = 8080
	c.Server.ReadTimeoutS = 10
	c.Server.WriteTimeoutS = 60
	c.Server.IdleTimeoutS = 60
	c.Server.RequestTimeout = 60

	c.Source.BaseURL = "http://localhost:4001"
	c.Source.TimeoutS = 30
	c.Source.RateLimitRPS = 5
	c.Source.Burst = 10

	c.Cache.Backend = "memory"
	c.Cache.TTLSeconds = 60
	c.Cache.MaxEntries = 500
	c.Cache.Redis.Addr = "localhost:6379"
	c.Cache.Redis.Prefix = "trenchwatch:"

	c.Analysis = analysis.DefaultConfig()
	c.Signals.Graduation = signals.DefaultGraduationConfig()
	c.Signals.EarlyGem = signals.DefaultEarlyGemConfig()
	c.Signals.Momentum = signals.DefaultMomentumConfig()
	c.Pipeline = pipeline.DefaultConfig()

	c.Narrative.Provider = "openai"
	c.Narrative.Model = "gpt-4o-mini"
	c.Narrative.MaxTokens = 1000

	return &c
}

// Load reads configuration from path on top of the defaults, then applies
// secret env overrides. An empty path loads defaults and env only.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	c.Source.APIKey = os.Getenv("SOURCE_API_KEY")
	c.Narrative.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.Narrative.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	return c, nil
}

// CacheTTL returns the freshness window as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// SourceTimeout returns the per-call upstream timeout.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutS) * time.Second
}
