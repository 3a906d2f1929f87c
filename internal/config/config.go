package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AIConfig struct {
	OpenAIKey    string `yaml:"openai_key"`
	AnthropicKey string `yaml:"anthropic_key"`
	AnthropicURL string `yaml:"anthropic_url"`
	GeminiKey    string `yaml:"gemini_key"`
	GeminiURL    string `yaml:"gemini_url"`

	// Models is the advertised provider -> model names catalog.
	Models map[string][]string `yaml:"models"`

	MaxOutputTokens int `yaml:"max_output_tokens"`
}

type AgentsConfig struct {
	// OutputDir is where agents write generated documents.
	OutputDir string `yaml:"output_dir"`
}

type StreamConfig struct {
	// HeartbeatSeconds is the idle interval between SSE comment lines.
	// Keeps proxies from severing a stream while a provider call runs.
	HeartbeatSeconds int `yaml:"heartbeat_seconds"`
	// SubscriberBuffer is the pending wake-up capacity per stream
	// subscriber. Wake-ups coalesce, so 1 is enough; larger values only
	// add redundant snapshot reads.
	SubscriberBuffer int `yaml:"subscriber_buffer"`
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	AI     AIConfig     `yaml:"ai"`
	Agents AgentsConfig `yaml:"agents"`
	Stream StreamConfig `yaml:"stream"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path and applies defaults. A missing
// file is not an error: the defaults alone describe a runnable dev setup
// (noop provider, local artifact dir).
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.Runtime.Dev = dev
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.AI.MaxOutputTokens <= 0 {
		cfg.AI.MaxOutputTokens = 2048
	}
	if cfg.AI.Models == nil {
		cfg.AI.Models = map[string][]string{
			"openai":    {"gpt-4o", "gpt-4o-mini"},
			"anthropic": {"claude-sonnet-4-20250514", "claude-3-5-haiku-20241022"},
			"gemini":    {"gemini-2.0-flash"},
		}
	}
	if cfg.Agents.OutputDir == "" {
		cfg.Agents.OutputDir = "artifacts"
	}
	if cfg.Stream.HeartbeatSeconds <= 0 {
		cfg.Stream.HeartbeatSeconds = 15
	}
	if cfg.Stream.SubscriberBuffer <= 0 {
		cfg.Stream.SubscriberBuffer = 1
	}
}
