package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port    int `yaml:"port"`
	Workers int `yaml:"workers"` // turn-processing workers
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AIConfig struct {
	Provider        string `yaml:"provider"` // gemini | openai | noop
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	OpenAIKey       string `yaml:"openai_key"`
	OpenAIURL       string `yaml:"openai_url"`
	DefaultModel    string `yaml:"default_model"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent AI calls
}

type ExtractorConfig struct {
	URL          string        `yaml:"url"` // PDF extraction sidecar
	Timeout      time.Duration `yaml:"timeout"`
	MaxFileBytes int64         `yaml:"max_file_bytes"`
}

type ContextConfig struct {
	Policy      string `yaml:"policy"` // full | budget
	TokenBudget int    `yaml:"token_budget"`
	Encoding    string `yaml:"encoding"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	Workers int    `yaml:"workers"` // polling workers
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	AI        AIConfig        `yaml:"ai"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Context   ContextConfig   `yaml:"context"`
	Redis     RedisConfig     `yaml:"redis"`
	Telegram  TelegramConfig  `yaml:"telegram"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Workers <= 0 {
		cfg.Server.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "gemini"
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gemini-2.0-flash"
	}
	if cfg.AI.MaxOutputTokens <= 0 {
		cfg.AI.MaxOutputTokens = 1024
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.Extractor.Timeout <= 0 {
		cfg.Extractor.Timeout = 60 * time.Second
	}
	if cfg.Extractor.MaxFileBytes <= 0 {
		cfg.Extractor.MaxFileBytes = 20 << 20
	}
	if cfg.Context.Policy == "" {
		cfg.Context.Policy = "full"
	}
	if cfg.Context.Encoding == "" {
		cfg.Context.Encoding = "cl100k_base"
	}
	if cfg.Context.TokenBudget <= 0 {
		cfg.Context.TokenBudget = 16000
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Telegram.Workers <= 0 {
		cfg.Telegram.Workers = 5
	}

	// Minimal validation
	switch cfg.AI.Provider {
	case "gemini":
		if cfg.AI.GeminiKey == "" && !cfg.Runtime.Dev {
			return errors.New("ai.gemini_key is required for provider=gemini")
		}
	case "openai":
		if cfg.AI.OpenAIKey == "" && !cfg.Runtime.Dev {
			return errors.New("ai.openai_key is required for provider=openai")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown ai.provider %q", cfg.AI.Provider)
	}
	if cfg.Redis.Enabled && cfg.Redis.URL == "" {
		return errors.New("redis.url is required when redis.enabled")
	}
	if cfg.Telegram.Enabled && cfg.Telegram.Token == "" {
		return errors.New("telegram.token is required when telegram.enabled")
	}
	return nil
}
