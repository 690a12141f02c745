package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the DVM daemon.
type Config struct {
	Server    ServerConfig
	DVM       DVMConfig
	Redis     RedisConfig
	Lightning LightningConfig
	AI        AIConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DVMConfig struct {
	PrivateKey        string
	Relays            []string
	JobKinds          []int
	MinPriceSats      int64
	PricePer1kTokens  int64
	ReconcileInterval time.Duration
}

type RedisConfig struct {
	URL string
}

type LightningConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	Ollama           OllamaConfig
	OpenAI           OpenAIConfig
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

var validProviders = map[string]bool{
	"ollama": true,
	"openai": true,
}

// Load reads configuration from environment variables and returns a validated
// Config. Returns an error with a descriptive message if any required value
// is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("DVM_PORT", 8080),
			Env:  envString("DVM_ENV", "development"),
		},
		DVM: DVMConfig{
			PrivateKey:        os.Getenv("DVM_PRIVATE_KEY"),
			Relays:            envList("DVM_RELAYS"),
			JobKinds:          envIntList("DVM_JOB_KINDS", []int{5100}),
			MinPriceSats:      envInt64("DVM_MIN_PRICE_SATS", 10),
			PricePer1kTokens:  envInt64("DVM_PRICE_PER_1K_TOKENS", 2),
			ReconcileInterval: envDuration("DVM_RECONCILE_INTERVAL", 2*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Lightning: LightningConfig{
			BaseURL: os.Getenv("LIGHTNING_BASE_URL"),
			APIKey:  os.Getenv("LIGHTNING_API_KEY"),
			Timeout: envDuration("LIGHTNING_TIMEOUT", 30*time.Second),
		},
		AI: AIConfig{
			Provider:         envString("AI_PROVIDER", "ollama"),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 120*time.Second),
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   envString("OLLAMA_MODEL", "gemma3:1b"),
			},
			OpenAI: OpenAIConfig{
				BaseURL: envString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				Model:   envString("OPENAI_MODEL", "gpt-4o-mini"),
			},
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DVM.PrivateKey == "" {
		return fmt.Errorf("DVM_PRIVATE_KEY is required")
	}
	if len(c.DVM.PrivateKey) != 64 {
		return fmt.Errorf("DVM_PRIVATE_KEY must be a 64-character hex key, got %d characters", len(c.DVM.PrivateKey))
	}

	if len(c.DVM.Relays) == 0 {
		return fmt.Errorf("DVM_RELAYS is required")
	}
	for _, r := range c.DVM.Relays {
		if !strings.HasPrefix(r, "ws://") && !strings.HasPrefix(r, "wss://") {
			return fmt.Errorf("DVM_RELAYS entries must start with ws:// or wss://, got %q", r)
		}
	}

	for _, k := range c.DVM.JobKinds {
		if k < 5000 || k > 5999 {
			return fmt.Errorf("DVM_JOB_KINDS entries must be between 5000 and 5999, got %d", k)
		}
	}

	if c.DVM.MinPriceSats < 0 {
		return fmt.Errorf("DVM_MIN_PRICE_SATS must not be negative")
	}
	if c.DVM.PricePer1kTokens < 0 {
		return fmt.Errorf("DVM_PRICE_PER_1K_TOKENS must not be negative")
	}

	if c.Lightning.BaseURL == "" {
		return fmt.Errorf("LIGHTNING_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Lightning.BaseURL, "http://") && !strings.HasPrefix(c.Lightning.BaseURL, "https://") {
		return fmt.Errorf("LIGHTNING_BASE_URL must start with http:// or https://, got %q", c.Lightning.BaseURL)
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of ollama, openai; got %q", c.AI.Provider)
	}
	if c.AI.Provider == "openai" && c.AI.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envIntList(key string, defaultVal []int) []int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		i, err := strconv.Atoi(trimmed)
		if err != nil {
			return defaultVal
		}
		out = append(out, i)
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
