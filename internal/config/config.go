// Package config loads foreman settings from a YAML or JSON file, a .env file
// and the environment, in increasing order of precedence.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/foreman/internal/runtime"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no explicit config file is given. It may be absent.
const DefaultPath = "foreman.yaml"

// Providers.
const (
	ProviderOffline   = "offline"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderTavily    = "tavily"
	ProviderSearxNG   = "searxng"
)

// Store drivers.
const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Config is the complete application configuration.
type Config struct {
	MaxSteps int          `mapstructure:"max_steps"`
	LogLevel string       `mapstructure:"log_level"`
	LLM      LLMConfig    `mapstructure:"llm"`
	Search   SearchConfig `mapstructure:"search"`
	Store    StoreConfig  `mapstructure:"store"`
	Server   ServerConfig `mapstructure:"server"`
}

type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	// ExtractFacts condenses search results with the model before writing.
	ExtractFacts bool `mapstructure:"extract_facts"`
}

type SearchConfig struct {
	Provider   string `mapstructure:"provider"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	MaxResults int    `mapstructure:"max_results"`
}

type StoreConfig struct {
	Driver        string        `mapstructure:"driver"`
	Path          string        `mapstructure:"path"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	Prefix        string        `mapstructure:"prefix"`
	TTL           time.Duration `mapstructure:"ttl"`
	// LockTTL bounds how long a crashed replica blocks a run. Held locks
	// are renewed, so it does not limit run duration.
	LockTTL       time.Duration `mapstructure:"lock_ttl"`
	EncryptionKey string        `mapstructure:"encryption_key"`
	Redact        bool          `mapstructure:"redact"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MaxSteps: runtime.DefaultMaxSteps,
		LogLevel: "info",
		LLM:      LLMConfig{Provider: ProviderOpenAI},
		Search:   SearchConfig{Provider: ProviderTavily, MaxResults: 5},
		Store:    StoreConfig{Driver: DriverFile, Path: ".foreman/runs", RedisAddr: "localhost:6379"},
		Server:   ServerConfig{Addr: ":8080"},
	}
}

// Load builds the configuration. An empty path reads DefaultPath when it
// exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	applyEnv(cfg, os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding the real environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func decode(path string, data []byte, cfg *Config) error {
	raw := map[string]any{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	num := func(dst *int, key string) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	num(&cfg.MaxSteps, "FOREMAN_MAX_STEPS")
	str(&cfg.LogLevel, "FOREMAN_LOG_LEVEL")

	str(&cfg.LLM.Provider, "FOREMAN_LLM_PROVIDER")
	str(&cfg.LLM.Model, "FOREMAN_LLM_MODEL")
	str(&cfg.LLM.BaseURL, "FOREMAN_LLM_BASE_URL")
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case ProviderOpenAI:
			str(&cfg.LLM.APIKey, "OPENAI_API_KEY")
			str(&cfg.LLM.BaseURL, "OPENAI_BASE_URL")
		case ProviderAnthropic:
			str(&cfg.LLM.APIKey, "ANTHROPIC_API_KEY")
		}
	}

	str(&cfg.Search.Provider, "FOREMAN_SEARCH_PROVIDER")
	num(&cfg.Search.MaxResults, "FOREMAN_SEARCH_MAX_RESULTS")
	switch cfg.Search.Provider {
	case ProviderTavily:
		if cfg.Search.APIKey == "" {
			str(&cfg.Search.APIKey, "TAVILY_API_KEY")
		}
	case ProviderSearxNG:
		str(&cfg.Search.BaseURL, "SEARXNG_URL")
	}

	str(&cfg.Store.Driver, "FOREMAN_STORE_DRIVER")
	str(&cfg.Store.Path, "FOREMAN_STORE_PATH")
	str(&cfg.Store.RedisAddr, "REDIS_ADDR")
	str(&cfg.Store.RedisPassword, "REDIS_PASSWORD")
	str(&cfg.Store.EncryptionKey, "FOREMAN_ENCRYPTION_KEY")

	str(&cfg.Server.Addr, "FOREMAN_ADDR")
}

// Offline switches every collaborator to the built-in offline implementations.
func (c *Config) Offline() {
	c.LLM.Provider = ProviderOffline
	c.Search.Provider = ProviderOffline
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.MaxSteps < 1 {
		return fmt.Errorf("max_steps must be at least 1, got %d", c.MaxSteps)
	}
	switch c.LLM.Provider {
	case ProviderOffline, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	switch c.Search.Provider {
	case ProviderOffline, ProviderTavily, ProviderSearxNG:
	default:
		return fmt.Errorf("unknown search provider %q", c.Search.Provider)
	}
	switch c.Store.Driver {
	case DriverNone, DriverMemory, DriverFile, DriverRedis:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.TTL < 0 {
		return errors.New("store ttl must not be negative")
	}
	if c.Store.LockTTL < 0 {
		return errors.New("store lock_ttl must not be negative")
	}
	if c.Store.EncryptionKey != "" {
		if _, err := c.Store.Key(); err != nil {
			return err
		}
	}
	return nil
}

// Key decodes the encryption key. Hex and base64 encodings of 32 bytes are accepted.
func (s StoreConfig) Key() ([]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	if b, err := hex.DecodeString(s.EncryptionKey); err == nil && len(b) == 32 {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s.EncryptionKey); err == nil && len(b) == 32 {
		return b, nil
	}
	return nil, errors.New("encryption_key must be 32 bytes encoded as hex or base64")
}

// MissingCredentials lists the credentials the selected providers still need.
func (c *Config) MissingCredentials() []string {
	var missing []string
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case ProviderAnthropic:
		if c.LLM.APIKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	}
	switch c.Search.Provider {
	case ProviderTavily:
		if c.Search.APIKey == "" {
			missing = append(missing, "TAVILY_API_KEY")
		}
	case ProviderSearxNG:
		if c.Search.BaseURL == "" {
			missing = append(missing, "SEARXNG_URL")
		}
	}
	return missing
}
