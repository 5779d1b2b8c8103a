package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/foreman/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"FOREMAN_MAX_STEPS", "FOREMAN_LOG_LEVEL", "FOREMAN_LLM_PROVIDER", "FOREMAN_LLM_MODEL",
	"FOREMAN_LLM_BASE_URL", "OPENAI_API_KEY", "OPENAI_BASE_URL", "ANTHROPIC_API_KEY",
	"FOREMAN_SEARCH_PROVIDER", "FOREMAN_SEARCH_MAX_RESULTS", "TAVILY_API_KEY", "SEARXNG_URL",
	"FOREMAN_STORE_DRIVER", "FOREMAN_STORE_PATH", "REDIS_ADDR", "REDIS_PASSWORD",
	"FOREMAN_ENCRYPTION_KEY", "FOREMAN_ADDR",
}

// cleanEnv isolates a test from the developer's environment.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Chdir(t.TempDir())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, 10, cfg.MaxSteps)
	assert.ElementsMatch(t, []string{"OPENAI_API_KEY", "TAVILY_API_KEY"}, cfg.MissingCredentials())
}

func TestLoad_YAML(t *testing.T) {
	cleanEnv(t)
	path := writeFile(t, "foreman.yaml", `
max_steps: "6"
llm:
  provider: anthropic
  model: claude-test
  temperature: 0.2
search:
  provider: searxng
  base_url: http://localhost:8888
store:
  driver: redis
  ttl: 2h
  lock_ttl: 45s
  redact: true
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.MaxSteps)
	assert.Equal(t, config.ProviderAnthropic, cfg.LLM.Provider)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 0.001)
	assert.Equal(t, "http://localhost:8888", cfg.Search.BaseURL)
	assert.Equal(t, 2*time.Hour, cfg.Store.TTL)
	assert.Equal(t, 45*time.Second, cfg.Store.LockTTL)
	assert.True(t, cfg.Store.Redact)
	assert.Equal(t, 5, cfg.Search.MaxResults, "defaults survive partial files")
}

func TestLoad_JSON(t *testing.T) {
	cleanEnv(t)
	path := writeFile(t, "foreman.json", `{"log_level":"debug","server":{"addr":":9090"}}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	cleanEnv(t)
	path := writeFile(t, "foreman.yaml", "max_steps: 4\n")
	t.Setenv("FOREMAN_MAX_STEPS", "8")
	t.Setenv("FOREMAN_LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("TAVILY_API_KEY", "tvly")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.MaxSteps)
	assert.Equal(t, "sk-ant", cfg.LLM.APIKey, "key follows the selected provider")
	assert.Equal(t, "tvly", cfg.Search.APIKey)
	assert.Equal(t, "redis:6379", cfg.Store.RedisAddr)
	assert.Empty(t, cfg.MissingCredentials())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "bogus: 1\n", "invalid config"},
		{"bad yaml", "max_steps: [\n", "failed to parse"},
		{"zero steps", "max_steps: 0\n", "max_steps"},
		{"llm provider", "llm: {provider: gemini}\n", "llm provider"},
		{"search provider", "search: {provider: bing}\n", "search provider"},
		{"store driver", "store: {driver: s3}\n", "store driver"},
		{"short key", "store: {encryption_key: abcd}\n", "encryption_key"},
		{"negative lock ttl", "store: {lock_ttl: -1s}\n", "lock_ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanEnv(t)
			_, err := config.Load(writeFile(t, "foreman.yaml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	cleanEnv(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestStoreConfig_Key(t *testing.T) {
	hexKey := strings.Repeat("ab", 32)
	key, err := config.StoreConfig{EncryptionKey: hexKey}.Key()
	require.NoError(t, err)
	assert.Len(t, key, 32)

	key, err = config.StoreConfig{}.Key()
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestOffline(t *testing.T) {
	cfg := config.Default()
	cfg.Offline()
	assert.Empty(t, cfg.MissingCredentials())
	assert.NoError(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	cleanEnv(t)
	require.NoError(t, config.LoadDotEnv(), "missing .env is fine")

	path := writeFile(t, ".env", "TAVILY_API_KEY=from-dotenv\n")
	t.Setenv("TAVILY_API_KEY", "")
	os.Unsetenv("TAVILY_API_KEY")
	require.NoError(t, config.LoadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv("TAVILY_API_KEY"))
}
