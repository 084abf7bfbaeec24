package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONFIG_FILE", "SERVER_ADDR", "PORT", "ALLOWED_ORIGINS", "DATABASE_DRIVER", "DATABASE_URL",
	"DATABASE_MIGRATE", "SUPABASE_URL", "SUPABASE_KEY", "SUPABASE_SERVICE_KEY", "SUPABASE_JWT_SECRET",
	"SUPABASE_FUNCTION", "LLM_PROVIDER", "GEMINI_API_KEY", "OPENAI_API_KEY", "LLM_API_KEY", "LLM_MODEL",
	"AUTH_PROVIDER", "S3_BUCKET", "S3_REGION", "S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY",
	"LOG_LEVEL", "DEFAULT_LOCALE", "LLM_TEMPERATURE", "SESSION_IDLE_TTL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeTempYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, []string{"*"}, c.Server.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, c.Server.SessionIdleTTL)
	assert.Equal(t, "postgres", c.Database.Driver)
	assert.Equal(t, "goose", c.Database.Migrate)
	assert.Equal(t, "generate-cover-letter", c.Supabase.Function)
	assert.Equal(t, "googleai", c.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", c.LLM.Model)
	assert.Equal(t, "jwt", c.Auth.Provider)
	assert.Equal(t, 15*time.Minute, c.Export.PresignTTL)
	assert.Equal(t, "da-DK", c.Locale)
}

func TestLoadConfig_NoFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	c, err := LoadConfig([]string{})
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *c)
}

func TestLoadConfig_YAMLOverlay(t *testing.T) {
	clearEnv(t)
	path := writeTempYAML(t, `
server:
  addr: ":9090"
  session_idle_ttl: 5m
database:
  driver: supabase
supabase:
  url: https://example.supabase.co
  anon_key: anon
llm:
  provider: openai
  model: gpt-4
  temperature: 0.2
`)

	c, err := LoadConfig([]string{"-config", path})
	require.NoError(t, err)

	assert.Equal(t, ":9090", c.Server.Addr)
	assert.Equal(t, 5*time.Minute, c.Server.SessionIdleTTL)
	assert.Equal(t, "supabase", c.Database.Driver)
	assert.Equal(t, "https://example.supabase.co", c.Supabase.URL)
	assert.Equal(t, "openai", c.LLM.Provider)
	assert.Equal(t, "gpt-4", c.LLM.Model)
	assert.InDelta(t, 0.2, c.LLM.Temperature, 1e-9)
	// untouched sections keep defaults
	assert.Equal(t, "jwt", c.Auth.Provider)
}

func TestLoadConfig_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := writeTempYAML(t, "server:\n  addr: \":9090\"\nllm:\n  provider: openai\n")
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("SESSION_IDLE_TTL", "90s")

	c, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, ":7070", c.Server.Addr)
	assert.Equal(t, "sk-test", c.LLM.APIKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.Server.AllowedOrigins)
	assert.Equal(t, 90*time.Second, c.Server.SessionIdleTTL)
}

func TestLoadConfig_FlagOverridesConfigFile(t *testing.T) {
	clearEnv(t)
	fromEnv := writeTempYAML(t, "server:\n  addr: \":9090\"\n")
	fromFlag := writeTempYAML(t, "server:\n  addr: \":9191\"\n")
	t.Setenv("CONFIG_FILE", fromEnv)

	c, err := LoadConfig([]string{"--config=" + fromFlag})
	require.NoError(t, err)
	assert.Equal(t, ":9191", c.Server.Addr)
}

func TestLoadConfig_PortFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")

	c, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, ":3000", c.Server.Addr)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		_, err := LoadConfig([]string{"-config=/does/not/exist.yaml"})
		require.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		clearEnv(t)
		path := writeTempYAML(t, "server: [unterminated")
		_, err := LoadConfig([]string{"--config", path})
		require.Error(t, err)
	})

	t.Run("unknown flag", func(t *testing.T) {
		clearEnv(t)
		_, err := LoadConfig([]string{"-port", "8080"})
		require.Error(t, err)
	})

	t.Run("invalid temperature", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LLM_TEMPERATURE", "hot")
		_, err := LoadConfig(nil)
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		c.LLM.APIKey = "key"
		c.Supabase.JWTSecret = "secret"
		return c
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"postgres without dsn", func(c *Config) { c.Database.DSN = "" }},
		{"bad migrate mode", func(c *Config) { c.Database.Migrate = "flyway" }},
		{"supabase store without url", func(c *Config) { c.Database.Driver = "supabase" }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mongo" }},
		{"llm without key", func(c *Config) { c.LLM.APIKey = "" }},
		{"edge without url", func(c *Config) { c.LLM.Provider = "edge" }},
		{"unknown llm", func(c *Config) { c.LLM.Provider = "llama" }},
		{"jwt without secret", func(c *Config) { c.Supabase.JWTSecret = "" }},
		{"supabase auth without key", func(c *Config) { c.Auth.Provider = "supabase" }},
		{"unknown auth", func(c *Config) { c.Auth.Provider = "basic" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	t.Run("memory driver needs nothing", func(t *testing.T) {
		c := valid()
		c.Database.Driver = "memory"
		c.Database.DSN = ""
		assert.NoError(t, c.Validate())
	})
}

func TestSupabaseKey_PrefersServiceKey(t *testing.T) {
	c := &Config{}
	c.Supabase.AnonKey = "anon"
	assert.Equal(t, "anon", c.SupabaseKey())
	c.Supabase.ServiceKey = "service"
	assert.Equal(t, "service", c.SupabaseKey())
}
