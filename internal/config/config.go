// Package config handles configuration for the API server: defaults, an
// optional YAML overlay, then .env and environment variables.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the cover letter API.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Supabase SupabaseConfig `yaml:"supabase"`
	LLM      LLMConfig      `yaml:"llm"`
	Auth     AuthConfig     `yaml:"auth"`
	Export   ExportConfig   `yaml:"export"`
	LogLevel string         `yaml:"log_level"`
	Locale   string         `yaml:"locale"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	SessionIdleTTL time.Duration `yaml:"session_idle_ttl"`
}

// DatabaseConfig selects the Job Record Store.
//   - Driver: "postgres", "supabase" or "memory".
//   - Migrate: "goose" (embedded SQL), "auto" (gorm AutoMigrate) or "none".
type DatabaseConfig struct {
	Driver  string `yaml:"driver"`
	DSN     string `yaml:"dsn"`
	Migrate string `yaml:"migrate"`
}

type SupabaseConfig struct {
	URL        string `yaml:"url"`
	AnonKey    string `yaml:"anon_key"`
	ServiceKey string `yaml:"service_key"`
	JWTSecret  string `yaml:"jwt_secret"`
	Function   string `yaml:"function"`
}

// LLMConfig selects the Generation Service: "googleai", "openai" or "edge"
// (the hosted Supabase function).
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// AuthConfig selects the Session/Identity Provider: "jwt" or "supabase".
type AuthConfig struct {
	Provider string `yaml:"provider"`
}

// ExportConfig points at an S3-compatible bucket for archived exports.
// An empty Bucket disables archiving.
type ExportConfig struct {
	Bucket     string        `yaml:"bucket"`
	Region     string        `yaml:"region"`
	Endpoint   string        `yaml:"endpoint"`
	AccessKey  string        `yaml:"access_key"`
	SecretKey  string        `yaml:"secret_key"`
	PresignTTL time.Duration `yaml:"presign_ttl"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Server.Addr = ":8080"
	c.Server.AllowedOrigins = []string{"*"}
	c.Server.SessionIdleTTL = 30 * time.Minute
	c.Database.Driver = "postgres"
	c.Database.DSN = "host=localhost user=postgres password=password dbname=coverletters port=5432 sslmode=disable"
	c.Database.Migrate = "goose"
	c.Supabase.Function = "generate-cover-letter"
	c.LLM.Provider = "googleai"
	c.LLM.Model = "gemini-2.5-flash"
	c.LLM.Temperature = 0.7
	c.LLM.Timeout = 2 * time.Minute
	c.Auth.Provider = "jwt"
	c.Export.Region = "us-east-1"
	c.Export.PresignTTL = 15 * time.Minute
	c.LogLevel = "info"
	c.Locale = "da-DK"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional YAML file and finally from .env and the environment.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path, err := configPath(args)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configPath reads -config from the command line. CONFIG_FILE is the default.
func configPath(args []string) (string, error) {
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	path := fs.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("parse flags: %w", err)
	}
	return *path, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	setString(&c.Server.Addr, "SERVER_ADDR")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SERVER_ADDR") == "" {
		c.Server.Addr = ":" + port
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Database.DSN, "DATABASE_URL")
	setString(&c.Database.Migrate, "DATABASE_MIGRATE")

	setString(&c.Supabase.URL, "SUPABASE_URL")
	setString(&c.Supabase.AnonKey, "SUPABASE_KEY")
	setString(&c.Supabase.ServiceKey, "SUPABASE_SERVICE_KEY")
	setString(&c.Supabase.JWTSecret, "SUPABASE_JWT_SECRET")
	setString(&c.Supabase.Function, "SUPABASE_FUNCTION")

	setString(&c.LLM.Provider, "LLM_PROVIDER")
	switch c.LLM.Provider {
	case "googleai":
		setString(&c.LLM.APIKey, "GEMINI_API_KEY")
	case "openai":
		setString(&c.LLM.APIKey, "OPENAI_API_KEY")
	}
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.Model, "LLM_MODEL")

	setString(&c.Auth.Provider, "AUTH_PROVIDER")

	setString(&c.Export.Bucket, "S3_BUCKET")
	setString(&c.Export.Region, "S3_REGION")
	setString(&c.Export.Endpoint, "S3_ENDPOINT")
	setString(&c.Export.AccessKey, "S3_ACCESS_KEY")
	setString(&c.Export.SecretKey, "S3_SECRET_KEY")

	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Locale, "DEFAULT_LOCALE")

	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid LLM_TEMPERATURE: %w", err)
		}
		c.LLM.Temperature = t
	}
	if v := os.Getenv("SESSION_IDLE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_IDLE_TTL: %w", err)
		}
		c.Server.SessionIdleTTL = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate reports every setting the selected drivers need but do not have.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database dsn is required for the postgres driver"))
		}
		switch c.Database.Migrate {
		case "goose", "auto", "none":
		default:
			errs = append(errs, fmt.Errorf("unknown migrate mode %q", c.Database.Migrate))
		}
	case "supabase":
		if c.Supabase.URL == "" || c.supabaseKey() == "" {
			errs = append(errs, errors.New("supabase url and key are required for the supabase driver"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}

	switch c.LLM.Provider {
	case "googleai", "openai":
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("api key is required for the %s provider", c.LLM.Provider))
		}
	case "edge":
		if c.Supabase.URL == "" || c.Supabase.Function == "" {
			errs = append(errs, errors.New("supabase url and function are required for the edge provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}

	switch c.Auth.Provider {
	case "jwt":
		if c.Supabase.JWTSecret == "" {
			errs = append(errs, errors.New("jwt secret is required for the jwt auth provider"))
		}
	case "supabase":
		if c.Supabase.URL == "" || c.Supabase.AnonKey == "" {
			errs = append(errs, errors.New("supabase url and anon key are required for the supabase auth provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown auth provider %q", c.Auth.Provider))
	}

	return errors.Join(errs...)
}

// SupabaseKey prefers the service key for server-side table access.
func (c *Config) SupabaseKey() string { return c.supabaseKey() }

func (c *Config) supabaseKey() string {
	if c.Supabase.ServiceKey != "" {
		return c.Supabase.ServiceKey
	}
	return c.Supabase.AnonKey
}
