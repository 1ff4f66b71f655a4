package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the complete application configuration, loadable from
// environment variables (ERP_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Storage   StorageConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
	Events    EventsConfig
	Agent     AgentConfig
}

// StorageConfig selects where products and orders are kept.
type StorageConfig struct {
	Driver      string `default:"postgres" usage:"Storage driver: postgres or memory"`
	DatabaseURL string `usage:"PostgreSQL connection URL (ERP_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	SeedCatalog bool   `default:"false" usage:"Load the built-in product catalog on start" flag:"seed-catalog"`
	MaxConns    int32  `default:"0" usage:"Maximum PostgreSQL connections, 0 keeps the driver default" flag:"db-max-conns"`
}

// AuthConfig controls API key authentication of write routes.
type AuthConfig struct {
	Disabled     bool   `default:"false" usage:"Serve write routes without API keys" flag:"auth-disabled"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (ERP_AUTH_API_KEY_PEPPER)" flag:"api-key-pepper"`
	// BootstrapKey is registered with the write scope on start, so the
	// memory driver can be used with authentication.
	BootstrapKey string `usage:"API key registered on start" flag:"bootstrap-key"`
}

// RateLimitConfig controls the per-client sliding window limit of the agent
// routes.
type RateLimitConfig struct {
	Max    int           `default:"30" usage:"Max agent requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// EventsConfig configures publishing of order and stock events. Events are
// dropped when no brokers are set.
type EventsConfig struct {
	Brokers  []string `usage:"Kafka broker addresses"`
	Topic    string   `default:"erp.events" usage:"Kafka topic for domain events"`
	ClientID string   `default:"erp-api" usage:"Kafka client id"`
}

// AgentConfig configures the chat agent served under /api/agent/chat.
type AgentConfig struct {
	Enabled       bool          `default:"false" usage:"Enable the LLM chat agent" flag:"agent-enabled"`
	OllamaURL     string        `default:"http://localhost:11434" usage:"Ollama server URL"`
	Model         string        `default:"qwen2.5" usage:"Chat model name"`
	MaxIterations int           `default:"5" usage:"Max tool-calling rounds per message"`
	Timeout       time.Duration `default:"2m" usage:"Timeout of one model request"`
}

var configFiles = []string{"config.yaml", "/etc/erp/config.yaml"}

// LoadConfig loads configuration from environment variables, flags, YAML
// config files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{Files: configFiles})
}

func loadConfig(base aconfig.Config) (*Config, error) {
	var cfg Config
	base.EnvPrefix = "ERP"
	base.FileDecoders = map[string]aconfig.FileDecoder{
		".yaml": aconfigyaml.New(),
	}
	loader := aconfig.LoaderFor(&cfg, base)
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required: set ERP_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	case DriverMemory:
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("rate limit max and window must be positive")
	}
	if len(c.Events.Brokers) > 0 && c.Events.Topic == "" {
		return errors.New("events topic is required when brokers are set")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's ERP_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Storage.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
