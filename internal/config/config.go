package config

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/rs/zerolog"
)

// Config holds the environment driven configuration for the prequalification service.
type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"prequal-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	GoogleCloudProject  string `env:"GOOGLE_CLOUD_PROJECT" envDefault:"pida-ai-v20"`
	GoogleCloudLocation string `env:"GOOGLE_CLOUD_LOCATION" envDefault:"us-central1"`
	GeminiModel         string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-pro"`

	MaxOutputTokens   int           `env:"MAX_OUTPUT_TOKENS" envDefault:"16384"`
	Temperature       float64       `env:"TEMPERATURE" envDefault:"0.7"`
	TopP              float64       `env:"TOP_P" envDefault:"0.95"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"5m"`
	StatusDelay       time.Duration `env:"STREAM_STATUS_DELAY" envDefault:"500ms"`

	// AuthJWKSURL serves the public keys Firebase signs ID tokens with.
	AuthJWKSURL string `env:"AUTH_JWKS_URL" envDefault:"https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"`

	RAGAPIURL string `env:"RAG_API_URL" envDefault:""`

	StripeAPIKey        string `env:"STRIPE_API_KEY" envDefault:""`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET" envDefault:""`

	WorkerCount int           `env:"BACKGROUND_WORKER_COUNT" envDefault:"2"`
	TaskTimeout time.Duration `env:"BACKGROUND_TASK_TIMEOUT" envDefault:"30s"`
	QueueSize   int           `env:"BACKGROUND_QUEUE_SIZE" envDefault:"64"`

	// JSON-array encoded strings, normalized by Normalize. When both admin
	// lists are empty the authentication-only endpoints run in open mode:
	// every verified caller is authorized. That toggle is deliberate.
	AllowedOriginsRaw string `env:"ALLOWED_ORIGINS" envDefault:"[\"https://pida.iiresodh.org\", \"https://pida-ai.com\", \"https://pida-ai-v20.web.app\", \"http://localhost\", \"http://localhost:8080\"]"`
	AdminDomainsRaw   string `env:"ADMIN_DOMAINS" envDefault:"[\"iiresodh.org\", \"urquilla.com\"]"`
	AdminEmailsRaw    string `env:"ADMIN_EMAILS" envDefault:"[]"`

	// Origins matching this pattern are allowed alongside the static list;
	// it covers preview deployments with generated subdomains.
	PreviewOriginPattern string `env:"ALLOWED_ORIGIN_REGEX" envDefault:"^https://pida-ai-v20--.*\\.web\\.app$"`

	AllowedOrigins []string       `env:"-"`
	AdminDomains   []string       `env:"-"`
	AdminEmails    []string       `env:"-"`
	PreviewOrigin  *regexp.Regexp `env:"-"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 5 * time.Minute
	}

	return cfg, nil
}

// Normalize decodes the JSON-array string fields into lower-cased trimmed
// sets and compiles the preview origin pattern. Malformed values are logged
// and replaced with an empty set; startup never fails on them.
func (c *Config) Normalize(log zerolog.Logger) {
	c.AllowedOrigins = parseJSONList(c.AllowedOriginsRaw, "ALLOWED_ORIGINS", log)
	c.AdminDomains = parseJSONList(c.AdminDomainsRaw, "ADMIN_DOMAINS", log)
	c.AdminEmails = parseJSONList(c.AdminEmailsRaw, "ADMIN_EMAILS", log)

	if pattern := strings.TrimSpace(c.PreviewOriginPattern); pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			log.Error().Err(err).Str("pattern", pattern).Msg("invalid ALLOWED_ORIGIN_REGEX, preview origins disabled")
		} else {
			c.PreviewOrigin = re
		}
	}
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// AuthIssuer returns the expected issuer of Firebase ID tokens.
func (c *Config) AuthIssuer() string {
	return "https://securetoken.google.com/" + c.GoogleCloudProject
}

func parseJSONList(raw, name string, log zerolog.Logger) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}

	var parsed []string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		log.Error().Err(err).Str("setting", name).Msg("malformed JSON list setting, using empty set")
		return []string{}
	}

	normalized := make([]string, 0, len(parsed))
	for _, item := range parsed {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			normalized = append(normalized, item)
		}
	}
	return normalized
}
