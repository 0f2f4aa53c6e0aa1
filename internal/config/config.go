// Package config provides environment configuration for the email composer.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// LLM settings
	LLMProvider      string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	AnthropicAPIKey  string
	AnthropicBaseURL string
	DefaultModel     string
	Temperature      float64
	MaxTokens        int
	MaxAttempts      int
	BackoffUnit      time.Duration
	RequestTimeout   time.Duration

	// Attachments and prompt
	MaxAttachmentBytes int64
	AttachmentBudget   int
	// MaxUploadBytes bounds a whole multipart request body. Oversized files
	// below it are skipped with a warning; beyond it the request fails.
	MaxUploadBytes int64

	// Session state
	HistoryLimit int
	MaxSessions  int

	// NATS event fan-out, disabled when NATSURL is empty
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// CORS origins, comma separated
	AllowedOrigins []string

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables, after loading a
// .env file from the working directory when one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 5*time.Minute),

		// LLM
		LLMProvider:      strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "openai"))),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", ""),
		DefaultModel:     getEnv("DEFAULT_MODEL", ""),
		Temperature:      getFloatEnv("LLM_TEMPERATURE", 0.7),
		MaxTokens:        getIntEnv("LLM_MAX_TOKENS", 1500),
		MaxAttempts:      getIntEnv("LLM_MAX_ATTEMPTS", 3),
		BackoffUnit:      getDurationEnv("LLM_BACKOFF_UNIT", time.Second),
		RequestTimeout:   getDurationEnv("LLM_REQUEST_TIMEOUT", 60*time.Second),

		// Attachments
		MaxAttachmentBytes: getInt64Env("MAX_ATTACHMENT_BYTES", 5*1024*1024),
		AttachmentBudget:   getIntEnv("ATTACHMENT_CHAR_BUDGET", 3000),
		MaxUploadBytes:     getInt64Env("MAX_UPLOAD_BYTES", 64*1024*1024),

		// Sessions
		HistoryLimit: getIntEnv("HISTORY_LIMIT", 20),
		MaxSessions:  getIntEnv("MAX_SESSIONS", 1000),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// CORS
		AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS"),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// APIKey returns the credential for the configured provider.
func (c *Config) APIKey() string {
	if strings.EqualFold(c.LLMProvider, "anthropic") {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

// BaseURL returns the endpoint override for the configured provider.
func (c *Config) BaseURL() string {
	if strings.EqualFold(c.LLMProvider, "anthropic") {
		return c.AnthropicBaseURL
	}
	return c.OpenAIBaseURL
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getListEnv(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
