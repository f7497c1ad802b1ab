// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port              string
	Environment       string
	InngestEventKey   string
	InngestSigningKey string
	OpenAIAPIKey      string
	AnthropicAPIKey   string
	AlertWebhookURL   string
	DatabaseURL       string
	Database          DatabaseConfig
	Pipeline          PipelineConfig
	Provider          ProviderConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// PipelineConfig holds the batch-execution tunables. Everything here is
// overridable per run rather than baked in as package constants.
type PipelineConfig struct {
	BatchSize        int
	ConcurrencyLimit int
	BatchMaxRetries  int
	BatchRetryDelay  time.Duration
	WeightPolicy     string // "banded" or "flat"
	ValidateMentions bool
}

// ProviderConfig holds outbound AI-call tunables shared by all providers.
type ProviderConfig struct {
	AnswerModel      string
	ValidationModel  string
	RequestTimeout   time.Duration
	MaxRetries       int
	RetryBaseDelay   time.Duration
	RequestsPerSec   float64
	WebSearchEnabled bool
}

func Load() *Config {
	config := &Config{
		Port:              getEnv("PORT", "8000"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		InngestEventKey:   os.Getenv("INNGEST_EVENT_KEY"),
		InngestSigningKey: os.Getenv("INNGEST_SIGNING_KEY"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AlertWebhookURL:   os.Getenv("ALERT_WEBHOOK_URL"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
	}

	// Parse database configuration
	dbConfig, err := parseDatabaseConfig()
	if err != nil {
		// If DATABASE_URL parsing fails, try individual env vars as fallback
		dbConfig = DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "georank"),
			SSLMode:         getEnv("DB_SSLMODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
		}
	}
	config.Database = dbConfig

	config.Pipeline = PipelineConfig{
		BatchSize:        getEnvInt("PIPELINE_BATCH_SIZE", 5),
		ConcurrencyLimit: getEnvInt("PIPELINE_CONCURRENCY_LIMIT", 10),
		BatchMaxRetries:  getEnvInt("PIPELINE_BATCH_MAX_RETRIES", 3),
		BatchRetryDelay:  getEnvDuration("PIPELINE_BATCH_RETRY_DELAY", 2*time.Second),
		WeightPolicy:     getEnv("PIPELINE_WEIGHT_POLICY", "banded"),
		ValidateMentions: getEnvBool("PIPELINE_VALIDATE_MENTIONS", true),
	}

	config.Provider = ProviderConfig{
		AnswerModel:      getEnv("ANSWER_MODEL", "gpt-4.1"),
		ValidationModel:  getEnv("VALIDATION_MODEL", "gpt-4.1-mini"),
		RequestTimeout:   getEnvDuration("PROVIDER_REQUEST_TIMEOUT", 5*time.Minute),
		MaxRetries:       getEnvInt("PROVIDER_MAX_RETRIES", 3),
		RetryBaseDelay:   getEnvDuration("PROVIDER_RETRY_BASE_DELAY", 2*time.Second),
		RequestsPerSec:   getEnvFloat("PROVIDER_REQUESTS_PER_SEC", 10),
		WebSearchEnabled: getEnvBool("PROVIDER_WEB_SEARCH", true),
	}

	return config
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Validate checks the credentials the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	return nil
}

func parseDatabaseConfig() (DatabaseConfig, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL not set")
	}

	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if len(parsedURL.Path) < 2 {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL has no database name")
	}

	config := DatabaseConfig{
		Host:            parsedURL.Hostname(),
		Port:            5432, // default
		User:            parsedURL.User.Username(),
		Name:            parsedURL.Path[1:], // remove leading slash
		SSLMode:         getEnv("DB_SSLMODE", "require"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
	}

	if password, ok := parsedURL.User.Password(); ok {
		config.Password = password
	}

	if parsedURL.Port() != "" {
		if port, err := strconv.Atoi(parsedURL.Port()); err == nil {
			config.Port = port
		}
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
