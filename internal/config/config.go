// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	ServerPort   string
	DatabasePath string
	Environment  string
	LogLevel     string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	AITimeout     time.Duration

	ChatModel        string
	ChatTemperature  float32
	ChatMaxTokens    int
	ChatHistoryLimit int

	IdentityJWTSecret string
	IdentityIssuer    string

	ChatRateLimit  int
	ChatRateWindow time.Duration

	MetricsEnabled bool
}

// Load reads configuration from environment variables or .env file.
func Load() (*Config, error) {
	env := strings.ToLower(getEnv("GO_ENV", "development"))
	if env != "production" {
		if err := godotenv.Load(); err != nil {
			log.Debug().Msg("[Config] no .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "converse.db"),
		Environment:  env,
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		AITimeout:     getEnvAsDuration("AI_TIMEOUT", 60*time.Second),

		ChatModel:        getEnv("CHAT_MODEL", "gpt-4o-mini"),
		ChatTemperature:  getEnvAsFloat("CHAT_TEMPERATURE", 0.2),
		ChatMaxTokens:    getEnvAsInt("CHAT_MAX_TOKENS", 1200),
		ChatHistoryLimit: getEnvAsInt("CHAT_HISTORY_LIMIT", 60),

		IdentityJWTSecret: getEnv("IDENTITY_JWT_SECRET", ""),
		IdentityIssuer:    getEnv("IDENTITY_ISSUER", ""),

		ChatRateLimit:  getEnvAsInt("CHAT_RATE_LIMIT", 30),
		ChatRateWindow: getEnvAsDuration("CHAT_RATE_WINDOW", time.Minute),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether GO_ENV selects the production profile.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate checks value ranges everywhere and required secrets in production.
func (c *Config) Validate() error {
	if c.ChatTemperature < 0 || c.ChatTemperature > 2 {
		return fmt.Errorf("CHAT_TEMPERATURE must be between 0 and 2, got %v", c.ChatTemperature)
	}
	if c.ChatMaxTokens <= 0 {
		return fmt.Errorf("CHAT_MAX_TOKENS must be positive, got %d", c.ChatMaxTokens)
	}
	if c.ChatHistoryLimit <= 0 {
		return fmt.Errorf("CHAT_HISTORY_LIMIT must be positive, got %d", c.ChatHistoryLimit)
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive, got %s", c.AITimeout)
	}
	if c.ChatRateLimit <= 0 || c.ChatRateWindow <= 0 {
		return fmt.Errorf("CHAT_RATE_LIMIT and CHAT_RATE_WINDOW must be positive")
	}

	if c.IsProduction() {
		missing := []string{}
		if c.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
		if c.IdentityJWTSecret == "" {
			missing = append(missing, "IDENTITY_JWT_SECRET")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required production environment variables: %v", missing)
		}
	}
	return nil
}

// getEnv returns the value of an environment variable or a default. An empty
// value counts as unset.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Warn().Str("key", key).Msg("[Config] could not parse env var as integer, using default")
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float32) float32 {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(strValue, 32)
	if err != nil {
		log.Warn().Str("key", key).Msg("[Config] could not parse env var as float, using default")
		return defaultValue
	}
	return float32(f)
}

// getEnvAsDuration accepts Go durations ("90s") or bare seconds ("90").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Warn().Str("key", key).Msg("[Config] could not parse env var as duration, using default")
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(strValue)
	if err != nil {
		log.Warn().Str("key", key).Msg("[Config] could not parse env var as bool, using default")
		return defaultValue
	}
	return b
}
