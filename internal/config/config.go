package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration for the service
type Config struct {
	Port     int
	LogLevel string
	Env      string

	// APIKey is the single shared credential gating every endpoint except
	// health and debug introspection.
	APIKey string

	AllowedOrigins []string
	SeedDataPath   string

	Kafka KafkaConfig
	FMCSA FMCSAConfig

	// ReportSchedule is a cron expression for the periodic ledger report;
	// empty disables the job.
	ReportSchedule string

	RateLimit RateLimitConfig
}

// KafkaConfig holds the event publishing configuration. Empty Brokers
// disables publishing.
type KafkaConfig struct {
	Brokers    []string
	LoadsTopic string
}

// FMCSAConfig holds the carrier verification API configuration
type FMCSAConfig struct {
	BaseURL string
	WebKey  string
}

// RateLimitConfig holds the HTTP rate limiting knobs
type RateLimitConfig struct {
	GlobalMaxTokens float64
	GlobalRefill    float64
	IPMaxTokens     float64
	IPRefill        float64
}

// getEnv retrieves the value of an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw, exists := os.LookupEnv(key)

	if !exists {
		return defaultValue, nil
	}

	v, err := strconv.ParseFloat(raw, 64)

	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load reads the configuration from the environment. A .env file is loaded
// first when present; real environment variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8000"))

	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	globalTokens, err := getEnvFloat("RATE_LIMIT_GLOBAL_TOKENS", 100)

	if err != nil {
		return nil, err
	}

	globalRefill, err := getEnvFloat("RATE_LIMIT_GLOBAL_REFILL", 50)

	if err != nil {
		return nil, err
	}

	ipTokens, err := getEnvFloat("RATE_LIMIT_IP_TOKENS", 20)

	if err != nil {
		return nil, err
	}

	ipRefill, err := getEnvFloat("RATE_LIMIT_IP_REFILL", 10)

	if err != nil {
		return nil, err
	}

	origins := splitList(getEnv("ALLOWED_ORIGINS", "*"))
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Config{
		Port:           port,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Env:            getEnv("APP_ENV", "development"),
		APIKey:         getEnv("API_KEY", ""),
		AllowedOrigins: origins,
		SeedDataPath:   getEnv("SEED_DATA_PATH", "data/seed_shipments.xlsx"),
		Kafka: KafkaConfig{
			Brokers:    splitList(getEnv("KAFKA_BROKERS", "")),
			LoadsTopic: getEnv("KAFKA_LOADS_TOPIC", "loads.events"),
		},
		FMCSA: FMCSAConfig{
			BaseURL: getEnv("FMCSA_BASE_URL", "https://mobile.fmcsa.dot.gov/qc/services"),
			WebKey:  getEnv("FMCSA_WEBKEY", ""),
		},
		ReportSchedule: getEnv("REPORT_SCHEDULE", ""),
		RateLimit: RateLimitConfig{
			GlobalMaxTokens: globalTokens,
			GlobalRefill:    globalRefill,
			IPMaxTokens:     ipTokens,
			IPRefill:        ipRefill,
		},
	}, nil
}
