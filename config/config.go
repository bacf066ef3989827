package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Store configuration
	DataPath string

	// QR rotation configuration
	QRValidityWindow time.Duration

	// Auth configuration
	JWTSecret         string
	JWTTTL            time.Duration
	LoginFailureDelay time.Duration
	LoginRateLimit    int
	LoginRateWindow   time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Store
		DataPath: getEnv("DATA_PATH", "data/wallet.json"),

		// QR rotation
		QRValidityWindow: getEnvAsDuration("QR_VALIDITY_WINDOW", "600s"),

		// Auth
		JWTSecret:         getEnv("JWT_SECRET", "dev-only-secret"),
		JWTTTL:            getEnvAsDuration("JWT_TTL", "24h"),
		LoginFailureDelay: getEnvAsDuration("LOGIN_FAILURE_DELAY", "1s"),
		LoginRateLimit:    getEnvAsInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow:   getEnvAsDuration("LOGIN_RATE_WINDOW", "1m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
