package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// GenerateAPIKey generates a secure random API key
func GenerateAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// Config holds all configuration for the agent
type Config struct {
	// Server settings
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Authentication
	APIKey    string
	JWTSecret string

	// Security
	AllowedOrigins []string
	RateLimitRPS   int

	// Sampling
	PollInterval   time.Duration
	StoragePath    string
	BatteryEnabled bool
	GPUEnabled     bool

	// Platform registry overrides, used by tests and containers that
	// bind-mount sysfs elsewhere. Empty selects the platform defaults.
	PowerSupplyRoot string
	DRMRoot         string
	ACPIRoot        string
	CPUFreqRoot     string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(getEnvFile())

	cfg := &Config{
		Port:            getEnvInt("PORT", 8094),
		Host:            getEnv("HOST", "0.0.0.0"),
		ReadTimeout:     time.Duration(getEnvInt("READ_TIMEOUT_SECONDS", 30)) * time.Second,
		WriteTimeout:    time.Duration(getEnvInt("WRITE_TIMEOUT_SECONDS", 300)) * time.Second,
		APIKey:          getEnv("API_KEY", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		AllowedOrigins:  getEnvSlice("ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:    getEnvInt("RATE_LIMIT_RPS", 100),
		PollInterval:    getEnvDuration("POLL_INTERVAL", 2*time.Second),
		StoragePath:     getEnv("STORAGE_PATH", "/"),
		BatteryEnabled:  getEnvBool("BATTERY_ENABLED", true),
		GPUEnabled:      getEnvBool("GPU_ENABLED", true),
		PowerSupplyRoot: getEnv("POWER_SUPPLY_ROOT", ""),
		DRMRoot:         getEnv("DRM_ROOT", ""),
		ACPIRoot:        getEnv("ACPI_ROOT", ""),
		CPUFreqRoot:     getEnv("CPUFREQ_ROOT", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY is required")
	}
	if cfg.JWTSecret == "" {
		// Use API key as fallback for JWT secret
		cfg.JWTSecret = cfg.APIKey
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}

	return cfg, nil
}

// getEnvFile returns the path to the .env file
func getEnvFile() string {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		return envFile
	}

	if _, err := os.Stat(".env"); err == nil {
		return ".env"
	}

	// Fall back to the executable's directory
	exe, err := os.Executable()
	if err == nil {
		dir := strings.TrimSuffix(exe, "/vitals-agent")
		envPath := dir + "/.env"
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	return ".env"
}

// LoadWithDefaults loads config with defaults for testing
func LoadWithDefaults() *Config {
	return &Config{
		Port:           8094,
		Host:           "0.0.0.0",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   300 * time.Second,
		APIKey:         "test-api-key",
		JWTSecret:      "test-jwt-secret",
		AllowedOrigins: []string{"*"},
		RateLimitRPS:   100,
		PollInterval:   2 * time.Second,
		StoragePath:    "/",
		BatteryEnabled: true,
		GPUEnabled:     true,
		LogLevel:       "info",
	}
}

// Addr returns the server address string
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
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

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
