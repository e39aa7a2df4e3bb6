package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Batch ingestion settings
	XMLInputPath        string // when set, one ingestion batch runs at startup
	DashboardExportPath string
	MaxUploadSizeBytes  int64

	// Loader retry policy for transient storage errors
	StorageRetryAttempts int
	StorageRetryBackoff  time.Duration

	// API basic-auth credentials (password stored as a bcrypt hash)
	APIAuthUser         string
	APIAuthPasswordHash string

	// Frontend URL for CORS
	FrontendBaseURL string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory (common when running from /backend)
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	// --- File Size Limits ---
	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760") // 10MB default
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	// --- API auth ---
	// The API mirrors the basic-auth surface the dashboard expects.
	// An empty user disables authentication (development only).
	apiAuthUser := getEnv("API_AUTH_USER", "")
	var apiAuthPasswordHash string
	if apiAuthUser != "" {
		apiAuthPasswordHash = getRequiredEnv("API_AUTH_PASSWORD_HASH")
	} else {
		log.Println("WARNING: API_AUTH_USER not set; API authentication is disabled.")
	}

	// --- Populate the Global Config Struct ---
	Cfg = &AppConfig{
		// Core
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./momovisor.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		// Ingestion
		XMLInputPath:        getEnv("XML_INPUT_PATH", ""),
		DashboardExportPath: getEnv("DASHBOARD_EXPORT_PATH", "data/processed/dashboard.json"),
		MaxUploadSizeBytes:  maxUploadSizeBytes,

		// Loader retries
		StorageRetryAttempts: getEnvAsInt("STORAGE_RETRY_ATTEMPTS", 3),
		StorageRetryBackoff:  getEnvAsDuration("STORAGE_RETRY_BACKOFF", 250*time.Millisecond),

		// Auth
		APIAuthUser:         apiAuthUser,
		APIAuthPasswordHash: apiAuthPasswordHash,

		// CORS
		FrontendBaseURL: getEnv("APP_BASE_URL", "http://localhost:3000"),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, FrontendURL=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.FrontendBaseURL)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getRequiredEnv retrieves an environment variable or terminates the application if not set.
func getRequiredEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set or is empty. Application cannot start securely.", key)
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
