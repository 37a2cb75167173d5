package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Database configuration
	DBHost      string
	DBPort      int
	DBUser      string
	DBPassword  string
	DBName      string
	AutoMigrate bool

	// Identity provider configuration
	Issuer              string
	JWKSURL             string
	JWKSFetchTimeout    time.Duration
	JWKSCacheMaxEntries int
	JWKSCacheMaxAge     time.Duration

	// Storage configuration
	StoragePath string

	// Server configuration
	ServerPort int
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		// Database defaults
		DBHost:     "localhost",
		DBPort:     5432,
		DBUser:     "",
		DBPassword: "",
		DBName:     "imaging",

		// Identity provider defaults
		Issuer:              "http://localhost:8180/realms/hospital",
		JWKSURL:             "http://localhost:8180/realms/hospital/protocol/openid-connect/certs",
		JWKSFetchTimeout:    10 * time.Second,
		JWKSCacheMaxEntries: 16,
		JWKSCacheMaxAge:     time.Hour,

		// Storage defaults
		StoragePath: "uploads",

		// Server defaults
		ServerPort: 8080,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env from project root
	_ = godotenv.Load()

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	fetchTimeout, err := time.ParseDuration(getEnv("JWKS_FETCH_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWKS_FETCH_TIMEOUT: %w", err)
	}

	cacheMaxAge, err := time.ParseDuration(getEnv("JWKS_CACHE_MAX_AGE", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWKS_CACHE_MAX_AGE: %w", err)
	}

	cacheMaxEntries := getEnvInt("JWKS_CACHE_MAX_ENTRIES", 16)
	if cacheMaxEntries <= 0 {
		return nil, fmt.Errorf("JWKS_CACHE_MAX_ENTRIES must be positive, got %d", cacheMaxEntries)
	}

	issuer := getEnv("OIDC_ISSUER", "http://localhost:8180/realms/hospital")

	return &Config{
		// Database configuration
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      dbPort,
		DBUser:      getEnv("DB_USER", "owner"),
		DBPassword:  getEnv("DB_PASSWORD", "ownerTest"),
		DBName:      getEnv("DB_NAME", "imaging"),
		AutoMigrate: getEnvBool("AUTO_MIGRATE", false),

		// Identity provider configuration
		Issuer:              issuer,
		JWKSURL:             getEnv("JWKS_URL", issuer+"/protocol/openid-connect/certs"),
		JWKSFetchTimeout:    fetchTimeout,
		JWKSCacheMaxEntries: cacheMaxEntries,
		JWKSCacheMaxAge:     cacheMaxAge,

		// Storage configuration
		StoragePath: getEnv("STORAGE_PATH", "uploads"),

		// Server configuration
		ServerPort: getEnvInt("PORT", 8080),
	}, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}
