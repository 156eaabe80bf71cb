package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every setting the pipeline stages need. It is built once
// at process start and passed in explicitly; no package keeps connection
// or client globals.
type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Source/reference tables for the dedup pipeline
	TreasuryTable string
	CountryTable  string

	// External services
	FMPAPIKey        string
	TwelveDataAPIKey string
	GeminiModel      string

	// HTTP
	FetchTimeout time.Duration
	ServerHost   string
	ServerPort   int
}

// Load reads .env (if present) and the environment into a Config.
// Values already set in the environment win over .env entries.
func Load() *Config {
	// Same search order the scripts used when run from cmd/ or repo root.
	for _, path := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(path); err == nil {
			break
		}
	}

	return &Config{
		DBHost:     GetEnv("DB_HOST", "localhost"),
		DBPort:     GetEnv("DB_PORT", "5432"),
		DBUser:     GetEnv("DB_USER", "postgres"),
		DBPassword: GetEnv("DB_PASSWORD", ""),
		DBName:     GetEnv("DB_NAME", "treasury"),

		TreasuryTable: GetEnv("TREASURY_TABLE", "bitcoin_treasuries"),
		CountryTable:  GetEnv("COUNTRY_TABLE", "countries"),

		FMPAPIKey:        GetEnv("FMP_API_KEY", ""),
		TwelveDataAPIKey: GetEnv("TWELVE_DATA_API_KEY", ""),
		GeminiModel:      GetEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		FetchTimeout: time.Duration(GetEnvInt("FETCH_TIMEOUT_SECONDS", 15)) * time.Second,
		ServerHost:   GetEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:   GetEnvInt("SERVER_PORT", 8080),
	}
}

// GetEnv gets environment variable with default
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets integer environment variable with default
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvBool gets boolean environment variable with default
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}
