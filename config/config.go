package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Store
	StoreDriver string
	DatabaseURL string
	SQLitePath  string

	// Server
	ServerPort string

	// Checklist
	StepsFile string
}

// Load loads configuration from environment variables
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		StoreDriver: getEnv("STORE_DRIVER", "sqlite"),
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost/fabtrack?sslmode=disable"),
		SQLitePath:  getEnv("SQLITE_PATH", "fabtrack.db"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		StepsFile:   getEnv("STEPS_FILE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
