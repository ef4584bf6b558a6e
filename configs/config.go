// config.go - Configuration loaded from environment variables

package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	// Gemini AI Configuration
	GEMINI_API_KEY    string
	VISION_MODEL_NAME string
	OCR_MODEL_NAME    string

	// Per-backend timeouts
	VISION_TIMEOUT time.Duration
	OCR_TIMEOUT    time.Duration
	MARINE_TIMEOUT time.Duration

	// Session Configuration
	ACK_WINDOW time.Duration // inactivity window for the acknowledgement phase

	// Server Configuration
	PORT            string
	ALLOWED_ORIGINS string

	// MongoDB Configuration (optional report archive)
	MONGO_URI     string
	MONGO_DB_NAME string

	// Marine data cache
	MARINE_CACHE_TTL  time.Duration
	WARM_INTERVAL     time.Duration
	ENABLE_CACHE_WARM bool

	// Image preprocessing settings
	ENABLE_IMAGE_PREPROCESSING bool
	MAX_IMAGE_DIMENSION        int

	// Gemini rate limiter (requests per refill interval)
	GEMINI_RATE_TOKENS int
	GEMINI_RATE_REFILL time.Duration
)

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Gemini key is optional: without it the vision and OCR backends
	// report themselves unavailable and the marine API carries the load.
	GEMINI_API_KEY = getEnv("GEMINI_API_KEY", "")
	if GEMINI_API_KEY == "" {
		log.Println("GEMINI_API_KEY not set; vision and OCR backends disabled")
	}

	VISION_MODEL_NAME = getEnv("VISION_MODEL_NAME", "gemini-2.5-flash")
	OCR_MODEL_NAME = getEnv("OCR_MODEL_NAME", "gemini-2.5-flash-lite")

	VISION_TIMEOUT = getEnvDuration("VISION_TIMEOUT", 45*time.Second)
	OCR_TIMEOUT = getEnvDuration("OCR_TIMEOUT", 60*time.Second)
	MARINE_TIMEOUT = getEnvDuration("MARINE_TIMEOUT", 20*time.Second)

	ACK_WINDOW = getEnvDuration("ACK_WINDOW", 10*time.Minute)

	PORT = getEnv("PORT", "8080")
	ALLOWED_ORIGINS = getEnv("ALLOWED_ORIGINS", "*")

	// MongoDB is optional; empty URI disables the report archive.
	MONGO_URI = getEnv("MONGO_URI", "")
	MONGO_DB_NAME = getEnv("MONGO_DB_NAME", "poseidon")

	MARINE_CACHE_TTL = getEnvDuration("MARINE_CACHE_TTL", 30*time.Minute)
	WARM_INTERVAL = getEnvDuration("WARM_INTERVAL", 30*time.Minute)
	ENABLE_CACHE_WARM = getEnvBool("ENABLE_CACHE_WARM", true)

	ENABLE_IMAGE_PREPROCESSING = getEnvBool("ENABLE_IMAGE_PREPROCESSING", true)
	MAX_IMAGE_DIMENSION = getEnvInt("MAX_IMAGE_DIMENSION", 2000)

	GEMINI_RATE_TOKENS = getEnvInt("GEMINI_RATE_TOKENS", 12)
	GEMINI_RATE_REFILL = getEnvDuration("GEMINI_RATE_REFILL", 5*time.Second)

	log.Println("✓ Configuration loaded successfully")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
