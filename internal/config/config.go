package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI        string
	DBName          string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	AMQPURL         string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:        getEnvOrDefault("MONGO_URI", ""),
		DBName:          getEnvOrDefault("DB_NAME", "mini_crm"),
		JWTSecret:       getEnvOrDefault("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:  getExpiryEnv("JWT_ACCESS_EXPIRES", 15*time.Minute),
		RefreshTokenTTL: getExpiryEnv("JWT_REFRESH_EXPIRES", 7*24*time.Hour),
		AMQPURL:         getEnvOrDefault("AMQP_URL", ""),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getExpiryEnv reads a `<n><m|h|d>` lifetime such as "15m" or "7d".
// Unrecognized values fall back to the default rather than failing startup.
func getExpiryEnv(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if parsed, ok := ParseExpiry(value); ok {
		return parsed
	}
	log.Printf("[CONFIG] [WARN] %s=%q not recognized, using default %s", key, value, defaultValue)
	return defaultValue
}
