package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/yeremiapane/restaurant-orders/utils"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	DBDriver string
	DBDSN    string

	JWTSecret     string
	AllowedOrigin string

	RestaurantName    string
	RestaurantAddress string
	RestaurantPhone   string

	AMQPURL        string
	NotifyExchange string

	RelayInterval    time.Duration
	RelayMaxAttempts int

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debug(".env file not found, using process environment")
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		GinMode:           getEnv("GIN_MODE", "debug"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DBDriver:          getEnv("DB_DRIVER", "sqlite"),
		DBDSN:             getEnv("DB_DSN", "restaurant.db"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AllowedOrigin:     getEnv("ALLOWED_ORIGIN", ""),
		RestaurantName:    getEnv("RESTAURANT_NAME", "Restaurant"),
		RestaurantAddress: getEnv("RESTAURANT_ADDRESS", ""),
		RestaurantPhone:   getEnv("RESTAURANT_PHONE", ""),
		AMQPURL:           getEnv("AMQP_URL", ""),
		NotifyExchange:    getEnv("NOTIFY_EXCHANGE", "invoices_fanout"),
		RelayInterval:     getDuration("RELAY_INTERVAL", 500*time.Millisecond),
		RelayMaxAttempts:  getInt("RELAY_MAX_ATTEMPTS", 10),
		RateLimitRPS:      getFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:    getInt("RATE_LIMIT_BURST", 40),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
