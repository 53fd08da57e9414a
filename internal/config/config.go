package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration values.
type Config struct {
	HTTPPort      string
	StoreDriver   string
	StorePath     string
	DatabaseURL   string
	ShutdownGrace time.Duration

	CheckInterval time.Duration
	PageTimeout   time.Duration
	UserAgent     string
	AllowedHosts  []string

	NotifyTimeout       time.Duration
	NotifyRatePerMinute int
	TelegramToken       string
	TelegramChatID      string
	TelegramAPIURL      string

	ActivityCapacity int

	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads an optional .env file and then builds the configuration from
// environment variables with sane defaults. Variables already present in the
// environment win over the .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPPort:      getEnv("PORT", "5000"),
		StoreDriver:   getEnv("STORE_DRIVER", "file"),
		StorePath:     getEnv("STORE_PATH", ""),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		ShutdownGrace: getEnvDuration("SHUTDOWN_GRACE", 10*time.Second),

		CheckInterval: getEnvDuration("CHECK_INTERVAL", 10*time.Second),
		PageTimeout:   getEnvDuration("PAGE_TIMEOUT", 20*time.Second),
		UserAgent:     getEnv("USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) stockwatch/1.0"),
		AllowedHosts:  getEnvList("ALLOWED_URL_PREFIXES", []string{"https://www.cartier.com"}),

		NotifyTimeout:       getEnvDuration("NOTIFY_TIMEOUT", 5*time.Second),
		NotifyRatePerMinute: getEnvInt("NOTIFY_RATE_PER_MINUTE", 20),
		TelegramToken:       getEnv("TELEGRAM_TOKEN", ""),
		TelegramChatID:      getEnv("TELEGRAM_CHAT_ID", ""),
		TelegramAPIURL:      getEnv("TELEGRAM_API_URL", ""),

		ActivityCapacity: getEnvInt("ACTIVITY_CAPACITY", 100),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogFile:   getEnv("LOG_FILE", ""),
	}
}

// Helper function to get an environment variable or return a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper function to get an environment variable as an integer.
func getEnvInt(key string, fallback int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return fallback
}

// Helper function to get an environment variable as a time.Duration.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping blank items.
func getEnvList(key string, fallback []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
