package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// defaultChatURI seeds an empty chat list so the sidebar is never blank.
const defaultChatURI = "https://solid-chat.solidcommunity.net/public/global/chat.ttl"

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort       string
	PodBearerToken string // optional Solid-OIDC bearer token forwarded to the pod
	WebID          string // optional explicit identity; otherwise derived from the token
	DefaultChatURI string
	ChatListDBPath string
	LogLevel       string
	PodTimeout     time.Duration
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file (useful for development)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
		// Don't fail if .env is not present, might be in production
	}

	timeoutStr := getEnv("POD_HTTP_TIMEOUT_SECONDS", "30")
	timeoutSecs, err := strconv.Atoi(timeoutStr)
	if err != nil || timeoutSecs <= 0 {
		log.Printf("Warning: Invalid POD_HTTP_TIMEOUT_SECONDS '%s', using default 30s.", timeoutStr)
		timeoutSecs = 30
	}

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "4333"),
		PodBearerToken: getEnv("POD_BEARER_TOKEN", ""),
		WebID:          getEnv("WEB_ID", ""),
		DefaultChatURI: getEnv("DEFAULT_CHAT_URI", defaultChatURI),
		ChatListDBPath: getEnv("CHATLIST_DB_PATH", "./chatlist.db"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		PodTimeout:     time.Duration(timeoutSecs) * time.Second,
	}

	log.Printf("Loaded config: Port=%s, DefaultChat=%s, ChatListDB=%s, PodTimeout=%s",
		cfg.HTTPPort, cfg.DefaultChatURI, cfg.ChatListDBPath, cfg.PodTimeout)

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
