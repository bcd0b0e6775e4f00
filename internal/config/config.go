package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisTLS       bool
	RedisKeyPrefix string

	// OpenAI-compatible completion/embedding upstream
	OpenAIAPIKey   string
	ChatModel      string
	EmbeddingModel string
	LLMTimeout     time.Duration

	// Conversation memory
	ConversationMaxLength int
	ConversationExpiry    time.Duration

	// Retrieval
	RetrievalTopK int

	// Order dedup window (see leads.OrderSink)
	OrderDedupWindow time.Duration

	// WhatsApp Cloud API
	WhatsAppVerifyToken string

	// Telegram Bot API
	TelegramBotToken string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisAddr:      getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsInt("REDIS_DB", 0),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "app"),

		OpenAIAPIKey:   getEnv("OPEN_AI_API_KEY", ""),
		ChatModel:      getEnv("CHAT_MODEL", "gpt-3.5-turbo"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-ada-002"),
		LLMTimeout:     getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),

		ConversationMaxLength: getEnvAsInt("CONVERSATION_MAX_LENGTH", 50),
		ConversationExpiry:    getEnvAsDuration("CONVERSATION_EXPIRY", 24*time.Hour),

		RetrievalTopK: getEnvAsInt("RETRIEVAL_TOP_K", 3),

		OrderDedupWindow: getEnvAsDuration("ORDER_DEDUP_WINDOW", 24*time.Hour),

		WhatsAppVerifyToken: getEnv("WHATSAPP_VERIFY_TOKEN", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
