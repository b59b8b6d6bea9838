package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	HTTPPort    string
	DatabaseURL string
	LogLevel    string

	// Supabase project JWT secret, used to verify caller access tokens.
	JWTSecret string

	OpenAIAPIKey   string
	OpenAIBaseURL  string
	EmbeddingModel string

	AnthropicAPIKey string
	ChatModel       string
	ChatMaxTokens   int

	// Similarity search tuning. The thresholds are deliberately
	// per-endpoint: chat, search, and context each carry their own value.
	MatchCount            int
	ChatMatchThreshold    float64
	SearchMatchThreshold  float64
	ContextMatchThreshold float64
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Info().Msg("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		JWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		ChatModel:       getEnv("CHAT_MODEL", "claude-sonnet-4-20250514"),
		ChatMaxTokens:   getEnvAsInt("CHAT_MAX_TOKENS", 1024),

		MatchCount:            getEnvAsInt("MATCH_COUNT", 5),
		ChatMatchThreshold:    getEnvAsFloat("CHAT_MATCH_THRESHOLD", 0.65),
		SearchMatchThreshold:  getEnvAsFloat("SEARCH_MATCH_THRESHOLD", 0.3),
		ContextMatchThreshold: getEnvAsFloat("CONTEXT_MATCH_THRESHOLD", 0.7),
	}

	if AppConfig.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL environment variable is required")
	}

	if AppConfig.OpenAIAPIKey == "" {
		log.Fatal().Msg("OPENAI_API_KEY environment variable is required")
	}

	if AppConfig.AnthropicAPIKey == "" {
		log.Fatal().Msg("ANTHROPIC_API_KEY environment variable is required")
	}

	if AppConfig.JWTSecret == "" {
		log.Fatal().Msg("SUPABASE_JWT_SECRET environment variable is required")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
