package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type AiProviders struct {
	OpenAIKey    string
	AnthropicKey string
	GeminiKey    string
	OllamaURL    string
}

type AiBudget struct {
	// Default ceilings in micro-dollars, applied when a company has no
	// budget row of its own. Zero means unlimited.
	DailyLimitMicros   int64
	MonthlyLimitMicros int64
}

type Config struct {
	InstagramClientID     string
	InstagramClientSecret string
	InstagramRedirectURI  string
	PostgresURI           string
	RedisURI              string
	FrontendURL           string
	R2                    R2
	Ai                    AiProviders
	Budget                AiBudget
	SecretKey             string
	CookieName            string
	TokenRefreshHorizon   time.Duration
	GenerationRetention   time.Duration
	MaxUploadSize         int64
}

func LoadConfig() *Config {
	return &Config{
		InstagramClientID:     getEnv("INSTAGRAM_CLIENT_ID", ""),
		InstagramClientSecret: getEnv("INSTAGRAM_CLIENT_SECRET", ""),
		InstagramRedirectURI:  getEnv("INSTAGRAM_REDIRECT_URI", ""),
		PostgresURI:           getEnv("POSTGRES_URI", ""),
		RedisURI:              getEnv("REDIS_URI", ""),
		FrontendURL:           getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		Ai: AiProviders{
			OpenAIKey:    getEnv("OPENAI_API_KEY", ""),
			AnthropicKey: getEnv("ANTHROPIC_API_KEY", ""),
			GeminiKey:    getEnv("GEMINI_API_KEY", ""),
			OllamaURL:    getEnv("OLLAMA_URL", ""),
		},
		Budget: AiBudget{
			DailyLimitMicros:   getEnvInt64("AI_DAILY_LIMIT_MICROS", 0),
			MonthlyLimitMicros: getEnvInt64("AI_MONTHLY_LIMIT_MICROS", 0),
		},
		SecretKey:           getEnv("SECRET_KEY", ""),
		CookieName:          getEnv("COOKIE_NAME", ""),
		TokenRefreshHorizon: getEnvDuration("TOKEN_REFRESH_HORIZON", 7*24*time.Hour),
		GenerationRetention: getEnvDuration("GENERATION_RETENTION", 90*24*time.Hour),
		MaxUploadSize:       getEnvInt64("MAX_UPLOAD_SIZE", 100*1024*1024),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
