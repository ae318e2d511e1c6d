package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	StoragePath string

	// Pattern catalog. When PatternDataDir is empty the embedded catalog
	// is used.
	PatternDataDir string

	// Model providers.
	OpenRouterAPIKey   string
	OpenRouterBaseURL  string
	OpenRouterModel    string
	OpenRouterReferrer string
	OpenRouterAppName  string
	DeepSeekAPIKey     string
	DeepSeekBaseURL    string
	DeepSeekModel      string
	LLMMaxRetries      int
	LLMBackoffBase     time.Duration
	LLMTimeout         time.Duration

	// Scoring policy.
	ScoreAcceptThreshold float64
	ScoreLengthFloor     int

	// Text-to-speech.
	ElevenAPIKey   string
	ElevenVoiceID  string
	ElevenModelID  string
	ElevenBaseURL  string
	TTSMaxChars    int
	TTSConcurrency int

	// Related-article search.
	SerpAPIKey     string
	SerpAPIBaseURL string

	DefaultLocale    string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		PatternDataDir: os.Getenv("PATTERN_DATA_DIR"),

		OpenRouterAPIKey:   os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL:  getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:    getEnv("OPENROUTER_MODEL", "moonshotai/kimi-k2:free"),
		OpenRouterReferrer: getEnv("OPENROUTER_REFERRER", "http://localhost:8080"),
		OpenRouterAppName:  getEnv("OPENROUTER_APP_TITLE", "research"),
		DeepSeekAPIKey:     os.Getenv("DEEPSEEK_API_KEY"),
		DeepSeekBaseURL:    getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com/v1"),
		DeepSeekModel:      getEnv("DEEPSEEK_MODEL", "deepseek-chat"),
		LLMMaxRetries:      getEnvInt("LLM_MAX_RETRIES", 2),
		LLMBackoffBase:     getEnvDuration("LLM_BACKOFF_BASE", 500*time.Millisecond),
		LLMTimeout:         getEnvDuration("LLM_TIMEOUT", 120*time.Second),

		ScoreAcceptThreshold: getEnvFloat("SCORE_ACCEPT_THRESHOLD", 0.6),
		ScoreLengthFloor:     getEnvInt("SCORE_LENGTH_FLOOR", 64),

		ElevenAPIKey:   os.Getenv("ELEVEN_API_KEY"),
		ElevenVoiceID:  getEnv("ELEVEN_VOICE_ID", "EXAVITQu4vr4xnSDxMaL"),
		ElevenModelID:  getEnv("ELEVEN_MODEL_ID", "eleven_multilingual_v2"),
		ElevenBaseURL:  getEnv("ELEVEN_BASE_URL", "https://api.elevenlabs.io/v1"),
		TTSMaxChars:    getEnvInt("TTS_MAX_CHARS", 2000),
		TTSConcurrency: getEnvInt("TTS_CONCURRENCY", 4),

		SerpAPIKey:     os.Getenv("SERPAPI_API_KEY"),
		SerpAPIBaseURL: getEnv("SERPAPI_BASE_URL", "https://serpapi.com"),

		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.ScoreAcceptThreshold < 0 || cfg.ScoreAcceptThreshold > 1 {
		return nil, fmt.Errorf("SCORE_ACCEPT_THRESHOLD must be within [0,1]")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
