// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted in LLM_PROVIDER.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// Config holds application configuration.
type Config struct {
	Port             string
	Provider         string
	Model            string
	OllamaURL        string
	GeminiAPIKey     string
	LLMTimeout       time.Duration
	LogJSON          bool
	LogDebug         bool
	CORSAllowOrigins []string
}

// Load reads configuration from environment variables. A .env file is
// loaded first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	provider, err := normalizeProvider(getEnv("LLM_PROVIDER", ProviderOllama))
	if err != nil {
		return Config{}, err
	}

	timeoutSeconds, err := getEnvInt("LLM_TIMEOUT_SECONDS", 300)
	if err != nil {
		return Config{}, err
	}
	if timeoutSeconds <= 0 {
		return Config{}, fmt.Errorf("LLM_TIMEOUT_SECONDS must be positive, got %d", timeoutSeconds)
	}

	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		Provider:         provider,
		Model:            getEnv("LLM_MODEL", defaultModel(provider)),
		OllamaURL:        getEnv("OLLAMA_URL", "http://localhost:11434"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		LLMTimeout:       time.Duration(timeoutSeconds) * time.Second,
		LogJSON:          getEnvBool("LOG_JSON", false),
		LogDebug:         getEnvBool("LOG_DEBUG", false),
		CORSAllowOrigins: splitList(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
	}

	if cfg.Provider == ProviderGemini && cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
	}

	return cfg, nil
}

func defaultModel(provider string) string {
	if provider == ProviderGemini {
		return "gemini-2.5-flash"
	}
	return "mistral"
}

func normalizeProvider(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ProviderOllama:
		return ProviderOllama, nil
	case ProviderGemini:
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf("unknown LLM_PROVIDER %q (want %s or %s)", raw, ProviderOllama, ProviderGemini)
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return val, nil
}

func getEnvBool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
