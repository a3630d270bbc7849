package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	OpenAI  OpenAIConfig
	Geo     GeoConfig
	Weather WeatherConfig
	Prompts PromptsConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type OpenAIConfig struct {
	APIKey string
	// Model is the default for every stage; the per-stage identifiers
	// override it when set.
	Model           string
	ClassifierModel string
	ExtractorModel  string
	BuilderModel    string
	AnswerModel     string

	MaxTokens     int64
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration
}

type GeoConfig struct {
	IPLookupURL    string
	GeolocationURL string
	Timeout        time.Duration
}

type WeatherConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

type PromptsConfig struct {
	// Path points to an optional JSON file overriding the built-in stage
	// instructions.
	Path string
}

func Load() (*Config, error) {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		},
		OpenAI: OpenAIConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			Model:           getEnv("LLM_MODEL", "gpt-4o-mini"),
			ClassifierModel: getEnv("LLM_CLASSIFIER_MODEL", ""),
			ExtractorModel:  getEnv("LLM_EXTRACTOR_MODEL", ""),
			BuilderModel:    getEnv("LLM_BUILDER_MODEL", ""),
			AnswerModel:     getEnv("LLM_ANSWER_MODEL", ""),
			MaxTokens:       int64(getEnvAsInt("LLM_MAX_TOKENS", 512)),
			Timeout:         getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
			MaxRetries:      getEnvAsInt("LLM_MAX_RETRIES", 0),
			RetryInterval:   getEnvAsDuration("LLM_RETRY_INTERVAL", 250*time.Millisecond),
		},
		Geo: GeoConfig{
			IPLookupURL:    getEnv("GEO_IP_LOOKUP_URL", "https://api.ipify.org?format=json"),
			GeolocationURL: getEnv("GEO_GEOLOCATION_URL", "https://ipapi.co/%s/json/"),
			Timeout:        getEnvAsDuration("GEO_TIMEOUT", 5*time.Second),
		},
		Weather: WeatherConfig{
			BaseURL:    getEnv("WEATHER_BASE_URL", "https://api.open-meteo.com/v1/forecast"),
			Timeout:    getEnvAsDuration("WEATHER_TIMEOUT", 10*time.Second),
			MaxRetries: getEnvAsInt("WEATHER_MAX_RETRIES", 0),
		},
		Prompts: PromptsConfig{
			Path: getEnv("PROMPTS_PATH", ""),
		},
	}

	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
