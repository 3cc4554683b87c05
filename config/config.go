// Package config reads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"akut-backend/storage"
)

// Defaults used when a variable is unset or invalid
const (
	DefaultPort             = "8080"
	DefaultLocalPath        = "./data"
	DefaultS3Region         = "us-east-1"
	DefaultTreePrefix       = "decision-trees"
	DefaultHazardMetaKey    = "hazards_meta.json"
	DefaultFallbackLanguage = "de"
	DefaultOpenAIModel      = "gpt-3.5-turbo"
	DefaultGeminiModel      = "gemini-1.5-flash"
	DefaultMaxTokens        = 300
	DefaultTemperature      = 0.2
	DefaultChatTemperature  = 0.3
	DefaultAnswerTimeout    = 60 * time.Second
	DefaultGroundingLimit   = 5
)

// LLMConfig selects and configures the completion provider
type LLMConfig struct {
	Provider     string // "openai", "gemini" or empty for auto-detection
	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string
}

// AnswerConfig controls grounded answer generation
type AnswerConfig struct {
	MaxTokens       int
	Temperature     float32
	ChatTemperature float32
	Timeout         time.Duration
	GroundingLimit  int
	IncludeSummary  bool
}

// Config is the complete server configuration
type Config struct {
	Port             string
	DatabaseURL      string
	LogLevel         string
	Storage          storage.StorageConfig
	TreePrefix       string
	HazardMetaKey    string
	FallbackLanguage string
	LLM              LLMConfig
	Answer           AnswerConfig

	// Warnings collects messages about ignored values, logged once a logger exists
	Warnings []string
}

// Load reads the configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port:             getEnv("PORT", DefaultPort),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		TreePrefix:       getEnv("TREE_PREFIX", DefaultTreePrefix),
		HazardMetaKey:    getEnv("HAZARD_META_KEY", DefaultHazardMetaKey),
		FallbackLanguage: getEnv("FALLBACK_LANGUAGE", DefaultFallbackLanguage),
	}

	cfg.Storage = storage.StorageConfig{
		Type:         storage.StorageType(getEnv("STORAGE_TYPE", string(storage.StorageTypeLocal))),
		LocalPath:    getEnv("STORAGE_LOCAL_PATH", DefaultLocalPath),
		S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
		S3Region:     getEnv("AWS_REGION", DefaultS3Region),
		AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}

	cfg.LLM = LLMConfig{
		Provider:     strings.ToLower(os.Getenv("LLM_PROVIDER")),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getEnv("OPENAI_MODEL", DefaultOpenAIModel),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", DefaultGeminiModel),
	}

	cfg.Answer = AnswerConfig{
		MaxTokens:       cfg.getInt("ANSWER_MAX_TOKENS", DefaultMaxTokens),
		Temperature:     cfg.getFloat("ANSWER_TEMPERATURE", DefaultTemperature),
		ChatTemperature: cfg.getFloat("CHAT_TEMPERATURE", DefaultChatTemperature),
		Timeout:         cfg.getDuration("ANSWER_TIMEOUT", DefaultAnswerTimeout),
		GroundingLimit:  cfg.getIntMax("GROUNDING_LIMIT", DefaultGroundingLimit, DefaultGroundingLimit),
		IncludeSummary:  cfg.getBool("PROMPT_INCLUDE_SUMMARY", false),
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *Config) warn(key, value string) {
	c.Warnings = append(c.Warnings, "ignoring invalid "+key+"="+strconv.Quote(value))
}

func (c *Config) getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		c.warn(key, v)
		return fallback
	}
	return n
}

// getIntMax is getInt with an upper bound; larger values are reported and clamped
func (c *Config) getIntMax(key string, fallback, limit int) int {
	n := c.getInt(key, fallback)
	if n > limit {
		c.warn(key, os.Getenv(key))
		return limit
	}
	return n
}

func (c *Config) getFloat(key string, fallback float32) float32 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil || f < 0 {
		c.warn(key, v)
		return fallback
	}
	return float32(f)
}

func (c *Config) getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		c.warn(key, v)
		return fallback
	}
	return d
}

func (c *Config) getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.warn(key, v)
		return fallback
	}
	return b
}
