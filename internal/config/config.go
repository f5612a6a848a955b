// Package config loads configuration from the environment with an optional
// YAML file overlay, and sets up logging.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider identifies an LLM or embedding backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderBedrock   Provider = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Chat model
	LLMProvider Provider
	LLMModel    string

	// Embeddings
	EmbedProvider  Provider
	EmbedModel     string
	EmbedDimension int

	// Provider credentials / endpoints
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// Retrieval tuning
	SimilarityTopK      int
	SimilarityThreshold float64

	// Agent loop
	MaxIterations  int
	RequestTimeout time.Duration

	// Server
	ServerPort string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig mirrors the YAML overlay file (~/.remind.yaml). All fields are
// optional; set fields override environment values.
type fileConfig struct {
	SurrealDBURL        string  `yaml:"surrealdb_url"`
	SurrealDBNamespace  string  `yaml:"surrealdb_namespace"`
	SurrealDBDatabase   string  `yaml:"surrealdb_database"`
	SurrealDBUser       string  `yaml:"surrealdb_user"`
	SurrealDBPass       string  `yaml:"surrealdb_pass"`
	LLMProvider         string  `yaml:"llm_provider"`
	LLMModel            string  `yaml:"llm_model"`
	EmbedProvider       string  `yaml:"embed_provider"`
	EmbedModel          string  `yaml:"embed_model"`
	EmbedDimension      int     `yaml:"embed_dimension"`
	OllamaHost          string  `yaml:"ollama_host"`
	OpenAIAPIKey        string  `yaml:"openai_api_key"`
	AnthropicAPIKey     string  `yaml:"anthropic_api_key"`
	SimilarityTopK      int     `yaml:"similarity_top_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MaxIterations       int     `yaml:"max_iterations"`
	ServerPort          string  `yaml:"server_port"`
	LogFile             string  `yaml:"log_file"`
	LogLevel            string  `yaml:"log_level"`
}

// Load reads configuration from environment variables, then overlays values
// from REMIND_CONFIG (or ~/.remind.yaml if present).
func Load() Config {
	cfg := Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "remind"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "reminders"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		LLMProvider: Provider(getEnv("REMIND_LLM_PROVIDER", string(ProviderOllama))),
		LLMModel:    getEnv("REMIND_LLM_MODEL", "llama3.1"),

		EmbedProvider:  Provider(getEnv("REMIND_EMBED_PROVIDER", string(ProviderOllama))),
		EmbedModel:     getEnv("REMIND_EMBED_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: getEnvInt("REMIND_EMBED_DIMENSION", 384),

		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		SimilarityTopK:      getEnvInt("REMIND_SIMILARITY_TOP_K", 15),
		SimilarityThreshold: getEnvFloat("REMIND_SIMILARITY_THRESHOLD", 0.2),

		MaxIterations:  getEnvInt("REMIND_MAX_ITERATIONS", 5),
		RequestTimeout: getEnvDuration("REMIND_REQUEST_TIMEOUT", 60*time.Second),

		ServerPort: getEnv("REMIND_SERVER_PORT", "8486"),

		LogFile:  getEnv("REMIND_LOG_FILE", "/tmp/remind.log"),
		LogLevel: parseLogLevel(getEnv("REMIND_LOG_LEVEL", "INFO")),
	}

	applyFile(&cfg, configFilePath())
	return cfg
}

// configFilePath returns the overlay file location: REMIND_CONFIG if set,
// else ~/.remind.yaml.
func configFilePath() string {
	if p := os.Getenv("REMIND_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".remind.yaml")
}

// applyFile overlays cfg with values from the YAML file at path.
// A missing file is not an error; a malformed one is logged and skipped.
func applyFile(cfg *Config, path string) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		slog.Warn("ignoring malformed config file", "path", path, "error", err)
		return
	}

	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setStr(&cfg.SurrealDBURL, fc.SurrealDBURL)
	setStr(&cfg.SurrealDBNamespace, fc.SurrealDBNamespace)
	setStr(&cfg.SurrealDBDatabase, fc.SurrealDBDatabase)
	setStr(&cfg.SurrealDBUser, fc.SurrealDBUser)
	setStr(&cfg.SurrealDBPass, fc.SurrealDBPass)
	setStr(&cfg.LLMModel, fc.LLMModel)
	setStr(&cfg.EmbedModel, fc.EmbedModel)
	setStr(&cfg.OllamaHost, fc.OllamaHost)
	setStr(&cfg.OpenAIAPIKey, fc.OpenAIAPIKey)
	setStr(&cfg.AnthropicAPIKey, fc.AnthropicAPIKey)
	setStr(&cfg.ServerPort, fc.ServerPort)
	setStr(&cfg.LogFile, fc.LogFile)
	if fc.LLMProvider != "" {
		cfg.LLMProvider = Provider(fc.LLMProvider)
	}
	if fc.EmbedProvider != "" {
		cfg.EmbedProvider = Provider(fc.EmbedProvider)
	}
	if fc.EmbedDimension > 0 {
		cfg.EmbedDimension = fc.EmbedDimension
	}
	if fc.SimilarityTopK > 0 {
		cfg.SimilarityTopK = fc.SimilarityTopK
	}
	if fc.SimilarityThreshold > 0 {
		cfg.SimilarityThreshold = fc.SimilarityThreshold
	}
	if fc.MaxIterations > 0 {
		cfg.MaxIterations = fc.MaxIterations
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = parseLogLevel(fc.LogLevel)
	}
}

// Validate checks cross-field constraints that cannot be defaulted away.
func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOllama, ProviderOpenAI, ProviderAnthropic, ProviderBedrock:
	default:
		return fmt.Errorf("unknown LLM provider: %s", c.LLMProvider)
	}
	switch c.EmbedProvider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.EmbedProvider)
	}
	if c.EmbedDimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.EmbedDimension)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", c.MaxIterations)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
