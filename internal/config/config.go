package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide configuration, read once at startup.
type Config struct {
	Qdrant   QdrantConfig   `yaml:"qdrant"`
	LLM      LLMConfig      `yaml:"llm"`
	Database DatabaseConfig `yaml:"database"`
	LogLevel string         `yaml:"log_level"`
}

// QdrantConfig locates the vector store.
type QdrantConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// LLMConfig holds provider credentials and defaults.
type LLMConfig struct {
	DefaultProvider string       `yaml:"default_provider"`
	Ollama          OllamaConfig `yaml:"ollama"`
	OpenAI          OpenAIConfig `yaml:"openai"`
}

// OllamaConfig configures the local Ollama provider.
type OllamaConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Model   string `yaml:"model"`
}

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// AdditionalFields names optional payload keys used for display.
type AdditionalFields struct {
	Filename    string `yaml:"filename"`
	URL         string `yaml:"url"`
	Description string `yaml:"description"`
}

// DatabaseConfig is the domain vocabulary: which payload field identifies an
// entity and what the entities and items are called in prose. Supplied once
// at startup and read-only thereafter.
type DatabaseConfig struct {
	EntityField      string           `yaml:"entity_field"`
	EntityType       string           `yaml:"entity_type"`
	ItemType         string           `yaml:"item_type"`
	AdditionalFields AdditionalFields `yaml:"additional_fields"`
}

// Load reads configuration from the environment, optionally overridden by a
// YAML file named in VECTORQUERY_CONFIG.
func Load() (*Config, error) {
	cfg := &Config{
		Qdrant: QdrantConfig{
			Host:    getEnv("QDRANT_HOST", "localhost"),
			Port:    getEnvInt("QDRANT_PORT", 6333),
			APIKey:  getEnv("QDRANT_API_KEY", ""),
			Timeout: getEnvDuration("QDRANT_TIMEOUT", 30*time.Second),
		},
		LLM: LLMConfig{
			DefaultProvider: getEnv("LLM_DEFAULT_PROVIDER", "ollama"),
			Ollama: OllamaConfig{
				Enabled: getEnvBool("OLLAMA_ENABLED", true),
				URL:     getEnv("OLLAMA_URL", "http://localhost:11434"),
				Model:   getEnv("OLLAMA_MODEL", "llama3"),
			},
			OpenAI: OpenAIConfig{
				APIKey:  getEnv("OPENAI_API_KEY", ""),
				BaseURL: getEnv("OPENAI_BASE_URL", ""),
				Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			},
		},
		Database: DatabaseConfig{
			EntityField: getEnv("ENTITY_FIELD", "artist"),
			EntityType:  getEnv("ENTITY_TYPE", "artist"),
			ItemType:    getEnv("ITEM_TYPE", "artwork"),
			AdditionalFields: AdditionalFields{
				Filename:    getEnv("FILENAME_FIELD", "filename"),
				URL:         getEnv("URL_FIELD", "url"),
				Description: getEnv("DESCRIPTION_FIELD", "description"),
			},
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if path := os.Getenv("VECTORQUERY_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks for required values.
func (c *Config) Validate() error {
	if c.Qdrant.Host == "" {
		return fmt.Errorf("qdrant host is required")
	}
	if c.Qdrant.Port < 1 || c.Qdrant.Port > 65535 {
		return fmt.Errorf("qdrant port must be between 1 and 65535")
	}
	if c.Database.EntityField == "" {
		return fmt.Errorf("entity_field is required")
	}
	return nil
}

// HasProvider reports whether the named LLM provider is usable.
func (c *Config) HasProvider(name string) bool {
	switch name {
	case "ollama":
		return c.LLM.Ollama.Enabled && c.LLM.Ollama.URL != ""
	case "openai":
		return c.LLM.OpenAI.APIKey != ""
	default:
		return false
	}
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

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
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
