package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/compliancecore/certextract/internal/interfaces"
)

// Config represents the application configuration.
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Extraction  ExtractionConfig `toml:"extraction"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	LLM         LLMConfig        `toml:"llm"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration, shared by the
// settings store and the audit sink (two separate databases, same engine).
type BadgerConfig struct {
	SettingsPath   string `toml:"settings_path"`   // settings key/value store directory
	AuditPath      string `toml:"audit_path"`      // audit sink directory
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // default: "15:04:05.000"
}

// ExtractionConfig holds the ambient, process-level knobs for the tiered
// extraction pipeline that aren't part of the per-call Settings snapshot
// (those live in the settings store, loaded by internal/settings.Loader):
// breaker tuning, the local OCR binary, and a concurrency setting.
type ExtractionConfig struct {
	TesseractPath          string        `toml:"tesseract_path"`            // path to the tesseract binary, empty uses $PATH
	BreakerFailureThreshold int          `toml:"breaker_failure_threshold"` // consecutive failures before a provider's circuit opens
	BreakerSuccessThreshold int          `toml:"breaker_success_threshold"` // consecutive successes before a half-open circuit closes
	BreakerTimeout          time.Duration `toml:"breaker_timeout"`          // per-call timeout the breaker imposes
	BreakerResetTimeout     time.Duration `toml:"breaker_reset_timeout"`    // how long an open circuit waits before trying half-open
	MaxConcurrentDocuments  int           `toml:"max_concurrent_documents"` // loaded from file/env; neither the orchestrator nor the scheduler reads it
}

// GeminiConfig contains Google Gemini API configuration for the vision and
// document-intelligence providers.
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	RateLimit   string  `toml:"rate_limit"`
	Temperature float32 `toml:"temperature"`
}

// ClaudeConfig contains Anthropic Claude API configuration for the text and
// vision providers.
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	RateLimit   string  `toml:"rate_limit"`
	Temperature float32 `toml:"temperature"`
}

// LLMProvider identifies which provider backs a capability when more than
// one could serve it and no registry priority override applies.
type LLMProvider string

const (
	LLMProviderGemini LLMProvider = "gemini"
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains provider-priority configuration shared across the text
// extraction, vision, and document-intelligence capabilities.
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"`
}

// NewDefaultConfig creates a configuration with default values. Only
// user-facing settings should be exposed in certextract.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				SettingsPath: "./data/settings",
				AuditPath:    "./data/audit",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Extraction: ExtractionConfig{
			TesseractPath:           "",
			BreakerFailureThreshold: 5,
			BreakerSuccessThreshold: 2,
			BreakerTimeout:          30 * time.Second,
			BreakerResetTimeout:     60 * time.Second,
			MaxConcurrentDocuments:  10,
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Timeout:     "5m",
			RateLimit:   "4s",
			Temperature: 0.2,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "5m",
			RateLimit:   "1s",
			Temperature: 0.2,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env.
// path may be empty, in which case only defaults and env overrides apply.
func LoadFromFile(path string) (*Config, error) {
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier
// ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CERTEXTRACT_ENV"); env != "" {
		config.Environment = env
	}

	if path := os.Getenv("CERTEXTRACT_SETTINGS_PATH"); path != "" {
		config.Storage.Badger.SettingsPath = path
	}
	if path := os.Getenv("CERTEXTRACT_AUDIT_PATH"); path != "" {
		config.Storage.Badger.AuditPath = path
	}

	if level := os.Getenv("CERTEXTRACT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("CERTEXTRACT_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("CERTEXTRACT_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if path := os.Getenv("CERTEXTRACT_TESSERACT_PATH"); path != "" {
		config.Extraction.TesseractPath = path
	}
	if n := os.Getenv("CERTEXTRACT_MAX_CONCURRENT_DOCUMENTS"); n != "" {
		if v, err := strconv.Atoi(n); err == nil {
			config.Extraction.MaxConcurrentDocuments = v
		}
	}

	if apiKey := os.Getenv("CERTEXTRACT_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("CERTEXTRACT_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if temperature := os.Getenv("CERTEXTRACT_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("CERTEXTRACT_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("CERTEXTRACT_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("CERTEXTRACT_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if temperature := os.Getenv("CERTEXTRACT_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	if provider := os.Getenv("CERTEXTRACT_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
}

// ResolveAPIKey resolves an API key by name with environment variable
// priority. Resolution order: environment variables -> KV store -> config
// fallback -> error.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"CERTEXTRACT_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"anthropic_api_key": {"CERTEXTRACT_CLAUDE_API_KEY"},
	}

	if name == "anthropic_api_key" {
		if envValue := os.Getenv("ANTHROPIC_API_KEY"); envValue != "" {
			return envValue, nil
		}
	}

	if envVarNames, hasMappedEnv := keyToEnvMapping[name]; hasMappedEnv {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
