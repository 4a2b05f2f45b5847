package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig    `toml:"logging"`
	Storage     StorageConfig    `toml:"storage"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	LLM         LLMConfig        `toml:"llm"`
	Images      ImagesConfig     `toml:"images"`
	Generation  GenerationConfig `toml:"generation"`
	Scheduler   SchedulerConfig  `toml:"scheduler"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

type StorageConfig struct {
	Badger     BadgerConfig     `toml:"badger"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type FilesystemConfig struct {
	Images string `toml:"images"` // Directory where generated images are written
}

// GeminiConfig contains Google Gemini API configuration for text and image generation
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Text model (default: "gemini-3-flash-preview")
	Timeout     string  `toml:"timeout"`     // Per-call timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Text model (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 4096)
	Timeout     string  `toml:"timeout"`     // Per-call timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for text generation providers
type LLMConfig struct {
	DefaultProvider  LLMProvider `toml:"default_provider"`  // Default provider: "gemini" or "claude" (default: "gemini")
	FallbackProvider LLMProvider `toml:"fallback_provider"` // Alternate provider for fallback recovery (empty = none)
	AuditEnabled     bool        `toml:"audit_enabled"`     // Record per-call audit entries (default: true)
}

// ImagesConfig contains image generation configuration
type ImagesConfig struct {
	Model          string `toml:"model"`           // Prompt-only image model (default: "imagen-4.0-generate-001")
	CompositeModel string `toml:"composite_model"` // Multimodal model for asset-anchored composition (default: "gemini-2.5-flash-image")
	Quality        string `toml:"quality"`         // "draft", "standard", or "high" (default: "standard")
}

// GenerationConfig contains the content generation pipeline tuning
type GenerationConfig struct {
	MaxAttempts       int     `toml:"max_attempts"`       // Step-level retry attempts (default: 3)
	BaseDelay         string  `toml:"base_delay"`         // Initial backoff as duration string (default: "2s")
	MaxDelay          string  `toml:"max_delay"`          // Backoff cap as duration string (default: "30s")
	BackoffMultiplier float64 `toml:"backoff_multiplier"` // Exponential backoff multiplier (default: 2.0)
	StepTimeout       string  `toml:"step_timeout"`       // Timeout for one external call (default: "2m")
	ExtendedTimeout   string  `toml:"extended_timeout"`   // Timeout used by retry_with_timeout recovery (default: "5m")
	MaxCarouselSlides int     `toml:"max_carousel_slides"` // Upper bound on carousel slide count (default: 5)
}

// SchedulerConfig contains the campaign scheduler configuration
type SchedulerConfig struct {
	Enabled    bool   `toml:"enabled"`     // Start the cron scheduler (default: false)
	Schedule   string `toml:"schedule"`    // Cron expression for the due-campaign check (default: "*/5 * * * *")
	LeadWindow string `toml:"lead_window"` // Start generating this far ahead of publish time (default: "1h")
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability;
// only user-facing settings should be exposed in contentforge.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
			Filesystem: FilesystemConfig{
				Images: "./data/images",
			},
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key (GEMINI_API_KEY or config)
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			RateLimit:   "4s", // Free tier: 15 RPM
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider:  LLMProviderGemini,
			FallbackProvider: "",
			AuditEnabled:     true,
		},
		Images: ImagesConfig{
			Model:          "imagen-4.0-generate-001",
			CompositeModel: "gemini-2.5-flash-image",
			Quality:        "standard",
		},
		Generation: GenerationConfig{
			MaxAttempts:       3,
			BaseDelay:         "2s",
			MaxDelay:          "30s",
			BackoffMultiplier: 2.0,
			StepTimeout:       "2m",
			ExtendedTimeout:   "5m",
			MaxCarouselSlides: 5,
		},
		Scheduler: SchedulerConfig{
			Enabled:    false,
			Schedule:   "*/5 * * * *",
			LeadWindow: "1h",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files.
// Later files override earlier files; environment variables override all files.
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

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CONTENTFORGE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("CONTENTFORGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if badgerPath := os.Getenv("CONTENTFORGE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if imagesDir := os.Getenv("CONTENTFORGE_IMAGES_DIR"); imagesDir != "" {
		config.Storage.Filesystem.Images = imagesDir
	}

	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}

	if provider := os.Getenv("CONTENTFORGE_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	if attempts := os.Getenv("CONTENTFORGE_MAX_ATTEMPTS"); attempts != "" {
		if a, err := strconv.Atoi(attempts); err == nil {
			config.Generation.MaxAttempts = a
		}
	}
	if slides := os.Getenv("CONTENTFORGE_MAX_CAROUSEL_SLIDES"); slides != "" {
		if s, err := strconv.Atoi(slides); err == nil {
			config.Generation.MaxCarouselSlides = s
		}
	}

	if schedule := os.Getenv("CONTENTFORGE_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
}

// ParseDuration parses a duration string, returning fallback on empty or invalid input
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// ValidateSchedule validates a cron schedule expression
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("schedule is empty")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// IsProduction returns true when running with a production configuration
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
