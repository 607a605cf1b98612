package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// Translation Configuration:
// - SUBTRANSLATE_API_KEY: API key for the official translation API (optional, free endpoint used without it)
// - SUBTRANSLATE_SERVICE: Translation service to use (default: google)
// - SUBTRANSLATE_SRC_LANG: Source language code (default: en)
// - SUBTRANSLATE_TARGET_LANG: Target language code (default: zh-CN)
// - SUBTRANSLATE_MODE: Translation mode, split or naive (default: split)
// - SUBTRANSLATE_BOTH: Keep original text alongside the translation (default: true)
// - SUBTRANSLATE_SPACE: Target language separates words with spaces (default: false)
// - SUBTRANSLATE_RESUME: Resume from checkpoints when available (default: true)
//
// File Configuration:
// - SUBTRANSLATE_ENCODING: Input file encoding (default: UTF-8)
// - SUBTRANSLATE_PATTERN: Glob pattern for batch mode (default: *.srt)
//
// Batch Configuration:
// - SUBTRANSLATE_BATCH_CONCURRENCY: Parallel file workers in batch mode (default: 1)
// - SUBTRANSLATE_CRON: Schedule for watch mode (default: 0 * * * *)
//
// System Configuration:
// - SUBTRANSLATE_DATA_DIR: Directory for the history database (default: ~/.subtranslate)
// - SUBTRANSLATE_LOG_LEVEL: Log level (default: info)

type Config struct {
	Translate TranslateConfig `json:"translate"`
	Files     FileConfig      `json:"files"`
	Batch     BatchConfig     `json:"batch"`
	System    SystemConfig    `json:"system"`
}

// TranslateConfig holds the translation defaults.
type TranslateConfig struct {
	Service    string `json:"service"`
	APIKey     string `json:"-"`
	SrcLang    string `json:"src_lang"`
	TargetLang string `json:"target_lang"`
	Mode       string `json:"mode"`
	Both       bool   `json:"both"`
	Space      bool   `json:"space"`
	Resume     bool   `json:"resume"`
}

// FileConfig holds file handling defaults.
type FileConfig struct {
	Encoding string `json:"encoding"`
	Pattern  string `json:"pattern"`
}

// BatchConfig holds batch and watch mode settings.
type BatchConfig struct {
	Concurrency int    `json:"concurrency"`
	CronExpr    string `json:"cron_expr"`
}

// SystemConfig holds the system configuration
type SystemConfig struct {
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`
}

// DBPath returns the location of the translation history database.
func (c *Config) DBPath() string {
	return filepath.Join(c.System.DataDir, "subtranslate.db")
}

// Option is a function type for configuring Config
type Option func(*Config)

// WithAPIKey overrides the API key from the environment.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.Translate.APIKey = key }
}

// WithLanguagePair overrides the source and target languages.
func WithLanguagePair(src, target string) Option {
	return func(c *Config) {
		c.Translate.SrcLang = src
		c.Translate.TargetLang = target
	}
}

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Translate: TranslateConfig{
			Service:    getEnvString("SUBTRANSLATE_SERVICE", "google"),
			APIKey:     getEnvString("SUBTRANSLATE_API_KEY", ""),
			SrcLang:    getEnvString("SUBTRANSLATE_SRC_LANG", "en"),
			TargetLang: getEnvString("SUBTRANSLATE_TARGET_LANG", "zh-CN"),
			Mode:       getEnvString("SUBTRANSLATE_MODE", "split"),
			Both:       getEnvBool("SUBTRANSLATE_BOTH", true),
			Space:      getEnvBool("SUBTRANSLATE_SPACE", false),
			Resume:     getEnvBool("SUBTRANSLATE_RESUME", true),
		},
		Files: FileConfig{
			Encoding: getEnvString("SUBTRANSLATE_ENCODING", "UTF-8"),
			Pattern:  getEnvString("SUBTRANSLATE_PATTERN", "*.srt"),
		},
		Batch: BatchConfig{
			Concurrency: getEnvInt("SUBTRANSLATE_BATCH_CONCURRENCY", 1),
			CronExpr:    getEnvString("SUBTRANSLATE_CRON", "0 * * * *"),
		},
		System: SystemConfig{
			DataDir:  getEnvString("SUBTRANSLATE_DATA_DIR", defaultDataDir()),
			LogLevel: getEnvString("SUBTRANSLATE_LOG_LEVEL", "info"),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if !strings.EqualFold(c.Translate.Service, "google") {
		return fmt.Errorf("unsupported translation service: %s", c.Translate.Service)
	}
	if c.Translate.Mode != "split" && c.Translate.Mode != "naive" {
		return fmt.Errorf("invalid translation mode: %s (must be split or naive)", c.Translate.Mode)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch concurrency must be at least 1, got %d", c.Batch.Concurrency)
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".subtranslate"
	}
	return filepath.Join(home, ".subtranslate")
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment variables with default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
