// Package config provides configuration loading for the file analyzer.
// Supports YAML files, a .env file, and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultLLMAPIURL is the placeholder analysis endpoint used when none is configured.
	DefaultLLMAPIURL = "https://api.deepseek.com/v1/analyze"
	// DefaultLLMAPIKey is a placeholder token; real deployments must override it.
	DefaultLLMAPIKey = "your_deepseek_api_key"

	PDFEngineFitz       = "fitz"
	PDFEngineLedongthuc = "ledongthuc"
)

// Config holds all configuration for the file analyzer.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	LLM           LLMConfig           `yaml:"llm"`
	Extraction    ExtractionConfig    `yaml:"extraction"`
	Analysis      AnalysisConfig      `yaml:"analysis"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
	MultipartMemory  int64         `yaml:"multipart_memory"`
}

// LLMConfig holds the remote analysis service settings.
type LLMConfig struct {
	APIURL  string        `yaml:"api_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"` // 0 keeps the HTTP client default
}

// ExtractionConfig holds text extraction settings.
type ExtractionConfig struct {
	PDFEngine    string `yaml:"pdf_engine"` // fitz or ledongthuc
	ValidatePDF  bool   `yaml:"validate_pdf"`
	MaxFileBytes int64  `yaml:"max_file_bytes"` // 0 disables the check
}

// AnalysisConfig holds batch processing settings.
type AnalysisConfig struct {
	MaxConcurrency int `yaml:"max_concurrency"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8000,
			ReadTimeout:      60 * time.Second,
			WriteTimeout:     10 * time.Minute,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 15 * time.Second,
			MaxUploadBytes:   64 << 20,
			MultipartMemory:  32 << 20,
		},
		LLM: LLMConfig{
			APIURL: DefaultLLMAPIURL,
			APIKey: DefaultLLMAPIKey,
		},
		Extraction: ExtractionConfig{
			PDFEngine:   PDFEngineFitz,
			ValidatePDF: false,
		},
		Analysis: AnalysisConfig{
			MaxConcurrency: 1,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "file-analyzer",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}

	if c.Server.MultipartMemory <= 0 {
		return fmt.Errorf("multipart_memory must be positive")
	}

	if strings.TrimSpace(c.LLM.APIURL) == "" {
		return fmt.Errorf("llm api_url is required")
	}

	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm timeout cannot be negative")
	}

	if c.Extraction.PDFEngine != PDFEngineFitz && c.Extraction.PDFEngine != PDFEngineLedongthuc {
		return fmt.Errorf("invalid pdf engine: %s", c.Extraction.PDFEngine)
	}

	if c.Extraction.MaxFileBytes < 0 {
		return fmt.Errorf("max_file_bytes cannot be negative")
	}

	if c.Analysis.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1")
	}

	return nil
}

// UsesPlaceholderKey reports whether the analysis token was never overridden.
func (c *Config) UsesPlaceholderKey() bool {
	return c.LLM.APIKey == DefaultLLMAPIKey
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	for _, key := range []string{"PORT", "SERVER_PORT"} {
		if v := os.Getenv(key); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("LLM_API_URL"); v != "" {
		cfg.LLM.APIURL = v
	}

	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}

	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LLM_TIMEOUT: %w", err)
		}
		cfg.LLM.Timeout = d
	}

	if v := os.Getenv("PDF_ENGINE"); v != "" {
		cfg.Extraction.PDFEngine = strings.ToLower(v)
	}

	if v := os.Getenv("PDF_VALIDATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PDF_VALIDATE: %w", err)
		}
		cfg.Extraction.ValidatePDF = b
	}

	if v := os.Getenv("ANALYSIS_MAX_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ANALYSIS_MAX_CONCURRENCY: %w", err)
		}
		cfg.Analysis.MaxConcurrency = n
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	return nil
}
