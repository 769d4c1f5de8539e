package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Chat completion backend (OpenAI-compatible).
	LLMBaseURL string        `yaml:"llm_base_url"`
	LLMAPIKey  string        `yaml:"llm_api_key"`
	LLMModel   string        `yaml:"llm_model"`
	LLMTimeout time.Duration `yaml:"llm_timeout"`
	LLMRetries int           `yaml:"llm_retries"`

	// Upload limits
	MaxUploadBytes       int64 `yaml:"max_upload_bytes"`
	MaxBatchFiles        int   `yaml:"max_batch_files"`
	MaxConcurrentExtract int   `yaml:"max_concurrent_extract"`

	// Document registry
	DocumentTTL time.Duration `yaml:"document_ttl"`

	// Parsing
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`
	CSVBatchRows         int  `yaml:"csv_batch_rows"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:                 "8000",
		LLMBaseURL:           "https://api.openai.com/v1",
		LLMModel:             "gpt-4.1-mini",
		LLMTimeout:           120 * time.Second,
		LLMRetries:           3,
		MaxUploadBytes:       10 << 20, // 10MB
		MaxBatchFiles:        10,
		MaxConcurrentExtract: 4,
		DocumentTTL:          24 * time.Hour,
		PDFFallbackPdftotext: true,
		CSVBatchRows:         20,
	}
}

// Load builds the configuration from defaults and the environment.
func Load() Config {
	cfg := Defaults()
	applyEnv(&cfg)
	clamp(&cfg)
	return cfg
}

// LoadFile reads a YAML file over the defaults, then applies the environment
// on top, so environment variables always win.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	clamp(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = envOr("PORT", cfg.Port)

	cfg.LLMBaseURL = envOr("LLM_BASE_URL", cfg.LLMBaseURL)
	cfg.LLMAPIKey = envOr("LLM_API_KEY", envOr("OPENAI_API_KEY", cfg.LLMAPIKey))
	cfg.LLMModel = envOr("LLM_MODEL", cfg.LLMModel)
	cfg.LLMTimeout = envDuration("LLM_TIMEOUT", cfg.LLMTimeout)
	cfg.LLMRetries = envInt("LLM_RETRIES", cfg.LLMRetries)

	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.MaxBatchFiles = envInt("MAX_BATCH_FILES", cfg.MaxBatchFiles)
	cfg.MaxConcurrentExtract = envInt("MAX_CONCURRENT_EXTRACT", cfg.MaxConcurrentExtract)

	cfg.DocumentTTL = envDuration("DOCUMENT_TTL", cfg.DocumentTTL)

	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)
	cfg.CSVBatchRows = envInt("CSV_BATCH_ROWS", cfg.CSVBatchRows)
}

func clamp(cfg *Config) {
	d := Defaults()
	if cfg.Port == "" {
		cfg.Port = d.Port
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = d.LLMModel
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = d.LLMTimeout
	}
	if cfg.LLMRetries <= 0 {
		cfg.LLMRetries = d.LLMRetries
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = d.MaxUploadBytes
	}
	if cfg.MaxBatchFiles <= 0 {
		cfg.MaxBatchFiles = d.MaxBatchFiles
	}
	if cfg.MaxConcurrentExtract <= 0 {
		cfg.MaxConcurrentExtract = d.MaxConcurrentExtract
	}
	if cfg.DocumentTTL <= 0 {
		cfg.DocumentTTL = d.DocumentTTL
	}
	if cfg.CSVBatchRows <= 0 {
		cfg.CSVBatchRows = d.CSVBatchRows
	}
}

// Validate checks settings that cannot be defaulted. The LLM API key is not
// required here: clients may supply their own key per request.
func (c Config) Validate() error {
	u, err := url.Parse(c.LLMBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("LLM_BASE_URL must be an absolute URL, got %q", c.LLMBaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("LLM_BASE_URL scheme must be http or https, got %q", u.Scheme)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
