// Package models defines data structures for manifests, page records,
// aggregate results and configuration.
package models

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL           = "https://app.browsertrix.com/api"
	DefaultTimeout           = 30 * time.Second
	DefaultPageSize          = 100
	DefaultMaxPages          = 1000
	DefaultRequestsPerSecond = 5.0
	DefaultTopDomains        = 10
	DefaultUserAgent         = "replay-analyzer/1.0"
)

// AnalyzeConfig holds runtime configuration for an analysis run.
// Values come from an optional YAML file, then CLI flags override them.
type AnalyzeConfig struct {
	BaseURL           string   `yaml:"base_url"`
	Timeout           Duration `yaml:"timeout"`
	PageSize          int      `yaml:"page_size"`
	MaxPages          int      `yaml:"max_pages"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	UserAgent         string   `yaml:"user_agent"`
	TopDomains        int      `yaml:"top_domains"`
}

// DefaultAnalyzeConfig returns the built-in defaults.
func DefaultAnalyzeConfig() AnalyzeConfig {
	return AnalyzeConfig{
		BaseURL:           DefaultBaseURL,
		Timeout:           DurationFrom(DefaultTimeout),
		PageSize:          DefaultPageSize,
		MaxPages:          DefaultMaxPages,
		RequestsPerSecond: DefaultRequestsPerSecond,
		UserAgent:         DefaultUserAgent,
		TopDomains:        DefaultTopDomains,
	}
}

// LoadConfig reads a YAML config file on top of the defaults. Fields missing
// from the file keep their default value.
func LoadConfig(path string) (AnalyzeConfig, error) {
	cfg := DefaultAnalyzeConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate rejects values that would make a run misbehave.
func (c AnalyzeConfig) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("config: base_url must not be empty")
	}
	if c.Timeout.Duration <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout.Duration)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("config: page_size must be at least 1, got %d", c.PageSize)
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("config: max_pages must be at least 1, got %d", c.MaxPages)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("config: requests_per_second must be positive, got %g", c.RequestsPerSecond)
	}
	if c.TopDomains < 1 {
		return fmt.Errorf("config: top_domains must be at least 1, got %d", c.TopDomains)
	}
	return nil
}
