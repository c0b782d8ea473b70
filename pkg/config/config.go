// Package config provides configuration loading for the pipeline.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/postpilot/postpilot/pkg/llm"
	"github.com/postpilot/postpilot/pkg/source"
)

// Environment overrides applied after the YAML file is read.
const (
	llmEndpointEnv  = "POSTPILOT_LLM_ENDPOINT"
	llmModelEnv     = "POSTPILOT_LLM_MODEL"
	llmAPIKeyEnv    = "POSTPILOT_LLM_API_KEY"
	sourceModeEnv   = "POSTPILOT_SOURCE_MODE"
	sourceCookieEnv = "POSTPILOT_SOURCE_COOKIE"
	dataPathEnv     = "POSTPILOT_DATA_PATH"
)

// Source modes.
const (
	SourceModeMock    = "mock"
	SourceModeBrowser = "browser"
)

// Config holds all settings for a pipeline process.
type Config struct {
	LLM       llm.Config      `yaml:"llm"`
	Source    SourceConfig    `yaml:"source"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	DataPath  string          `yaml:"data_path"`
}

// SourceConfig selects and configures the content source.
type SourceConfig struct {
	Mode    string               `yaml:"mode" validate:"oneof=mock browser"`
	Limit   int                  `yaml:"limit" validate:"gt=0"`
	Browser source.BrowserConfig `yaml:"browser"`
}

// PipelineConfig tunes the workflow stages.
type PipelineConfig struct {
	// MaxSelectedPosts caps how many posts survive filter-and-sample.
	MaxSelectedPosts int `yaml:"max_selected_posts" validate:"gt=0"`
	// FilterConcurrency bounds the per-post filter-decision fan-out.
	FilterConcurrency int `yaml:"filter_concurrency" validate:"gt=0"`
}

// SchedulerConfig defines periodic pipeline runs.
type SchedulerConfig struct {
	CronExpression string `yaml:"cron_expression"`
	Input          string `yaml:"input"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLM: llm.Config{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
			Timeout:  30 * time.Second,
		},
		Source: SourceConfig{
			Mode:  SourceModeMock,
			Limit: 10,
			Browser: source.BrowserConfig{
				Headless: true,
				Timeout:  60 * time.Second,
			},
		},
		Pipeline: PipelineConfig{
			MaxSelectedPosts:  5,
			FilterConcurrency: 4,
		},
		DataPath: "./data",
	}
}

// Load reads YAML configuration from path (optional) and applies environment
// overrides. An empty path skips the file and uses defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(llmEndpointEnv); v != "" {
		c.LLM.Endpoint = v
	}

	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}

	if v := os.Getenv(sourceModeEnv); v != "" {
		c.Source.Mode = v
	}

	if v := os.Getenv(sourceCookieEnv); v != "" {
		c.Source.Browser.Cookie = v
	}

	if v := os.Getenv(dataPathEnv); v != "" {
		c.DataPath = v
	}
}

// Validate checks the configuration with struct tags.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}
