// Package config loads the tool configuration: a YAML file with
// environment-variable overrides. Precedence follows config-file first,
// then environment, then built-in defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend configures the generation provider.
type Backend struct {
	Provider    string  `yaml:"provider"` // ollama, gemini
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"` // ollama endpoint override
	APIKey      string  `yaml:"api_key"`
	Timeout     string  `yaml:"timeout"` // Go duration string, e.g. "5m"
	MaxRetries  int     `yaml:"max_retries"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// TimeoutDuration parses the timeout, defaulting to five minutes.
func (b Backend) TimeoutDuration() time.Duration {
	if b.Timeout == "" {
		return 5 * time.Minute
	}
	d, err := time.ParseDuration(b.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// Normalize configures input normalization.
type Normalize struct {
	// MaxContextChars bounds the normalized context; zero selects the
	// built-in default.
	MaxContextChars int `yaml:"max_context_chars"`
}

// Render configures presentation output.
type Render struct {
	// TemplateFile optionally points at a template with named
	// placeholders; empty selects the embedded default.
	TemplateFile string `yaml:"template_file"`
	// Format is "markdown" or "mediawiki".
	Format string `yaml:"format"`
}

// Config is the root configuration record.
type Config struct {
	Backend   Backend   `yaml:"backend"`
	Normalize Normalize `yaml:"normalize"`
	Render    Render    `yaml:"render"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: Backend{
			MaxRetries: 2,
			// Temperature zero selects the per-mode default.
		},
		Render: Render{Format: "markdown"},
	}
}

// Load reads the YAML config at path and applies environment overrides. A
// missing file is not an error: defaults plus environment apply. An empty
// path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env + defaults
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills unset fields from the environment: GEMINI_API_KEY and
// OLLAMA_HOST.
func (c *Config) applyEnv() {
	if c.Backend.APIKey == "" {
		c.Backend.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = os.Getenv("OLLAMA_HOST")
	}
}
