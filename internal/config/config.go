package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"tablechat/internal/actions"
)

// Config holds all tablechat configuration.
type Config struct {
	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Seed table and column fill settings
	Table TableConfig `yaml:"table"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// TableConfig configures the table a session starts with.
type TableConfig struct {
	Headers []string `yaml:"headers"`
	Rows    [][]int  `yaml:"rows"`

	// Inclusive bounds for values drawn when a column is added.
	FillMin int `yaml:"fill_min"`
	FillMax int `yaml:"fill_max"`

	// Zero seeds from the clock.
	RandomSeed int64 `yaml:"random_seed"`
}

// DefaultConfigPath returns ~/.tablechat/config.yaml, or a relative path when
// the home directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".tablechat", "config.yaml")
	}
	return filepath.Join(home, ".tablechat", "config.yaml")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:        "gemini",
			Model:           DefaultGeminiModel,
			Timeout:         "30s",
			Temperature:     0.1,
			MaxOutputTokens: 1024,
		},

		Table: TableConfig{
			Headers: []string{"Column 1", "Column 2", "Column 3"},
			Rows:    [][]int{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}},
			FillMin: 1,
			FillMax: 100,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// LLM API key from environment (later entries win)
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		c.setCredential("openrouter", key)
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.setCredential("openai", key)
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.setCredential("gemini", key)
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.setCredential("gemini", key)
	}

	// Explicit selections beat key detection
	if p := os.Getenv("TABLECHAT_PROVIDER"); p != "" {
		c.LLM.Provider = p
	}
	if m := os.Getenv("TABLECHAT_MODEL"); m != "" {
		c.LLM.Model = m
	}
	if lvl := os.Getenv("TABLECHAT_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
}

// setCredential installs key for provider. The model is reset to that
// provider's default when it still names another provider's default.
func (c *Config) setCredential(provider, key string) {
	if c.LLM.Provider != provider && isDefaultModel(c.LLM.Model) {
		c.LLM.Model = DefaultModel(provider)
	}
	c.LLM.APIKey = key
	c.LLM.Provider = provider
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"gemini", "openai", "openrouter"}

// Validate validates the configuration. A missing API key is not an error:
// the engine runs on the rule-based interpreter alone.
func (c *Config) Validate() error {
	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}

	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			return fmt.Errorf("invalid llm.timeout %q: %w", c.LLM.Timeout, err)
		}
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0, 2], got %v", c.LLM.Temperature)
	}
	if c.LLM.MaxOutputTokens <= 0 {
		return fmt.Errorf("llm.max_output_tokens must be positive, got %d", c.LLM.MaxOutputTokens)
	}

	if c.Table.FillMin > c.Table.FillMax {
		return fmt.Errorf("table.fill_min (%d) exceeds table.fill_max (%d)", c.Table.FillMin, c.Table.FillMax)
	}
	if !actions.ValidFillRange(c.Table.FillMin, c.Table.FillMax) {
		return fmt.Errorf("table.fill_min..fill_max (%d..%d) is too wide", c.Table.FillMin, c.Table.FillMax)
	}
	if len(c.Table.Headers) == 0 {
		return fmt.Errorf("table.headers must name at least one column")
	}
	for i, row := range c.Table.Rows {
		if len(row) != len(c.Table.Headers) {
			return fmt.Errorf("table.rows[%d] has %d values, want %d", i, len(row), len(c.Table.Headers))
		}
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid logging.format %q (valid: json, console)", c.Logging.Format)
	}

	return nil
}
