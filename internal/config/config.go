package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models skyops.yml.
type Config struct {
	Remote struct {
		BaseURL        string `yaml:"base_url"`
		APIKey         string `yaml:"api_key"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		RetryCount     int    `yaml:"retry_count"`
	} `yaml:"remote"`
	Server struct {
		Address  string `yaml:"address"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Invoicing struct {
		DefaultPaymentTermsDays int  `yaml:"default_payment_terms_days"`
		NotifyPilots            bool `yaml:"notify_pilots"`
	} `yaml:"invoicing"`
	Pricing struct {
		DefaultMarkupPercentage int `yaml:"default_markup_percentage"`
	} `yaml:"pricing"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// RemoteTimeout returns the configured remote timeout as a Duration.
func (c *Config) RemoteTimeout() time.Duration {
	if c.Remote.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Remote.TimeoutSeconds) * time.Second
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("config.remote.base_url is required")
	}
	if c.Remote.TimeoutSeconds < 0 {
		return fmt.Errorf("config.remote.timeout_seconds must not be negative")
	}
	if c.Remote.RetryCount < 0 {
		return fmt.Errorf("config.remote.retry_count must not be negative")
	}
	if c.Invoicing.DefaultPaymentTermsDays <= 0 {
		return fmt.Errorf("config.invoicing.default_payment_terms_days must be positive")
	}
	if c.Pricing.DefaultMarkupPercentage < 0 || c.Pricing.DefaultMarkupPercentage > 200 {
		return fmt.Errorf("config.pricing.default_markup_percentage must be between 0 and 200")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config.logging.level %q not recognized", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("config.logging.format %q not recognized", c.Logging.Format)
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "skyops.yml")
}

// Load reads and validates config from a workspace directory.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; run `sky init` to create one", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the default Config for a remote base URL.
func Default(baseURL string) *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(GenerateDefault(baseURL)), &cfg)
	applyDefaults(&cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault(baseURL string) string {
	return fmt.Sprintf(defaultTemplate, baseURL)
}

func applyDefaults(cfg *Config) {
	if cfg.Remote.TimeoutSeconds == 0 {
		cfg.Remote.TimeoutSeconds = 15
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = "localhost:8090"
	}
	if cfg.Server.BasePath == "" {
		cfg.Server.BasePath = "/v0"
	}
	if cfg.Invoicing.DefaultPaymentTermsDays == 0 {
		cfg.Invoicing.DefaultPaymentTermsDays = 30
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

const defaultTemplate = `remote:
  base_url: %s
  api_key: ""
  timeout_seconds: 15
  retry_count: 2

server:
  address: localhost:8090
  base_path: /v0

invoicing:
  default_payment_terms_days: 30
  notify_pilots: true

pricing:
  default_markup_percentage: 20

logging:
  level: info
  format: console
`
