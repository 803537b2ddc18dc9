package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models fieldline.yml.
type Config struct {
	Images struct {
		MaxWidth          int   `yaml:"max_width"`
		MaxHeight         int   `yaml:"max_height"`
		CompressThreshold int64 `yaml:"compress_threshold"`
		JPEGQuality       int   `yaml:"jpeg_quality"`
	} `yaml:"images"`
	DB struct {
		MaxOpenConns int `yaml:"max_open_conns"`
	} `yaml:"db"`
	Worker struct {
		Role string `yaml:"role"`
	} `yaml:"worker"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Images.MaxWidth <= 0 || c.Images.MaxHeight <= 0 {
		return fmt.Errorf("config.images.max_width and max_height must be positive")
	}
	if c.Images.CompressThreshold <= 0 {
		return fmt.Errorf("config.images.compress_threshold must be positive")
	}
	if c.Images.JPEGQuality < 1 || c.Images.JPEGQuality > 100 {
		return fmt.Errorf("config.images.jpeg_quality must be in 1..100")
	}
	if c.DB.MaxOpenConns <= 0 {
		return fmt.Errorf("config.db.max_open_conns must be positive")
	}
	if c.Worker.Role == "" {
		return fmt.Errorf("config.worker.role is required")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "fieldline.yml")
}

// Load reads and validates config from workspace, falling back to defaults
// when no file exists.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the stock configuration.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `images:
  max_width: 800
  max_height: 600
  compress_threshold: 500000
  jpeg_quality: 60

db:
  max_open_conns: 10

worker:
  role: technician
`
