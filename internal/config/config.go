package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config models contentapi.yml.
type Config struct {
	Listen string `yaml:"listen"`
	Site   struct {
		WebURL string `yaml:"web_url"`
		APIURL string `yaml:"api_url"`
	} `yaml:"site"`
	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`
	Search struct {
		URL       string `yaml:"url"`
		TimeoutMS int    `yaml:"timeout_ms"`
	} `yaml:"search"`
	Assets struct {
		URL       string `yaml:"url"`
		TimeoutMS int    `yaml:"timeout_ms"`
	} `yaml:"assets"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// Default returns a config suitable for local development.
func Default() *Config {
	var cfg Config
	cfg.Listen = ":8080"
	cfg.Site.WebURL = "http://www.example.com"
	cfg.Site.APIURL = "http://api.example.com"
	cfg.Store.Path = "contentapi.db"
	cfg.Search.URL = "http://localhost:9090"
	cfg.Search.TimeoutMS = 5000
	cfg.Assets.URL = "http://localhost:9091"
	cfg.Assets.TimeoutMS = 2000
	cfg.Log.Level = "info"
	return &cfg
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Site.WebURL == "" {
		return fmt.Errorf("config.site.web_url is required")
	}
	if c.Site.APIURL == "" {
		return fmt.Errorf("config.site.api_url is required")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("config.store.path is required")
	}
	if c.Search.URL == "" {
		return fmt.Errorf("config.search.url is required")
	}
	if c.Search.TimeoutMS <= 0 {
		return fmt.Errorf("config.search.timeout_ms must be positive")
	}
	if c.Assets.URL == "" {
		return fmt.Errorf("config.assets.url is required")
	}
	if c.Assets.TimeoutMS <= 0 {
		return fmt.Errorf("config.assets.timeout_ms must be positive")
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config.log.level must be one of debug, info, warn, error")
	}
	return nil
}

// FromYAML parses and validates config from raw YAML bytes. Fields absent
// from the document keep their defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads config from path; a missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}
