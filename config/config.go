// Package config provides configuration loading and management for the
// SDC4 pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete pipeline configuration
type Config struct {
	Templates TemplatesConfig `yaml:"templates"`
	Schemas   SchemasConfig   `yaml:"schemas"`
	GraphDB   GraphDBConfig   `yaml:"graphdb"`
	NATS      NATSConfig      `yaml:"nats"`
}

// TemplatesConfig locates data model templates
type TemplatesConfig struct {
	// Dir holds one subdirectory per data model with model.json and
	// skeleton.xml inside
	Dir string `yaml:"dir"`
}

// SchemasConfig locates the XSD schemas used for validation
type SchemasConfig struct {
	// Dir holds one dm-<ct_id>.xsd file per data model
	Dir string `yaml:"dir"`
}

// GraphDBConfig configures the triplestore connection
type GraphDBConfig struct {
	// Enabled turns triplestore sync on; records are persisted either way
	Enabled bool `yaml:"enabled"`
	// URL is the GraphDB base URL (default: http://localhost:7200)
	URL string `yaml:"url"`
	// Repository is the GraphDB repository name
	Repository string `yaml:"repository"`
	// Username and Password are the repository credentials
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// NATSConfig configures the NATS connection for durable record storage
type NATSConfig struct {
	// URL is the NATS server URL (empty = use in-memory storage)
	URL string `yaml:"url"`
	// Embedded indicates whether to use embedded NATS
	Embedded bool `yaml:"embedded"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Templates: TemplatesConfig{
			Dir: "templates",
		},
		Schemas: SchemasConfig{
			Dir: "schemas",
		},
		GraphDB: GraphDBConfig{
			Enabled:    false,
			URL:        "http://localhost:7200",
			Repository: "sdc4_rdf",
		},
		NATS: NATSConfig{
			URL:      "",
			Embedded: true,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Templates.Dir == "" {
		return fmt.Errorf("templates.dir is required")
	}
	if c.Schemas.Dir == "" {
		return fmt.Errorf("schemas.dir is required")
	}
	if c.GraphDB.Enabled {
		if c.GraphDB.URL == "" {
			return fmt.Errorf("graphdb.url is required when graphdb is enabled")
		}
		if c.GraphDB.Repository == "" {
			return fmt.Errorf("graphdb.repository is required when graphdb is enabled")
		}
	}
	return nil
}

// SchemaFile returns the XSD filename for a data model, relative to
// the schemas directory.
func (c *Config) SchemaFile(dmCTID string) string {
	return "dm-" + dmCTID + ".xsd"
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Templates and schemas
	if other.Templates.Dir != "" {
		c.Templates.Dir = other.Templates.Dir
	}
	if other.Schemas.Dir != "" {
		c.Schemas.Dir = other.Schemas.Dir
	}

	// GraphDB
	if other.GraphDB.Enabled {
		c.GraphDB.Enabled = true
	}
	if other.GraphDB.URL != "" {
		c.GraphDB.URL = other.GraphDB.URL
	}
	if other.GraphDB.Repository != "" {
		c.GraphDB.Repository = other.GraphDB.Repository
	}
	if other.GraphDB.Username != "" {
		c.GraphDB.Username = other.GraphDB.Username
	}
	if other.GraphDB.Password != "" {
		c.GraphDB.Password = other.GraphDB.Password
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
		c.NATS.Embedded = false
	}
}
