// Package config provides unified configuration for schemactl.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// StorageType selects which BlobStore backend the registry uses.
type StorageType string

const (
	StorageLocal StorageType = "local"
	StorageS3    StorageType = "s3"
)

// Config holds the configuration schemactl needs to open a registry:
// where the schema index database lives, and which blob store backend
// holds the serialized schema images.
type Config struct {
	// DataDir is the base directory for the local index database and,
	// when Storage.Type is local, for schema blobs.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Storage selects and configures the blob store backend.
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// StorageConfig holds blob store configuration.
type StorageConfig struct {
	// Type is the storage backend: local, s3.
	Type StorageType `json:"type" yaml:"type"`

	// Path is the local blob store path (for the local type).
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for the s3 type).
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 blob store configuration.
type S3Config struct {
	Bucket   string `json:"bucket" yaml:"bucket"`
	Region   string `json:"region" yaml:"region"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/arrayschema",
		Storage: StorageConfig{
			Type: StorageLocal,
		},
	}
}

// Resolve fills in path defaults derived from DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/arrayschema"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "blobs")
	}
}

// IndexPath returns the path to the schema index database.
func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDir, "schema_index.db")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	switch c.Storage.Type {
	case StorageLocal, StorageS3:
	default:
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}
	if c.Storage.Type == StorageS3 && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("storage.s3.bucket is required when storage type is s3")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read file: %w", err)
	}

	cfg := DefaultConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("config: unsupported file format: %s", ext)
	}
	return cfg, nil
}

// LoadFromEnv overlays environment variables, prefixed ARRAYSCHEMA_, onto
// cfg. Dotenv files loaded via godotenv (see LoadDotenv) populate the
// process environment before this runs, matching the precedence order
// schemactl and its tests both rely on.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("ARRAYSCHEMA_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("ARRAYSCHEMA_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = StorageType(v)
	}
	if v := os.Getenv("ARRAYSCHEMA_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("ARRAYSCHEMA_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("ARRAYSCHEMA_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("ARRAYSCHEMA_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
}

// EnsureDirectories creates every directory the configuration names.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.Storage.Path} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("config: failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
