// Package config loads service configuration from YAML with environment
// variable expansion and defaults.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig configures bearer-token verification.
type AuthConfig struct {
	Issuer   string        `yaml:"issuer"`
	JWKSURL  string        `yaml:"jwks_url"`
	Audience string        `yaml:"audience"`
	KeyTTL   time.Duration `yaml:"key_ttl"`
}

// StorageConfig configures the blob store backend.
type StorageConfig struct {
	// Backend selects the store: "s3" or "memory" (dev/testing only;
	// datasets do not survive a restart).
	Backend      string `yaml:"backend"`
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	AccessKeyID  string `yaml:"access_key_id"`
	SecretKey    string `yaml:"secret_key"`
	UsePathStyle bool   `yaml:"use_path_style"`

	// RequestTimeout bounds each blob-store call. The upstream design
	// had no timeout at all; it is exposed here rather than assumed.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// PresignTTL is the lifetime of download URLs in dataset listings.
	PresignTTL time.Duration `yaml:"presign_ttl"`
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Auth.KeyTTL == 0 {
		cfg.Auth.KeyTTL = time.Hour
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "s3"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "eu-north-1"
	}
	if cfg.Storage.RequestTimeout == 0 {
		cfg.Storage.RequestTimeout = 30 * time.Second
	}
	if cfg.Storage.PresignTTL == 0 {
		cfg.Storage.PresignTTL = time.Hour
	}
}
