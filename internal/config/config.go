// Package config loads and validates the engine configuration from YAML.
//
// The dialect selects one driver variant at startup; there is no dynamic
// re-selection at runtime. Each variant declares its own required
// sub-object, and a missing one fails validation with a descriptive
// config error.
package config

import (
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/vantigo/teamdb/internal/errs"
)

// Duration wraps time.Duration with YAML parsing of strings like "5m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errs.Wrap(errs.ErrKindConfig, "invalid duration "+raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Database configures the self-hosted driver's shared server.
type Database struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	SSL      bool   `yaml:"ssl"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Backend points at the real server behind the pooling proxy.
type Backend struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	SSL  bool   `yaml:"ssl"`
}

// Supavisor configures the pooling proxy control plane and pooled endpoint.
type Supavisor struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Domain string `yaml:"domain"`
	Port   int    `yaml:"port"`
	SSL    bool   `yaml:"ssl"`
}

// Hints configures the DDL hint and snapshot asset caches.
type Hints struct {
	MaxEntries int      `yaml:"maxEntries"`
	TTL        Duration `yaml:"ttl"`
	AssetTTL   Duration `yaml:"assetTtl"`
}

// Snapshot configures the optional DDL snapshot archive.
type Snapshot struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	SSL       bool   `yaml:"ssl"`
}

// Logging configures the process logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full engine configuration.
type Config struct {
	Dialect   string     `yaml:"dialect"`
	Logging   Logging    `yaml:"logging"`
	Database  *Database  `yaml:"database"`
	Backend   *Backend   `yaml:"backend"`
	Supavisor *Supavisor `yaml:"supavisor"`
	Hints     Hints      `yaml:"hints"`
	Snapshot  *Snapshot  `yaml:"snapshot"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfig, "failed to read config file", err)
	}
	return Parse(raw)
}

// Parse decodes and validates raw YAML configuration.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindConfig, "failed to parse config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the dialect and its required sub-objects.
func (c *Config) Validate() error {
	switch c.Dialect {
	case "postgres":
		if c.Database == nil {
			return errs.New(errs.ErrKindConfig, "dialect postgres requires a database section")
		}
		if c.Database.Host == "" {
			return errs.New(errs.ErrKindConfig, "database.host is required")
		}
		if c.Database.User == "" {
			return errs.New(errs.ErrKindConfig, "database.user is required")
		}
	case "supavisor":
		if c.Backend == nil {
			return errs.New(errs.ErrKindConfig, "dialect supavisor requires a backend section")
		}
		if c.Supavisor == nil {
			return errs.New(errs.ErrKindConfig, "dialect supavisor requires a supavisor section")
		}
		if c.Backend.Host == "" {
			return errs.New(errs.ErrKindConfig, "backend.host is required")
		}
		if c.Supavisor.URL == "" || c.Supavisor.Token == "" {
			return errs.New(errs.ErrKindConfig, "supavisor.url and supavisor.token are required")
		}
	case "stub":
		// No external configuration.
	case "":
		return errs.New(errs.ErrKindConfig, "dialect is required")
	default:
		return errs.Newf(errs.ErrKindConfig, "unknown dialect %q", c.Dialect)
	}

	if c.Snapshot != nil && c.Snapshot.Enabled {
		if c.Snapshot.Endpoint == "" || c.Snapshot.Bucket == "" {
			return errs.New(errs.ErrKindConfig, "snapshot.endpoint and snapshot.bucket are required when enabled")
		}
	}
	return nil
}
