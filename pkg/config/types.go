package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
	Retention RetentionConfig `yaml:"retention"`
}

// ServerConfig holds http, storage and tls settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	DBPath  string `yaml:"db_path"`
	// MaxBodySize caps request bodies; defaults to 50MB to accommodate
	// inline base64 image payloads.
	MaxBodySize SizeBytes `yaml:"max_body_size"`
	TLS         TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// SecurityConfig holds CORS and rate limit settings.
type SecurityConfig struct {
	CORS struct {
		// AllowedOrigins defaults to ["*"]; the API is open by design.
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RetentionConfig holds configuration for the content sweeper.
type RetentionConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Cron    string `yaml:"cron"`
	// MaxAge is the retention window; content older than this is purged.
	MaxAge Duration `yaml:"max_age"`
}

// DefaultPort is the listen port used when none is configured.
const DefaultPort = 3000

// DefaultMaxBodySize caps uploads carrying inline image payloads.
const DefaultMaxBodySize = 50 << 20

// DefaultRetentionMaxAge is the content retention window.
const DefaultRetentionMaxAge = 24 * time.Hour

// DefaultRetentionCron runs the sweeper at the top of every hour.
const DefaultRetentionCron = "0 * * * *"

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = DefaultPort
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// MaxBodyBytes returns the configured request body cap or the default.
func (c *Config) MaxBodyBytes() int64 {
	if c.Server.MaxBodySize > 0 {
		return c.Server.MaxBodySize.Int64()
	}
	return DefaultMaxBodySize
}

// RetentionEnabled reports whether the sweeper scheduler should run; it
// defaults to on when the config is silent.
func (c *Config) RetentionEnabled() bool {
	if c.Retention.Enabled == nil {
		return true
	}
	return *c.Retention.Enabled
}

// RetentionMaxAge returns the configured retention window or the default.
func (c *Config) RetentionMaxAge() time.Duration {
	if d := c.Retention.MaxAge.Duration(); d > 0 {
		return d
	}
	return DefaultRetentionMaxAge
}

// CORSOrigins returns configured origins, defaulting to any origin.
func (c *Config) CORSOrigins() []string {
	if len(c.Security.CORS.AllowedOrigins) > 0 {
		return c.Security.CORS.AllowedOrigins
	}
	return []string{"*"}
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly
// strings like "50MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*s = 0
		return nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		*s = SizeBytes(v)
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*s = SizeBytes(i)
		return nil
	}
	return fmt.Errorf("invalid size value: %q", node.Value)
}

func (s SizeBytes) Int64() int64 { return int64(s) }

// Duration is a wrapper around time.Duration that supports YAML parsing from
// strings like "24h" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = Duration(0)
		return nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		*d = Duration(td)
		return nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(f * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration value: %q", node.Value)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }
