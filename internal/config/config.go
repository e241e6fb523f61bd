// Package config loads server settings.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// NAJDENO_* environment variables. Command-line flags are applied last by
// the binary.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "NAJDENO_"

// Config holds the server settings.
type Config struct {
	// Addr is the listen address.
	Addr string `yaml:"addr"`

	// DB is the SQLite database path.
	DB string `yaml:"db"`

	// Log is an optional file that receives a copy of the log.
	Log string `yaml:"log"`

	// AllowedOrigins restricts WebSocket Origin headers. Empty allows any.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxProofBytes caps uploaded images.
	MaxProofBytes int64 `yaml:"max_proof_bytes"`

	// MaxImageDimension caps the width and height of stored images.
	MaxImageDimension int `yaml:"max_image_dimension"`

	// TokenTTL is how long issued tokens stay valid.
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Addr:              ":8080",
		DB:                "najdeno.db",
		MaxProofBytes:     8 << 20,
		MaxImageDimension: 1600,
		TokenTTL:          24 * time.Hour,
	}
}

// Load returns the defaults overlaid with the file at path (if path is
// not empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(c)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// ApplyEnv overrides fields from NAJDENO_ADDR, NAJDENO_DB, NAJDENO_LOG,
// NAJDENO_ALLOWED_ORIGINS (comma separated), NAJDENO_MAX_PROOF_BYTES,
// NAJDENO_MAX_IMAGE_DIMENSION and NAJDENO_TOKEN_TTL.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("ADDR"); ok {
		c.Addr = v
	}
	if v, ok := get("DB"); ok {
		c.DB = v
	}
	if v, ok := get("LOG"); ok {
		c.Log = v
	}
	if v, ok := get("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}
	if v, ok := get("MAX_PROOF_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_PROOF_BYTES: %w", EnvPrefix, err)
		}
		c.MaxProofBytes = n
	}
	if v, ok := get("MAX_IMAGE_DIMENSION"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_IMAGE_DIMENSION: %w", EnvPrefix, err)
		}
		c.MaxImageDimension = n
	}
	if v, ok := get("TOKEN_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTOKEN_TTL: %w", EnvPrefix, err)
		}
		c.TokenTTL = d
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("addr is required")
	case c.DB == "":
		return errors.New("db is required")
	case c.MaxProofBytes <= 0:
		return fmt.Errorf("max_proof_bytes must be positive, got %d", c.MaxProofBytes)
	case c.MaxImageDimension <= 0:
		return fmt.Errorf("max_image_dimension must be positive, got %d", c.MaxImageDimension)
	case c.TokenTTL <= 0:
		return fmt.Errorf("token_ttl must be positive, got %s", c.TokenTTL)
	}
	return nil
}
