package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. AUDIOQUERY_PORT.
const EnvPrefix = "AUDIOQUERY_"

// EnvConfigFile names the env var holding the YAML config path.
const EnvConfigFile = EnvPrefix + "CONFIG"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) from path, or AUDIOQUERY_CONFIG when path is empty
//  3. env (prefix AUDIOQUERY_)
//
// Positional CLI arguments are applied afterwards by ApplyArgs.
func Load(_ context.Context, path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// AUDIOQUERY_SOUND_WINDOW -> sound_window. Keys are flat, so the "."
	// delimiter never splits them.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ToLower(s)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyArgs applies the positional arguments [query path] [port] [interface].
// Missing arguments keep the loaded values.
func (c *Config) ApplyArgs(args []string) error {
	if len(args) > 0 && args[0] != "" {
		c.QueryPath = args[0]
	}
	if len(args) > 1 && args[1] != "" {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: port %q: %w", ErrInvalidConfig, args[1], err)
		}
		c.Port = port
	}
	if len(args) > 2 && args[2] != "" {
		c.Interface = args[2]
		// An explicit interface wins over a configured listen_ip.
		c.ListenIP = ""
	}
	if len(args) > 3 {
		return fmt.Errorf("%w: unexpected arguments %v", ErrInvalidConfig, args[3:])
	}
	return c.Validate()
}
