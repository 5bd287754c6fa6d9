// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/toolhive-core/env"
)

// Environment variables that override file values.
const (
	EnvRealm       = "AAS_REALM"
	EnvClientID    = "AAS_CLIENT_ID"
	EnvServerURL   = "AAS_SERVER_URL"
	EnvLocationURL = "AAS_LOCATION_URL"
)

// DefaultConfigPath returns the XDG config location, creating its parent
// directory if needed.
func DefaultConfigPath() (string, error) {
	path, err := xdg.ConfigFile("csw-aas/config.yaml")
	if err != nil {
		return "", fmt.Errorf("unable to resolve config path: %w", err)
	}
	return path, nil
}

// Loader loads a Config.
type Loader interface {
	Load() (*Config, error)
}

// YAMLLoader reads a YAML file, applies environment overrides and fills
// defaults. A missing file yields a config built from defaults and the
// environment alone.
type YAMLLoader struct {
	path      string
	envReader env.Reader
}

// NewYAMLLoader creates a loader for path. An empty path selects DefaultConfigPath.
func NewYAMLLoader(path string, envReader env.Reader) *YAMLLoader {
	if envReader == nil {
		envReader = &env.OSReader{}
	}
	return &YAMLLoader{path: path, envReader: envReader}
}

// Load implements Loader.
func (l *YAMLLoader) Load() (*Config, error) {
	path := l.path
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case errors.Is(err, os.ErrNotExist):
		if l.path != "" {
			return nil, fmt.Errorf("config file %s not found: %w", path, err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if cfg, err = Parse(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	l.applyEnv(cfg)
	cfg.EnsureDefaults()
	return cfg, nil
}

// Parse decodes YAML strictly; unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

func (l *YAMLLoader) applyEnv(cfg *Config) {
	set := func(dst *string, name string) {
		if v := strings.TrimSpace(l.envReader.Getenv(name)); v != "" {
			*dst = v
		}
	}
	set(&cfg.IdentityProvider.Realm, EnvRealm)
	set(&cfg.IdentityProvider.ClientID, EnvClientID)
	set(&cfg.IdentityProvider.StaticFallbackURL, EnvServerURL)
	set(&cfg.Location.URL, EnvLocationURL)
}
