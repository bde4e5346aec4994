// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - config_load.go
// Declarative configuration. A ConfigFile is loaded from TOML or YAML,
// overlaid with LUMEN_* environment variables, merged with defaults, and
// built into a runtime Config. Programmatic construction via Config stays
// the primary path; this loader serves deployments that configure logging
// from files.

package lumen

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cast"
)

// ConsoleFileConfig is the console transport section.
type ConsoleFileConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
}

// FileSinkConfig is the rotating file transport section.
type FileSinkConfig struct {
	Enabled           bool   `toml:"enabled" yaml:"enabled"`
	Dir               string `toml:"dir" yaml:"dir"`
	IntervalDays      int    `toml:"interval_days" yaml:"interval_days"`
	MaxBytes          int64  `toml:"max_bytes" yaml:"max_bytes"`
	MaxFilesPerPeriod int    `toml:"max_files_per_period" yaml:"max_files_per_period"`
	Compress          string `toml:"compress" yaml:"compress"`
	CompressedTTLDays int    `toml:"compressed_ttl_days" yaml:"compressed_ttl_days"`
	SplitLevels       bool   `toml:"split_levels" yaml:"split_levels"`
}

// HTTPSinkConfig is the HTTP transport section.
type HTTPSinkConfig struct {
	Enabled      bool              `toml:"enabled" yaml:"enabled"`
	URL          string            `toml:"url" yaml:"url"`
	Method       string            `toml:"method" yaml:"method"`
	Headers      map[string]string `toml:"headers" yaml:"headers"`
	BearerToken  string            `toml:"bearer_token" yaml:"bearer_token"`
	Username     string            `toml:"username" yaml:"username"`
	Password     string            `toml:"password" yaml:"password"`
	APIKeyHeader string            `toml:"api_key_header" yaml:"api_key_header"`
	APIKey       string            `toml:"api_key" yaml:"api_key"`
	BatchSize    int               `toml:"batch_size" yaml:"batch_size"`
	MaxRetries   int               `toml:"max_retries" yaml:"max_retries"`
	BackoffMS    int               `toml:"backoff_ms" yaml:"backoff_ms"`
	TimeoutMS    int               `toml:"timeout_ms" yaml:"timeout_ms"`
	MaxBuffer    int               `toml:"max_buffer" yaml:"max_buffer"`
}

// PatternConfig is one custom redaction pattern.
type PatternConfig struct {
	Name        string `toml:"name" yaml:"name"`
	Pattern     string `toml:"pattern" yaml:"pattern"`
	Replacement string `toml:"replacement" yaml:"replacement"`
}

// RedactionFileConfig is the redaction section.
type RedactionFileConfig struct {
	Enabled         bool            `toml:"enabled" yaml:"enabled"`
	Strict          bool            `toml:"strict" yaml:"strict"`
	Marker          string          `toml:"marker" yaml:"marker"`
	DisableDefaults bool            `toml:"disable_defaults" yaml:"disable_defaults"`
	SensitiveKeys   []string        `toml:"sensitive_keys" yaml:"sensitive_keys"`
	Patterns        []PatternConfig `toml:"patterns" yaml:"patterns"`
}

// ConfigFile is the declarative logging configuration schema.
type ConfigFile struct {
	Level    string                 `toml:"level" yaml:"level"`
	Service  string                 `toml:"service" yaml:"service"`
	Env      string                 `toml:"env" yaml:"env"`
	Version  string                 `toml:"version" yaml:"version"`
	Pretty   bool                   `toml:"pretty" yaml:"pretty"`
	Bindings map[string]interface{} `toml:"bindings" yaml:"bindings"`
	Sampling map[string]float64     `toml:"sampling" yaml:"sampling"`

	Console   ConsoleFileConfig   `toml:"console" yaml:"console"`
	File      FileSinkConfig      `toml:"file" yaml:"file"`
	HTTP      HTTPSinkConfig      `toml:"http" yaml:"http"`
	Redaction RedactionFileConfig `toml:"redaction" yaml:"redaction"`
}

// defaultConfigFile holds the values merged under whatever the file and
// environment leave unset.
func defaultConfigFile() ConfigFile {
	return ConfigFile{
		Level: "info",
		File: FileSinkConfig{
			IntervalDays: 1,
			Compress:     "gzip",
		},
		HTTP: HTTPSinkConfig{
			Method:    "POST",
			BatchSize: 100,
		},
	}
}

// LoadConfigFile reads path (TOML by .toml, YAML by .yaml/.yml), applies
// LUMEN_* environment overrides, and fills remaining gaps from defaults.
func LoadConfigFile(path string) (ConfigFile, error) {
	var cf ConfigFile
	raw, err := os.ReadFile(path)
	if err != nil {
		return cf, fmt.Errorf("lumen: read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(raw, &cf); err != nil {
			return cf, fmt.Errorf("lumen: parse toml config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cf); err != nil {
			return cf, fmt.Errorf("lumen: parse yaml config %s: %w", path, err)
		}
	default:
		return cf, fmt.Errorf("lumen: unsupported config extension %q", filepath.Ext(path))
	}

	cf.applyEnv()

	defaults := defaultConfigFile()
	if err := mergo.Merge(&cf, defaults); err != nil {
		return cf, fmt.Errorf("lumen: merge config defaults: %w", err)
	}
	return cf, nil
}

// applyEnv overlays LUMEN_* environment variables onto the file values.
// Environment wins over the file.
func (cf *ConfigFile) applyEnv() {
	if v := os.Getenv("LUMEN_LEVEL"); v != "" {
		cf.Level = v
	}
	if v := os.Getenv("LUMEN_SERVICE"); v != "" {
		cf.Service = v
	}
	if v := os.Getenv("LUMEN_ENV"); v != "" {
		cf.Env = v
	}
	if v := os.Getenv("LUMEN_VERSION"); v != "" {
		cf.Version = v
	}
	if v := os.Getenv("LUMEN_PRETTY"); v != "" {
		cf.Pretty = cast.ToBool(v)
	}
	if v := os.Getenv("LUMEN_FILE_DIR"); v != "" {
		cf.File.Dir = v
		cf.File.Enabled = true
	}
	if v := os.Getenv("LUMEN_HTTP_URL"); v != "" {
		cf.HTTP.URL = v
		cf.HTTP.Enabled = true
	}
	if v := os.Getenv("LUMEN_HTTP_TOKEN"); v != "" {
		cf.HTTP.BearerToken = v
	}
	if v := os.Getenv("LUMEN_HTTP_BATCH_SIZE"); v != "" {
		cf.HTTP.BatchSize = cast.ToInt(v)
	}
	if v := os.Getenv("LUMEN_REDACTION_STRICT"); v != "" {
		cf.Redaction.Strict = cast.ToBool(v)
	}
}

// Build converts the declarative form into a runtime Config with constructed
// transports and redactor.
func (cf ConfigFile) Build() (Config, error) {
	var cfg Config

	lvl, err := ParseLevel(cf.Level)
	if err != nil {
		return cfg, err
	}
	cfg.MinLevel = lvl
	cfg.Service = cf.Service
	cfg.Env = cf.Env
	cfg.Version = cf.Version
	if len(cf.Bindings) > 0 {
		cfg.Bindings = Fields(cf.Bindings)
	}
	if cf.Pretty {
		cfg.Formatter = &TextFormatter{}
	}

	for name, rate := range cf.Sampling {
		slvl, err := ParseLevel(name)
		if err != nil {
			return cfg, fmt.Errorf("lumen: sampling: %w", err)
		}
		if cfg.Sampling == nil {
			cfg.Sampling = make(map[Level]float64)
		}
		cfg.Sampling[slvl] = rate
	}

	// With no sink enabled the built Config has no transports; New falls
	// back to a console transport.
	if cf.Console.Enabled {
		cfg.Transports = append(cfg.Transports, NewConsoleTransport(ConsoleConfig{}))
	}
	if cf.File.Enabled {
		comp, err := parseCompression(cf.File.Compress)
		if err != nil {
			return cfg, err
		}
		ft, err := NewFileTransport(FileTransportConfig{
			Dir: cf.File.Dir,
			Policy: RotationPolicy{
				IntervalDays:      cf.File.IntervalDays,
				MaxBytes:          cf.File.MaxBytes,
				MaxFilesPerPeriod: cf.File.MaxFilesPerPeriod,
				Compress:          comp,
				CompressedTTLDays: cf.File.CompressedTTLDays,
			},
			SplitLevels: cf.File.SplitLevels,
		})
		if err != nil {
			return cfg, err
		}
		cfg.Transports = append(cfg.Transports, ft)
	}
	if cf.HTTP.Enabled {
		ht, err := NewHTTPTransport(HTTPTransportConfig{
			URL:     cf.HTTP.URL,
			Method:  cf.HTTP.Method,
			Headers: cf.HTTP.Headers,
			Auth: HTTPAuth{
				BearerToken:  cf.HTTP.BearerToken,
				Username:     cf.HTTP.Username,
				Password:     cf.HTTP.Password,
				APIKeyHeader: cf.HTTP.APIKeyHeader,
				APIKey:       cf.HTTP.APIKey,
			},
			BatchSize:   cf.HTTP.BatchSize,
			MaxRetries:  cf.HTTP.MaxRetries,
			BackoffBase: time.Duration(cf.HTTP.BackoffMS) * time.Millisecond,
			Timeout:     time.Duration(cf.HTTP.TimeoutMS) * time.Millisecond,
			MaxBuffer:   cf.HTTP.MaxBuffer,
		})
		if err != nil {
			return cfg, err
		}
		cfg.Transports = append(cfg.Transports, ht)
	}

	if cf.Redaction.Enabled {
		rc := RedactorConfig{
			Strict:          cf.Redaction.Strict,
			Marker:          cf.Redaction.Marker,
			DisableDefaults: cf.Redaction.DisableDefaults,
			SensitivePaths:  cf.Redaction.SensitiveKeys,
		}
		for _, p := range cf.Redaction.Patterns {
			re, err := regexp.Compile(p.Pattern)
			if err != nil {
				return cfg, fmt.Errorf("lumen: redaction pattern %q: %w", p.Name, err)
			}
			rc.Patterns = append(rc.Patterns, RedactionPattern{
				Name:        p.Name,
				Pattern:     re,
				Replacement: p.Replacement,
			})
		}
		cfg.Redactor = NewRedactor(rc)
	}
	return cfg, nil
}

// parseCompression maps the config string onto a codec.
func parseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return CompressionNone, fmt.Errorf("lumen: unknown compression %q", s)
	}
}
