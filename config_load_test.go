// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

package lumen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigFileTOML(t *testing.T) {
	path := writeConfig(t, "lumen.toml", `
level = "debug"
service = "checkout"
env = "prod"

[sampling]
debug = 0.1

[console]
enabled = true

[redaction]
enabled = true
strict = true
sensitive_keys = ["internal_ref"]

[[redaction.patterns]]
name = "order-id"
pattern = 'ORD-\d+'
replacement = "[order]"
`)
	cf, err := LoadConfigFile(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cf.Level)
	require.Equal(t, "checkout", cf.Service)
	require.Equal(t, 0.1, cf.Sampling["debug"])
	require.True(t, cf.Redaction.Strict)

	cfg, err := cf.Build()
	require.NoError(t, err)
	require.Equal(t, DEBUG, cfg.MinLevel)
	require.Len(t, cfg.Transports, 1)
	require.NotNil(t, cfg.Redactor)
	require.True(t, cfg.Redactor.Strict())
	require.Equal(t, 0.1, cfg.Sampling[DEBUG])
}

func TestLoadConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "lumen.yaml", `
level: warn
service: ingest
file:
  enabled: true
  dir: `+dir+`
  max_bytes: 1048576
  compress: lz4
`)
	cf, err := LoadConfigFile(path)
	require.NoError(t, err)
	require.Equal(t, "warn", cf.Level)
	require.True(t, cf.File.Enabled)
	require.Equal(t, int64(1048576), cf.File.MaxBytes)

	cfg, err := cf.Build()
	require.NoError(t, err)
	require.Equal(t, WARN, cfg.MinLevel)
	require.Len(t, cfg.Transports, 1)
	require.Equal(t, "file", cfg.Transports[0].Name())
}

func TestLoadConfigFileDefaults(t *testing.T) {
	path := writeConfig(t, "lumen.toml", `service = "bare"`)
	cf, err := LoadConfigFile(path)
	require.NoError(t, err)
	// Gaps come from defaults.
	require.Equal(t, "info", cf.Level)
	require.Equal(t, "POST", cf.HTTP.Method)
	require.Equal(t, 1, cf.File.IntervalDays)
}

func TestLoadConfigFileEnvOverrides(t *testing.T) {
	t.Setenv("LUMEN_LEVEL", "error")
	t.Setenv("LUMEN_SERVICE", "from-env")
	t.Setenv("LUMEN_PRETTY", "true")

	path := writeConfig(t, "lumen.toml", `
level = "debug"
service = "from-file"
`)
	cf, err := LoadConfigFile(path)
	require.NoError(t, err)
	require.Equal(t, "error", cf.Level)
	require.Equal(t, "from-env", cf.Service)
	require.True(t, cf.Pretty)

	cfg, err := cf.Build()
	require.NoError(t, err)
	require.Equal(t, ERROR, cfg.MinLevel)
	require.IsType(t, &TextFormatter{}, cfg.Formatter)
}

func TestLoadConfigFileRejectsUnknownExtension(t *testing.T) {
	path := writeConfig(t, "lumen.ini", "level=info")
	_, err := LoadConfigFile(path)
	require.Error(t, err)
}

func TestLoadConfigFileRejectsBadLevel(t *testing.T) {
	path := writeConfig(t, "lumen.toml", `level = "verbose"`)
	cf, err := LoadConfigFile(path)
	require.NoError(t, err)
	_, err = cf.Build()
	require.Error(t, err)
}

func TestBuildRejectsBadPattern(t *testing.T) {
	cf := defaultConfigFile()
	cf.Redaction.Enabled = true
	cf.Redaction.Patterns = []PatternConfig{{Name: "bad", Pattern: "("}}
	_, err := cf.Build()
	require.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{
		"": CompressionNone, "none": CompressionNone,
		"gzip": CompressionGzip, "gz": CompressionGzip,
		"lz4": CompressionLZ4, "LZ4": CompressionLZ4,
	} {
		got, err := parseCompression(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := parseCompression("zstd")
	require.Error(t, err)
}
