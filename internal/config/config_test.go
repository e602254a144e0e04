package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "phanix.toml", `
[seal]
error_correction = "high"
image_size = 256
output_dir = "/tmp/out"

[watch]
path = "/tmp/drop"
debounce_ms = 500
report_format = "json"

[logging]
level = "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "high", cfg.Seal.ErrorCorrection)
	assert.Equal(t, 256, cfg.Seal.ImageSize)
	assert.Equal(t, "/tmp/drop", cfg.Watch.Path)
	assert.Equal(t, 500, cfg.Watch.DebounceMs)
	assert.Equal(t, "json", cfg.Watch.ReportFormat)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, []string{"zxing", "goqr"}, cfg.Decode.Engines)
	assert.Equal(t, "stderr", cfg.Logging.Output)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "phanix.yaml", `
seal:
  error_correction: low
decode:
  engines: [goqr]
logging:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "low", cfg.Seal.ErrorCorrection)
	assert.Equal(t, []string{"goqr"}, cfg.Decode.Engines)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeConfig(t, "phanix.ini", "[seal]\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "unsupported config format")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadInvalidValuesRejected(t *testing.T) {
	path := writeConfig(t, "phanix.toml", `
[seal]
error_correction = "ultra"
image_size = 16

[decode]
engines = ["zbar"]

[logging]
level = "verbose"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "error_correction")
	assert.ErrorContains(t, err, "image_size")
	assert.ErrorContains(t, err, "zbar")
	assert.ErrorContains(t, err, "verbose")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PHANIX_LOG_LEVEL", "warn")
	t.Setenv("PHANIX_WATCH_PATH", "/srv/drop")
	t.Setenv("PHANIX_IMAGE_SIZE", "1024")

	path := writeConfig(t, "phanix.toml", `
[logging]
level = "info"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/srv/drop", cfg.Watch.Path)
	assert.Equal(t, 1024, cfg.Seal.ImageSize)
}

func TestEnvOverrideBadIntIgnored(t *testing.T) {
	t.Setenv("PHANIX_IMAGE_SIZE", "not-a-number")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, 512, cfg.Seal.ImageSize)
}

func TestValidateFileOutputNeedsPath(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "file"
	err := cfg.Validate()
	assert.ErrorContains(t, err, "file_path")

	cfg.Logging.FilePath = "/var/log/phanix.log"
	assert.NoError(t, cfg.Validate())
}
