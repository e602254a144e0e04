// Package config handles configuration loading and validation for the
// phanix tools.
//
// Config files may be TOML or YAML, selected by extension. Environment
// variables override file values, and every loaded config is validated
// before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the complete tool configuration.
type Config struct {
	// Seal configuration for package generation.
	Seal SealConfig `toml:"seal" json:"seal" yaml:"seal"`

	// Decode configuration for the scan pipeline.
	Decode DecodeConfig `toml:"decode" json:"decode" yaml:"decode"`

	// Watch configuration for the drop-folder daemon.
	Watch WatchConfig `toml:"watch" json:"watch" yaml:"watch"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// SealConfig controls barcode generation.
type SealConfig struct {
	// ErrorCorrection is the QR error correction level:
	// "low", "medium", "high", or "highest".
	ErrorCorrection string `toml:"error_correction" json:"error_correction" yaml:"error_correction"`

	// ImageSize is the rendered QR edge in pixels.
	ImageSize int `toml:"image_size" json:"image_size" yaml:"image_size"`

	// OutputDir is where sealed artifacts (PNG, manifest JSON) are written.
	OutputDir string `toml:"output_dir" json:"output_dir" yaml:"output_dir"`

	// LinkBase is the base URL used when building share links.
	LinkBase string `toml:"link_base" json:"link_base" yaml:"link_base"`
}

// DecodeConfig controls the decode pipeline.
type DecodeConfig struct {
	// Engines lists the decoding engines to use, in fallback order.
	// Valid names: "zxing", "goqr".
	Engines []string `toml:"engines" json:"engines" yaml:"engines"`
}

// WatchConfig controls the drop-folder watcher.
type WatchConfig struct {
	// Path is the directory watched for incoming barcode images.
	Path string `toml:"path" json:"path" yaml:"path"`

	// DebounceMs is how long a file must be stable before it is scanned.
	DebounceMs int `toml:"debounce_ms" json:"debounce_ms" yaml:"debounce_ms"`

	// Extensions are the image file extensions picked up by the watcher.
	Extensions []string `toml:"extensions" json:"extensions" yaml:"extensions"`

	// ReportFormat is the format of reports written next to scanned
	// images: "text", "json", or "markdown".
	ReportFormat string `toml:"report_format" json:"report_format" yaml:"report_format"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is "stdout", "stderr", or "file".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file location when Output is "file".
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`
}

// Default returns the shipped configuration.
func Default() *Config {
	return &Config{
		Seal: SealConfig{
			ErrorCorrection: "medium",
			ImageSize:       512,
			OutputDir:       ".",
			LinkBase:        "https://phanix.local/verify",
		},
		Decode: DecodeConfig{
			Engines: []string{"zxing", "goqr"},
		},
		Watch: WatchConfig{
			DebounceMs:   1500,
			Extensions:   []string{".png", ".jpg", ".jpeg"},
			ReportFormat: "text",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads a config file, applies environment overrides, and validates.
// The file format is chosen by extension: .toml, .yaml, or .yml.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config: unsupported config format %q (use .toml, .yaml, or .yml)", ext)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies PHANIX_* environment variables over the
// loaded values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PHANIX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PHANIX_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("PHANIX_WATCH_PATH"); v != "" {
		c.Watch.Path = v
	}
	if v := os.Getenv("PHANIX_OUTPUT_DIR"); v != "" {
		c.Seal.OutputDir = v
	}
	if v := os.Getenv("PHANIX_ERROR_CORRECTION"); v != "" {
		c.Seal.ErrorCorrection = v
	}
	if v := os.Getenv("PHANIX_IMAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Seal.ImageSize = n
		}
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error

	switch c.Seal.ErrorCorrection {
	case "low", "medium", "high", "highest":
	default:
		errs = append(errs, fmt.Errorf("seal.error_correction: unknown level %q", c.Seal.ErrorCorrection))
	}
	if c.Seal.ImageSize < 64 || c.Seal.ImageSize > 4096 {
		errs = append(errs, fmt.Errorf("seal.image_size: %d out of range [64, 4096]", c.Seal.ImageSize))
	}

	for _, eng := range c.Decode.Engines {
		switch eng {
		case "zxing", "goqr":
		default:
			errs = append(errs, fmt.Errorf("decode.engines: unknown engine %q", eng))
		}
	}
	if len(c.Decode.Engines) == 0 {
		errs = append(errs, errors.New("decode.engines: at least one engine is required"))
	}

	if c.Watch.DebounceMs < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce_ms: %d must not be negative", c.Watch.DebounceMs))
	}
	switch c.Watch.ReportFormat {
	case "text", "json", "markdown":
	default:
		errs = append(errs, fmt.Errorf("watch.report_format: unknown format %q", c.Watch.ReportFormat))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	switch c.Logging.Output {
	case "stdout", "stderr", "file":
	default:
		errs = append(errs, fmt.Errorf("logging.output: unknown output %q", c.Logging.Output))
	}
	if c.Logging.Output == "file" && c.Logging.FilePath == "" {
		errs = append(errs, errors.New("logging.file_path: required when output is \"file\""))
	}

	return errors.Join(errs...)
}
