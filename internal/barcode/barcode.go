// Package barcode renders sealed report text as a QR code image.
//
// The symbol codec itself is external; this package fixes the error
// correction policy and image sizing so every sealed report in the wild
// is encoded consistently.
package barcode

import (
	"fmt"
	"os"

	qrcode "github.com/skip2/go-qrcode"
)

// RecoveryLevel re-exports the encoder's error correction levels.
type RecoveryLevel = qrcode.RecoveryLevel

// Error correction levels, lowest to highest redundancy. Sealed reports
// run to several kilobytes, so the default stays at Medium: higher levels
// push large payloads over the symbol capacity.
const (
	LevelLow     = qrcode.Low
	LevelMedium  = qrcode.Medium
	LevelHigh    = qrcode.High
	LevelHighest = qrcode.Highest
)

// DefaultSize is the rendered image edge in pixels.
const DefaultSize = 512

// ParseLevel parses an error correction level name.
func ParseLevel(s string) (RecoveryLevel, error) {
	switch s {
	case "low":
		return LevelLow, nil
	case "medium":
		return LevelMedium, nil
	case "high":
		return LevelHigh, nil
	case "highest":
		return LevelHighest, nil
	default:
		return LevelMedium, fmt.Errorf("barcode: unknown error correction level: %s (use low, medium, high, or highest)", s)
	}
}

// LevelString returns the name of a recovery level.
func LevelString(level RecoveryLevel) string {
	switch level {
	case LevelLow:
		return "low"
	case LevelHigh:
		return "high"
	case LevelHighest:
		return "highest"
	default:
		return "medium"
	}
}

// Encode renders text as a QR code PNG.
func Encode(text string, level RecoveryLevel, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(text, level, size)
	if err != nil {
		return nil, fmt.Errorf("barcode: encode: %w", err)
	}
	return png, nil
}

// WriteFile renders text as a QR code PNG and writes it to path.
func WriteFile(text string, level RecoveryLevel, size int, path string) error {
	png, err := Encode(text, level, size)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("barcode: write %s: %w", path, err)
	}
	return nil
}
