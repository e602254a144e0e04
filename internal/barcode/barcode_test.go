package barcode

import (
	"bytes"
	"image"
	_ "image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phanix/internal/decode"
)

func TestEncodeProducesPNG(t *testing.T) {
	png, err := Encode("PHANIX TEST PAYLOAD", LevelMedium, 256)
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(png))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 256, img.Bounds().Dx())
}

func TestEncodeDefaultSize(t *testing.T) {
	png, err := Encode("x", LevelMedium, 0)
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(png))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	const payload = "PHANIX SECURE EVIDENCE PACKAGE\nCASE ID : round-trip-1"

	png, err := Encode(payload, LevelMedium, 512)
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(png))
	require.NoError(t, err)

	pipeline := decode.NewPipeline(decode.NewSession().Engines()...)
	text, _, err := pipeline.Decode(img)
	require.NoError(t, err)
	assert.Equal(t, payload, text)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want RecoveryLevel
		ok   bool
	}{
		{"low", LevelLow, true},
		{"medium", LevelMedium, true},
		{"high", LevelHigh, true},
		{"highest", LevelHighest, true},
		{"ultra", LevelMedium, false},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.want, got)
		} else {
			assert.Error(t, err, tc.in)
		}
	}
}

func TestLevelStringRoundTrip(t *testing.T) {
	for _, name := range []string{"low", "medium", "high", "highest"} {
		level, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, name, LevelString(level))
	}
}

func TestWriteFile(t *testing.T) {
	path := t.TempDir() + "/code.png"
	require.NoError(t, WriteFile("payload", LevelMedium, 128, path))

	f, err := imageFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 128, f.Bounds().Dx())
}

func imageFromFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}
