// Package decode turns barcode images into text.
//
// Decoding engines are abstract: each takes an image and either returns
// the embedded text or reports no match. Two independent engines back the
// abstraction so a capture one symbol reader chokes on still has a second
// chance. A Session owns the engine instances for the duration of one
// scanning session; they are constructed lazily on first use so repeated
// attempts within a session pay the warm-up cost once, and nothing is held
// in process-wide globals.
package decode

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/liyue201/goqr"
	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNoMatch reports that an engine found no barcode in the image.
var ErrNoMatch = errors.New("decode: no barcode found")

// Engine decodes a single image. Implementations return ErrNoMatch when
// the image contains no readable barcode; any other error is an engine
// fault. Both advance the pipeline to its next attempt.
type Engine interface {
	Name() string
	Decode(img image.Image) (string, error)
}

// zxingEngine wraps the gozxing QR reader.
type zxingEngine struct {
	reader gozxing.Reader
	hints  map[gozxing.DecodeHintType]interface{}
}

// NewZXingEngine creates the primary QR decoding engine.
func NewZXingEngine() Engine {
	return &zxingEngine{
		reader: zxqrcode.NewQRCodeReader(),
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

func (e *zxingEngine) Name() string { return "zxing" }

func (e *zxingEngine) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("decode: binarize image: %w", err)
	}
	result, err := e.reader.Decode(bmp, e.hints)
	if err != nil {
		// gozxing reports not-found and checksum failures as errors; both
		// mean this attempt produced nothing.
		return "", ErrNoMatch
	}
	return result.GetText(), nil
}

// goqrEngine wraps the goqr recognizer as the independent fallback engine.
type goqrEngine struct{}

// NewGoQREngine creates the secondary QR decoding engine.
func NewGoQREngine() Engine { return goqrEngine{} }

func (goqrEngine) Name() string { return "goqr" }

func (goqrEngine) Decode(img image.Image) (string, error) {
	codes, err := goqr.Recognize(img)
	if err != nil || len(codes) == 0 {
		return "", ErrNoMatch
	}
	return string(codes[0].Payload), nil
}

// Session owns decoder engines for one scanning session. Engines are
// built on first use and shared across every attempt in the session.
type Session struct {
	once    sync.Once
	engines []Engine
}

// NewSession creates an empty session; engines are not constructed until
// the first Engines call.
func NewSession() *Session {
	return &Session{}
}

// Engines returns the session's engine set, constructing it lazily.
func (s *Session) Engines() []Engine {
	s.once.Do(func() {
		s.engines = []Engine{NewZXingEngine(), NewGoQREngine()}
	})
	return s.engines
}
