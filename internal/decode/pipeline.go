package decode

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"
)

// ErrExhausted reports that every strategy/engine pairing failed for a
// still image. Terminal for that attempt; a fresh user action starts a new
// run.
var ErrExhausted = errors.New("decode: all strategies exhausted")

// Attempt records one strategy/engine pairing tried by the pipeline, for
// failure reporting and tests.
type Attempt struct {
	Strategy string
	Engine   string
	Err      error
}

func (a Attempt) String() string {
	return a.Strategy + "/" + a.Engine
}

// Pipeline runs the strategy ladder against an ordered engine list.
type Pipeline struct {
	engines    []Engine
	strategies []Strategy
}

// NewPipeline creates a pipeline over the given engines with the default
// strategy ladder. Engines are injected rather than constructed here so a
// session can share warm instances across runs.
func NewPipeline(engines ...Engine) *Pipeline {
	return &Pipeline{
		engines:    engines,
		strategies: Strategies(),
	}
}

// WithStrategies replaces the strategy ladder, for tests.
func (p *Pipeline) WithStrategies(strategies []Strategy) *Pipeline {
	p.strategies = strategies
	return p
}

// Decode tries each strategy in order against each engine and returns the
// first successfully decoded text. It stops immediately on success and
// returns ErrExhausted with the attempt trace after the final failure.
// At most len(strategies) * len(engines) attempts are made.
func (p *Pipeline) Decode(img image.Image) (string, []Attempt, error) {
	var attempts []Attempt
	for _, strat := range p.strategies {
		prepared := strat.Transform(img)
		for _, eng := range p.engines {
			text, err := eng.Decode(prepared)
			if err == nil {
				return text, attempts, nil
			}
			attempts = append(attempts, Attempt{Strategy: strat.Name, Engine: eng.Name(), Err: err})
		}
	}
	return "", attempts, ErrExhausted
}

// DecodeFile loads a PNG or JPEG image from disk and decodes it.
func (p *Pipeline) DecodeFile(path string) (string, []Attempt, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("decode: open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", nil, fmt.Errorf("decode: read image: %w", err)
	}
	return p.Decode(img)
}

// FrameSource supplies successive frames from a live capture. Next blocks
// until a frame is available, the source ends (io.EOF or any error), or the
// context is canceled. Close releases the capture resource; the scanner
// guarantees it is called exactly once on every exit path.
type FrameSource interface {
	Next(ctx context.Context) (image.Image, error)
	Close() error
}

// FrameScanner decodes a live frame stream. Each frame is an independent
// attempt with the as-is strategy only: continuous retry is inherent to
// the stream, so the escalation ladder is reserved for still images.
type FrameScanner struct {
	engines   []Engine
	source    FrameSource
	closeOnce sync.Once
	closeErr  error
}

// NewFrameScanner creates a scanner over a frame source using the
// session's engines.
func NewFrameScanner(source FrameSource, engines ...Engine) *FrameScanner {
	return &FrameScanner{engines: engines, source: source}
}

// Run consumes frames until one decodes, the source ends, or the context
// is canceled. The frame source is released exactly once regardless of
// which exit path is taken.
func (s *FrameScanner) Run(ctx context.Context) (string, error) {
	defer s.close()

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		frame, err := s.source.Next(ctx)
		if err != nil {
			return "", err
		}

		for _, eng := range s.engines {
			if text, err := eng.Decode(frame); err == nil {
				return text, nil
			}
		}
	}
}

// Close releases the underlying frame source. Safe to call concurrently
// with Run; only the first call closes.
func (s *FrameScanner) Close() error {
	s.close()
	return s.closeErr
}

func (s *FrameScanner) close() {
	s.closeOnce.Do(func() {
		s.closeErr = s.source.Close()
	})
}
