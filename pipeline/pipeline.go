// Package pipeline turns untrusted query parameters into an ordered list of
// image operations, and runs them against a codec.
package pipeline

import (
	"context"

	"github.com/greut/resizer/codec"
	"github.com/greut/resizer/compress"
	"github.com/greut/resizer/smartcrop"
	"go.uber.org/zap"
)

// Tracker times the pipeline steps. The returned function is called once with
// the outcome.
type Tracker interface {
	StartStep(name string) func(success bool)
}

type nopTracker struct{}

func (nopTracker) StartStep(string) func(bool) { return func(bool) {} }

// Result is the output of one run.
type Result struct {
	Buffer   []byte
	Format   codec.Format
	ByteSize int
	Width    int
	Height   int
}

// Pipeline holds the collaborators. It has no per request state and is safe
// for concurrent use.
type Pipeline struct {
	codec      codec.Codec
	finder     smartcrop.Finder
	compressor compress.Compressor
	tracker    Tracker
	logger     *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger, a no-op one by default.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithFinder sets the smart-crop finder. Without one, smart crops are skipped.
func WithFinder(finder smartcrop.Finder) Option {
	return func(p *Pipeline) {
		p.finder = finder
	}
}

// WithCompressor sets the PNG recompressor, the in-process optimizer by default.
func WithCompressor(c compress.Compressor) Option {
	return func(p *Pipeline) {
		p.compressor = c
	}
}

// WithTracker sets the step timer.
func WithTracker(t Tracker) Option {
	return func(p *Pipeline) {
		p.tracker = t
	}
}

// New returns a pipeline driving c.
func New(c codec.Codec, opts ...Option) *Pipeline {
	p := &Pipeline{
		codec:      c,
		compressor: &compress.Optimizer{},
		tracker:    nopTracker{},
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Transform validates raw, plans against src and executes the plan. The
// warnings are returned, and logged, even when the transformation fails.
func (p *Pipeline) Transform(ctx context.Context, raw RawParameters, src []byte) (*Result, []Warning, error) {
	opts, warnings := Validate(raw)

	for _, w := range warnings {
		p.logger.Warn(w.Error(), zap.String("field", w.Field), zap.String("value", w.Value))
	}

	if unknown := Unrecognized(raw); len(unknown) > 0 {
		p.logger.Debug("ignored parameters", zap.Strings("names", unknown))
	}

	result, err := p.TransformOptions(ctx, opts, src)
	return result, warnings, err
}

// TransformOptions plans against src and executes the plan.
func (p *Pipeline) TransformOptions(ctx context.Context, opts ValidatedOptions, src []byte) (*Result, error) {
	done := p.tracker.StartStep("probe")
	meta, err := p.codec.Probe(src)
	done(err == nil)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	plan := NewPlan(opts, meta)

	if ce := p.logger.Check(zap.DebugLevel, "plan"); ce != nil {
		ce.Write(
			zap.String("format", string(meta.Format)),
			zap.Int("width", meta.Width),
			zap.Int("height", meta.Height),
			zap.Stringers("steps", plan.Steps()),
		)
	}

	return p.Execute(ctx, plan, src)
}
