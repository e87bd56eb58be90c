// Package compress recompresses lossless outputs that the general purpose
// encoders leave fat, PNG mostly.
package compress

import (
	"context"
	"os/exec"

	"go.uber.org/zap"
)

// Compressor returns a buffer of the same format, equal or smaller in size.
type Compressor interface {
	Compress(ctx context.Context, buf []byte) ([]byte, error)
}

// Func adapts a function to the Compressor interface.
type Func func(ctx context.Context, buf []byte) ([]byte, error)

// Compress implements Compressor.
func (f Func) Compress(ctx context.Context, buf []byte) ([]byte, error) {
	return f(ctx, buf)
}

// Nop returns its input.
var Nop = Func(func(_ context.Context, buf []byte) ([]byte, error) {
	return buf, nil
})

// New picks pngquant when binary (or "pngquant") is on the $PATH, and the
// in-process Optimizer otherwise. "off" disables the recompression.
func New(binary string, logger *zap.Logger) Compressor {
	switch binary {
	case "":
		binary = "pngquant"
	case "off":
		logger.Info("png recompression disabled")
		return Nop
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		logger.Info("pngquant not found, using the built-in optimizer", zap.String("binary", binary))
		return &Optimizer{}
	}

	logger.Debug("using pngquant", zap.String("path", path))
	return &Pngquant{Path: path, Fallback: &Optimizer{}}
}

// smallest returns the candidate if it is strictly smaller than the input.
func smallest(in, candidate []byte) []byte {
	if len(candidate) > 0 && len(candidate) < len(in) {
		return candidate
	}
	return in
}
