package compress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"go.uber.org/multierr"
)

// pngquant exit codes meaning "keep the original".
const (
	exitSkippedLarger = 98
	exitQualityTooLow = 99
)

// Pngquant pipes the buffer through the pngquant binary.
type Pngquant struct {
	Path string
	// Speed is 1 (slow) to 11 (fast), 4 when unset.
	Speed int
	// Quality is an optional "min-max" range, e.g. "65-80".
	Quality string
	// Fallback is used when the binary fails to run.
	Fallback Compressor
}

func (p *Pngquant) args() []string {
	speed := p.Speed
	if speed <= 0 {
		speed = 4
	}

	args := []string{"--speed", strconv.Itoa(speed), "--skip-if-larger", "--strip"}
	if p.Quality != "" {
		args = append(args, "--quality", p.Quality)
	}

	return append(args, "-")
}

// Compress implements Compressor.
func (p *Pngquant) Compress(ctx context.Context, buf []byte) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, p.Path, p.args()...)
	cmd.Stdin = bytes.NewReader(buf)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case exitSkippedLarger, exitQualityTooLow:
			return buf, nil
		}
	}

	if err != nil {
		err = multierr.Append(fmt.Errorf("failed at pngquant"), multierr.Append(err, fmt.Errorf("pngquant failed: %s", stderr.Bytes())))
		if p.Fallback != nil && ctx.Err() == nil {
			out, ferr := p.Fallback.Compress(ctx, buf)
			if ferr == nil {
				return out, nil
			}
			err = multierr.Append(err, ferr)
		}
		return nil, err
	}

	return smallest(buf, stdout.Bytes()), nil
}
