package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/greut/resizer/codec"
	"go.uber.org/zap"
)

// Execute applies the plan to src, in order. The PNG family output goes
// through the compressor and ByteSize is the recompressed size.
func (p *Pipeline) Execute(ctx context.Context, plan *Plan, src []byte) (*Result, error) {
	done := p.tracker.StartStep("decode")
	canvas, err := p.codec.Decode(src)
	done(err == nil)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	var result *Result

	for _, step := range plan.Steps() {
		done := p.tracker.StartStep(stepName(step))

		switch s := step.(type) {
		case AutoRotateStep:
			err = canvas.AutoRotate()
		case FlattenStep:
			err = canvas.Flatten()
		case CropStep:
			err = canvas.Extract(s.Rect)
		case SmartCropStep:
			err = p.smartCrop(ctx, canvas, s)
		case ResizeStep:
			err = canvas.Resize(s.Resize)
		case EncodeStep:
			result, err = p.encode(ctx, canvas, s)
		default:
			err = fmt.Errorf("unknown step %T", step)
		}

		done(err == nil)

		if err != nil {
			var ce *CollaboratorError
			if errors.As(err, &ce) {
				return nil, err
			}
			return nil, &TransformError{Step: step, Err: err}
		}
	}

	return result, nil
}

func stepName(s Step) string {
	switch s.(type) {
	case AutoRotateStep:
		return "autorotate"
	case FlattenStep:
		return "flatten"
	case CropStep:
		return "crop"
	case SmartCropStep:
		return "smartcrop"
	case ResizeStep:
		return "resize"
	case EncodeStep:
		return "encode"
	}
	return "unknown"
}

func (p *Pipeline) smartCrop(ctx context.Context, canvas codec.Canvas, s SmartCropStep) error {
	if p.finder == nil {
		return nil
	}

	buf, err := canvas.Snapshot()
	if err != nil {
		return err
	}

	region, err := p.finder.Find(ctx, buf, s.Width, s.Height)
	if err != nil {
		return &CollaboratorError{Collaborator: "smartcrop", Err: err}
	}
	if region == nil {
		p.logger.Debug("no salient region", zap.Int("width", s.Width), zap.Int("height", s.Height))
		return nil
	}

	return canvas.Extract(*region)
}

func (p *Pipeline) encode(ctx context.Context, canvas codec.Canvas, s EncodeStep) (*Result, error) {
	buf, meta, err := canvas.Encode(s.Encode)
	if err != nil {
		return nil, err
	}

	if meta.Format.IsPalette() && p.compressor != nil {
		done := p.tracker.StartStep("compress")
		out, err := p.compressor.Compress(ctx, buf)
		done(err == nil)
		if err != nil {
			return nil, &CollaboratorError{Collaborator: "compressor", Err: err}
		}

		p.logger.Debug("recompressed",
			zap.String("format", string(meta.Format)),
			zap.Int("before", len(buf)),
			zap.Int("after", len(out)),
		)
		buf = out
	}

	return &Result{
		Buffer:   buf,
		Format:   meta.Format,
		ByteSize: len(buf),
		Width:    meta.Width,
		Height:   meta.Height,
	}, nil
}
