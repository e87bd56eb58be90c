package pipeline

import (
	"fmt"
)

// DecodeError is returned when the source is not a readable image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// TransformError is returned when a step fails against the actual image.
type TransformError struct {
	Step Step
	Err  error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%v: %v", e.Step, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// CollaboratorError is returned when an external collaborator fails: the
// source provider, the smart-crop finder or the compressor.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
