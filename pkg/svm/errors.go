package svm

import (
	"errors"
	"fmt"
)

var (
	ErrShapeMismatch          = errors.New("svm: shape mismatch")
	ErrLabelOutOfRange        = errors.New("svm: label out of range")
	ErrEmptyBatch             = errors.New("svm: empty batch")
	ErrNoClasses              = errors.New("svm: weights have no classes")
	ErrNoFeatures             = errors.New("svm: batch has no features")
	ErrNegativeRegularization = errors.New("svm: regularization must be finite and non-negative")
	ErrUnknownImplementation  = errors.New("svm: unknown implementation")
)

// ShapeError reports inconsistent dimensions between the inputs.
type ShapeError struct {
	Op   string
	Want int
	Got  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("svm: shape mismatch: %s: want %d, got %d", e.Op, e.Want, e.Got)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

// LabelError reports a label outside [0, Classes).
type LabelError struct {
	Index   int
	Label   int
	Classes int
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("svm: label out of range: labels[%d]=%d, want [0, %d)", e.Index, e.Label, e.Classes)
}

func (e *LabelError) Unwrap() error {
	return ErrLabelOutOfRange
}
