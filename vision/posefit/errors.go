package posefit

import (
	"github.com/pkg/errors"
)

var (
	// ErrConfiguration is the kind of every error caused by an estimator setup that cannot work,
	// such as an unknown sampling strategy or a strategy that has no interest points to draw from.
	ErrConfiguration = errors.New("invalid pose refinement configuration")
	// ErrShape is the kind of error returned when an observation does not match the camera.
	ErrShape = errors.New("observation does not match the camera")
	// ErrNumerical is the kind of error recorded when the objective stops being finite.
	ErrNumerical = errors.New("non-finite value during pose refinement")
)

// NewConfigurationError returns an error of kind ErrConfiguration.
func NewConfigurationError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}

// NewShapeError returns an error of kind ErrShape.
func NewShapeError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrShape, format, args...)
}

// NewNumericalError returns an error of kind ErrNumerical.
func NewNumericalError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrNumerical, format, args...)
}
