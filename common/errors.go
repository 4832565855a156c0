package common

import "github.com/pkg/errors"

// Error classes shared by the loader and the animation core. Callers classify a failure with
// errors.Is against one of these; the wrapped message carries the detail.
var (
	// ErrMalformedAsset marks an asset that violates the glTF structure this viewer relies on
	// (multiple scenes, unsupported topology, missing attributes, unreadable accessor data).
	ErrMalformedAsset = errors.New("malformed asset")

	// ErrUnsupportedFeature marks valid input that the viewer does not implement
	// (step or cubic-spline interpolation, too many joints, extra texture coordinate sets).
	ErrUnsupportedFeature = errors.New("unsupported feature")

	// ErrInvariantViolation marks structurally inconsistent data, such as a channel that targets
	// a node missing from the scene or a joint whose parent index is out of range.
	ErrInvariantViolation = errors.New("invariant violation")
)

// Malformedf wraps ErrMalformedAsset with a formatted message.
func Malformedf(format string, args ...any) error {
	return errors.Wrapf(ErrMalformedAsset, format, args...)
}

// Unsupportedf wraps ErrUnsupportedFeature with a formatted message.
func Unsupportedf(format string, args ...any) error {
	return errors.Wrapf(ErrUnsupportedFeature, format, args...)
}

// Invariantf wraps ErrInvariantViolation with a formatted message.
func Invariantf(format string, args ...any) error {
	return errors.Wrapf(ErrInvariantViolation, format, args...)
}
