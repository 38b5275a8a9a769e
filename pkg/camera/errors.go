package camera

import (
	"errors"
	"fmt"
)

var (
	// ErrCalibration is the root of every calibration load failure.
	ErrCalibration = errors.New("camera: calibration load failed")

	// ErrNotCalibrated is returned when a model without intrinsics is used.
	ErrNotCalibrated = errors.New("camera: model not calibrated")

	// ErrSizeMismatch is returned when the model resolution differs from the
	// image it is asked to describe.
	ErrSizeMismatch = errors.New("camera: model size does not match image")
)

// CalibrationError describes why a calibration source could not be used.
type CalibrationError struct {
	Path string
	Err  error
}

func (e *CalibrationError) Error() string {
	return fmt.Sprintf("camera: calibration %q: %v", e.Path, e.Err)
}

// Unwrap exposes both the cause and ErrCalibration to errors.Is.
func (e *CalibrationError) Unwrap() []error {
	return []error{ErrCalibration, e.Err}
}
