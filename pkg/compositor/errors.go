package compositor

import (
	"errors"

	"github.com/teslashibe/go-arucogl/pkg/camera"
)

var (
	// ErrCalibrationLoad is returned by New when the calibration source is
	// missing or malformed. The returned error also carries the
	// *camera.CalibrationError with the path and cause.
	ErrCalibrationLoad = camera.ErrCalibration

	// ErrEmptyFrame is returned by Ingest for a nil or zero-sized input.
	ErrEmptyFrame = errors.New("compositor: empty frame")

	// ErrInvalidMarkerSize is returned by New for a non-positive marker size.
	ErrInvalidMarkerSize = errors.New("compositor: marker size must be positive")

	// ErrNoUndistorter is returned by New when undistortion is enabled
	// without an Undistorter.
	ErrNoUndistorter = errors.New("compositor: undistort enabled without an undistorter")
)
