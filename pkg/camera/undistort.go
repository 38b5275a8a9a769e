package camera

import "github.com/teslashibe/go-arucogl/pkg/frame"

// Undistorter removes lens distortion from a frame using a camera model.
type Undistorter interface {
	Undistort(src *frame.Frame, m Model) (*frame.Frame, error)
}

// Passthrough is the default Undistorter: it returns an unmodified copy.
// Use it when the calibration does not describe the physical lens well
// enough for correction to help.
type Passthrough struct{}

// Undistort returns a copy of src.
func (Passthrough) Undistort(src *frame.Frame, _ Model) (*frame.Frame, error) {
	return src.Clone(), nil
}
