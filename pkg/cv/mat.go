// Package cv binds the pure-Go pipeline to OpenCV through gocv: Mat
// conversion, ArUco detection, lens undistortion, capture devices and the
// JPEG codec used on the wire.
package cv

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-arucogl/pkg/frame"
	"gocv.io/x/gocv"
)

// ErrEmptyMat is returned when OpenCV hands back an empty image.
var ErrEmptyMat = errors.New("cv: empty image")

// MatFromFrame copies f into a new 8-bit three-channel Mat. The caller owns
// the Mat and must Close it. Channel order is carried over unchanged.
func MatFromFrame(f *frame.Frame) (gocv.Mat, error) {
	if f.Empty() {
		return gocv.NewMat(), ErrEmptyMat
	}
	return gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Pix)
}

// FrameFromMat copies a Mat into a Frame. Single- and four-channel images
// are converted to BGR first; the result is always BGR.
func FrameFromMat(m gocv.Mat) (*frame.Frame, error) {
	if m.Empty() {
		return nil, ErrEmptyMat
	}

	src := m
	switch m.Channels() {
	case 3:
	case 1:
		src = gocv.NewMat()
		defer src.Close()
		gocv.CvtColor(m, &src, gocv.ColorGrayToBGR)
	case 4:
		src = gocv.NewMat()
		defer src.Close()
		gocv.CvtColor(m, &src, gocv.ColorBGRAToBGR)
	default:
		return nil, fmt.Errorf("cv: unsupported channel count %d", m.Channels())
	}
	if src.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("cv: unsupported mat type %v", src.Type())
	}

	return frame.Wrap(src.Cols(), src.Rows(), frame.BGR, src.ToBytes())
}
