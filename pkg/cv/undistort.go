package cv

import (
	"github.com/teslashibe/go-arucogl/pkg/camera"
	"github.com/teslashibe/go-arucogl/pkg/frame"
	"gocv.io/x/gocv"
)

// Undistorter removes lens distortion with cv::undistort.
type Undistorter struct{}

// Undistort implements camera.Undistorter. The channel order of src is kept.
func (Undistorter) Undistort(src *frame.Frame, m camera.Model) (*frame.Frame, error) {
	if !m.IsValid() {
		return nil, camera.ErrNotCalibrated
	}
	in, err := MatFromFrame(src)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	k := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer k.Close()
	km := m.Matrix()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			k.SetDoubleAt(r, c, km.At(r, c))
		}
	}

	dist := gocv.NewMatWithSize(1, max(len(m.Distortion), 4), gocv.MatTypeCV64F)
	defer dist.Close()
	for i, v := range m.Distortion {
		dist.SetDoubleAt(0, i, v)
	}

	out := gocv.NewMat()
	defer out.Close()
	gocv.Undistort(in, &out, k, dist, k)

	f, err := FrameFromMat(out)
	if err != nil {
		return nil, err
	}
	f.Order = src.Order
	return f, nil
}
