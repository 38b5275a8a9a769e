package marker

import (
	"sync"

	"github.com/teslashibe/go-arucogl/pkg/camera"
	"github.com/teslashibe/go-arucogl/pkg/frame"
)

// StaticDetector is a Detector that returns a fixed marker list.
// It is used by tests and by the snapshot command's --markers option.
type StaticDetector struct {
	mu      sync.Mutex
	markers []Marker
	err     error
	calls   int
	lastImg *frame.Frame
	lastCam camera.Model
}

// NewStaticDetector creates a detector that always reports markers.
func NewStaticDetector(markers ...Marker) *StaticDetector {
	return &StaticDetector{markers: markers}
}

// SetMarkers replaces the markers returned by later Detect calls.
func (d *StaticDetector) SetMarkers(markers ...Marker) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.markers = markers
}

// SetError makes later Detect calls fail with err.
func (d *StaticDetector) SetError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Detect records its inputs and returns a copy of the configured markers.
func (d *StaticDetector) Detect(img *frame.Frame, cam camera.Model, size float64) ([]Marker, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	d.lastImg = img
	d.lastCam = cam
	if d.err != nil {
		return nil, d.err
	}
	out := make([]Marker, len(d.markers))
	copy(out, d.markers)
	return out, nil
}

// Calls returns the number of Detect calls.
func (d *StaticDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// LastInput returns the image and camera model of the latest Detect call.
func (d *StaticDetector) LastInput() (*frame.Frame, camera.Model) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastImg, d.lastCam
}

// Close implements Detector.
func (d *StaticDetector) Close() error {
	return nil
}
