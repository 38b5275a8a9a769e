package cv

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/teslashibe/go-arucogl/internal/log"
	"github.com/teslashibe/go-arucogl/pkg/camera"
	"github.com/teslashibe/go-arucogl/pkg/frame"
	"gocv.io/x/gocv"
)

// Capture reads BGR frames from a camera index or a video file/URL.
type Capture struct {
	vc     *gocv.VideoCapture
	mat    gocv.Mat
	config camera.Config
	mu     sync.Mutex
}

// OpenCapture opens cfg.Device. A numeric device is a camera index and gets
// the configured size and frame rate; anything else is opened as a file or
// stream URL at its native format.
func OpenCapture(cfg camera.Config) (*Capture, error) {
	var device any = cfg.Device
	if idx, err := strconv.Atoi(cfg.Device); err == nil {
		device = idx
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("cv: open %q: %w", cfg.Device, err)
	}
	if _, isCamera := device.(int); isCamera {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
		vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}

	log.Info("capture opened",
		"device", cfg.Device,
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight))

	return &Capture{vc: vc, mat: gocv.NewMat(), config: cfg}, nil
}

// Read grabs the next frame. It returns ErrEmptyMat at end of stream.
func (c *Capture) Read() (*frame.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ok := c.vc.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, ErrEmptyMat
	}
	return FrameFromMat(c.mat)
}

// Close releases the device.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mat.Close()
	return c.vc.Close()
}
