// Package camera describes the physical camera: capture settings, the
// calibrated pinhole model used for pose and projection, and the runtime
// view settings the viewer can change while frames are flowing.
package camera

// Config holds the capture parameters for a local camera.
type Config struct {
	// Device is a device index ("0") or a file/stream path.
	Device string `json:"device" yaml:"device"`

	Width     int `json:"width" yaml:"width"`         // Requested frame width in pixels
	Height    int `json:"height" yaml:"height"`       // Requested frame height in pixels
	Framerate int `json:"framerate" yaml:"framerate"` // Target FPS of the frame loop
	Quality   int `json:"quality" yaml:"quality"`     // JPEG quality 1-100 for streamed frames
}

// Capture limits
const (
	MaxWidth     = 4096
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns the capture configuration used by the demo:
// the first camera at 640x480, which is what most calibration files describe.
func DefaultConfig() Config {
	return Config{
		Device:    "0",
		Width:     640,
		Height:    480,
		Framerate: 30,
		Quality:   80,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device == "" {
		errors = append(errors, "device must not be empty")
	}
	if c.Width < 16 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 16 and 4096")
	}
	if c.Height < 16 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 16 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}
