// Package marker provides fiducial marker types, pose recovery and the
// debug drawing used on top of detections.
package marker

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/teslashibe/go-arucogl/pkg/camera"
	"github.com/teslashibe/go-arucogl/pkg/frame"
)

// Point is an image position in pixels.
type Point struct {
	X, Y float64
}

// Marker is one detected fiducial.
type Marker struct {
	ID int

	// Corners in pixels, clockwise from the marker's top-left corner.
	Corners [4]Point

	// Pose is the marker-to-eye transform, eye space being Y up and looking
	// down -Z. The marker's +Z axis points out of the printed face.
	Pose mgl64.Mat4
}

// Position returns the marker origin in eye space.
func (m Marker) Position() r3.Vector {
	return r3.Vector{X: m.Pose[12], Y: m.Pose[13], Z: m.Pose[14]}
}

// Center returns the mean of the four corners.
func (m Marker) Center() Point {
	var c Point
	for _, p := range m.Corners {
		c.X += p.X / 4
		c.Y += p.Y / 4
	}
	return c
}

// Perimeter returns the corner polygon perimeter in pixels.
func (m Marker) Perimeter() float64 {
	var p float64
	for i := range m.Corners {
		a, b := m.Corners[i], m.Corners[(i+1)%4]
		p += math.Hypot(b.X-a.X, b.Y-a.Y)
	}
	return p
}

// Detector is the interface for marker detection backends
type Detector interface {
	// Detect finds markers in img and estimates their pose with cam.
	// cam must be sized to img. size is the printed side length in the
	// calibration's units. No markers is an empty slice, not an error.
	Detect(img *frame.Frame, cam camera.Model, size float64) ([]Marker, error)

	// Close releases resources
	Close() error
}

// Drawer stamps debug geometry for one marker onto an image.
type Drawer interface {
	Draw3DCube(img *frame.Frame, m Marker, cam camera.Model, size float64) error
	Draw3DAxis(img *frame.Frame, m Marker, cam camera.Model, size float64) error
}

// Config holds detector configuration
type Config struct {
	Dictionary   string  // Predefined dictionary name, e.g. "4x4_50"
	MinPerimeter float64 // Drop detections smaller than this, in pixels
}

// DefaultConfig returns the detector defaults.
func DefaultConfig() Config {
	return Config{
		Dictionary:   "aruco_original",
		MinPerimeter: 40,
	}
}

// FindByID returns the index of the first marker with id, or -1.
func FindByID(markers []Marker, id int) int {
	for i := range markers {
		if markers[i].ID == id {
			return i
		}
	}
	return -1
}
