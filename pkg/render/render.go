// Package render defines the small fixed-function drawing surface the
// compositor talks to, a matrix stack that implements its transform state,
// a software rasteriser built on gogpu/gg, and a recording double for tests.
package render

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-arucogl/pkg/frame"
)

// MatrixMode selects which matrix stack transform calls apply to.
type MatrixMode int

const (
	// ModelView is the object-to-eye stack.
	ModelView MatrixMode = iota
	// Projection is the eye-to-clip stack.
	Projection
)

func (m MatrixMode) String() string {
	if m == Projection {
		return "projection"
	}
	return "modelview"
}

// Capability is a toggleable render state.
type Capability int

const (
	DepthTest Capability = iota
	Texture2D
)

func (c Capability) String() string {
	switch c {
	case DepthTest:
		return "depth_test"
	case Texture2D:
		return "texture_2d"
	}
	return "unknown"
}

// Renderer is the immediate-mode API used to composite a frame.
// Angles are in degrees, as in the fixed-function pipeline.
type Renderer interface {
	MatrixMode(mode MatrixMode)
	LoadIdentity()
	LoadMatrix(m mgl64.Mat4)
	PushMatrix()
	PopMatrix()
	Translate(x, y, z float64)
	Rotate(angle, x, y, z float64)
	Ortho(left, right, bottom, top, near, far float64)
	Viewport(x, y, width, height int)

	Enable(c Capability)
	Disable(c Capability)

	// Color sets the colour of subsequent primitives, components in [0, 1].
	Color(r, g, b float64)

	// DrawPixels blits img with its top-left at the top-left of the viewport.
	// flipY must be set for top-down image rows; without it the rows are
	// drawn bottom-up.
	DrawPixels(img *frame.Frame, flipY bool) error

	// Sphere draws a sphere of radius centred on the model-view origin.
	Sphere(radius float64, slices, stacks int)
}
