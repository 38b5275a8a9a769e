// Package compositor turns camera frames into augmented-reality scenes.
//
// Each frame is copied, converted to the renderer's channel order, optionally
// undistorted, resized to the viewport and searched for markers. Render then
// blits the frame as background and places animated spheres on the detected
// markers: a spinning sphere on every marker, a large one on the anchor and a
// satellite that orbits the anchor at the anchor-orbiter distance.
//
// A Compositor is not safe for concurrent use. Run Ingest, Resize and Render
// from one loop or guard them with a mutex.
package compositor

import (
	"errors"
	"fmt"
	"image"

	"github.com/golang/geo/r3"
	"github.com/teslashibe/go-arucogl/internal/log"
	"github.com/teslashibe/go-arucogl/pkg/camera"
	"github.com/teslashibe/go-arucogl/pkg/debug"
	"github.com/teslashibe/go-arucogl/pkg/frame"
	"github.com/teslashibe/go-arucogl/pkg/marker"
	"github.com/teslashibe/go-arucogl/pkg/render"
)

const (
	// Near and Far clip the 3D pass.
	Near = 0.01
	Far  = 100.0

	// SphereSlices and SphereStacks tessellate every sphere.
	SphereSlices = 20
	SphereStacks = 20
)

// Options tunes a Compositor beyond its required collaborators.
type Options struct {
	// Undistort enables lens correction through Undistorter. When false the
	// frame is copied unchanged.
	Undistort   bool
	Undistorter camera.Undistorter

	// Roles picks the anchor and orbiter markers. Zero value is positional.
	Roles marker.Roles

	// Drawer stamps the debug overlays. Defaults to marker.Overlay.
	Drawer marker.Drawer
}

// Buffers are the three images kept per frame. They are replaced on every
// Ingest and must not be modified by callers.
type Buffers struct {
	Raw         *frame.Frame
	Undistorted *frame.Frame
	Resized     *frame.Frame
}

// Stats counts compositor activity since construction.
type Stats struct {
	Frames       uint64 `json:"frames"`
	Renders      uint64 `json:"renders"`
	Markers      uint64 `json:"markers"`
	DetectErrors uint64 `json:"detect_errors"`
	Orbits       uint64 `json:"orbits"`
}

// Compositor owns the frame buffers, camera model, detected markers and
// animation state of the scene.
type Compositor struct {
	cam        camera.Model
	markerSize float64
	detector   marker.Detector
	renderer   render.Renderer
	opts       Options

	raw         *frame.Frame
	undistorted *frame.Frame
	resized     *frame.Frame
	markers     []marker.Marker

	viewport image.Point

	spinAngle   float64
	orbitAngle  float64
	orbitRadius float64
	anchorPos   r3.Vector
	orbiterPos  r3.Vector

	stats Stats
}

// New loads the calibration at calibrationPath and builds a compositor.
// A missing or malformed calibration yields an error matching
// ErrCalibrationLoad; no default camera is substituted.
func New(calibrationPath string, markerSize float64, det marker.Detector, r render.Renderer, opts Options) (*Compositor, error) {
	cam, err := camera.LoadFromFile(calibrationPath)
	if err != nil {
		return nil, err
	}
	return NewWithModel(cam, markerSize, det, r, opts)
}

// NewWithModel builds a compositor around an already loaded camera model.
// The viewport starts at the calibration resolution.
func NewWithModel(cam camera.Model, markerSize float64, det marker.Detector, r render.Renderer, opts Options) (*Compositor, error) {
	if !cam.IsValid() {
		return nil, &camera.CalibrationError{Err: camera.ErrNotCalibrated}
	}
	if markerSize <= 0 {
		return nil, ErrInvalidMarkerSize
	}
	if det == nil || r == nil {
		return nil, errors.New("compositor: detector and renderer are required")
	}
	if opts.Undistort && opts.Undistorter == nil {
		return nil, ErrNoUndistorter
	}
	if opts.Roles.Mode == "" {
		opts.Roles = marker.PositionalRoles()
	}
	if opts.Drawer == nil {
		opts.Drawer = marker.Overlay{}
	}

	log.Info("compositor ready",
		"width", cam.Size.X,
		"height", cam.Size.Y,
		"marker_size", markerSize,
		"undistort", opts.Undistort,
		"roles", opts.Roles.Mode)

	return &Compositor{
		cam:        cam,
		markerSize: markerSize,
		detector:   det,
		renderer:   r,
		opts:       opts,
		viewport:   cam.Size,
	}, nil
}

// Ingest takes a new camera frame and detects markers in it. img is copied
// and never modified. Finding no markers is not an error.
func (c *Compositor) Ingest(img *frame.Frame) error {
	c.spinAngle++
	if c.spinAngle >= 360 {
		c.spinAngle -= 360
	}

	if img == nil || img.Empty() {
		return ErrEmptyFrame
	}

	raw := img.Clone()
	if err := raw.ToRGB(); errors.Is(err, frame.ErrAlreadyRGB) {
		debug.Log("frame already RGB, skipping conversion")
	}

	und, err := c.undistort(raw)
	if err != nil {
		return err
	}
	resized, err := und.Resize(c.viewport.X, c.viewport.Y)
	if err != nil {
		return fmt.Errorf("compositor: resize: %w", err)
	}

	c.raw, c.undistorted, c.resized = raw, und, resized
	c.stats.Frames++

	markers, err := c.detector.Detect(resized, c.cam, c.markerSize)
	if err != nil {
		c.markers = nil
		c.stats.DetectErrors++
		return fmt.Errorf("compositor: detect: %w", err)
	}
	c.markers = markers
	c.stats.Markers += uint64(len(markers))
	debug.MarkerLog("markers detected", "count", len(markers))
	return nil
}

func (c *Compositor) undistort(raw *frame.Frame) (*frame.Frame, error) {
	if !c.opts.Undistort {
		return raw.Clone(), nil
	}

	// The correction runs at the input resolution.
	cam := c.cam
	if err := cam.Resize(raw.Size()); err != nil {
		return nil, fmt.Errorf("compositor: undistort: %w", err)
	}
	out, err := c.opts.Undistorter.Undistort(raw, cam)
	if err != nil {
		return nil, fmt.Errorf("compositor: undistort: %w", err)
	}
	return out, nil
}

// Resize changes the viewport. Widths whose RGB rows are not 4-byte aligned
// are rounded up first. The resized buffer, when a frame exists, and the
// camera model are brought to the new size.
func (c *Compositor) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("compositor: invalid viewport %dx%d", width, height)
	}
	c.viewport = image.Pt(width, height)

	if !frame.IsAligned(width) {
		return c.Resize(frame.AlignWidth(width), height)
	}

	if c.undistorted != nil && !c.undistorted.Empty() {
		resized, err := c.undistorted.Resize(width, height)
		if err != nil {
			return fmt.Errorf("compositor: resize: %w", err)
		}
		c.resized = resized
	}
	if err := c.cam.Resize(c.viewport); err != nil {
		return fmt.Errorf("compositor: resize camera: %w", err)
	}

	log.Debug("viewport resized", "width", width, "height", height)
	return nil
}

// Render draws the current frame and the marker scene. Before the first
// frame it does nothing: the renderer and the animation state are left
// untouched and no error is returned. Use HasFrame to tell the cases apart.
func (c *Compositor) Render() error {
	if !c.HasFrame() {
		return nil
	}
	r := c.renderer
	w, h := c.viewport.X, c.viewport.Y

	r.MatrixMode(render.ModelView)
	r.LoadIdentity()
	r.MatrixMode(render.Projection)
	r.LoadIdentity()
	r.Ortho(0, float64(w), 0, float64(h), -1, 1)
	r.Viewport(0, 0, w, h)
	r.Disable(render.Texture2D)
	if err := r.DrawPixels(c.resized, true); err != nil {
		return fmt.Errorf("compositor: draw background: %w", err)
	}

	r.Enable(render.DepthTest)
	proj, err := c.cam.ProjectionMatrix(c.resized.Size(), c.viewport, Near, Far)
	if err != nil {
		r.Disable(render.DepthTest)
		return fmt.Errorf("compositor: projection: %w", err)
	}
	r.MatrixMode(render.Projection)
	r.LoadIdentity()
	r.LoadMatrix(proj)
	r.Disable(render.DepthTest)

	anchor, orbiter := c.opts.Roles.Assign(c.markers)
	if anchor >= 0 {
		c.anchorPos = c.markers[anchor].Position()
	}

	for i, m := range c.markers {
		r.MatrixMode(render.ModelView)
		r.LoadIdentity()
		r.LoadMatrix(m.Pose)
		r.Translate(0, 0, c.markerSize/2)
		r.PushMatrix()
		r.Color(0.2*float64(i), 0.5, 0.8)

		if i == anchor {
			c.spinningSphere(c.markerSize)
		}
		if i == orbiter && anchor >= 0 {
			c.orbit(m)
		}

		c.spinningSphere(c.markerSize*0.3 + 0.02*float64(i))
		r.PopMatrix()
	}

	r.Disable(render.DepthTest)
	c.stats.Renders++
	return nil
}

// orbit draws the satellite sphere around the anchor and advances the orbit.
func (c *Compositor) orbit(m marker.Marker) {
	r := c.renderer
	c.orbiterPos = m.Position()
	c.orbitRadius = c.anchorPos.Distance(c.orbiterPos)
	debug.MarkerLog("orbit", "radius", c.orbitRadius, "angle", c.orbitAngle)

	r.PushMatrix()
	r.Translate(c.anchorPos.X, c.anchorPos.Y, c.anchorPos.Z)
	r.Rotate(c.orbitAngle, 0, 0, 1)
	r.Translate(c.orbitRadius, 0, 0)
	c.spinningSphere(c.markerSize * 0.5)
	r.PopMatrix()

	c.orbitAngle++
	if c.orbitAngle >= 360 {
		c.orbitAngle = 0
	}
	c.stats.Orbits++
}

func (c *Compositor) spinningSphere(radius float64) {
	r := c.renderer
	r.PushMatrix()
	r.Rotate(c.spinAngle, 0, 1, 0)
	r.Sphere(radius, SphereSlices, SphereStacks)
	r.PopMatrix()
}

// HasFrame reports whether a frame has been ingested and resized, i.e.
// whether Render will draw anything.
func (c *Compositor) HasFrame() bool {
	return c.resized != nil && !c.resized.Empty()
}

// HasMarker reports whether index names a marker of the latest detection.
func (c *Compositor) HasMarker(index int) bool {
	return index >= 0 && index < len(c.markers)
}

// Draw3DCube stamps a wireframe cube on img at marker index's pose. An index
// outside the latest detection leaves img untouched.
func (c *Compositor) Draw3DCube(img *frame.Frame, index int) error {
	if !c.HasMarker(index) {
		return nil
	}
	return c.opts.Drawer.Draw3DCube(img, c.markers[index], c.cam, c.markerSize)
}

// Draw3DAxis stamps the marker's axis triad on img. An index outside the
// latest detection leaves img untouched.
func (c *Compositor) Draw3DAxis(img *frame.Frame, index int) error {
	if !c.HasMarker(index) {
		return nil
	}
	return c.opts.Drawer.Draw3DAxis(img, c.markers[index], c.cam, c.markerSize)
}

// Viewport returns the current (aligned) viewport size.
func (c *Compositor) Viewport() image.Point { return c.viewport }

// Camera returns a copy of the camera model at its current resolution.
func (c *Compositor) Camera() camera.Model { return c.cam }

// MarkerSize returns the marker side length in scene units.
func (c *Compositor) MarkerSize() float64 { return c.markerSize }

// SpinAngle returns the sphere spin angle in degrees.
func (c *Compositor) SpinAngle() float64 { return c.spinAngle }

// OrbitAngle returns the satellite's orbit phase in degrees.
func (c *Compositor) OrbitAngle() float64 { return c.orbitAngle }

// OrbitRadius returns the anchor-orbiter distance of the last orbit drawn.
func (c *Compositor) OrbitRadius() float64 { return c.orbitRadius }

// AnchorPosition and OrbiterPosition return the last recorded positions.
func (c *Compositor) AnchorPosition() r3.Vector  { return c.anchorPos }
func (c *Compositor) OrbiterPosition() r3.Vector { return c.orbiterPos }

// Markers returns a copy of the markers found in the last frame.
func (c *Compositor) Markers() []marker.Marker {
	out := make([]marker.Marker, len(c.markers))
	copy(out, c.markers)
	return out
}

// Buffers returns the current frame buffers.
func (c *Compositor) Buffers() Buffers {
	return Buffers{Raw: c.raw, Undistorted: c.undistorted, Resized: c.resized}
}

// Stats returns activity counters.
func (c *Compositor) Stats() Stats { return c.stats }

// SetUndistort toggles lens correction. Enabling it requires an Undistorter.
func (c *Compositor) SetUndistort(on bool) error {
	if on && c.opts.Undistorter == nil {
		return ErrNoUndistorter
	}
	c.opts.Undistort = on
	return nil
}

// Roles returns the active role assignment.
func (c *Compositor) Roles() marker.Roles { return c.opts.Roles }

// Undistorting reports whether lens correction is enabled.
func (c *Compositor) Undistorting() bool { return c.opts.Undistort }

// SetRoles changes how the anchor and orbiter are chosen.
func (c *Compositor) SetRoles(roles marker.Roles) {
	if roles.Mode == "" {
		roles = marker.PositionalRoles()
	}
	c.opts.Roles = roles
}
