package render

import (
	"fmt"
	"image"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gg"
	"github.com/teslashibe/go-arucogl/internal/log"
	"github.com/teslashibe/go-arucogl/pkg/frame"
)

// Software rasterises the compositor's calls into an RGBA image with gg.
// Spheres are drawn as shaded discs at their projected position and size,
// with a marker dot on the equator so spin stays visible. Primitives are
// painted in call order; depth testing is tracked but not applied.
//
// The first rasteriser error of a frame is kept and returned by Err and by
// the encoders until the next DrawPixels starts a new frame.
type Software struct {
	*MatrixStack

	viewport image.Rectangle
	color    [3]float64
	caps     map[Capability]bool
	dc       *gg.Context
	err      error

	fill func(dc *gg.Context) error
}

// NewSoftware creates a renderer with a width x height viewport.
func NewSoftware(width, height int) *Software {
	return &Software{
		MatrixStack: NewMatrixStack(),
		viewport:    image.Rect(0, 0, width, height),
		color:       [3]float64{1, 1, 1},
		caps:        make(map[Capability]bool),
		fill:        (*gg.Context).Fill,
	}
}

// Viewport sets the output rectangle; y is measured from the bottom edge.
func (s *Software) Viewport(x, y, width, height int) {
	s.viewport = image.Rect(x, y, x+width, y+height)
}

// Enable turns a capability on.
func (s *Software) Enable(c Capability) {
	s.caps[c] = true
}

// Disable turns a capability off.
func (s *Software) Disable(c Capability) {
	s.caps[c] = false
}

// Enabled reports a capability's state.
func (s *Software) Enabled(c Capability) bool {
	return s.caps[c]
}

// Color sets the primitive colour.
func (s *Software) Color(r, g, b float64) {
	s.color = [3]float64{clamp01(r), clamp01(g), clamp01(b)}
}

// DrawPixels starts a new output image from img.
func (s *Software) DrawPixels(img *frame.Frame, flipY bool) error {
	w, h := s.viewport.Dx(), s.viewport.Dy()
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))

	src := img.RGBA()
	rows := min(h, img.Height)
	cols := min(w, img.Width)
	for y := 0; y < rows; y++ {
		sy := y
		if !flipY {
			sy = img.Height - 1 - y
		}
		copy(canvas.Pix[canvas.PixOffset(0, y):canvas.PixOffset(cols, y)], src.Pix[src.PixOffset(0, sy):src.PixOffset(cols, sy)])
	}

	if s.dc != nil {
		s.dc.Close()
	}
	s.dc = gg.NewContextForImage(canvas)
	s.err = nil
	return nil
}

// Sphere draws a shaded disc for a sphere at the model-view origin.
func (s *Software) Sphere(radius float64, slices, stacks int) {
	dc := s.context()
	mv := s.Current(ModelView)
	proj := s.Current(Projection)

	center := mv.Mul4x1(mgl64.Vec4{0, 0, 0, 1})
	cx, cy, ok := s.toWindow(proj.Mul4x1(center))
	if !ok {
		return
	}
	ex, ey, ok := s.toWindow(proj.Mul4x1(center.Add(mgl64.Vec4{radius, 0, 0, 0})))
	if !ok {
		return
	}
	r := math.Hypot(ex-cx, ey-cy)
	if r < 0.5 {
		return
	}

	c := s.color
	dc.SetRGB(c[0], c[1], c[2])
	dc.DrawCircle(cx, cy, r)
	s.paint(dc)

	// Specular-ish highlight towards the upper left.
	dc.SetRGBA(mix(c[0], 1, 0.5), mix(c[1], 1, 0.5), mix(c[2], 1, 0.5), 0.6)
	dc.DrawCircle(cx-r*0.35, cy-r*0.35, r*0.3)
	s.paint(dc)

	// Equator dot: rotates with the model-view, hidden on the far side.
	dot := mv.Mul4x1(mgl64.Vec4{radius * 0.8, 0, 0, 1})
	if dot[2] > center[2] {
		if dx, dy, ok := s.toWindow(proj.Mul4x1(dot)); ok {
			dc.SetRGB(c[0]*0.4, c[1]*0.4, c[2]*0.4)
			dc.DrawCircle(dx, dy, math.Max(1, r*0.12))
			s.paint(dc)
		}
	}
}

// paint fills the current path, keeping the first failure of the frame.
func (s *Software) paint(dc *gg.Context) {
	err := s.fill(dc)
	if err == nil || s.err != nil {
		return
	}
	s.err = fmt.Errorf("render: fill: %w", err)
	log.Warn("software renderer fill failed", "error", err)
}

// Err returns the first drawing error since the last DrawPixels.
func (s *Software) Err() error {
	return s.err
}

// toWindow maps clip coordinates to top-down canvas pixels.
func (s *Software) toWindow(clip mgl64.Vec4) (x, y float64, ok bool) {
	if clip[3] <= 1e-9 {
		return 0, 0, false
	}
	ndcX, ndcY := clip[0]/clip[3], clip[1]/clip[3]
	vw, vh := float64(s.viewport.Dx()), float64(s.viewport.Dy())
	x = float64(s.viewport.Min.X) + (ndcX+1)/2*vw
	wy := float64(s.viewport.Min.Y) + (ndcY+1)/2*vh
	return x, s.canvasHeight() - wy, true
}

func (s *Software) canvasHeight() float64 {
	if s.dc != nil {
		return float64(s.dc.Height())
	}
	return float64(s.viewport.Dy())
}

func (s *Software) context() *gg.Context {
	if s.dc == nil {
		s.dc = gg.NewContext(s.viewport.Dx(), s.viewport.Dy())
	}
	return s.dc
}

// Image returns the composited output, or nil before anything was drawn.
func (s *Software) Image() image.Image {
	if s.dc == nil {
		return nil
	}
	return s.dc.Image()
}

// EncodeJPEG writes the composited output as JPEG. It fails without writing
// if drawing the frame failed.
func (s *Software) EncodeJPEG(w io.Writer, quality int) error {
	if s.err != nil {
		return s.err
	}
	return s.context().EncodeJPEG(w, quality)
}

// EncodePNG writes the composited output as PNG. It fails without writing
// if drawing the frame failed.
func (s *Software) EncodePNG(w io.Writer) error {
	if s.err != nil {
		return s.err
	}
	return s.context().EncodePNG(w)
}

// Close releases the drawing context.
func (s *Software) Close() error {
	if s.dc == nil {
		return nil
	}
	err := s.dc.Close()
	s.dc = nil
	return err
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func mix(a, b, t float64) float64 {
	return a + (b-a)*t
}
