package render

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-arucogl/pkg/frame"
)

// Call is one recorded Renderer call with the transform state in effect
// after it ran.
type Call struct {
	Op         string
	Args       []float64
	Mode       MatrixMode
	ModelView  mgl64.Mat4
	Projection mgl64.Mat4
	Color      [3]float64
}

// Recorder is a Renderer that records every call. It keeps a real matrix
// stack so tests can check where primitives end up.
type Recorder struct {
	*MatrixStack

	mu      sync.Mutex
	calls   []Call
	color   [3]float64
	caps    map[Capability]bool
	drawErr error
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		MatrixStack: NewMatrixStack(),
		caps:        make(map[Capability]bool),
	}
}

// FailDrawPixels makes DrawPixels return err.
func (r *Recorder) FailDrawPixels(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drawErr = err
}

func (r *Recorder) record(op string, args ...float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{
		Op:         op,
		Args:       args,
		Mode:       r.Mode(),
		ModelView:  r.Current(ModelView),
		Projection: r.Current(Projection),
		Color:      r.color,
	})
}

func (r *Recorder) MatrixMode(mode MatrixMode) {
	r.MatrixStack.MatrixMode(mode)
	r.record("MatrixMode", float64(mode))
}

func (r *Recorder) LoadIdentity() {
	r.MatrixStack.LoadIdentity()
	r.record("LoadIdentity")
}

func (r *Recorder) LoadMatrix(m mgl64.Mat4) {
	r.MatrixStack.LoadMatrix(m)
	r.record("LoadMatrix", m[:]...)
}

func (r *Recorder) PushMatrix() {
	r.MatrixStack.PushMatrix()
	r.record("PushMatrix")
}

func (r *Recorder) PopMatrix() {
	r.MatrixStack.PopMatrix()
	r.record("PopMatrix")
}

func (r *Recorder) Translate(x, y, z float64) {
	r.MatrixStack.Translate(x, y, z)
	r.record("Translate", x, y, z)
}

func (r *Recorder) Rotate(angle, x, y, z float64) {
	r.MatrixStack.Rotate(angle, x, y, z)
	r.record("Rotate", angle, x, y, z)
}

func (r *Recorder) Ortho(left, right, bottom, top, near, far float64) {
	r.MatrixStack.Ortho(left, right, bottom, top, near, far)
	r.record("Ortho", left, right, bottom, top, near, far)
}

func (r *Recorder) Viewport(x, y, width, height int) {
	r.record("Viewport", float64(x), float64(y), float64(width), float64(height))
}

func (r *Recorder) Enable(c Capability) {
	r.mu.Lock()
	r.caps[c] = true
	r.mu.Unlock()
	r.record("Enable", float64(c))
}

func (r *Recorder) Disable(c Capability) {
	r.mu.Lock()
	r.caps[c] = false
	r.mu.Unlock()
	r.record("Disable", float64(c))
}

// Enabled reports a capability's state.
func (r *Recorder) Enabled(c Capability) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.caps[c]
}

func (r *Recorder) Color(red, green, blue float64) {
	r.mu.Lock()
	r.color = [3]float64{red, green, blue}
	r.mu.Unlock()
	r.record("Color", red, green, blue)
}

func (r *Recorder) DrawPixels(img *frame.Frame, flipY bool) error {
	flip := 0.0
	if flipY {
		flip = 1
	}
	r.record("DrawPixels", float64(img.Width), float64(img.Height), flip)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drawErr
}

func (r *Recorder) Sphere(radius float64, slices, stacks int) {
	r.record("Sphere", radius, float64(slices), float64(stacks))
}

// Calls returns a copy of all recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Ops returns the recorded calls whose Op is op.
func (r *Recorder) Ops(op string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears recorded calls and transform state.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.MatrixStack.Reset()
}
