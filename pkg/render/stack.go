package render

import (
	"github.com/go-gl/mathgl/mgl64"
)

// MatrixStack holds the projection and model-view stacks. Transform calls
// post-multiply the top of the selected stack.
type MatrixStack struct {
	mode   MatrixMode
	stacks [2][]mgl64.Mat4
}

// NewMatrixStack returns stacks holding a single identity each, in
// model-view mode.
func NewMatrixStack() *MatrixStack {
	s := &MatrixStack{}
	s.Reset()
	return s
}

// Reset restores both stacks to a single identity.
func (s *MatrixStack) Reset() {
	s.mode = ModelView
	s.stacks[ModelView] = []mgl64.Mat4{mgl64.Ident4()}
	s.stacks[Projection] = []mgl64.Mat4{mgl64.Ident4()}
}

// MatrixMode selects the stack for later calls.
func (s *MatrixStack) MatrixMode(mode MatrixMode) {
	s.mode = mode
}

// Mode returns the selected stack.
func (s *MatrixStack) Mode() MatrixMode {
	return s.mode
}

func (s *MatrixStack) top() *mgl64.Mat4 {
	st := s.stacks[s.mode]
	return &st[len(st)-1]
}

// LoadIdentity replaces the top of the current stack with identity.
func (s *MatrixStack) LoadIdentity() {
	*s.top() = mgl64.Ident4()
}

// LoadMatrix replaces the top of the current stack.
func (s *MatrixStack) LoadMatrix(m mgl64.Mat4) {
	*s.top() = m
}

// PushMatrix duplicates the top of the current stack.
func (s *MatrixStack) PushMatrix() {
	s.stacks[s.mode] = append(s.stacks[s.mode], *s.top())
}

// PopMatrix discards the top of the current stack. The last matrix is never
// popped.
func (s *MatrixStack) PopMatrix() {
	st := s.stacks[s.mode]
	if len(st) > 1 {
		s.stacks[s.mode] = st[:len(st)-1]
	}
}

// Translate post-multiplies a translation.
func (s *MatrixStack) Translate(x, y, z float64) {
	s.mul(mgl64.Translate3D(x, y, z))
}

// Rotate post-multiplies a rotation of angle degrees about (x, y, z).
func (s *MatrixStack) Rotate(angle, x, y, z float64) {
	axis := mgl64.Vec3{x, y, z}
	if axis.Len() == 0 {
		return
	}
	s.mul(mgl64.HomogRotate3D(mgl64.DegToRad(angle), axis.Normalize()))
}

// Ortho post-multiplies an orthographic projection.
func (s *MatrixStack) Ortho(left, right, bottom, top, near, far float64) {
	s.mul(mgl64.Ortho(left, right, bottom, top, near, far))
}

func (s *MatrixStack) mul(m mgl64.Mat4) {
	t := s.top()
	*t = t.Mul4(m)
}

// Current returns the top of the given stack.
func (s *MatrixStack) Current(mode MatrixMode) mgl64.Mat4 {
	st := s.stacks[mode]
	return st[len(st)-1]
}

// Depth returns the number of matrices on the given stack.
func (s *MatrixStack) Depth(mode MatrixMode) int {
	return len(s.stacks[mode])
}
