package camera

import (
	"fmt"
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Model is a pinhole camera: intrinsics at a given resolution plus lens
// distortion coefficients (k1, k2, p1, p2[, k3]).
type Model struct {
	Fx, Fy     float64
	Cx, Cy     float64
	Distortion []float64
	Size       image.Point
}

// IsValid reports whether the model carries usable intrinsics.
func (m Model) IsValid() bool {
	return m.Fx > 0 && m.Fy > 0 && m.Size.X > 0 && m.Size.Y > 0
}

// Resize rescales the intrinsics to a new image resolution.
func (m *Model) Resize(size image.Point) error {
	if !m.IsValid() {
		return ErrNotCalibrated
	}
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("camera: invalid size %v", size)
	}
	if size == m.Size {
		return nil
	}

	ax := float64(size.X) / float64(m.Size.X)
	ay := float64(size.Y) / float64(m.Size.Y)
	m.Fx *= ax
	m.Cx *= ax
	m.Fy *= ay
	m.Cy *= ay
	m.Size = size
	return nil
}

// Matrix returns the 3x3 intrinsic matrix K.
func (m Model) Matrix() mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{m.Fx, 0, m.Cx},
		mgl64.Vec3{0, m.Fy, m.Cy},
		mgl64.Vec3{0, 0, 1},
	)
}

// ProjectionMatrix builds the renderer projection for an image of imageSize
// shown in a viewport. The model must already be sized to imageSize.
//
// The result expects eye coordinates with Y up and the camera looking down -Z,
// and maps pixel row 0 to the top of the viewport.
func (m Model) ProjectionMatrix(imageSize, viewport image.Point, near, far float64) (mgl64.Mat4, error) {
	if !m.IsValid() {
		return mgl64.Ident4(), ErrNotCalibrated
	}
	if imageSize != m.Size {
		return mgl64.Ident4(), fmt.Errorf("%w: model %v, image %v", ErrSizeMismatch, m.Size, imageSize)
	}
	if viewport.X <= 0 || viewport.Y <= 0 || near <= 0 || far <= near {
		return mgl64.Ident4(), fmt.Errorf("camera: invalid projection viewport %v near %v far %v", viewport, near, far)
	}

	ax := float64(viewport.X) / float64(imageSize.X)
	ay := float64(viewport.Y) / float64(imageSize.Y)
	fx, cx := m.Fx*ax, m.Cx*ax
	fy, cy := m.Fy*ay, m.Cy*ay
	w, h := float64(viewport.X), float64(viewport.Y)

	return mgl64.Mat4FromRows(
		mgl64.Vec4{2 * fx / w, 0, 1 - 2*cx/w, 0},
		mgl64.Vec4{0, 2 * fy / h, 2*cy/h - 1, 0},
		mgl64.Vec4{0, 0, -(far + near) / (far - near), -2 * far * near / (far - near)},
		mgl64.Vec4{0, 0, -1, 0},
	), nil
}

// Project maps a point in marker space through a model-view pose (Y up,
// looking down -Z) to pixel coordinates. ok is false behind the camera.
func (m Model) Project(pose mgl64.Mat4, p mgl64.Vec3) (u, v float64, ok bool) {
	e := pose.Mul4x1(p.Vec4(1))
	if e[2] >= -1e-9 {
		return 0, 0, false
	}
	u = m.Fx*e[0]/(-e[2]) + m.Cx
	v = m.Fy*e[1]/e[2] + m.Cy
	if math.IsNaN(u) || math.IsNaN(v) {
		return 0, 0, false
	}
	return u, v, true
}
