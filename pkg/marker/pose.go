package marker

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-arucogl/pkg/camera"
)

// ErrDegenerate is returned when the corner quad cannot define a pose.
var ErrDegenerate = errors.New("marker: degenerate corner geometry")

// EstimatePose recovers the marker pose from its four image corners.
//
// The corner quad defines a plane-to-image homography; with the intrinsics
// removed its first two columns are the marker X/Y axes and the third is the
// translation, all up to one scale. The rotation is re-orthonormalised and the
// result converted from the camera's Y-down/Z-forward frame to Y-up/-Z.
func EstimatePose(corners [4]Point, cam camera.Model, size float64) (mgl64.Mat4, error) {
	if !cam.IsValid() {
		return mgl64.Ident4(), camera.ErrNotCalibrated
	}
	if size <= 0 {
		return mgl64.Ident4(), errors.New("marker: size must be positive")
	}

	// Normalised image coordinates.
	var q [4]Point
	for i, c := range corners {
		q[i] = Point{X: (c.X - cam.Cx) / cam.Fx, Y: (c.Y - cam.Cy) / cam.Fy}
	}

	sq, err := squareToQuad(q)
	if err != nil {
		return mgl64.Ident4(), err
	}

	// Marker plane (X right, Y up, centred) to the unit square with the
	// top-left corner at the origin.
	toUnit := mgl64.Mat3FromRows(
		mgl64.Vec3{1 / size, 0, 0.5},
		mgl64.Vec3{0, -1 / size, 0.5},
		mgl64.Vec3{0, 0, 1},
	)
	h := sq.Mul3(toUnit)

	c1, c2, c3 := h.Col(0), h.Col(1), h.Col(2)
	n1, n2 := c1.Len(), c2.Len()
	if n1 < 1e-12 || n2 < 1e-12 {
		return mgl64.Ident4(), ErrDegenerate
	}
	lambda := 2 / (n1 + n2)
	if c3[2] < 0 {
		// The marker must lie in front of the camera.
		lambda = -lambda
	}

	r1 := c1.Mul(lambda)
	r2 := c2.Mul(lambda)
	t := c3.Mul(lambda)
	r1, r2, r3 := orthonormalize(r1, r2)

	// [R|t] in camera convention, then flip Y and Z rows.
	cv := mgl64.Mat4FromCols(
		r1.Vec4(0),
		r2.Vec4(0),
		r3.Vec4(0),
		t.Vec4(1),
	)
	flip := mgl64.Scale3D(1, -1, -1)
	return flip.Mul4(cv), nil
}

// squareToQuad maps the unit square (0,0),(1,0),(1,1),(0,1) onto q.
func squareToQuad(q [4]Point) (mgl64.Mat3, error) {
	dx1, dy1 := q[1].X-q[2].X, q[1].Y-q[2].Y
	dx2, dy2 := q[3].X-q[2].X, q[3].Y-q[2].Y
	dx3 := q[0].X - q[1].X + q[2].X - q[3].X
	dy3 := q[0].Y - q[1].Y + q[2].Y - q[3].Y

	den := dx1*dy2 - dx2*dy1
	if math.Abs(den) < 1e-15 {
		return mgl64.Mat3{}, ErrDegenerate
	}
	g := (dx3*dy2 - dx2*dy3) / den
	h := (dx1*dy3 - dx3*dy1) / den

	return mgl64.Mat3FromRows(
		mgl64.Vec3{q[1].X - q[0].X + g*q[1].X, q[3].X - q[0].X + h*q[3].X, q[0].X},
		mgl64.Vec3{q[1].Y - q[0].Y + g*q[1].Y, q[3].Y - q[0].Y + h*q[3].Y, q[0].Y},
		mgl64.Vec3{g, h, 1},
	), nil
}

// orthonormalize makes x and y an orthonormal pair and completes the frame
// with z = x cross y.
func orthonormalize(x, y mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3, mgl64.Vec3) {
	x = x.Normalize()
	y = y.Sub(x.Mul(x.Dot(y))).Normalize()
	return x, y, x.Cross(y)
}
