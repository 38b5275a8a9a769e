package marker

import (
	"errors"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-arucogl/pkg/camera"
)

func testCamera() camera.Model {
	return camera.Model{Fx: 600, Fy: 600, Cx: 320, Cy: 240, Size: image.Pt(640, 480)}
}

// projectCorners renders the marker square through pose, clockwise from
// top-left.
func projectCorners(t *testing.T, cam camera.Model, pose mgl64.Mat4, size float64) [4]Point {
	t.Helper()
	h := size / 2
	obj := [4]mgl64.Vec3{{-h, h, 0}, {h, h, 0}, {h, -h, 0}, {-h, -h, 0}}

	var out [4]Point
	for i, p := range obj {
		u, v, ok := cam.Project(pose, p)
		if !ok {
			t.Fatalf("corner %d behind camera", i)
		}
		out[i] = Point{X: u, Y: v}
	}
	return out
}

func TestEstimatePose_RecoversPose(t *testing.T) {
	cam := testCamera()
	const size = 0.08

	tests := []struct {
		name string
		pose mgl64.Mat4
	}{
		{"facing camera", mgl64.Translate3D(0, 0, -0.5)},
		{"offset", mgl64.Translate3D(0.1, -0.05, -0.8)},
		{"tilted", mgl64.Translate3D(-0.05, 0.02, -0.6).Mul4(mgl64.HomogRotate3DX(0.4)).Mul4(mgl64.HomogRotate3DY(-0.3))},
		{"rolled", mgl64.Translate3D(0, 0.03, -1.2).Mul4(mgl64.HomogRotate3DZ(1.1))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			corners := projectCorners(t, cam, tc.pose, size)

			got, err := EstimatePose(corners, cam, size)
			if err != nil {
				t.Fatalf("EstimatePose: %v", err)
			}
			if !got.ApproxEqualThreshold(tc.pose, 1e-6) {
				t.Errorf("pose mismatch\n got: %v\nwant: %v", got, tc.pose)
			}
		})
	}
}

func TestEstimatePose_ZAxisFacesCamera(t *testing.T) {
	cam := testCamera()
	pose := mgl64.Translate3D(0, 0, -0.5)
	got, err := EstimatePose(projectCorners(t, cam, pose, 0.1), cam, 0.1)
	if err != nil {
		t.Fatal(err)
	}

	// Translating along the marker's +Z must move towards the camera.
	lifted := got.Mul4(mgl64.Translate3D(0, 0, 0.05))
	if lifted[14] <= got[14] {
		t.Errorf("+Z lift moved away from camera: z %v -> %v", got[14], lifted[14])
	}
}

func TestEstimatePose_Errors(t *testing.T) {
	cam := testCamera()
	square := [4]Point{{300, 200}, {340, 200}, {340, 240}, {300, 240}}
	collapsed := [4]Point{{300, 200}, {300, 200}, {300, 200}, {300, 200}}

	if _, err := EstimatePose(square, camera.Model{}, 0.1); !errors.Is(err, camera.ErrNotCalibrated) {
		t.Errorf("uncalibrated: got %v", err)
	}
	if _, err := EstimatePose(square, cam, 0); err == nil {
		t.Error("zero size should fail")
	}
	if _, err := EstimatePose(collapsed, cam, 0.1); !errors.Is(err, ErrDegenerate) {
		t.Errorf("collapsed quad: got %v, want ErrDegenerate", err)
	}
}
