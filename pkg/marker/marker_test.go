package marker

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-arucogl/pkg/camera"
	"github.com/teslashibe/go-arucogl/pkg/frame"
)

func TestMarker_Position(t *testing.T) {
	m := Marker{Pose: mgl64.Translate3D(3, -1, -2)}
	p := m.Position()
	if p.X != 3 || p.Y != -1 || p.Z != -2 {
		t.Errorf("Position = %v, want (3, -1, -2)", p)
	}
}

func TestMarker_CenterAndPerimeter(t *testing.T) {
	m := Marker{Corners: [4]Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}}

	c := m.Center()
	if c.X != 5 || c.Y != 5 {
		t.Errorf("Center = %+v, want (5, 5)", c)
	}
	if p := m.Perimeter(); math.Abs(p-40) > 1e-9 {
		t.Errorf("Perimeter = %v, want 40", p)
	}
}

func TestRoles_Assign(t *testing.T) {
	markers := []Marker{{ID: 7}, {ID: 3}, {ID: 12}}

	tests := []struct {
		name        string
		roles       Roles
		markers     []Marker
		wantAnchor  int
		wantOrbiter int
	}{
		{"positional none", PositionalRoles(), nil, -1, -1},
		{"positional one", PositionalRoles(), markers[:1], 0, -1},
		{"positional many", PositionalRoles(), markers, 0, 1},
		{"by id", Roles{Mode: camera.RolesByID, AnchorID: 12, OrbiterID: 7}, markers, 2, 0},
		{"by id missing orbiter", Roles{Mode: camera.RolesByID, AnchorID: 3, OrbiterID: 99}, markers, 1, -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, o := tc.roles.Assign(tc.markers)
			if a != tc.wantAnchor || o != tc.wantOrbiter {
				t.Errorf("Assign = (%d, %d), want (%d, %d)", a, o, tc.wantAnchor, tc.wantOrbiter)
			}
		})
	}
}

func TestOverlay_DrawsOnImage(t *testing.T) {
	cam := testCamera()
	m := Marker{ID: 1, Pose: mgl64.Translate3D(0, 0, -0.5)}

	for name, draw := range map[string]func(Overlay, *frame.Frame) error{
		"cube": func(o Overlay, f *frame.Frame) error { return o.Draw3DCube(f, m, cam, 0.1) },
		"axis": func(o Overlay, f *frame.Frame) error { return o.Draw3DAxis(f, m, cam, 0.1) },
	} {
		t.Run(name, func(t *testing.T) {
			img, _ := frame.New(640, 480, frame.BGR)
			blank := img.Clone()

			if err := draw(Overlay{LineWidth: 3}, img); err != nil {
				t.Fatalf("draw: %v", err)
			}
			if img.Equal(blank) {
				t.Error("overlay left the image unchanged")
			}
			if img.Order != frame.BGR {
				t.Errorf("order changed to %v", img.Order)
			}
		})
	}
}

func TestOverlay_Uncalibrated(t *testing.T) {
	img, _ := frame.New(8, 8, frame.RGB)
	err := Overlay{}.Draw3DAxis(img, Marker{Pose: mgl64.Ident4()}, camera.Model{}, 1)
	if !errors.Is(err, camera.ErrNotCalibrated) {
		t.Errorf("got %v, want ErrNotCalibrated", err)
	}
}

func TestStaticDetector(t *testing.T) {
	d := NewStaticDetector(Marker{ID: 4})
	img, _ := frame.New(4, 4, frame.RGB)

	got, err := d.Detect(img, testCamera(), 0.1)
	if err != nil || len(got) != 1 || got[0].ID != 4 {
		t.Fatalf("Detect = %v, %v", got, err)
	}

	got[0].ID = 99
	again, _ := d.Detect(img, testCamera(), 0.1)
	if again[0].ID != 4 {
		t.Error("Detect should return a copy of the configured markers")
	}

	boom := errors.New("boom")
	d.SetError(boom)
	if _, err := d.Detect(img, testCamera(), 0.1); !errors.Is(err, boom) {
		t.Errorf("got %v, want boom", err)
	}
	if d.Calls() != 3 {
		t.Errorf("Calls = %d, want 3", d.Calls())
	}
}

func TestFindByID(t *testing.T) {
	ms := []Marker{{ID: 1}, {ID: 2}}
	if FindByID(ms, 2) != 1 || FindByID(ms, 5) != -1 {
		t.Error("FindByID returned the wrong index")
	}
}
