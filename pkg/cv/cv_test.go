package cv

import (
	"image"
	"reflect"
	"testing"

	"github.com/teslashibe/go-arucogl/pkg/camera"
	"github.com/teslashibe/go-arucogl/pkg/frame"
	"github.com/teslashibe/go-arucogl/pkg/marker"
	"gocv.io/x/gocv"
)

func gradient(t *testing.T, w, h int, order frame.ChannelOrder) *frame.Frame {
	t.Helper()
	f, err := frame.New(w, h, order)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*f.Stride() + x*3
			f.Pix[i] = byte(x * 4)
			f.Pix[i+1] = byte(y * 4)
			f.Pix[i+2] = 128
		}
	}
	return f
}

func TestMatFrameRoundTrip(t *testing.T) {
	in := gradient(t, 32, 24, frame.BGR)

	mat, err := MatFromFrame(in)
	if err != nil {
		t.Fatalf("MatFromFrame: %v", err)
	}
	defer mat.Close()

	if mat.Cols() != 32 || mat.Rows() != 24 || mat.Channels() != 3 {
		t.Fatalf("mat = %dx%dx%d", mat.Cols(), mat.Rows(), mat.Channels())
	}

	out, err := FrameFromMat(mat)
	if err != nil {
		t.Fatalf("FrameFromMat: %v", err)
	}
	if !out.Equal(in) {
		t.Error("round trip changed pixels")
	}
}

func TestMatFromFrame_Empty(t *testing.T) {
	mat, err := MatFromFrame(&frame.Frame{})
	defer mat.Close()
	if err != ErrEmptyMat {
		t.Errorf("err = %v, want ErrEmptyMat", err)
	}
}

func TestJPEGRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		order frame.ChannelOrder
	}{
		{"bgr", frame.BGR},
		{"rgb", frame.RGB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := gradient(t, 64, 48, tt.order)
			data, err := EncodeJPEG(in, 95)
			if err != nil {
				t.Fatalf("EncodeJPEG: %v", err)
			}
			if in.Order != tt.order {
				t.Error("EncodeJPEG changed the input order")
			}

			out, err := DecodeJPEG(data)
			if err != nil {
				t.Fatalf("DecodeJPEG: %v", err)
			}
			if out.Size() != image.Pt(64, 48) || out.Order != frame.BGR {
				t.Fatalf("decoded %v %v", out.Size(), out.Order)
			}

			// Blue channel of the source lands in the BGR blue slot.
			wantB := in.Pix[0]
			if tt.order == frame.RGB {
				wantB = in.Pix[2]
			}
			if d := int(out.Pix[0]) - int(wantB); d < -12 || d > 12 {
				t.Errorf("blue = %d, want ~%d", out.Pix[0], wantB)
			}
		})
	}
}

func TestDecodeJPEG_Garbage(t *testing.T) {
	if _, err := DecodeJPEG([]byte("not an image")); err == nil {
		t.Error("expected error")
	}
}

func TestNewArucoDetector_Dictionaries(t *testing.T) {
	if _, err := NewArucoDetector(marker.Config{Dictionary: "bogus"}); err == nil {
		t.Error("unknown dictionary accepted")
	}

	for _, name := range []string{"aruco_original", "4x4_50", "6x6_250"} {
		d, err := NewArucoDetector(marker.Config{Dictionary: name})
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		d.Close()
	}

	names := Dictionaries()
	if len(names) == 0 || names[0] > names[len(names)-1] {
		t.Errorf("Dictionaries() = %v", names)
	}
}

func TestArucoDetector_BlankImage(t *testing.T) {
	d, err := NewArucoDetector(marker.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	img := gradient(t, 64, 48, frame.RGB)
	cam := camera.Model{Fx: 60, Fy: 60, Cx: 32, Cy: 24, Size: image.Pt(64, 48)}

	markers, err := d.Detect(img, cam, 0.1)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(markers) != 0 {
		t.Errorf("found %d markers in a gradient", len(markers))
	}

	cam.Size = image.Pt(32, 24)
	if _, err := d.Detect(img, cam, 0.1); err == nil {
		t.Error("size mismatch not reported")
	}
}

// boardImage renders ArUco marker id of dict on a white 200x200 canvas.
func boardImage(t *testing.T, dict gocv.ArucoDictionaryCode, id int) *frame.Frame {
	t.Helper()
	tag := gocv.NewMat()
	defer tag.Close()
	gocv.ArucoGenerateImageMarker(dict, id, 100, &tag, 1)

	canvas := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 200, 200, gocv.MatTypeCV8U)
	defer canvas.Close()
	roi := canvas.Region(image.Rect(50, 50, 150, 150))
	tag.CopyTo(&roi)
	roi.Close()

	f, err := FrameFromMat(canvas)
	if err != nil {
		t.Fatalf("FrameFromMat: %v", err)
	}
	return f
}

func TestArucoDetector_Idempotent(t *testing.T) {
	d, err := NewArucoDetector(marker.Config{Dictionary: "4x4_50", MinPerimeter: 40})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	img := boardImage(t, gocv.ArucoDict4x4_50, 7)
	before := img.Clone()
	cam := camera.Model{Fx: 200, Fy: 200, Cx: 100, Cy: 100, Size: image.Pt(200, 200)}

	first, err := d.Detect(img, cam, 0.05)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(first) != 1 || first[0].ID != 7 {
		t.Fatalf("first detection = %+v, want marker 7", first)
	}

	second, err := d.Detect(img, cam, 0.05)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("detections differ:\n%+v\n%+v", first, second)
	}
	if !img.Equal(before) {
		t.Error("Detect modified its input")
	}
}

func TestUndistorter_ZeroDistortionKeepsImage(t *testing.T) {
	in := gradient(t, 64, 48, frame.RGB)
	cam := camera.Model{Fx: 60, Fy: 60, Cx: 32, Cy: 24, Distortion: []float64{0, 0, 0, 0, 0}, Size: image.Pt(64, 48)}

	out, err := Undistorter{}.Undistort(in, cam)
	if err != nil {
		t.Fatalf("Undistort: %v", err)
	}
	if out.Order != frame.RGB || out.Size() != in.Size() {
		t.Fatalf("got %v %v", out.Order, out.Size())
	}
	// Interior pixels are unchanged when there is nothing to correct.
	i := 20*in.Stride() + 30*3
	if d := int(out.Pix[i]) - int(in.Pix[i]); d < -2 || d > 2 {
		t.Errorf("pixel moved: %d vs %d", out.Pix[i], in.Pix[i])
	}

	var _ camera.Undistorter = Undistorter{}
	var _ marker.Detector = (*ArucoDetector)(nil)
}
