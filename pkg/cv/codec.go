package cv

import (
	"fmt"

	"github.com/teslashibe/go-arucogl/pkg/frame"
	"gocv.io/x/gocv"
)

// DecodeJPEG decodes JPEG or PNG bytes into a BGR frame.
func DecodeJPEG(data []byte) (*frame.Frame, error) {
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()
	return FrameFromMat(img)
}

// ReadImage loads an image file into a BGR frame.
func ReadImage(path string) (*frame.Frame, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("cv: read %s: %w", path, ErrEmptyMat)
	}
	return FrameFromMat(img)
}

// EncodeJPEG compresses f at quality (1-100). RGB frames are swapped to BGR
// first so the colours survive OpenCV's BGR convention.
func EncodeJPEG(f *frame.Frame, quality int) ([]byte, error) {
	src := f
	if f.Order == frame.RGB {
		src = f.Clone()
		swapRB(src)
	}

	mat, err := MatFromFrame(src)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

func swapRB(f *frame.Frame) {
	for i := 0; i+2 < len(f.Pix); i += frame.BytesPerPixel {
		f.Pix[i], f.Pix[i+2] = f.Pix[i+2], f.Pix[i]
	}
	f.Order = frame.BGR
}
