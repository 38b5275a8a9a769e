// Package frame holds the packed 8-bit three-channel buffers that move
// between capture, detection and rendering.
package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// ChannelOrder is the byte order of one pixel.
type ChannelOrder int

const (
	// BGR is the capture order used by OpenCV.
	BGR ChannelOrder = iota
	// RGB is the order the renderer expects.
	RGB
)

func (o ChannelOrder) String() string {
	if o == RGB {
		return "rgb"
	}
	return "bgr"
}

// BytesPerPixel is fixed: frames are always three 8-bit channels.
const BytesPerPixel = 3

var (
	// ErrAlreadyRGB is returned when a frame is converted to RGB twice.
	ErrAlreadyRGB = errors.New("frame: already in rgb order")

	// ErrInvalidSize is returned for non-positive dimensions.
	ErrInvalidSize = errors.New("frame: invalid size")

	// ErrShortBuffer is returned when pixel data does not cover the frame.
	ErrShortBuffer = errors.New("frame: pixel buffer too short")
)

// Frame is a packed image. Rows are Width*3 bytes with no padding.
type Frame struct {
	Width  int
	Height int
	Order  ChannelOrder
	Pix    []byte
}

// New allocates a black frame.
func New(width, height int, order ChannelOrder) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &Frame{
		Width:  width,
		Height: height,
		Order:  order,
		Pix:    make([]byte, width*height*BytesPerPixel),
	}, nil
}

// Wrap builds a frame around existing packed pixel data without copying.
func Wrap(width, height int, order ChannelOrder, pix []byte) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if len(pix) < width*height*BytesPerPixel {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrShortBuffer, len(pix), width*height*BytesPerPixel)
	}
	return &Frame{Width: width, Height: height, Order: order, Pix: pix}, nil
}

// FromImage copies any image into an RGB frame.
func FromImage(img image.Image) (*Frame, error) {
	b := img.Bounds()
	f, err := New(b.Dx(), b.Dy(), RGB)
	if err != nil {
		return nil, err
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	f.packRGBA(rgba)
	return f, nil
}

// Stride is the number of bytes in one row.
func (f *Frame) Stride() int {
	return f.Width * BytesPerPixel
}

// Size returns the frame dimensions as a point.
func (f *Frame) Size() image.Point {
	return image.Pt(f.Width, f.Height)
}

// Empty reports whether the frame holds no pixels.
func (f *Frame) Empty() bool {
	return f == nil || f.Width == 0 || f.Height == 0 || len(f.Pix) == 0
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	pix := make([]byte, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{Width: f.Width, Height: f.Height, Order: f.Order, Pix: pix}
}

// ToRGB swaps BGR pixels to RGB in place. A frame that is already RGB is left
// untouched and ErrAlreadyRGB is returned so a double conversion is visible.
func (f *Frame) ToRGB() error {
	if f.Order == RGB {
		return ErrAlreadyRGB
	}
	for i := 0; i+2 < len(f.Pix); i += BytesPerPixel {
		f.Pix[i], f.Pix[i+2] = f.Pix[i+2], f.Pix[i]
	}
	f.Order = RGB
	return nil
}

// Resize returns a bilinear-scaled copy with the same channel order.
func (f *Frame) Resize(width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if width == f.Width && height == f.Height {
		return f.Clone(), nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), f, f.Bounds(), draw.Src, nil)

	out, err := New(width, height, f.Order)
	if err != nil {
		return nil, err
	}
	out.packRGBA(dst)
	if f.Order == BGR {
		// At() decoded to RGB, so swap back to keep the source order.
		for i := 0; i+2 < len(out.Pix); i += BytesPerPixel {
			out.Pix[i], out.Pix[i+2] = out.Pix[i+2], out.Pix[i]
		}
	}
	return out, nil
}

// Equal reports whether two frames have identical size, order and pixels.
func (f *Frame) Equal(o *Frame) bool {
	if f == nil || o == nil {
		return f == o
	}
	if f.Width != o.Width || f.Height != o.Height || f.Order != o.Order || len(f.Pix) != len(o.Pix) {
		return false
	}
	for i := range f.Pix {
		if f.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// RGBA converts the frame to an *image.RGBA regardless of channel order.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	r, b := 0, 2
	if f.Order == BGR {
		r, b = 2, 0
	}
	for y := 0; y < f.Height; y++ {
		src := f.Pix[y*f.Stride():]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < f.Width; x++ {
			s := x * BytesPerPixel
			d := x * 4
			dst[d] = src[s+r]
			dst[d+1] = src[s+1]
			dst[d+2] = src[s+b]
			dst[d+3] = 0xff
		}
	}
	return img
}

// CopyFrom overwrites the frame pixels from an image of the same size,
// keeping the frame's channel order.
func (f *Frame) CopyFrom(img image.Image) error {
	b := img.Bounds()
	if b.Dx() != f.Width || b.Dy() != f.Height {
		return fmt.Errorf("%w: %dx%d into %dx%d", ErrInvalidSize, b.Dx(), b.Dy(), f.Width, f.Height)
	}
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	f.packRGBA(rgba)
	if f.Order == BGR {
		for i := 0; i+2 < len(f.Pix); i += BytesPerPixel {
			f.Pix[i], f.Pix[i+2] = f.Pix[i+2], f.Pix[i]
		}
	}
	return nil
}

func (f *Frame) packRGBA(img *image.RGBA) {
	b := img.Bounds()
	for y := 0; y < f.Height; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := f.Pix[y*f.Stride():]
		for x := 0; x < f.Width; x++ {
			dst[x*3] = src[x*4]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
}

// ColorModel implements image.Image.
func (f *Frame) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// At implements image.Image. Pixels are decoded to RGB whatever the order.
func (f *Frame) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return color.RGBA{}
	}
	i := y*f.Stride() + x*BytesPerPixel
	if f.Order == BGR {
		return color.RGBA{R: f.Pix[i+2], G: f.Pix[i+1], B: f.Pix[i], A: 0xff}
	}
	return color.RGBA{R: f.Pix[i], G: f.Pix[i+1], B: f.Pix[i+2], A: 0xff}
}
