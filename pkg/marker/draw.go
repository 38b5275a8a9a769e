package marker

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gg"
	"github.com/teslashibe/go-arucogl/pkg/camera"
	"github.com/teslashibe/go-arucogl/pkg/frame"
)

type segment struct {
	from, to mgl64.Vec3
	r, g, b  float64
}

// Overlay draws wireframe debug geometry with the gg rasteriser.
type Overlay struct {
	LineWidth float64
}

// Draw3DCube stamps a cube of side size standing on the marker.
func (o Overlay) Draw3DCube(img *frame.Frame, m Marker, cam camera.Model, size float64) error {
	h := size / 2
	base := [4]mgl64.Vec3{{-h, -h, 0}, {h, -h, 0}, {h, h, 0}, {-h, h, 0}}

	var segs []segment
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		top, topNext := base[i].Add(mgl64.Vec3{0, 0, size}), base[j].Add(mgl64.Vec3{0, 0, size})
		segs = append(segs,
			segment{from: base[i], to: base[j], b: 1},
			segment{from: top, to: topNext, b: 1},
			segment{from: base[i], to: top, b: 1},
		)
	}
	return o.stroke(img, m, cam, segs)
}

// Draw3DAxis stamps the marker's X (red), Y (green) and Z (blue) axes.
func (o Overlay) Draw3DAxis(img *frame.Frame, m Marker, cam camera.Model, size float64) error {
	origin := mgl64.Vec3{}
	return o.stroke(img, m, cam, []segment{
		{from: origin, to: mgl64.Vec3{size, 0, 0}, r: 1},
		{from: origin, to: mgl64.Vec3{0, size, 0}, g: 1},
		{from: origin, to: mgl64.Vec3{0, 0, size}, b: 1},
	})
}

func (o Overlay) stroke(img *frame.Frame, m Marker, cam camera.Model, segs []segment) error {
	if !cam.IsValid() {
		return camera.ErrNotCalibrated
	}

	width := o.LineWidth
	if width <= 0 {
		width = 2
	}

	dc := gg.NewContextForImage(img.RGBA())
	defer dc.Close()
	dc.SetLineWidth(width)

	for _, s := range segs {
		x1, y1, ok1 := cam.Project(m.Pose, s.from)
		x2, y2, ok2 := cam.Project(m.Pose, s.to)
		if !ok1 || !ok2 {
			continue
		}
		dc.SetRGB(s.r, s.g, s.b)
		dc.DrawLine(x1, y1, x2, y2)
		if err := dc.Stroke(); err != nil {
			return err
		}
	}

	return img.CopyFrom(dc.Image())
}
