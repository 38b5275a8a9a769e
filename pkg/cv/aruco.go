package cv

import (
	"fmt"
	"sort"
	"sync"

	"github.com/teslashibe/go-arucogl/pkg/camera"
	"github.com/teslashibe/go-arucogl/pkg/debug"
	"github.com/teslashibe/go-arucogl/pkg/frame"
	"github.com/teslashibe/go-arucogl/pkg/marker"
	"gocv.io/x/gocv"
)

var dictionaries = map[string]gocv.ArucoDictionaryCode{
	"4x4_50":         gocv.ArucoDict4x4_50,
	"4x4_100":        gocv.ArucoDict4x4_100,
	"4x4_250":        gocv.ArucoDict4x4_250,
	"4x4_1000":       gocv.ArucoDict4x4_1000,
	"5x5_50":         gocv.ArucoDict5x5_50,
	"5x5_100":        gocv.ArucoDict5x5_100,
	"5x5_250":        gocv.ArucoDict5x5_250,
	"5x5_1000":       gocv.ArucoDict5x5_1000,
	"6x6_50":         gocv.ArucoDict6x6_50,
	"6x6_100":        gocv.ArucoDict6x6_100,
	"6x6_250":        gocv.ArucoDict6x6_250,
	"6x6_1000":       gocv.ArucoDict6x6_1000,
	"7x7_50":         gocv.ArucoDict7x7_50,
	"7x7_100":        gocv.ArucoDict7x7_100,
	"7x7_250":        gocv.ArucoDict7x7_250,
	"7x7_1000":       gocv.ArucoDict7x7_1000,
	"aruco_original": gocv.ArucoDictArucoOriginal,
}

// Dictionaries returns the supported dictionary names, sorted.
func Dictionaries() []string {
	names := make([]string, 0, len(dictionaries))
	for name := range dictionaries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ArucoDetector finds ArUco markers with OpenCV and recovers their pose
// with marker.EstimatePose.
type ArucoDetector struct {
	detector gocv.ArucoDetector
	config   marker.Config
	mu       sync.Mutex // Protects detector
}

// NewArucoDetector creates a detector for cfg.Dictionary.
func NewArucoDetector(cfg marker.Config) (*ArucoDetector, error) {
	code, ok := dictionaries[cfg.Dictionary]
	if !ok {
		return nil, fmt.Errorf("cv: unknown dictionary %q", cfg.Dictionary)
	}

	dict := gocv.GetPredefinedDictionary(code)
	params := gocv.NewArucoDetectorParameters()

	return &ArucoDetector{
		detector: gocv.NewArucoDetectorWithParams(dict, params),
		config:   cfg,
	}, nil
}

// Detect implements marker.Detector. Markers whose pose cannot be recovered
// or whose outline is shorter than MinPerimeter pixels are dropped.
func (d *ArucoDetector) Detect(img *frame.Frame, cam camera.Model, size float64) ([]marker.Marker, error) {
	if cam.Size != img.Size() {
		return nil, fmt.Errorf("%w: camera %v, image %v", camera.ErrSizeMismatch, cam.Size, img.Size())
	}

	mat, err := MatFromFrame(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	d.mu.Lock()
	corners, ids, _ := d.detector.DetectMarkers(mat)
	d.mu.Unlock()

	markers := make([]marker.Marker, 0, len(ids))
	for i, id := range ids {
		if len(corners[i]) != 4 {
			continue
		}
		m := marker.Marker{ID: id}
		for j, p := range corners[i] {
			m.Corners[j] = marker.Point{X: float64(p.X), Y: float64(p.Y)}
		}
		if m.Perimeter() < d.config.MinPerimeter {
			continue
		}

		pose, err := marker.EstimatePose(m.Corners, cam, size)
		if err != nil {
			debug.MarkerLog("pose rejected", "id", id, "error", err)
			continue
		}
		m.Pose = pose
		markers = append(markers, m)
	}
	return markers, nil
}

// Close releases the OpenCV detector.
func (d *ArucoDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.detector.Close()
}
