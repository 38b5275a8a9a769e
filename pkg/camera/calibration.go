package camera

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// opencvMatrix is the body of an OpenCV "!!opencv-matrix" node.
type opencvMatrix struct {
	Rows int       `yaml:"rows"`
	Cols int       `yaml:"cols"`
	DT   string    `yaml:"dt"`
	Data []float64 `yaml:"data"`
}

type calibrationFile struct {
	ImageWidth  int           `yaml:"image_width"`
	ImageHeight int           `yaml:"image_height"`
	Camera      *opencvMatrix `yaml:"camera_matrix"`
	Distortion  *opencvMatrix `yaml:"distortion_coefficients"`
}

// LoadFromFile reads an OpenCV/ArUco calibration YAML file.
// Any failure is returned as a *CalibrationError.
func LoadFromFile(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Model{}, &CalibrationError{Path: path, Err: err}
	}
	m, err := Parse(data)
	if err != nil {
		return Model{}, &CalibrationError{Path: path, Err: err}
	}
	return m, nil
}

// Parse decodes calibration YAML as written by OpenCV FileStorage.
func Parse(data []byte) (Model, error) {
	var cf calibrationFile
	if err := yaml.Unmarshal(sanitize(data), &cf); err != nil {
		return Model{}, fmt.Errorf("parse: %w", err)
	}

	if cf.ImageWidth <= 0 || cf.ImageHeight <= 0 {
		return Model{}, errors.New("image_width and image_height must be positive")
	}
	if cf.Camera == nil {
		return Model{}, errors.New("camera_matrix missing")
	}
	if len(cf.Camera.Data) != 9 {
		return Model{}, fmt.Errorf("camera_matrix has %d values, want 9", len(cf.Camera.Data))
	}

	k := cf.Camera.Data
	m := Model{
		Fx:   k[0],
		Cx:   k[2],
		Fy:   k[4],
		Cy:   k[5],
		Size: image.Pt(cf.ImageWidth, cf.ImageHeight),
	}
	if cf.Distortion != nil {
		m.Distortion = append([]float64(nil), cf.Distortion.Data...)
	}
	if !m.IsValid() {
		return Model{}, fmt.Errorf("focal lengths must be positive (fx=%v fy=%v)", m.Fx, m.Fy)
	}
	return m, nil
}

// sanitize drops the "%YAML:1.0" directive and the opencv-matrix tags that
// OpenCV writes but a YAML 1.2 parser rejects.
func sanitize(data []byte) []byte {
	var out bytes.Buffer
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "%YAML") {
			continue
		}
		line = strings.ReplaceAll(line, "!!opencv-matrix", "")
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.Bytes()
}
