// Package config loads go-arucogl settings from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/teslashibe/go-arucogl/pkg/camera"
	"github.com/teslashibe/go-arucogl/pkg/marker"
	"gopkg.in/yaml.v3"
)

// Defaults used when neither the settings file nor the environment say otherwise.
const (
	DefaultPort        = "8080"
	DefaultCalibration = "camera.yml"
	DefaultMarkerSize  = 0.05
)

// Viewport is the size of the output window.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Roles selects the anchor and orbiter markers.
type Roles struct {
	Mode      string `yaml:"mode"`
	AnchorID  int    `yaml:"anchor_id"`
	OrbiterID int    `yaml:"orbiter_id"`
}

// Server configures the viewer.
type Server struct {
	Port string `yaml:"port"`
}

// Settings is the full configuration of a go-arucogl process.
type Settings struct {
	Calibration string        `yaml:"calibration"`
	MarkerSize  float64       `yaml:"marker_size"`
	Undistort   bool          `yaml:"undistort"`
	Viewport    Viewport      `yaml:"viewport"`
	Dictionary  string        `yaml:"dictionary"`
	Roles       Roles         `yaml:"roles"`
	Capture     camera.Config `yaml:"capture"`
	Server      Server        `yaml:"server"`
	LogLevel    string        `yaml:"log_level"`
}

// DefaultSettings returns settings for a 640x480 webcam and 5cm markers.
func DefaultSettings() Settings {
	return Settings{
		Calibration: DefaultCalibration,
		MarkerSize:  DefaultMarkerSize,
		Viewport:    Viewport{Width: 640, Height: 480},
		Dictionary:  marker.DefaultConfig().Dictionary,
		Roles:       Roles{Mode: camera.RolesPositional, AnchorID: 0, OrbiterID: 1},
		Capture:     camera.DefaultConfig(),
		Server:      Server{Port: DefaultPort},
		LogLevel:    "info",
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return s, nil
}

// LoadEnv applies environment overrides. Malformed numeric or boolean
// values are reported and leave the setting unchanged.
func (s *Settings) LoadEnv() error {
	s.Calibration = CalibrationPath(s.Calibration)
	if v := os.Getenv("ARUCO_MARKER_SIZE"); v != "" {
		size, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: ARUCO_MARKER_SIZE: %w", err)
		}
		s.MarkerSize = size
	}
	if v := os.Getenv("ARUCO_UNDISTORT"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: ARUCO_UNDISTORT: %w", err)
		}
		s.Undistort = on
	}
	s.Server.Port = Port(s.Server.Port)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	return nil
}

// Validate returns a list of problems, or nil if the settings are usable.
func (s *Settings) Validate() []string {
	var errors []string

	if s.Calibration == "" {
		errors = append(errors, "calibration must not be empty")
	}
	if s.MarkerSize <= 0 {
		errors = append(errors, "marker_size must be positive")
	}
	if s.Server.Port == "" {
		errors = append(errors, "server.port must not be empty")
	}

	view := s.View()
	errors = append(errors, view.Validate()...)
	errors = append(errors, s.Capture.Validate()...)

	return errors
}

// View returns the runtime view settings.
func (s *Settings) View() camera.ViewConfig {
	return camera.ViewConfig{
		Width:     s.Viewport.Width,
		Height:    s.Viewport.Height,
		Undistort: s.Undistort,
		RoleMode:  s.Roles.Mode,
		AnchorID:  s.Roles.AnchorID,
		OrbiterID: s.Roles.OrbiterID,
	}
}

// MarkerRoles converts the role settings for the compositor.
func (s *Settings) MarkerRoles() marker.Roles {
	return marker.Roles{Mode: s.Roles.Mode, AnchorID: s.Roles.AnchorID, OrbiterID: s.Roles.OrbiterID}
}

// Port returns the viewer port from ARUCO_PORT.
// Falls back to the provided default if not set.
func Port(defaultPort string) string {
	if port := os.Getenv("ARUCO_PORT"); port != "" {
		return port
	}
	return defaultPort
}

// CalibrationPath returns the calibration file from ARUCO_CALIBRATION.
// Falls back to the provided default if not set.
func CalibrationPath(defaultPath string) string {
	if path := os.Getenv("ARUCO_CALIBRATION"); path != "" {
		return path
	}
	return defaultPath
}
