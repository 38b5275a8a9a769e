package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-arucogl/pkg/camera"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arucogl.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultSettingsValid(t *testing.T) {
	s := DefaultSettings()
	assert.Empty(t, s.Validate())
	assert.Equal(t, camera.RolesPositional, s.Roles.Mode)
	assert.False(t, s.Undistort)
	assert.Equal(t, DefaultPort, s.Server.Port)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
calibration: intrinsics.yml
marker_size: 0.1
undistort: true
viewport:
  width: 1280
  height: 720
roles:
  mode: id
  anchor_id: 7
  orbiter_id: 3
server:
  port: "9000"
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "intrinsics.yml", s.Calibration)
	assert.InDelta(t, 0.1, s.MarkerSize, 1e-12)
	assert.True(t, s.Undistort)
	assert.Equal(t, Viewport{Width: 1280, Height: 720}, s.Viewport)
	assert.Equal(t, "9000", s.Server.Port)

	// Untouched sections keep their defaults.
	assert.Equal(t, camera.DefaultConfig(), s.Capture)
	assert.Equal(t, "info", s.LogLevel)

	roles := s.MarkerRoles()
	assert.Equal(t, camera.RolesByID, roles.Mode)
	assert.Equal(t, 7, roles.AnchorID)
	assert.Equal(t, 3, roles.OrbiterID)

	view := s.View()
	assert.Equal(t, 1280, view.Width)
	assert.True(t, view.Undistort)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "viewport: [1, 2"))
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, s Settings)
	}{
		{
			name: "all overrides",
			env: map[string]string{
				"ARUCO_CALIBRATION": "/etc/cam.yml",
				"ARUCO_MARKER_SIZE": "0.08",
				"ARUCO_UNDISTORT":   "true",
				"ARUCO_PORT":        "7070",
				"LOG_LEVEL":         "debug",
			},
			check: func(t *testing.T, s Settings) {
				assert.Equal(t, "/etc/cam.yml", s.Calibration)
				assert.InDelta(t, 0.08, s.MarkerSize, 1e-12)
				assert.True(t, s.Undistort)
				assert.Equal(t, "7070", s.Server.Port)
				assert.Equal(t, "debug", s.LogLevel)
			},
		},
		{
			name: "empty env keeps settings",
			env:  map[string]string{},
			check: func(t *testing.T, s Settings) {
				assert.Equal(t, DefaultSettings(), s)
			},
		},
		{
			name:    "bad marker size",
			env:     map[string]string{"ARUCO_MARKER_SIZE": "large"},
			wantErr: true,
		},
		{
			name:    "bad undistort",
			env:     map[string]string{"ARUCO_UNDISTORT": "sometimes"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"ARUCO_CALIBRATION", "ARUCO_MARKER_SIZE", "ARUCO_UNDISTORT", "ARUCO_PORT", "LOG_LEVEL"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			s := DefaultSettings()
			err := s.LoadEnv()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *Settings)
		want   int
	}{
		{"defaults", func(s *Settings) {}, 0},
		{"no calibration", func(s *Settings) { s.Calibration = "" }, 1},
		{"zero marker size", func(s *Settings) { s.MarkerSize = 0 }, 1},
		{"tiny viewport", func(s *Settings) { s.Viewport.Width = 4 }, 1},
		{"same ids", func(s *Settings) { s.Roles = Roles{Mode: camera.RolesByID, AnchorID: 2, OrbiterID: 2} }, 1},
		{"bad quality and port", func(s *Settings) { s.Capture.Quality = 0; s.Server.Port = "" }, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(&s)
			assert.Len(t, s.Validate(), tt.want)
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("ARUCO_PORT", "")
	t.Setenv("ARUCO_CALIBRATION", "")
	assert.Equal(t, "8080", Port("8080"))
	assert.Equal(t, "cam.yml", CalibrationPath("cam.yml"))

	t.Setenv("ARUCO_PORT", "9999")
	t.Setenv("ARUCO_CALIBRATION", "other.yml")
	assert.Equal(t, "9999", Port("8080"))
	assert.Equal(t, "other.yml", CalibrationPath("cam.yml"))
}
