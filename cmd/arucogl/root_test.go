package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/teslashibe/go-arucogl/pkg/debug"
)

func TestRootCommands(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"serve", "snapshot", "feed"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"config", "debug", "debug-markers", "log-level"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestSettingsResolution(t *testing.T) {
	t.Setenv("ARUCO_PORT", "")
	t.Setenv("ARUCO_MARKER_SIZE", "")
	t.Setenv("ARUCO_CALIBRATION", "")
	t.Setenv("ARUCO_UNDISTORT", "")
	t.Setenv("LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "arucogl.yml")
	if err := os.WriteFile(path, []byte("marker_size: 0.2\nserver:\n  port: \"9100\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ARUCO_PORT", "9200")

	opts := &rootOptions{configPath: path, debugMarkers: true}
	s, err := opts.settings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	defer func() { debug.Enabled, debug.Markers = false, false }()

	if s.MarkerSize != 0.2 {
		t.Errorf("MarkerSize = %v, want 0.2 from file", s.MarkerSize)
	}
	if s.Server.Port != "9200" {
		t.Errorf("Port = %s, want env override 9200", s.Server.Port)
	}
	if s.LogLevel != "debug" || !debug.Markers || debug.Enabled {
		t.Errorf("LogLevel = %s, Markers = %v, Enabled = %v", s.LogLevel, debug.Markers, debug.Enabled)
	}
}

func TestSettingsRejectsInvalid(t *testing.T) {
	t.Setenv("ARUCO_MARKER_SIZE", "-1")

	if _, err := (&rootOptions{}).settings(); err == nil {
		t.Error("expected a validation error for a negative marker size")
	}
}
