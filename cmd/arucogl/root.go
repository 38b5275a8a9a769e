package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teslashibe/go-arucogl/internal/config"
	"github.com/teslashibe/go-arucogl/internal/log"
	"github.com/teslashibe/go-arucogl/pkg/compositor"
	"github.com/teslashibe/go-arucogl/pkg/cv"
	"github.com/teslashibe/go-arucogl/pkg/debug"
	"github.com/teslashibe/go-arucogl/pkg/marker"
	"github.com/teslashibe/go-arucogl/pkg/pipeline"
	"github.com/teslashibe/go-arucogl/pkg/render"
)

type rootOptions struct {
	configPath   string
	debug        bool
	debugMarkers bool
	logLevel     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "arucogl",
		Short:        "Augmented reality spheres over ArUco markers",
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Settings file (YAML)")
	flags.BoolVar(&opts.debug, "debug", false, "Enable verbose debug logging")
	flags.BoolVar(&opts.debugMarkers, "debug-markers", false, "Log every detected marker each frame")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")

	cmd.AddCommand(newServeCmd(opts), newSnapshotCmd(opts), newFeedCmd(opts))
	return cmd
}

// settings resolves the settings file, the environment and the logging
// flags, in that order, and initialises logging.
func (o *rootOptions) settings() (config.Settings, error) {
	s := config.DefaultSettings()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return s, err
		}
		s = loaded
	}
	if err := s.LoadEnv(); err != nil {
		return s, err
	}

	if o.logLevel != "" {
		s.LogLevel = o.logLevel
	}
	if o.debug || o.debugMarkers {
		s.LogLevel = "debug"
	}
	debug.Enabled = o.debug
	debug.Markers = o.debugMarkers
	log.Init(s.LogLevel)

	if problems := s.Validate(); len(problems) > 0 {
		return s, fmt.Errorf("invalid settings: %v", problems)
	}
	return s, nil
}

// scene is everything a frame loop needs, built from settings.
type scene struct {
	detector *cv.ArucoDetector
	canvas   *render.Software
	comp     *compositor.Compositor
	loop     *pipeline.Loop
}

func newScene(s config.Settings) (*scene, error) {
	cfg := marker.DefaultConfig()
	cfg.Dictionary = s.Dictionary

	det, err := cv.NewArucoDetector(cfg)
	if err != nil {
		return nil, err
	}

	canvas := render.NewSoftware(s.Viewport.Width, s.Viewport.Height)
	comp, err := compositor.New(s.Calibration, s.MarkerSize, det, canvas, compositor.Options{
		Undistort:   s.Undistort,
		Undistorter: cv.Undistorter{},
		Roles:       s.MarkerRoles(),
	})
	if err != nil {
		canvas.Close()
		det.Close()
		return nil, err
	}
	if err := comp.Resize(s.Viewport.Width, s.Viewport.Height); err != nil {
		canvas.Close()
		det.Close()
		return nil, err
	}

	log.Info("scene ready",
		"calibration", s.Calibration,
		"marker_size", s.MarkerSize,
		"dictionary", cfg.Dictionary,
		"viewport", fmt.Sprintf("%dx%d", comp.Viewport().X, comp.Viewport().Y),
		"undistort", s.Undistort)

	return &scene{
		detector: det,
		canvas:   canvas,
		comp:     comp,
		loop:     pipeline.New(comp, canvas, s.Capture.Quality),
	}, nil
}

func (sc *scene) Close() {
	sc.canvas.Close()
	sc.detector.Close()
}
