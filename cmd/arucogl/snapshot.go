package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/teslashibe/go-arucogl/internal/log"
	"github.com/teslashibe/go-arucogl/pkg/cv"
	"github.com/teslashibe/go-arucogl/pkg/frame"
)

func newSnapshotCmd(root *rootOptions) *cobra.Command {
	var (
		output      string
		overlay     string
		markerIndex int
	)

	cmd := &cobra.Command{
		Use:   "snapshot <image>",
		Short: "Composite a single still image",
		Long: `Composites one image at its own resolution and writes the result.
The output format follows the file extension (.png, otherwise JPEG).
With --overlay, a second image gets the wireframe cube and axis of one marker.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.settings()
			if err != nil {
				return err
			}

			img, err := cv.ReadImage(args[0])
			if err != nil {
				return err
			}
			// The window takes the image size.
			s.Viewport.Width, s.Viewport.Height = img.Width, img.Height

			sc, err := newScene(s)
			if err != nil {
				return err
			}
			defer sc.Close()

			if _, err := sc.loop.Process(img); err != nil {
				return err
			}
			if err := writeComposite(sc, output); err != nil {
				return err
			}

			state := sc.loop.State()
			log.Info("snapshot written", "output", output, "markers", len(state.Markers), "orbit_radius", state.OrbitRadius)

			if overlay == "" {
				return nil
			}
			if markerIndex < 0 || markerIndex >= len(state.Markers) {
				log.Warn("overlay marker not detected, writing the frame unmarked", "marker", markerIndex, "detected", len(state.Markers))
			}
			f, err := sc.loop.Overlay(markerIndex)
			if err != nil {
				return fmt.Errorf("overlay marker %d: %w", markerIndex, err)
			}
			if err := writeFrame(f, overlay, s.Capture.Quality); err != nil {
				return err
			}
			log.Info("overlay written", "output", overlay, "marker", markerIndex)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "composite.png", "Composited output file")
	cmd.Flags().StringVar(&overlay, "overlay", "", "Also write the marker cube/axis overlay to this file")
	cmd.Flags().IntVar(&markerIndex, "marker", 0, "Marker index for --overlay")
	return cmd
}

func isPNG(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".png")
}

func writeComposite(sc *scene, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if isPNG(path) {
		return sc.loop.EncodePNG(out)
	}
	return sc.loop.EncodeJPEG(out)
}

func writeFrame(f *frame.Frame, path string, quality int) error {
	if !isPNG(path) {
		data, err := cv.EncodeJPEG(f, quality)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, f)
}
