package main

import (
	"context"
	"errors"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/teslashibe/go-arucogl/internal/config"
	"github.com/teslashibe/go-arucogl/internal/log"
	"github.com/teslashibe/go-arucogl/pkg/camera"
	"github.com/teslashibe/go-arucogl/pkg/cv"
	"github.com/teslashibe/go-arucogl/pkg/frame"
	"github.com/teslashibe/go-arucogl/pkg/ingest"
	"github.com/teslashibe/go-arucogl/pkg/pipeline"
	"github.com/teslashibe/go-arucogl/pkg/web"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		device string
		port   string
		remote bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Composite a live camera and stream it to the web viewer",
		Long: `Reads frames from a local camera or video file (or, with --remote, from
feeders connected on /ws/source), composites spheres over the detected
markers and serves the result at http://localhost:<port>/.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.settings()
			if err != nil {
				return err
			}
			if device != "" {
				s.Capture.Device = device
			}
			if port != "" {
				s.Server.Port = port
			}
			return serve(s, remote)
		},
	}

	cmd.Flags().StringVarP(&device, "device", "d", "", "Camera index or video path (overrides capture.device)")
	cmd.Flags().StringVarP(&port, "port", "p", "", "Viewer port (overrides server.port)")
	cmd.Flags().BoolVar(&remote, "remote", false, "Take frames from remote feeders instead of a local device")
	return cmd
}

func serve(s config.Settings, remote bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sc, err := newScene(s)
	if err != nil {
		return err
	}
	defer sc.Close()

	views := camera.NewManager(sc.loop.View())
	sc.loop.BindViews(views)

	sources := ingest.NewHub()
	server := web.NewServer(s.Server.Port, sc.loop, views, sources)

	sc.loop.OnFrame = server.SendFrame
	sc.loop.OnState = server.SendState
	sc.loop.Sources = sources.SourceCount

	server.StartAsync(ctx)
	defer server.Shutdown()

	var src pipeline.Source
	if remote {
		log.Info("waiting for remote frames", "endpoint", "/ws/source")
		src = mailboxSource(sources.Mailbox())
	} else {
		capture, err := cv.OpenCapture(s.Capture)
		if err != nil {
			return err
		}
		defer capture.Close()
		src = captureSource(capture, s.Capture.Framerate)
	}

	err = sc.loop.Run(ctx, src)
	stats := sc.loop.Stats()
	log.Info("frame loop stopped",
		"frames", stats.Frames,
		"renders", stats.Renders,
		"detect_errors", stats.DetectErrors)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// captureSource paces reads to the configured frame rate. The end of a
// video file ends the loop.
func captureSource(c *cv.Capture, fps int) pipeline.Source {
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	return func(ctx context.Context) (*frame.Frame, error) {
		select {
		case <-ctx.Done():
			ticker.Stop()
			return nil, ctx.Err()
		case <-ticker.C:
		}

		f, err := c.Read()
		if errors.Is(err, cv.ErrEmptyMat) {
			ticker.Stop()
			return nil, io.EOF
		}
		return f, err
	}
}

// mailboxSource decodes the latest remote frame. Undecodable frames are
// logged and skipped.
func mailboxSource(mb *ingest.Mailbox) pipeline.Source {
	return func(ctx context.Context) (*frame.Frame, error) {
		for {
			p, err := mb.Next(ctx)
			if err != nil {
				return nil, err
			}
			f, err := cv.DecodeJPEG(p.JPEG)
			if err != nil {
				log.Warn("dropping undecodable frame", "source", p.SourceID, "frame", p.FrameID, "error", err)
				continue
			}
			return f, nil
		}
	}
}
