package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/teslashibe/go-arucogl/internal/log"
	"github.com/teslashibe/go-arucogl/pkg/cv"
	"github.com/teslashibe/go-arucogl/pkg/ingest"
)

func newFeedCmd(root *rootOptions) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "feed <video|device>",
		Short: "Push frames from a local source to a remote serve --remote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.settings()
			if err != nil {
				return err
			}
			s.Capture.Device = args[0]

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			capture, err := cv.OpenCapture(s.Capture)
			if err != nil {
				return err
			}
			defer capture.Close()

			feeder, err := ingest.Dial(url)
			if err != nil {
				return err
			}
			defer feeder.Close()
			log.Info("feeding", "device", s.Capture.Device, "url", url, "fps", s.Capture.Framerate)

			ticker := time.NewTicker(time.Second / time.Duration(s.Capture.Framerate))
			defer ticker.Stop()

			var sent uint64
			start := time.Now()
			for {
				select {
				case <-ctx.Done():
					log.Info("feed stopped", "frames", sent, "elapsed", time.Since(start).Round(time.Second))
					return nil
				case <-ticker.C:
				}

				f, err := capture.Read()
				if errors.Is(err, cv.ErrEmptyMat) {
					log.Info("end of stream", "frames", sent)
					return nil
				}
				if err != nil {
					return err
				}
				jpeg, err := cv.EncodeJPEG(f, s.Capture.Quality)
				if err != nil {
					return err
				}
				if sent, err = feeder.Send(f.Width, f.Height, jpeg); err != nil {
					return err
				}
			}
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "ws://localhost:8080/ws/source", "Ingest endpoint of the serving instance")
	return cmd
}
