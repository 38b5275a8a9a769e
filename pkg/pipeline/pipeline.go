// Package pipeline runs the frame loop: it feeds frames to a compositor,
// renders them in software and publishes the encoded result.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/teslashibe/go-arucogl/internal/log"
	"github.com/teslashibe/go-arucogl/pkg/camera"
	"github.com/teslashibe/go-arucogl/pkg/compositor"
	"github.com/teslashibe/go-arucogl/pkg/debug"
	"github.com/teslashibe/go-arucogl/pkg/frame"
	"github.com/teslashibe/go-arucogl/pkg/marker"
	"github.com/teslashibe/go-arucogl/pkg/protocol"
	"github.com/teslashibe/go-arucogl/pkg/render"
)

// ErrNoFrame is returned by Overlay before any frame was composited.
var ErrNoFrame = errors.New("pipeline: no frame composited yet")

// Source yields frames until it returns io.EOF.
type Source func(ctx context.Context) (*frame.Frame, error)

// Loop serialises all access to a compositor and its software renderer.
type Loop struct {
	mu      sync.Mutex
	comp    *compositor.Compositor
	canvas  *render.Software
	quality int
	frameID uint64

	// OnFrame receives every composited JPEG. Set before Run.
	OnFrame func(jpeg []byte, width, height int, frameID uint64)

	// OnState receives the scene state after every frame. Set before Run.
	OnState func(state protocol.StateData)

	// Sources reports connected remote sources for the state message.
	Sources func() int
}

// New wraps comp, which must draw into canvas.
func New(comp *compositor.Compositor, canvas *render.Software, quality int) *Loop {
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	return &Loop{comp: comp, canvas: canvas, quality: quality}
}

// Process ingests, renders and encodes one frame. An empty frame is
// skipped and yields nil. Detector failures are logged and the frame is
// still drawn without markers.
func (l *Loop) Process(f *frame.Frame) ([]byte, error) {
	if f.Empty() {
		return nil, nil
	}
	l.mu.Lock()

	if err := l.comp.Ingest(f); err != nil {
		log.Warn("ingest failed", "error", err)
	}
	if err := l.comp.Render(); err != nil {
		l.mu.Unlock()
		return nil, err
	}

	var buf bytes.Buffer
	if err := l.canvas.EncodeJPEG(&buf, l.quality); err != nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("pipeline: encode: %w", err)
	}
	l.frameID++
	id := l.frameID
	vp := l.comp.Viewport()
	state := l.stateLocked()
	l.mu.Unlock()

	if l.OnFrame != nil {
		l.OnFrame(buf.Bytes(), vp.X, vp.Y, id)
	}
	if l.OnState != nil {
		l.OnState(state)
	}
	return buf.Bytes(), nil
}

// Run pulls frames from src until ctx is done or src reports io.EOF.
func (l *Loop) Run(ctx context.Context, src Source) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := src(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if _, err := l.Process(f); err != nil {
			return err
		}
	}
}

// Resize changes the viewport.
func (l *Loop) Resize(width, height int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.comp.Resize(width, height)
}

// ApplyView applies runtime view settings. It fits camera.Manager's
// OnConfigChange.
func (l *Loop) ApplyView(cfg camera.ViewConfig) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.comp.SetUndistort(cfg.Undistort); err != nil {
		return err
	}
	l.comp.SetRoles(marker.Roles{Mode: cfg.RoleMode, AnchorID: cfg.AnchorID, OrbiterID: cfg.OrbiterID})
	if vp := l.comp.Viewport(); vp.X != cfg.Width || vp.Y != cfg.Height {
		if err := l.comp.Resize(cfg.Width, cfg.Height); err != nil {
			return err
		}
	}
	debug.Log("view applied", "width", cfg.Width, "height", cfg.Height, "undistort", cfg.Undistort, "roles", cfg.RoleMode)
	return nil
}

// BindViews makes m drive the loop: every accepted change is applied with
// ApplyView and m is then set to what the compositor actually runs, e.g.
// the aligned viewport width.
func (l *Loop) BindViews(m *camera.Manager) {
	m.Store(l.View())
	m.OnConfigChange = func(cfg camera.ViewConfig) error {
		err := l.ApplyView(cfg)
		m.Store(l.View())
		return err
	}
}

// View returns the live settings in camera.Manager form.
func (l *Loop) View() camera.ViewConfig {
	l.mu.Lock()
	defer l.mu.Unlock()

	vp := l.comp.Viewport()
	roles := l.comp.Roles()
	return camera.ViewConfig{
		Width:     vp.X,
		Height:    vp.Y,
		Undistort: l.comp.Undistorting(),
		RoleMode:  roles.Mode,
		AnchorID:  roles.AnchorID,
		OrbiterID: roles.OrbiterID,
	}
}

// State returns a snapshot of the scene.
func (l *Loop) State() protocol.StateData {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stateLocked()
}

// Stats returns the compositor counters.
func (l *Loop) Stats() compositor.Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.comp.Stats()
}

func (l *Loop) stateLocked() protocol.StateData {
	vp := l.comp.Viewport()
	stats := l.comp.Stats()
	markers := l.comp.Markers()
	anchor, orbiter := l.comp.Roles().Assign(markers)

	state := protocol.StateData{
		Width:       vp.X,
		Height:      vp.Y,
		SpinAngle:   l.comp.SpinAngle(),
		OrbitAngle:  l.comp.OrbitAngle(),
		OrbitRadius: l.comp.OrbitRadius(),
		Markers:     make([]protocol.MarkerState, 0, len(markers)),
		Frames:      stats.Frames,
		Renders:     stats.Renders,
	}
	for i, m := range markers {
		c := m.Center()
		p := m.Position()
		ms := protocol.MarkerState{
			ID:       m.ID,
			Center:   [2]float64{c.X, c.Y},
			Position: [3]float64{p.X, p.Y, p.Z},
		}
		switch i {
		case anchor:
			ms.Role = "anchor"
		case orbiter:
			ms.Role = "orbiter"
		}
		state.Markers = append(state.Markers, ms)
	}
	if l.Sources != nil {
		state.Sources = l.Sources()
	}
	return state
}

// Overlay returns a copy of the current viewport frame with the wireframe
// cube and axis of marker index stamped on it. For an index outside the
// latest detection the copy comes back unmarked.
func (l *Loop) Overlay(index int) (*frame.Frame, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.comp.HasFrame() {
		return nil, ErrNoFrame
	}
	src := l.comp.Buffers().Resized
	img := src.Clone()
	if err := l.comp.Draw3DCube(img, index); err != nil {
		return nil, err
	}
	if err := l.comp.Draw3DAxis(img, index); err != nil {
		return nil, err
	}
	return img, nil
}

// EncodePNG writes the last composited image as PNG.
func (l *Loop) EncodePNG(w io.Writer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.canvas.EncodePNG(w)
}

// EncodeJPEG writes the last composited image as JPEG.
func (l *Loop) EncodeJPEG(w io.Writer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.canvas.EncodeJPEG(w, l.quality)
}
