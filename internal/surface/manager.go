// Package surface owns the drawing surface, the guide overlay and the cached
// committed bitmap. All pixel writes go through a Manager; it is not safe for
// concurrent use and callers serialize access.
package surface

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"

	"RosetteBoard/internal/geometry"
	"RosetteBoard/internal/render"
	"RosetteBoard/internal/state"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	ErrNotReady     = errors.New("surface not ready")
	ErrSizeMismatch = errors.New("snapshot size does not match surface")
)

// DefaultTargetSize is the largest logical edge of the square canvas.
const DefaultTargetSize = 600

type Options struct {
	TargetSize int
	Background color.Color
	Guides     render.GuideOptions
	// MaxHistory bounds the snapshots returned by Rebuild.
	MaxHistory int
}

// Manager renders into two physical-pixel surfaces of identical size.
type Manager struct {
	opts Options

	logical float64
	dpr     float64
	ready   bool

	drawing *image.RGBA
	guides  *image.RGBA
	dctx    *render.Context
	gctx    *render.Context

	committed cache
	dirty     image.Rectangle
}

func NewManager(opts Options) *Manager {
	if opts.TargetSize <= 0 {
		opts.TargetSize = DefaultTargetSize
	}
	if opts.Background == nil {
		opts.Background = color.White
	}
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = state.DefaultMaxHistory
	}
	return &Manager{opts: opts}
}

func (m *Manager) Ready() bool { return m.ready }

// Options returns the options the manager was built with, defaults applied.
func (m *Manager) Options() Options { return m.opts }

// Logical returns the canvas edge in logical units and the pixel ratio.
func (m *Manager) Logical() (float64, float64) { return m.logical, m.dpr }

// Physical returns the surface size in pixels.
func (m *Manager) Physical() image.Point {
	if m.drawing == nil {
		return image.Point{}
	}
	return m.drawing.Bounds().Size()
}

// Center is the symmetry center in logical coordinates.
func (m *Manager) Center() r2.Vec {
	return r2.Vec{X: m.logical / 2, Y: m.logical / 2}
}

func (m *Manager) symmetry(s state.Settings) geometry.Symmetry {
	return s.Symmetry(m.Center())
}

// Resize sizes both surfaces for a container of the given logical width.
// The logical edge is min(containerWidth, target) and the physical edge is
// floor(logical × dpr). Old pixels are never scaled: after a change the
// drawing surface is blank and the cache invalid until the caller replays.
func (m *Manager) Resize(containerWidth, dpr float64) (bool, error) {
	if dpr <= 0 || math.IsNaN(dpr) {
		dpr = 1
	}
	logical := math.Min(containerWidth, float64(m.opts.TargetSize))
	px := int(math.Floor(logical * dpr))
	if logical <= 0 || px < 1 {
		return false, fmt.Errorf("%w: container width %.1f", ErrNotReady, containerWidth)
	}
	if m.ready && m.logical == logical && m.dpr == dpr {
		return false, nil
	}

	m.logical, m.dpr = logical, dpr
	rect := image.Rect(0, 0, px, px)
	m.drawing = image.NewRGBA(rect)
	m.guides = image.NewRGBA(rect)
	m.dctx = render.NewContext(m.drawing, dpr)
	m.gctx = render.NewContext(m.guides, dpr)
	render.Fill(m.drawing, m.opts.Background)
	m.committed.invalidate()
	m.dirty = image.Rectangle{}
	m.ready = true
	log.Printf("[surface] resized to %.0f logical, %dpx at %.2fx", logical, px, dpr)
	return true, nil
}

// Clear wipes the drawing to the background and returns the blank snapshot.
func (m *Manager) Clear() (state.Snapshot, error) {
	if !m.ready {
		return nil, ErrNotReady
	}
	render.Fill(m.drawing, m.opts.Background)
	m.committed.capture(m.drawing)
	m.dirty = image.Rectangle{}
	return clone(m.drawing), nil
}

// DrawGuides refreshes the guide overlay for the given settings.
func (m *Manager) DrawGuides(s state.Settings) error {
	if !m.ready {
		return ErrNotReady
	}
	opts := m.opts.Guides
	opts.Show = s.ShowGuides
	render.DrawGuides(m.gctx, m.symmetry(s), opts)
	return nil
}

func (m *Manager) replay(actions []state.Action, s state.Settings) {
	sym := m.symmetry(s)
	render.Fill(m.drawing, m.opts.Background)
	for i, a := range actions {
		if err := render.DrawAction(m.dctx, a, sym); err != nil {
			log.Printf("[surface] skipping action %d during replay: %v", i, err)
		}
	}
}

// Redraw clears the surface, replays actions and captures the result as the
// committed bitmap. Replaying the same log twice yields identical pixels.
func (m *Manager) Redraw(actions []state.Action, s state.Settings) error {
	if !m.ready {
		return ErrNotReady
	}
	m.replay(actions, s)
	m.committed.capture(m.drawing)
	m.dirty = image.Rectangle{}
	return nil
}

// Rebuild replays actions one at a time and returns the snapshot taken after
// each of the newest ones, at most MaxHistory. The surface is left showing
// every action; callers restore the snapshot under their cursor.
func (m *Manager) Rebuild(actions []state.Action, s state.Settings) ([]state.Snapshot, error) {
	if !m.ready {
		return nil, ErrNotReady
	}
	sym := m.symmetry(s)
	render.Fill(m.drawing, m.opts.Background)
	first := len(actions) - m.opts.MaxHistory
	snaps := make([]state.Snapshot, 0, len(actions)-max(first, 0))
	for i, a := range actions {
		if err := render.DrawAction(m.dctx, a, sym); err != nil {
			log.Printf("[surface] skipping action %d during rebuild: %v", i, err)
		}
		if i >= first {
			snaps = append(snaps, clone(m.drawing))
		}
	}
	m.committed.capture(m.drawing)
	m.dirty = image.Rectangle{}
	return snaps, nil
}

// RestoreSnapshot shows a history snapshot and makes it the committed bitmap.
func (m *Manager) RestoreSnapshot(snap state.Snapshot) error {
	if !m.ready {
		return ErrNotReady
	}
	if snap == nil || snap.Bounds() != m.drawing.Bounds() {
		return ErrSizeMismatch
	}
	copy(m.drawing.Pix, snap.Pix)
	m.committed.capture(m.drawing)
	m.dirty = image.Rectangle{}
	return nil
}

// Commit draws a on top of the committed state and captures the result.
// committed is replayed first when the cache cannot be used.
func (m *Manager) Commit(committed []state.Action, a state.Action, s state.Settings) (state.Snapshot, error) {
	if !m.ready {
		return nil, ErrNotReady
	}
	if !m.committed.restore(m.drawing, image.Rectangle{}) {
		m.replay(committed, s)
	}
	if err := render.DrawAction(m.dctx, a, m.symmetry(s)); err != nil {
		m.committed.invalidate()
		m.replay(committed, s)
		m.committed.capture(m.drawing)
		return nil, fmt.Errorf("failed to commit %s: %w", a.Tool, err)
	}
	m.committed.capture(m.drawing)
	m.dirty = image.Rectangle{}
	return clone(m.drawing), nil
}

// Discard wipes any preview pixels by re-rendering the committed state.
func (m *Manager) Discard(committed []state.Action, s state.Settings) error {
	return m.Redraw(committed, s)
}

// Preview restores the committed bitmap under the previous preview and the
// new one, then draws a. A missing cache falls back to a full replay.
func (m *Manager) Preview(committed []state.Action, a state.Action, s state.Settings) error {
	if !m.ready {
		return ErrNotReady
	}
	sym := m.symmetry(s)
	next := render.ActionBounds(a, sym).Pixels(m.dpr)

	region := m.dirty.Union(next)
	if m.dirty.Empty() {
		region = image.Rectangle{}
	}
	if !m.committed.restore(m.drawing, region) {
		log.Printf("[surface] committed bitmap unavailable, replaying %d actions", len(committed))
		if err := m.Redraw(committed, s); err != nil {
			return err
		}
	}
	if err := render.DrawAction(m.dctx, a, sym); err != nil {
		m.dirty = image.Rectangle{}
		return err
	}
	m.dirty = next
	return nil
}

// Invalidate drops the committed bitmap; the next preview replays history.
func (m *Manager) Invalidate() {
	m.committed.invalidate()
}

// Composite flattens the drawing and, optionally, the guides into a new
// opaque image.
func (m *Manager) Composite(showGuides bool) (*image.RGBA, error) {
	if !m.ready {
		return nil, ErrNotReady
	}
	out := clone(m.drawing)
	if showGuides {
		draw.Draw(out, out.Bounds(), m.guides, image.Point{}, draw.Over)
	}
	return out, nil
}
