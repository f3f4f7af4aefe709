// Package engine ties the history store to the drawing surfaces. It is the
// only place where both are touched, and every surface access happens under
// the engine mutex.
package engine

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"RosetteBoard/internal/export"
	"RosetteBoard/internal/state"
	"RosetteBoard/internal/surface"
)

type Options struct {
	Surface surface.Options
	Reducer state.Reducer
}

type Engine struct {
	store *state.Store
	surf  *surface.Manager
	ready atomic.Bool

	mu sync.Mutex

	// OnRender is called after the visible pixels changed, outside the lock.
	OnRender func()
}

func New(opts Options) *Engine {
	if opts.Surface.MaxHistory <= 0 {
		opts.Surface.MaxHistory = opts.Reducer.MaxHistory
	}
	return &Engine{
		store: state.NewStore(opts.Reducer),
		surf:  surface.NewManager(opts.Surface),
	}
}

func (e *Engine) State() state.State { return e.store.State() }

func (e *Engine) Settings() state.Settings { return e.store.State().Settings }

// Subscribe registers fn for every applied store transition.
func (e *Engine) Subscribe(fn func(state.Change)) func() { return e.store.Subscribe(fn) }

// CanDraw reports whether a drawing session may start.
func (e *Engine) CanDraw() bool {
	return e.ready.Load() && !e.store.State().Loading
}

func (e *Engine) rendered() {
	if fn := e.OnRender; fn != nil {
		fn()
	}
}

// Viewport returns the physical surface size and pixel ratio.
func (e *Engine) Viewport() (image.Point, float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, dpr := e.surf.Logical()
	return e.surf.Physical(), dpr
}

// Resize applies a container size. The first success seeds history with the
// blank surface; later changes replay history at the new resolution.
func (e *Engine) Resize(containerWidth, dpr float64) error {
	e.mu.Lock()
	changed, err := e.surf.Resize(containerWidth, dpr)
	if err != nil || !changed {
		e.mu.Unlock()
		return err
	}
	first := !e.ready.Load()
	s := e.store.State()
	if first && len(s.Actions) == 0 && s.HistoryIndex == -1 {
		var blank state.Snapshot
		if blank, err = e.surf.Clear(); err == nil {
			_, err = e.store.Dispatch(state.InitHistory{Snapshot: blank})
		}
	} else {
		err = e.rebuild()
	}
	if err == nil {
		err = e.surf.DrawGuides(e.store.State().Settings)
	}
	e.ready.Store(true)
	e.mu.Unlock()

	e.rendered()
	return err
}

// rebuild re-renders every action at the current size and symmetry and
// regenerates the snapshot log. Callers hold e.mu.
func (e *Engine) rebuild() error {
	s := e.store.State()
	var snaps []state.Snapshot
	if len(s.Actions) == 0 {
		blank, err := e.surf.Clear()
		if err != nil {
			return err
		}
		snaps = []state.Snapshot{blank}
	} else {
		var err error
		if snaps, err = e.surf.Rebuild(s.Actions, s.Settings); err != nil {
			return err
		}
	}
	next, err := e.store.Dispatch(state.RebuildHistory{Snapshots: snaps})
	if err != nil {
		return err
	}
	return e.show(next)
}

// show puts the snapshot under the cursor on screen, replaying when the
// snapshot cannot be used. Callers hold e.mu.
func (e *Engine) show(s state.State) error {
	if err := e.surf.RestoreSnapshot(s.Current()); err != nil {
		log.Printf("[engine] snapshot %d unusable (%v), replaying", s.HistoryIndex, err)
		return e.surf.Redraw(s.Committed(), s.Settings)
	}
	return nil
}

// CommitAction bakes a into the surface and appends it to history.
func (e *Engine) CommitAction(a state.Action) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = state.NewActionID()
	}

	e.mu.Lock()
	s := e.store.State()
	snap, err := e.surf.Commit(s.Committed(), a, s.Settings)
	if err == nil {
		if _, err = e.store.Dispatch(state.AddAction{Action: a}); err == nil {
			_, err = e.store.Dispatch(state.CommitSnapshot{Snapshot: snap})
		} else {
			e.surf.Redraw(s.Committed(), s.Settings)
		}
	}
	e.mu.Unlock()

	e.rendered()
	return err
}

// DiscardAction wipes preview pixels without touching history.
func (e *Engine) DiscardAction() error {
	e.mu.Lock()
	s := e.store.State()
	err := e.surf.Discard(s.Committed(), s.Settings)
	e.mu.Unlock()

	e.rendered()
	return err
}

// PreviewAction draws a over the committed bitmap.
func (e *Engine) PreviewAction(a state.Action) error {
	e.mu.Lock()
	s := e.store.State()
	err := e.surf.Preview(s.Committed(), a, s.Settings)
	if err != nil {
		e.surf.Invalidate()
	}
	e.mu.Unlock()

	e.rendered()
	return err
}

func (e *Engine) step(t state.Transition) error {
	e.mu.Lock()
	next, err := e.store.Dispatch(t)
	if err == nil {
		err = e.show(next)
	}
	e.mu.Unlock()

	if err == nil {
		e.rendered()
	}
	return err
}

// Undo moves the cursor back one action. At the floor it returns
// state.ErrNoTransition and changes nothing.
func (e *Engine) Undo() error { return e.step(state.Undo{}) }

// Redo moves the cursor forward when a committed action exists past it.
func (e *Engine) Redo() error { return e.step(state.Redo{}) }

// Clear empties the document and seeds history with a blank surface.
func (e *Engine) Clear() error {
	e.mu.Lock()
	next, err := e.store.Dispatch(state.Clear{})
	if err == nil && e.ready.Load() {
		var blank state.Snapshot
		if blank, err = e.surf.Clear(); err == nil {
			if _, err = e.store.Dispatch(state.InitHistory{Snapshot: blank}); err == nil {
				err = e.surf.DrawGuides(next.Settings)
			}
		}
	}
	e.mu.Unlock()

	e.rendered()
	return err
}

// UpdateSetting changes one setting. A new symmetry group re-renders every
// committed action under it; guide settings refresh the overlay.
func (e *Engine) UpdateSetting(key string, value any) error {
	e.mu.Lock()
	prev := e.store.State().Settings
	next, err := e.store.Dispatch(state.UpdateSetting{Key: key, Value: value})
	if err != nil || !e.ready.Load() {
		e.mu.Unlock()
		return err
	}
	symmetryChanged := prev.RotationOrder != next.Settings.RotationOrder ||
		prev.ReflectionEnabled != next.Settings.ReflectionEnabled
	redraw := symmetryChanged || prev.ShowGuides != next.Settings.ShowGuides
	if symmetryChanged {
		err = e.rebuild()
	}
	if redraw {
		if gerr := e.surf.DrawGuides(next.Settings); err == nil {
			err = gerr
		}
	}
	e.mu.Unlock()

	if redraw {
		e.rendered()
	}
	return err
}

// Save writes the committed document.
func (e *Engine) Save(w io.Writer) error {
	data, err := state.NewRecord(e.store.State()).Marshal()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Load replaces the document with the record read from r and rebuilds the
// snapshot log. Drawing is refused while the record is being read.
func (e *Engine) Load(r io.Reader) (state.Loaded, error) {
	if _, err := e.store.Dispatch(state.LoadStart{}); err != nil {
		return state.Loaded{}, err
	}
	fail := func(err error) (state.Loaded, error) {
		e.store.Dispatch(state.LoadError{Err: err})
		return state.Loaded{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fail(fmt.Errorf("failed to read record: %w", err))
	}
	loaded, err := state.ParseRecord(data)
	if err != nil {
		return fail(err)
	}
	if loaded.Dropped > 0 {
		log.Printf("[engine] dropped %d malformed actions from record", loaded.Dropped)
	}

	e.mu.Lock()
	next, err := e.store.Dispatch(state.LoadSuccess{Record: loaded})
	if err == nil && e.ready.Load() {
		if err = e.rebuild(); err == nil {
			err = e.surf.DrawGuides(next.Settings)
		}
	}
	e.mu.Unlock()

	e.rendered()
	return loaded, err
}

// Composite returns the visible canvas: drawing plus guides when shown.
func (e *Engine) Composite() (*image.RGBA, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surf.Composite(e.store.State().Settings.ShowGuides)
}

// ExportPNG writes the visible canvas as PNG at logical resolution.
func (e *Engine) ExportPNG(w io.Writer) error {
	e.mu.Lock()
	img, err := e.surf.Composite(e.store.State().Settings.ShowGuides)
	logical, _ := e.surf.Logical()
	e.mu.Unlock()
	if err != nil {
		return err
	}
	return export.PNG(w, img, export.PNGOptions{Size: int(logical)})
}

// ExportPDF writes the committed drawing as vector shapes, with guides when
// they are shown. Colors left nil in opts come from the surface options.
func (e *Engine) ExportPDF(w io.Writer, opts export.PDFOptions) error {
	e.mu.Lock()
	s := e.store.State()
	logical, _ := e.surf.Logical()
	center := e.surf.Center()
	defaults := e.surf.Options()
	e.mu.Unlock()
	if logical <= 0 {
		return surface.ErrNotReady
	}
	opts.Size = logical
	if opts.Background == nil {
		opts.Background = defaults.Background
	}
	if opts.Guides.SliceColor == nil {
		opts.Guides.SliceColor = defaults.Guides.SliceColor
	}
	if opts.Guides.ReflectColor == nil {
		opts.Guides.ReflectColor = defaults.Guides.ReflectColor
	}
	opts.Guides.Show = s.Settings.ShowGuides
	return export.PDF(w, s.Committed(), s.Settings.Symmetry(center), opts)
}

// IsBoundary reports whether err only means undo or redo had nothing to do.
func IsBoundary(err error) bool {
	return errors.Is(err, state.ErrNoTransition)
}
