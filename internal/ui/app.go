package ui

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"RosetteBoard/internal/engine"
	"RosetteBoard/internal/export"
	"RosetteBoard/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

type Options struct {
	Engine         *engine.Engine
	FPS            int
	ResizeDebounce time.Duration
	// Status is shown in the status bar at startup, e.g. the mirror address.
	Status string
	// OnClose runs after the window closed.
	OnClose func()
}

// Shell is the main window and its controls.
type Shell struct {
	opts    Options
	engine  *engine.Engine
	window  fyne.Window
	board   *BoardWidget
	toolbar *Toolbar
	status  *widget.Label
}

// SetStatus updates the status bar from any goroutine.
func (s *Shell) SetStatus(text string) {
	fyne.Do(func() { s.status.SetText(text) })
}

func (s *Shell) showError(err error) {
	log.Printf("[ui] %v", err)
	s.SetStatus("Error: " + err.Error())
}

// RunApp builds the window and blocks until it is closed.
func RunApp(opts Options) {
	a := app.NewWithID("io.rosetteboard")
	w := a.NewWindow("RosetteBoard")
	w.Resize(fyne.NewSize(900, 800))

	s := &Shell{opts: opts, engine: opts.Engine, window: w, status: widget.NewLabel("Ready")}
	if opts.Status != "" {
		s.status.SetText(opts.Status)
	}
	s.board = NewBoardWidget(opts.Engine, opts.FPS, opts.ResizeDebounce)
	s.board.OnError = s.showError
	s.toolbar = NewToolbar(opts.Engine, Actions{
		Undo:      s.undo,
		Redo:      s.redo,
		Clear:     s.clear,
		Save:      s.save,
		Load:      s.load,
		ExportPNG: s.exportPNG,
		ExportPDF: s.exportPDF,
	}, s.showError)

	unsubscribe := opts.Engine.Subscribe(func(c state.Change) {
		switch c.Transition.(type) {
		case state.UpdateSetting, state.Clear, state.LoadSuccess:
			settings := c.State.Settings
			fyne.Do(func() { s.toolbar.Sync(settings) })
		}
	})

	s.addShortcuts()
	w.SetContent(container.NewBorder(s.toolbar, s.status, nil, nil, s.board))
	w.SetOnClosed(func() {
		unsubscribe()
		s.board.Close()
		if opts.OnClose != nil {
			opts.OnClose()
		}
	})
	w.ShowAndRun()
}

func (s *Shell) addShortcuts() {
	c := s.window.Canvas()
	bind := func(key fyne.KeyName, fn func()) {
		c.AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { fn() })
	}
	bind(fyne.KeyZ, s.undo)
	bind(fyne.KeyY, s.redo)
	bind(fyne.KeyS, s.save)
	bind(fyne.KeyO, s.load)
}

func (s *Shell) undo() {
	if err := s.engine.Undo(); err != nil && !engine.IsBoundary(err) {
		s.showError(err)
	}
}

func (s *Shell) redo() {
	if err := s.engine.Redo(); err != nil && !engine.IsBoundary(err) {
		s.showError(err)
	}
}

func (s *Shell) clear() {
	dialog.ShowConfirm("Clear", "Erase the whole drawing? This cannot be undone.", func(ok bool) {
		if !ok {
			return
		}
		if err := s.engine.Clear(); err != nil {
			s.showError(err)
			return
		}
		s.SetStatus("Cleared")
	}, s.window)
}

// saveAs asks for a destination named after the current symmetry and passes
// it to write.
func (s *Shell) saveAs(ext string, write func(io.Writer) error) {
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			s.showError(err)
			return
		}
		if w == nil {
			return
		}
		defer func() {
			if err := w.Close(); err != nil {
				log.Printf("[ui] error closing writer: %v", err)
			}
		}()
		if err := write(w); err != nil {
			s.showError(err)
			return
		}
		s.SetStatus("Saved " + w.URI().Name())
	}, s.window)
	d.SetFileName(export.FileName(ext, s.engine.Settings(), time.Now()))
	d.SetFilter(storage.NewExtensionFileFilter([]string{"." + ext}))
	d.Show()
}

func (s *Shell) save() {
	s.saveAs("json", s.engine.Save)
}

func (s *Shell) exportPNG() {
	s.saveAs("png", s.engine.ExportPNG)
}

func (s *Shell) exportPDF() {
	s.saveAs("pdf", func(w io.Writer) error {
		return s.engine.ExportPDF(w, export.PDFOptions{})
	})
}

func (s *Shell) load() {
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			s.showError(err)
			return
		}
		if r == nil {
			return
		}
		defer r.Close()
		s.SetStatus("Loading " + r.URI().Name() + "...")
		loaded, err := s.engine.Load(r)
		if err != nil {
			if errors.Is(err, state.ErrInvalidRecord) {
				dialog.ShowError(err, s.window)
			}
			s.showError(err)
			return
		}
		msg := fmt.Sprintf("Loaded %d actions", len(loaded.Actions))
		if loaded.Dropped > 0 {
			msg += fmt.Sprintf(" (%d malformed skipped)", loaded.Dropped)
		}
		s.SetStatus(msg)
	}, s.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	d.Show()
}
