package state

import (
	"fmt"
	"image"
)

// DefaultMaxHistory bounds both the action log and the snapshot log.
const DefaultMaxHistory = 50

// Snapshot is a full raster capture of the drawing surface in physical pixels.
// Snapshots are never modified after capture.
type Snapshot = *image.RGBA

// State is the whole drawing document: settings, the replayable action log
// and the snapshot log kept in lockstep with it.
//
// History[i] is the surface after Actions[0..i]. HistoryIndex is -1 until the
// surface has produced its first snapshot.
type State struct {
	Settings     Settings
	Actions      []Action
	History      []Snapshot
	HistoryIndex int
	Loading      bool
}

// Initial returns an empty document with default settings.
func Initial(color string) State {
	return State{Settings: DefaultSettings(color), HistoryIndex: -1}
}

// Committed returns the actions up to and including the cursor.
func (s State) Committed() []Action {
	n := s.HistoryIndex + 1
	if n > len(s.Actions) {
		n = len(s.Actions)
	}
	if n <= 0 {
		return nil
	}
	return s.Actions[:n]
}

// Current returns the snapshot under the cursor, or nil.
func (s State) Current() Snapshot {
	if s.HistoryIndex < 0 || s.HistoryIndex >= len(s.History) {
		return nil
	}
	return s.History[s.HistoryIndex]
}

func (s State) CanUndo() bool { return s.HistoryIndex > 0 }

func (s State) CanRedo() bool {
	return s.HistoryIndex < len(s.Actions)-1 && s.HistoryIndex < len(s.History)-1
}

// Transition is a discrete change applied by the Reducer.
type Transition interface {
	Kind() string
}

type (
	UpdateSetting struct {
		Key   string
		Value any
	}
	AddAction      struct{ Action Action }
	CommitSnapshot struct{ Snapshot Snapshot }
	// InitHistory seeds the log with the blank surface once it is ready.
	InitHistory struct{ Snapshot Snapshot }
	// RebuildHistory replaces the snapshot log after a full replay pass;
	// Snapshots[i] renders Actions[0..i] of the tail kept under the cap.
	RebuildHistory struct{ Snapshots []Snapshot }
	Undo           struct{}
	Redo           struct{}
	Clear          struct{}
	LoadStart      struct{}
	LoadSuccess    struct{ Record Loaded }
	LoadError      struct{ Err error }
)

func (UpdateSetting) Kind() string  { return "update-setting" }
func (AddAction) Kind() string      { return "add-action" }
func (CommitSnapshot) Kind() string { return "commit-snapshot" }
func (InitHistory) Kind() string    { return "init-history" }
func (RebuildHistory) Kind() string { return "rebuild-history" }
func (Undo) Kind() string           { return "undo" }
func (Redo) Kind() string           { return "redo" }
func (Clear) Kind() string          { return "clear" }
func (LoadStart) Kind() string      { return "load-start" }
func (LoadSuccess) Kind() string    { return "load-success" }
func (LoadError) Kind() string      { return "load-error" }

// Reducer applies transitions. It never mutates its input state.
type Reducer struct {
	MaxHistory int
	// ClearKeepsSymmetry keeps rotation order and reflection across Clear.
	ClearKeepsSymmetry bool
	// DefaultColor is used by Clear only when the current color is empty.
	DefaultColor string
}

func (r Reducer) limit() int {
	if r.MaxHistory <= 0 {
		return DefaultMaxHistory
	}
	return r.MaxHistory
}

// Reduce returns the state after t. When t is rejected the returned state is
// s and the error explains why; ErrNoTransition marks undo/redo at a boundary.
func (r Reducer) Reduce(s State, t Transition) (State, error) {
	switch t := t.(type) {
	case UpdateSetting:
		next, err := s.Settings.With(t.Key, t.Value)
		if err != nil {
			return s, err
		}
		s.Settings = next
		return s, nil

	case AddAction:
		if err := t.Action.Validate(); err != nil {
			return s, err
		}
		keep := s.HistoryIndex + 1
		if keep < 0 {
			keep = 0
		}
		if keep > len(s.Actions) {
			keep = len(s.Actions)
		}
		actions := make([]Action, keep, keep+1)
		copy(actions, s.Actions[:keep])
		actions = append(actions, t.Action.Clone())
		s.Actions = actions
		if over := len(s.Actions) - r.limit(); over > 0 {
			s.Actions = s.Actions[over:]
			s.History = dropFront(s.History, over)
			s.HistoryIndex -= over
			if s.HistoryIndex < -1 {
				s.HistoryIndex = -1
			}
		}
		return s, nil

	case CommitSnapshot:
		if t.Snapshot == nil {
			return s, fmt.Errorf("%w: nil snapshot", ErrNoTransition)
		}
		at := len(s.Actions) - 1
		if at < 0 {
			at = 0
		}
		if at > len(s.History) {
			at = len(s.History)
		}
		history := make([]Snapshot, at, at+1)
		copy(history, s.History[:at])
		history = append(history, t.Snapshot)
		if over := len(history) - r.limit(); over > 0 {
			history = history[over:]
		}
		s.History = history
		s.HistoryIndex = len(history) - 1
		return s, nil

	case InitHistory:
		if t.Snapshot == nil || len(s.History) != 0 || s.HistoryIndex != -1 || len(s.Actions) != 0 {
			return s, fmt.Errorf("%w: history already initialised", ErrNoTransition)
		}
		s.History = []Snapshot{t.Snapshot}
		s.HistoryIndex = 0
		return s, nil

	case RebuildHistory:
		history := append([]Snapshot(nil), t.Snapshots...)
		if over := len(history) - r.limit(); over > 0 {
			history = history[over:]
		}
		if over := len(s.Actions) - len(history); over > 0 && len(history) > 0 {
			// The replay covered only the newest actions; keep the logs aligned.
			s.Actions = append([]Action(nil), s.Actions[over:]...)
			s.HistoryIndex -= over
		}
		s.History = history
		switch {
		case len(history) == 0:
			s.HistoryIndex = -1
		case s.HistoryIndex < 0 || s.HistoryIndex >= len(history):
			s.HistoryIndex = len(history) - 1
		}
		return s, nil

	case Undo:
		if !s.CanUndo() {
			return s, ErrNoTransition
		}
		s.HistoryIndex--
		return s, nil

	case Redo:
		if !s.CanRedo() {
			return s, ErrNoTransition
		}
		s.HistoryIndex++
		return s, nil

	case Clear:
		defaults := DefaultSettings(r.DefaultColor)
		next := defaults
		next.Color = s.Settings.Color
		if next.Color == "" {
			next.Color = defaults.Color
		}
		next.ShowGuides = s.Settings.ShowGuides
		next.CursorStyle = s.Settings.CursorStyle
		if r.ClearKeepsSymmetry {
			next.RotationOrder = s.Settings.RotationOrder
			next.ReflectionEnabled = s.Settings.ReflectionEnabled
		}
		return State{Settings: next, HistoryIndex: -1}, nil

	case LoadStart:
		s.Loading = true
		return s, nil

	case LoadSuccess:
		settings := s.Settings
		for _, key := range SettingKeys {
			v, ok := t.Record.Settings[key]
			if !ok {
				continue
			}
			if next, err := settings.With(key, v); err == nil {
				settings = next
			}
		}
		actions := make([]Action, 0, len(t.Record.Actions))
		for _, a := range t.Record.Actions {
			if a.Validate() == nil {
				actions = append(actions, a.Clone())
			}
		}
		return State{Settings: settings, Actions: actions, HistoryIndex: -1}, nil

	case LoadError:
		s.Loading = false
		return s, nil
	}
	return s, fmt.Errorf("%w: unhandled transition %T", ErrNoTransition, t)
}

func dropFront(h []Snapshot, n int) []Snapshot {
	if n >= len(h) {
		return nil
	}
	return append([]Snapshot(nil), h[n:]...)
}
