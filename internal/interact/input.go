package interact

import (
	"image"
	"sync"

	"RosetteBoard/internal/state"
)

// PointerKind distinguishes mouse from touch input.
type PointerKind int

const (
	Mouse PointerKind = iota
	Touch
)

// PrimaryButton is the only mouse button that starts a drawing session.
const PrimaryButton = 0

// Event is a pointer event in client coordinates.
type Event struct {
	Kind    PointerKind
	ClientX float64
	ClientY float64
	Button  int
	// Touches is the number of active touch points for touch events.
	Touches int
}

// Bounds is the on-screen rectangle of the canvas element in client units.
type Bounds struct {
	Left, Top, Width, Height float64
}

// ToCanvas converts client coordinates to logical canvas coordinates using
// the element bounds, the physical surface size and the device pixel ratio.
func ToCanvas(b Bounds, physical image.Point, dpr, clientX, clientY float64) state.Point {
	if dpr <= 0 {
		dpr = 1
	}
	scaleX, scaleY := 1.0, 1.0
	if b.Width > 0 {
		scaleX = float64(physical.X) / dpr / b.Width
	}
	if b.Height > 0 {
		scaleY = float64(physical.Y) / dpr / b.Height
	}
	return state.Point{X: (clientX - b.Left) * scaleX, Y: (clientY - b.Top) * scaleY}
}

// Handlers receive the events of one drawing session.
type Handlers struct {
	Move   func(Event)
	End    func(Event)
	Cancel func()
}

// InputSource is the whole input surface. Subscriptions live for a single
// drawing session and are removed by calling the returned function.
type InputSource interface {
	Subscribe(h Handlers) (unsubscribe func())
}

// Source is an InputSource fed by the UI layer.
type Source struct {
	mu   sync.Mutex
	subs map[int]Handlers
	next int
}

func NewSource() *Source {
	return &Source{subs: make(map[int]Handlers)}
}

func (s *Source) Subscribe(h Handlers) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = h
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Subscriptions returns the number of live subscriptions.
func (s *Source) Subscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Source) snapshot() []Handlers {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Handlers, 0, len(s.subs))
	for _, h := range s.subs {
		out = append(out, h)
	}
	return out
}

// Move forwards a pointer move to every subscriber.
func (s *Source) Move(ev Event) {
	for _, h := range s.snapshot() {
		if h.Move != nil {
			h.Move(ev)
		}
	}
}

// End forwards a pointer release.
func (s *Source) End(ev Event) {
	for _, h := range s.snapshot() {
		if h.End != nil {
			h.End(ev)
		}
	}
}

// Cancel forwards a touch cancellation.
func (s *Source) Cancel() {
	for _, h := range s.snapshot() {
		if h.Cancel != nil {
			h.Cancel()
		}
	}
}
