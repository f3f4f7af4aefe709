// Package interact turns pointer input into drawing actions. One Controller
// runs one session at a time: Idle → Drawing → Committing|Discarding → Idle.
package interact

import (
	"image"
	"log"
	"sync"

	"RosetteBoard/internal/sched"
	"RosetteBoard/internal/state"
)

const (
	// sampleDistSq is the squared distance a freehand sample must travel.
	sampleDistSq = 4.0
	// finalDistSq is the squared distance required to keep the release point.
	finalDistSq = 0.1 * 0.1
	// minDragSq is the squared drag below which shape sessions are dropped.
	minDragSq = 4.0
)

type Phase int

const (
	Idle Phase = iota
	Drawing
	Committing
	Discarding
)

func (p Phase) String() string {
	switch p {
	case Drawing:
		return "drawing"
	case Committing:
		return "committing"
	case Discarding:
		return "discarding"
	}
	return "idle"
}

type Committer interface {
	CommitAction(a state.Action) error
	DiscardAction() error
}

type Previewer interface {
	PreviewAction(a state.Action) error
}

// Gate decides whether a session may start and supplies the live settings.
type Gate interface {
	CanDraw() bool
	Settings() state.Settings
}

// Host is everything a Controller drives.
type Host interface {
	Committer
	Previewer
	Gate
}

// Viewport reports where the canvas element is and how large its surface is.
type Viewport interface {
	Viewport() (b Bounds, physical image.Point, dpr float64)
}

type Controller struct {
	host  Host
	view  Viewport
	input InputSource
	loop  *sched.Loop

	mu          sync.Mutex
	phase       Phase
	action      state.Action
	last        state.Point
	pending     bool
	unsubscribe func()
	closed      bool
}

// NewController wires a controller. newTicker drives the preview loop; nil
// means the display rate.
func NewController(host Host, view Viewport, input InputSource, newTicker func() sched.Ticker) *Controller {
	c := &Controller{host: host, view: view, input: input}
	c.loop = sched.NewLoop(newTicker, c.frame)
	return c
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) toCanvas(ev Event) state.Point {
	b, physical, dpr := c.view.Viewport()
	return ToCanvas(b, physical, dpr, ev.ClientX, ev.ClientY)
}

// Press starts a session for the primary button or a single touch. It
// reports whether a session started.
func (c *Controller) Press(ev Event) bool {
	switch ev.Kind {
	case Mouse:
		if ev.Button != PrimaryButton {
			return false
		}
	case Touch:
		if ev.Touches != 1 {
			return false
		}
	}
	if !c.host.CanDraw() {
		return false
	}
	settings := c.host.Settings()
	p := c.toCanvas(ev)

	c.mu.Lock()
	if c.closed || c.phase != Idle {
		c.mu.Unlock()
		return false
	}
	c.phase = Drawing
	c.last = p
	c.pending = false
	c.action = state.Action{
		Tool:      settings.Tool,
		Color:     settings.Color,
		LineWidth: settings.LineWidth,
		StartX:    p.X, StartY: p.Y,
		EndX: p.X, EndY: p.Y,
	}
	if settings.Tool == state.ToolFreehand {
		c.action.Path = []state.Point{p}
	}
	c.unsubscribe = c.input.Subscribe(Handlers{
		Move:   c.Move,
		End:    c.Release,
		Cancel: c.Cancel,
	})
	c.mu.Unlock()

	c.loop.Start()
	return true
}

// Move updates the in-progress action.
func (c *Controller) Move(ev Event) {
	p := c.toCanvas(ev)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Drawing {
		return
	}
	c.last = p
	c.action.EndX, c.action.EndY = p.X, p.Y
	if c.action.Tool == state.ToolFreehand {
		tail := c.action.Path[len(c.action.Path)-1]
		if distSq(tail, p) > sampleDistSq {
			c.action.Path = append(c.action.Path, p)
		}
	}
	c.pending = true
}

// Release finishes the session at the event position.
func (c *Controller) Release(ev Event) {
	c.finish(c.toCanvas(ev), true)
}

// Cancel finishes the session at the last known position.
func (c *Controller) Cancel() {
	c.mu.Lock()
	p := c.last
	c.mu.Unlock()
	c.finish(p, false)
}

func (c *Controller) finish(p state.Point, moved bool) {
	c.mu.Lock()
	if c.phase != Drawing {
		c.mu.Unlock()
		return
	}
	if moved {
		c.last = p
		c.action.EndX, c.action.EndY = p.X, p.Y
	}
	a := c.action.Clone()
	if a.Tool == state.ToolFreehand {
		if tail := a.Path[len(a.Path)-1]; distSq(tail, p) > finalDistSq {
			a.Path = append(a.Path, p)
		}
	}
	accept := accepted(a)
	if accept {
		c.phase = Committing
	} else {
		c.phase = Discarding
	}
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	c.loop.Stop()
	if unsubscribe != nil {
		unsubscribe()
	}

	var err error
	if accept {
		err = c.host.CommitAction(a)
	} else {
		err = c.host.DiscardAction()
	}
	if err != nil {
		log.Printf("[input] %s failed: %v", c.Phase(), err)
	}

	c.mu.Lock()
	c.phase = Idle
	c.action = state.Action{}
	c.pending = false
	c.mu.Unlock()
}

// Close tears the controller down, ending any session without committing.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.phase = Idle
	c.action = state.Action{}
	c.mu.Unlock()

	c.loop.Stop()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// frame runs on the preview loop. It returns false once drawing has ended.
func (c *Controller) frame() bool {
	c.mu.Lock()
	if c.phase != Drawing {
		c.mu.Unlock()
		return false
	}
	if !c.pending {
		c.mu.Unlock()
		return true
	}
	c.pending = false
	a := c.action.Clone()
	c.mu.Unlock()

	if err := c.host.PreviewAction(a); err != nil {
		log.Printf("[input] preview failed: %v", err)
	}
	return true
}

func accepted(a state.Action) bool {
	if a.Tool == state.ToolFreehand {
		return len(a.Path) >= 2
	}
	return a.DragSquared() >= minDragSq || a.Tool.Filled()
}

func distSq(a, b state.Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}
