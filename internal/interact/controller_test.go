package interact

import (
	"image"
	"sync"
	"testing"

	"RosetteBoard/internal/sched"
	"RosetteBoard/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	mu        sync.Mutex
	settings  state.Settings
	blocked   bool
	commits   []state.Action
	discards  int
	previews  []state.Action
	commitErr error
}

func (h *fakeHost) CanDraw() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.blocked
}

func (h *fakeHost) Settings() state.Settings {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.settings
}

func (h *fakeHost) CommitAction(a state.Action) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commits = append(h.commits, a)
	return h.commitErr
}

func (h *fakeHost) DiscardAction() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.discards++
	return nil
}

func (h *fakeHost) PreviewAction(a state.Action) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.previews = append(h.previews, a)
	return nil
}

// identity maps client coordinates one to one onto the canvas.
type identity struct{}

func (identity) Viewport() (Bounds, image.Point, float64) {
	return Bounds{Width: 100, Height: 100}, image.Point{X: 100, Y: 100}, 1
}

func setup(tool state.Tool) (*Controller, *fakeHost, *Source, *sched.ManualTicker) {
	settings := state.DefaultSettings("#112233")
	settings.Tool = tool
	host := &fakeHost{settings: settings}
	src := NewSource()
	ticker := sched.NewManualTicker()
	return NewController(host, identity{}, src, ticker.Factory()), host, src, ticker
}

func at(x, y float64) Event {
	return Event{Kind: Mouse, ClientX: x, ClientY: y}
}

func TestShortLineDragIsDiscarded(t *testing.T) {
	c, host, src, _ := setup(state.ToolLine)
	require.True(t, c.Press(at(10, 10)))
	assert.Equal(t, 1, src.Subscriptions())
	src.Move(at(11, 11))
	src.End(at(11, 11))

	assert.Empty(t, host.commits)
	assert.Equal(t, 1, host.discards)
	assert.Equal(t, 0, src.Subscriptions())
	assert.Equal(t, Idle, c.Phase())
}

func TestLineDragCommits(t *testing.T) {
	c, host, src, _ := setup(state.ToolLine)
	require.True(t, c.Press(at(10, 10)))
	src.Move(at(30, 20))
	src.End(at(40, 50))

	require.Len(t, host.commits, 1)
	a := host.commits[0]
	assert.Equal(t, state.ToolLine, a.Tool)
	assert.Equal(t, "#112233", a.Color)
	assert.Equal(t, 3, a.LineWidth)
	assert.Equal(t, state.Point{X: 10, Y: 10}, state.Point{X: a.StartX, Y: a.StartY})
	assert.Equal(t, state.Point{X: 40, Y: 50}, state.Point{X: a.EndX, Y: a.EndY})
	assert.Nil(t, a.Path)
	assert.Equal(t, 0, src.Subscriptions())

	// A second release after the session ended is ignored.
	c.Release(at(90, 90))
	assert.Len(t, host.commits, 1)
}

func TestFreehandSampling(t *testing.T) {
	c, host, src, _ := setup(state.ToolFreehand)
	require.True(t, c.Press(at(0, 0)))
	for x := 1.0; x <= 6; x++ {
		src.Move(at(x, 0))
	}
	src.End(at(6.05, 0))

	require.Len(t, host.commits, 1)
	path := host.commits[0].Path
	assert.Equal(t, []state.Point{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 6, Y: 0}}, path)

	require.True(t, c.Press(at(50, 50)))
	src.End(at(51, 51))
	require.Len(t, host.commits, 2)
	assert.Equal(t, []state.Point{{X: 50, Y: 50}, {X: 51, Y: 51}}, host.commits[1].Path)
}

func TestFreehandClickIsDiscarded(t *testing.T) {
	c, host, src, _ := setup(state.ToolFreehand)
	require.True(t, c.Press(at(20, 20)))
	src.End(at(20.05, 20))
	assert.Empty(t, host.commits)
	assert.Equal(t, 1, host.discards)
}

func TestFilledClickCommits(t *testing.T) {
	c, host, src, _ := setup(state.ToolFilledOval)
	require.True(t, c.Press(at(20, 20)))
	src.End(at(20, 20))
	require.Len(t, host.commits, 1)
	assert.Equal(t, state.ToolFilledOval, host.commits[0].Tool)
}

func TestPressRefused(t *testing.T) {
	c, host, src, _ := setup(state.ToolLine)

	assert.False(t, c.Press(Event{Kind: Mouse, Button: 2, ClientX: 5, ClientY: 5}))
	assert.False(t, c.Press(Event{Kind: Touch, Touches: 2, ClientX: 5, ClientY: 5}))

	host.blocked = true
	assert.False(t, c.Press(at(5, 5)))
	assert.Equal(t, 0, src.Subscriptions())

	host.blocked = false
	assert.True(t, c.Press(Event{Kind: Touch, Touches: 1, ClientX: 5, ClientY: 5}))
	assert.False(t, c.Press(at(6, 6)), "one session at a time")
	assert.Equal(t, 1, src.Subscriptions())
	c.Close()
}

func TestCancelReleasesAtLastPosition(t *testing.T) {
	c, host, src, _ := setup(state.ToolRectangle)
	require.True(t, c.Press(at(10, 10)))
	src.Move(at(40, 45))
	src.Cancel()

	require.Len(t, host.commits, 1)
	assert.Equal(t, 40.0, host.commits[0].EndX)
	assert.Equal(t, 45.0, host.commits[0].EndY)
	assert.Equal(t, 0, src.Subscriptions())
}

func TestCloseMidSession(t *testing.T) {
	c, host, src, ticker := setup(state.ToolLine)
	require.True(t, c.Press(at(10, 10)))
	src.Move(at(50, 50))
	c.Close()

	assert.Equal(t, 0, src.Subscriptions())
	assert.False(t, ticker.Tick(), "preview loop stopped")
	assert.Empty(t, host.commits)
	assert.False(t, c.Press(at(10, 10)))
}

func TestPreviewLoop(t *testing.T) {
	c, host, src, ticker := setup(state.ToolLine)
	require.True(t, c.Press(at(10, 10)))
	src.Move(at(30, 30))

	require.True(t, ticker.Tick())
	require.True(t, ticker.Tick())
	host.mu.Lock()
	require.Len(t, host.previews, 1, "one preview per change")
	assert.Equal(t, 30.0, host.previews[0].EndX)
	host.mu.Unlock()

	src.End(at(30, 30))
	assert.False(t, ticker.Tick(), "release stops the loop synchronously")
	assert.Len(t, host.commits, 1)
}

func TestToCanvas(t *testing.T) {
	b := Bounds{Left: 100, Top: 50, Width: 300, Height: 300}
	p := ToCanvas(b, image.Point{X: 1200, Y: 1200}, 2, 250, 200)
	assert.Equal(t, state.Point{X: 300, Y: 300}, p)

	p = ToCanvas(Bounds{Width: 600, Height: 600}, image.Point{X: 600, Y: 600}, 1, 12, 34)
	assert.Equal(t, state.Point{X: 12, Y: 34}, p)
}
