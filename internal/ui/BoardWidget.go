package ui

import (
	"errors"
	"image"
	"log"
	"math"
	"sync"
	"time"

	"RosetteBoard/internal/engine"
	"RosetteBoard/internal/interact"
	"RosetteBoard/internal/sched"
	"RosetteBoard/internal/surface"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
)

// BoardWidget shows the engine composite and turns mouse and touch input
// into drawing sessions.
type BoardWidget struct {
	widget.BaseWidget

	engine     *engine.Engine
	input      *interact.Source
	controller *interact.Controller
	resize     *sched.Debouncer
	raster     *canvas.Raster

	mu      sync.Mutex
	size    fyne.Size
	lastPos fyne.Position
	kind    interact.PointerKind

	// OnError reports failures the user should see.
	OnError func(error)
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Cursorable = (*BoardWidget)(nil)
var _ mobile.Touchable = (*BoardWidget)(nil)

func NewBoardWidget(e *engine.Engine, fps int, debounce time.Duration) *BoardWidget {
	b := &BoardWidget{engine: e, input: interact.NewSource()}
	b.raster = canvas.NewRaster(b.draw)
	b.raster.ScaleMode = canvas.ImageScalePixels
	b.controller = interact.NewController(e, b, b.input, sched.EveryFrame(fps))
	b.resize = sched.NewDebouncer(debounce, func() { fyne.Do(b.applySize) })
	e.OnRender = func() { fyne.Do(b.raster.Refresh) }
	b.ExtendBaseWidget(b)
	return b
}

func (b *BoardWidget) draw(w, h int) image.Image {
	img, err := b.engine.Composite()
	if err != nil {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	return img
}

func (b *BoardWidget) scale() float64 {
	if c := fyne.CurrentApp().Driver().CanvasForObject(b); c != nil {
		return float64(c.Scale())
	}
	return 1
}

// applySize hands the settled widget size to the engine. Runs on the UI
// goroutine.
func (b *BoardWidget) applySize() {
	b.mu.Lock()
	size := b.size
	b.mu.Unlock()
	edge := math.Min(float64(size.Width), float64(size.Height))
	if err := b.engine.Resize(edge, b.scale()); err != nil {
		log.Printf("[ui] resize to %.0f: %v", edge, err)
		if !errors.Is(err, surface.ErrNotReady) && b.OnError != nil {
			b.OnError(err)
		}
		return
	}
	b.Refresh()
}

// Viewport reports the displayed canvas rectangle in widget coordinates.
func (b *BoardWidget) Viewport() (interact.Bounds, image.Point, float64) {
	physical, dpr := b.engine.Viewport()
	if dpr <= 0 {
		return interact.Bounds{}, physical, 1
	}
	edge := float64(physical.X) / dpr
	return interact.Bounds{Width: edge, Height: edge}, physical, dpr
}

func mouseEvent(pos fyne.Position, button desktop.MouseButton) interact.Event {
	ev := interact.Event{Kind: interact.Mouse, ClientX: float64(pos.X), ClientY: float64(pos.Y)}
	if button != desktop.MouseButtonPrimary {
		ev.Button = interact.PrimaryButton + 1
	}
	return ev
}

// touchEvent describes a single finger; the drivers report touches one at a
// time.
func touchEvent(pos fyne.Position) interact.Event {
	return interact.Event{Kind: interact.Touch, ClientX: float64(pos.X), ClientY: float64(pos.Y), Touches: 1}
}

func (b *BoardWidget) pointer(pos fyne.Position) interact.Event {
	b.mu.Lock()
	b.lastPos = pos
	kind := b.kind
	b.mu.Unlock()
	if kind == interact.Touch {
		return touchEvent(pos)
	}
	return mouseEvent(pos, desktop.MouseButtonPrimary)
}

func (b *BoardWidget) press(pos fyne.Position, ev interact.Event) {
	b.mu.Lock()
	b.lastPos = pos
	b.kind = ev.Kind
	b.mu.Unlock()
	b.controller.Press(ev)
}

// Cursor shows the pointer chosen by the cursor style setting.
func (b *BoardWidget) Cursor() desktop.Cursor {
	return cursorFor(b.engine.Settings().CursorStyle)
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	b.press(e.Position, mouseEvent(e.Position, e.Button))
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	b.input.End(mouseEvent(e.Position, e.Button))
}

func (b *BoardWidget) TouchDown(e *mobile.TouchEvent) {
	b.press(e.Position, touchEvent(e.Position))
}

func (b *BoardWidget) TouchUp(e *mobile.TouchEvent) {
	b.input.End(touchEvent(e.Position))
}

func (b *BoardWidget) TouchCancel(*mobile.TouchEvent) {
	b.input.Cancel()
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.input.Move(b.pointer(e.Position))
}

func (b *BoardWidget) DragEnd() {
	b.mu.Lock()
	pos := b.lastPos
	b.mu.Unlock()
	b.input.End(b.pointer(pos))
}

// Close ends any session and stops pending resizes.
func (b *BoardWidget) Close() {
	b.resize.Cancel()
	b.controller.Close()
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return &boardWidgetRenderer{board: b}
}

type boardWidgetRenderer struct {
	board *BoardWidget
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	b := r.board
	b.mu.Lock()
	changed := b.size != size
	b.size = size
	b.mu.Unlock()

	bounds, _, _ := b.Viewport()
	edge := float32(bounds.Width)
	if edge <= 0 {
		edge = fyne.Min(size.Width, size.Height)
	}
	b.raster.Resize(fyne.NewSize(edge, edge))
	b.raster.Move(fyne.NewPos(0, 0))
	if changed {
		b.resize.Trigger()
	}
}

func (r *boardWidgetRenderer) MinSize() fyne.Size { return fyne.NewSize(300, 300) }

func (r *boardWidgetRenderer) Refresh() {
	r.Layout(r.board.Size())
	r.board.raster.Refresh()
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.board.raster}
}

func (r *boardWidgetRenderer) Destroy() {}
