package ui

import (
	"image/color"
	"testing"
	"time"

	"RosetteBoard/internal/engine"
	"RosetteBoard/internal/interact"
	"RosetteBoard/internal/render"
	"RosetteBoard/internal/state"
	"RosetteBoard/internal/surface"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoard(t *testing.T) (*engine.Engine, *BoardWidget) {
	t.Helper()
	test.NewApp()
	e := engine.New(engine.Options{
		Surface: surface.Options{
			TargetSize: 64,
			Background: color.White,
			Guides: render.GuideOptions{
				SliceColor:   color.RGBA{0xad, 0xb5, 0xbd, 0xff},
				ReflectColor: color.RGBA{0xfd, 0x7e, 0x14, 0xff},
			},
		},
		Reducer: state.Reducer{MaxHistory: 10},
	})
	require.NoError(t, e.Resize(100, 1))
	require.NoError(t, e.UpdateSetting(state.KeyTool, "line"))
	b := NewBoardWidget(e, 60, time.Hour)
	t.Cleanup(b.Close)
	return e, b
}

func touch(x, y float32) *mobile.TouchEvent {
	return &mobile.TouchEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}}
}

func TestBoardCursorFollowsSetting(t *testing.T) {
	e, b := newBoard(t)
	assert.Equal(t, desktop.CrosshairCursor, b.Cursor())

	require.NoError(t, e.UpdateSetting(state.KeyCursorStyle, "pencil"))
	assert.Equal(t, pencilCursor{}, b.Cursor())

	require.NoError(t, e.UpdateSetting(state.KeyCursorStyle, "default"))
	assert.Equal(t, desktop.DefaultCursor, b.Cursor())
}

func TestPencilCursorHotSpot(t *testing.T) {
	img, x, y := pencilCursor{}.Image()
	require.NotNil(t, img)
	assert.Equal(t, 1, x)
	_, _, _, a := img.At(x, y).RGBA()
	assert.NotZero(t, a, "hot spot sits on the tip")
}

func TestBoardTouchDrawing(t *testing.T) {
	e, b := newBoard(t)

	b.TouchDown(touch(40, 32))
	assert.Equal(t, interact.Drawing, b.controller.Phase())
	b.TouchCancel(touch(40, 32))
	assert.Equal(t, interact.Idle, b.controller.Phase())
	assert.Empty(t, e.State().Actions)

	b.TouchDown(touch(40, 32))
	b.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(55, 32)}})
	b.TouchUp(touch(55, 32))
	require.Len(t, e.State().Actions, 1)
	a := e.State().Actions[0]
	assert.Equal(t, 40.0, a.StartX)
	assert.Equal(t, 55.0, a.EndX)
	assert.Equal(t, interact.Idle, b.controller.Phase())
}

func TestBoardSecondaryButtonDoesNotDraw(t *testing.T) {
	e, b := newBoard(t)
	b.MouseDown(&desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(40, 32)},
		Button:     desktop.MouseButtonSecondary,
	})
	assert.Equal(t, interact.Idle, b.controller.Phase())
	assert.Empty(t, e.State().Actions)
}

func TestToolbarCursorStyle(t *testing.T) {
	e, _ := newBoard(t)
	tb := NewToolbar(e, Actions{}, func(err error) { t.Error(err) })
	assert.Equal(t, "crosshair", tb.cursor.Selected)

	tb.cursor.SetSelected("pencil")
	assert.Equal(t, "pencil", e.Settings().CursorStyle)

	require.NoError(t, e.UpdateSetting(state.KeyCursorStyle, "default"))
	tb.Sync(e.Settings())
	assert.Equal(t, "default", tb.cursor.Selected)
	assert.Equal(t, "default", e.Settings().CursorStyle)
}
