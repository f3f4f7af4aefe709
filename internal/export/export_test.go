package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"RosetteBoard/internal/geometry"
	"RosetteBoard/internal/render"
	"RosetteBoard/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestFileName(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 20, 30, 123_000_000, time.UTC)
	s := state.DefaultSettings("")
	s.RotationOrder = 6
	s.ReflectionEnabled = true
	assert.Equal(t, "rosette_D6_2024-05-01T10-20-30-123Z.png", FileName("png", s, now))

	s.RotationOrder = 4
	s.ReflectionEnabled = false
	assert.Equal(t, "rosette_C4_2024-05-01T10-20-30-123Z.json", FileName(".json", s, now))
}

func TestPNGDownscales(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 40))
	render.Fill(src, color.RGBA{10, 20, 30, 255})

	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, src, PNGOptions{Size: 20}))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 20), img.Bounds())
	r, g, b, a := img.At(10, 10).RGBA()
	assert.InDelta(t, 10, r>>8, 1)
	assert.InDelta(t, 20, g>>8, 1)
	assert.InDelta(t, 30, b>>8, 1)
	assert.InDelta(t, 255, a>>8, 1)

	buf.Reset()
	require.NoError(t, PNG(&buf, src, PNGOptions{}))
	img, err = png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), img.Bounds())
}

func TestPDF(t *testing.T) {
	actions := []state.Action{
		{Tool: state.ToolLine, Color: "#ff0000", LineWidth: 2, StartX: 10, StartY: 10, EndX: 50, EndY: 20},
		{Tool: state.ToolFilledOval, Color: "navy", LineWidth: 5, StartX: 60, StartY: 60, EndX: 60, EndY: 60},
		{Tool: state.ToolRectangle, Color: "#00f", LineWidth: 1, StartX: 20, StartY: 70, EndX: 40, EndY: 90},
		{Tool: state.ToolFreehand, Color: "not a color", LineWidth: 1, Path: []state.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}},
		{Tool: state.ToolFreehand, Color: "#000", LineWidth: 3, Path: []state.Point{{X: 30, Y: 30}, {X: 35, Y: 40}, {X: 45, Y: 41}}},
	}
	sym := geometry.Symmetry{Order: 6, Reflect: true, Center: r2.Vec{X: 50, Y: 50}}
	opts := PDFOptions{
		Size:       100,
		Background: color.White,
		Guides:     render.GuideOptions{Show: true, SliceColor: color.Gray{0xad}, ReflectColor: color.RGBA{0xfd, 0x7e, 0x14, 0xff}},
	}

	var buf bytes.Buffer
	require.NoError(t, PDF(&buf, actions, sym, opts))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	err := PDF(&buf, actions, sym, PDFOptions{})
	assert.Error(t, err)
}
