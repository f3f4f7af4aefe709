package state

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Tool identifies the primitive an action draws.
type Tool string

const (
	ToolFreehand   Tool = "freehand"
	ToolLine       Tool = "line"
	ToolRectangle  Tool = "rectangle"
	ToolOval       Tool = "oval"
	ToolFilledRect Tool = "filledRect"
	ToolFilledOval Tool = "filledOval"
)

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolFreehand, ToolLine, ToolRectangle, ToolOval, ToolFilledRect, ToolFilledOval}

// Valid reports whether t is a known tool.
func (t Tool) Valid() bool {
	for _, k := range Tools {
		if t == k {
			return true
		}
	}
	return false
}

// Filled reports whether the tool fills its shape. A click with a filled tool
// is a valid action that renders as a dot.
func (t Tool) Filled() bool {
	return t == ToolFilledRect || t == ToolFilledOval
}

// LineWidths is the enumerated set of stroke widths offered by the toolbar.
var LineWidths = []int{1, 2, 3, 5, 8, 13, 21}

// CursorStyles is the set of display-only cursor styles.
var CursorStyles = []string{"crosshair", "pencil", "default"}

// Point is a logical canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec converts the point for geometry calculations.
func (p Point) Vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// Settings holds the drawing configuration. It is always fully defined.
type Settings struct {
	Tool              Tool   `json:"tool"`
	LineWidth         int    `json:"lineWidth"`
	Color             string `json:"color"`
	RotationOrder     int    `json:"rotationOrder"`
	ReflectionEnabled bool   `json:"reflectionEnabled"`
	CursorStyle       string `json:"cursorStyle"`
	ShowGuides        bool   `json:"showGuides"`
}

// DefaultColor is used when no theme color is configured.
const DefaultColor = "#007aff"

// DefaultSettings returns the startup settings with the given theme color.
func DefaultSettings(color string) Settings {
	if color == "" {
		color = DefaultColor
	}
	return Settings{
		Tool:          ToolFreehand,
		LineWidth:     3,
		Color:         color,
		RotationOrder: 1,
		CursorStyle:   "crosshair",
	}
}

// Action is one committed drawing operation. It carries its own style so a
// replay reproduces its first appearance after the live settings change.
type Action struct {
	ID        string  `json:"id,omitempty"`
	Tool      Tool    `json:"tool"`
	Color     string  `json:"color"`
	LineWidth int     `json:"lineWidth"`
	StartX    float64 `json:"startX"`
	StartY    float64 `json:"startY"`
	EndX      float64 `json:"endX"`
	EndY      float64 `json:"endY"`
	Path      []Point `json:"path"`
}

// Start returns the anchor point where the drag began.
func (a Action) Start() r2.Vec { return r2.Vec{X: a.StartX, Y: a.StartY} }

// End returns the anchor point where the drag ended.
func (a Action) End() r2.Vec { return r2.Vec{X: a.EndX, Y: a.EndY} }

// DragSquared returns the squared distance between the anchors.
func (a Action) DragSquared() float64 {
	return r2.Norm2(r2.Sub(a.End(), a.Start()))
}

// PathVecs converts the freehand samples.
func (a Action) PathVecs() []r2.Vec {
	out := make([]r2.Vec, len(a.Path))
	for i, p := range a.Path {
		out[i] = p.Vec()
	}
	return out
}

// Clone returns a deep copy; the path slice is not shared.
func (a Action) Clone() Action {
	if a.Path != nil {
		a.Path = append([]Point(nil), a.Path...)
	}
	return a
}

// Validate checks that the action can be replayed.
func (a Action) Validate() error {
	if !a.Tool.Valid() {
		return fmt.Errorf("%w: unknown tool %q", ErrInvalidAction, a.Tool)
	}
	if a.Color == "" {
		return fmt.Errorf("%w: missing color", ErrInvalidAction)
	}
	if a.LineWidth <= 0 {
		return fmt.Errorf("%w: line width %d", ErrInvalidAction, a.LineWidth)
	}
	for _, v := range []float64{a.StartX, a.StartY, a.EndX, a.EndY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite coordinate", ErrInvalidAction)
		}
	}
	if a.Tool == ToolFreehand {
		if len(a.Path) == 0 {
			return fmt.Errorf("%w: freehand action without path", ErrInvalidAction)
		}
		for _, p := range a.Path {
			if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
				return fmt.Errorf("%w: non-finite path point", ErrInvalidAction)
			}
		}
	}
	return nil
}
