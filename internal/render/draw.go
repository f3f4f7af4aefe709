package render

import (
	"fmt"
	"math"

	"RosetteBoard/internal/geometry"
	"RosetteBoard/internal/state"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// minExtent is the half extent below which a box or ellipse is skipped.
	minExtent = 0.1
	// clickDistance separates a click from a drag for filled shapes.
	clickDistance = 1.0
)

// DrawAction renders every member of the action's orbit under sym using the
// action's own color and width. The context style is restored afterwards.
func DrawAction(ctx *Context, a state.Action, sym geometry.Symmetry) error {
	if !a.Tool.Valid() {
		return fmt.Errorf("%w: unknown tool %q", state.ErrInvalidAction, a.Tool)
	}
	col, err := ParseColor(a.Color)
	if err != nil {
		return err
	}
	if err := sym.Validate(); err != nil {
		return err
	}

	ctx.Apply(Style{Color: col, Width: float64(a.LineWidth)})
	defer ctx.Restore()

	if a.Tool == state.ToolFreehand {
		for _, path := range sym.OrbitPath(a.PathVecs()) {
			if len(path) == 1 {
				ctx.Dot(path[0])
				continue
			}
			ctx.StrokePolyline(path)
		}
		return nil
	}

	click := a.Tool.Filled() && math.Sqrt(a.DragSquared()) < clickDistance
	for _, seg := range sym.OrbitSegment(a.Start(), a.End()) {
		if click {
			ctx.Dot(seg.A)
			continue
		}
		drawPrimitive(ctx, a.Tool, seg.A, seg.B)
	}
	return nil
}

func drawPrimitive(ctx *Context, tool state.Tool, p, q r2.Vec) {
	d := r2.Sub(q, p)
	switch tool {
	case state.ToolLine:
		ctx.StrokePolyline([]r2.Vec{p, q})
	case state.ToolRectangle, state.ToolFilledRect:
		if math.Abs(d.X) <= minExtent && math.Abs(d.Y) <= minExtent {
			return
		}
		if tool == state.ToolFilledRect {
			ctx.FillRect(p, q)
		} else {
			ctx.StrokeRect(p, q)
		}
	case state.ToolOval, state.ToolFilledOval:
		if math.Abs(d.X/2) <= minExtent && math.Abs(d.Y/2) <= minExtent {
			return
		}
		if tool == state.ToolFilledOval {
			ctx.FillEllipse(p, q)
		} else {
			ctx.StrokeEllipse(p, q)
		}
	}
}

// ActionBounds returns the logical area touched by DrawAction, padded by the
// stroke so that restoring it wipes the whole rendering.
func ActionBounds(a state.Action, sym geometry.Symmetry) geometry.Rect {
	var r geometry.Rect
	if a.Tool == state.ToolFreehand {
		r = geometry.PathBounds(sym.OrbitPath(a.PathVecs()))
	} else {
		r = geometry.SegmentBounds(sym.OrbitSegment(a.Start(), a.End()))
	}
	return r.Inset(math.Max(0.5, float64(a.LineWidth)/2) + 1)
}
