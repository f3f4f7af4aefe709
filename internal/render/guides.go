package render

import (
	"image/color"

	"RosetteBoard/internal/geometry"

	"gonum.org/v1/gonum/spatial/r2"
)

// GuideOptions controls the overlay drawn by DrawGuides.
type GuideOptions struct {
	Show         bool
	SliceColor   color.Color
	ReflectColor color.Color
}

// Physical sizes of the guide strokes.
const (
	reflectWidth = 1.2
	sliceWidth   = 1.0
	sliceDash    = 4.0
)

// DrawGuides clears ctx and, when enabled, draws the mirror axes of a
// dihedral group or the sector boundaries of a cyclic one. C1 has none.
func DrawGuides(ctx *Context, sym geometry.Symmetry, opts GuideOptions) {
	Fill(ctx.Image(), color.Transparent)
	if !opts.Show {
		return
	}
	axes := sym.Axes()
	if len(axes) == 0 {
		return
	}

	style := Style{Color: opts.SliceColor, Width: sliceWidth / ctx.DPR(), Dashes: []float64{sliceDash, sliceDash}}
	if sym.Reflect {
		style = Style{Color: opts.ReflectColor, Width: reflectWidth / ctx.DPR()}
	}
	if style.Color == nil {
		return
	}
	ctx.Apply(style)
	defer ctx.Restore()

	w, h := ctx.Logical()
	for _, angle := range axes {
		end := geometry.RayToBounds(sym.Center, angle, w, h)
		ctx.StrokePolyline([]r2.Vec{sym.Center, end})
	}
}
