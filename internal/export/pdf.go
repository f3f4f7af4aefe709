// Package export writes finished drawings as PNG rasters or PDF vectors and
// names the files.
package export

import (
	"fmt"
	"image/color"
	"io"
	"log"
	"math"

	"RosetteBoard/internal/geometry"
	"RosetteBoard/internal/render"
	"RosetteBoard/internal/state"

	"github.com/jung-kurt/gofpdf"
	"gonum.org/v1/gonum/spatial/r2"
)

// PDFOptions describes the page. Size is the logical canvas edge; one logical
// unit maps to one point.
type PDFOptions struct {
	Size       float64
	Background color.Color
	Guides     render.GuideOptions
}

// PDF draws the orbit of every action as vector shapes.
func PDF(w io.Writer, actions []state.Action, sym geometry.Symmetry, opts PDFOptions) error {
	if opts.Size <= 0 {
		return fmt.Errorf("invalid page size %.1f", opts.Size)
	}
	p := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: opts.Size, Ht: opts.Size},
	})
	p.SetTitle("Rosette", true)
	p.AddPage()
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")

	if opts.Background != nil {
		setFill(p, opts.Background)
		p.Rect(0, 0, opts.Size, opts.Size, "F")
	}

	for i, a := range actions {
		col, err := render.ParseColor(a.Color)
		if err != nil {
			log.Printf("[export] skipping action %d: %v", i, err)
			continue
		}
		setDraw(p, col)
		setFill(p, col)
		p.SetLineWidth(float64(a.LineWidth))
		drawAction(p, a, sym)
	}

	if opts.Guides.Show {
		drawGuides(p, sym, opts)
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func drawAction(p *gofpdf.Fpdf, a state.Action, sym geometry.Symmetry) {
	dot := func(c r2.Vec) {
		p.Circle(c.X, c.Y, math.Max(0.5, float64(a.LineWidth)/2), "F")
	}

	if a.Tool == state.ToolFreehand {
		for _, path := range sym.OrbitPath(a.PathVecs()) {
			if len(path) == 1 {
				dot(path[0])
				continue
			}
			p.MoveTo(path[0].X, path[0].Y)
			for _, pt := range path[1:] {
				p.LineTo(pt.X, pt.Y)
			}
			p.DrawPath("D")
		}
		return
	}

	click := a.Tool.Filled() && a.DragSquared() < 1
	for _, seg := range sym.OrbitSegment(a.Start(), a.End()) {
		if click {
			dot(seg.A)
			continue
		}
		minX, minY := math.Min(seg.A.X, seg.B.X), math.Min(seg.A.Y, seg.B.Y)
		w, h := math.Abs(seg.B.X-seg.A.X), math.Abs(seg.B.Y-seg.A.Y)
		switch a.Tool {
		case state.ToolLine:
			p.Line(seg.A.X, seg.A.Y, seg.B.X, seg.B.Y)
		case state.ToolRectangle, state.ToolFilledRect:
			if w <= 0.1 && h <= 0.1 {
				continue
			}
			p.Rect(minX, minY, w, h, style(a.Tool))
		case state.ToolOval, state.ToolFilledOval:
			if w/2 <= 0.1 && h/2 <= 0.1 {
				continue
			}
			p.Ellipse(minX+w/2, minY+h/2, w/2, h/2, 0, style(a.Tool))
		}
	}
}

func drawGuides(p *gofpdf.Fpdf, sym geometry.Symmetry, opts PDFOptions) {
	col := opts.Guides.SliceColor
	width := 1.0
	if sym.Reflect {
		col, width = opts.Guides.ReflectColor, 1.2
	}
	if col == nil {
		return
	}
	setDraw(p, col)
	p.SetLineWidth(width)
	if !sym.Reflect {
		p.SetDashPattern([]float64{4, 4}, 0)
		defer p.SetDashPattern(nil, 0)
	}
	for _, angle := range sym.Axes() {
		end := geometry.RayToBounds(sym.Center, angle, opts.Size, opts.Size)
		p.Line(sym.Center.X, sym.Center.Y, end.X, end.Y)
	}
}

func style(t state.Tool) string {
	if t.Filled() {
		return "F"
	}
	return "D"
}

func rgb(c color.Color) (int, int, int) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return int(n.R), int(n.G), int(n.B)
}

func setDraw(p *gofpdf.Fpdf, c color.Color) { p.SetDrawColor(rgb(c)) }

func setFill(p *gofpdf.Fpdf, c color.Color) { p.SetFillColor(rgb(c)) }
