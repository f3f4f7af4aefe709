// Package render rasterizes drawing actions and symmetry guides onto RGBA
// surfaces. Coordinates are logical; the context scales them by the device
// pixel ratio.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/spatial/r2"
)

const minRadius = 1e-3

// ErrBadColor is returned for color strings that cannot be resolved.
var ErrBadColor = errors.New("invalid color")

// ParseColor resolves hex, rgb() and SVG named colors.
func ParseColor(s string) (color.Color, error) {
	c, err := oksvg.ParseSVGColor(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrBadColor, s, err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w %q", ErrBadColor, s)
	}
	return c, nil
}

// Style is the stroke and fill state. Width is in logical units; caps and
// joins are always round.
type Style struct {
	Color color.Color
	Width float64
	// Dashes is a dash pattern in physical pixels; empty means solid.
	Dashes []float64
}

// Context draws onto one image.
type Context struct {
	img   *image.RGBA
	dpr   float64
	style Style
	saved []Style

	scanner *rasterx.ScannerGV
	dasher  *rasterx.Dasher
	filler  *rasterx.Filler
}

// NewContext wraps img, which is sized in physical pixels.
func NewContext(img *image.RGBA, dpr float64) *Context {
	if dpr <= 0 {
		dpr = 1
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	return &Context{
		img:     img,
		dpr:     dpr,
		style:   Style{Color: color.Black, Width: 1},
		scanner: scanner,
		dasher:  rasterx.NewDasher(w, h, scanner),
		filler:  rasterx.NewFiller(w, h, scanner),
	}
}

func (c *Context) Image() *image.RGBA { return c.img }

func (c *Context) DPR() float64 { return c.dpr }

// Logical returns the drawable area in logical units.
func (c *Context) Logical() (w, h float64) {
	b := c.img.Bounds()
	return float64(b.Dx()) / c.dpr, float64(b.Dy()) / c.dpr
}

func (c *Context) Style() Style { return c.style }

func (c *Context) SetStyle(s Style) { c.style = s }

// Apply pushes the current style and installs s. Every Apply must be
// matched by a Restore.
func (c *Context) Apply(s Style) {
	c.saved = append(c.saved, c.style)
	c.style = s
}

// Restore reinstates the style active before the last Apply.
func (c *Context) Restore() {
	if n := len(c.saved); n > 0 {
		c.style = c.saved[n-1]
		c.saved = c.saved[:n-1]
	}
}

func (c *Context) fixedP(p r2.Vec) fixed.Point26_6 {
	return rasterx.ToFixedP(p.X*c.dpr, p.Y*c.dpr)
}

func (c *Context) stroke(build func(rasterx.Adder)) {
	width := fixed.Int26_6(math.Max(c.style.Width*c.dpr, 0.5) * 64)
	c.dasher.SetStroke(width, 0, rasterx.RoundCap, nil, rasterx.RoundGap, rasterx.Round, c.style.Dashes, 0)
	c.dasher.SetColor(c.style.Color)
	build(c.dasher)
	c.dasher.Draw()
	c.dasher.Clear()
}

func (c *Context) fill(build func(rasterx.Adder)) {
	c.filler.SetColor(c.style.Color)
	build(c.filler)
	c.filler.Draw()
	c.filler.Clear()
}

// StrokePolyline strokes connected segments through pts. A polyline whose
// points all coincide renders as a dot.
func (c *Context) StrokePolyline(pts []r2.Vec) {
	if len(pts) == 0 {
		return
	}
	if degenerate(pts) {
		c.Dot(pts[0])
		return
	}
	c.stroke(func(a rasterx.Adder) {
		a.Start(c.fixedP(pts[0]))
		for _, p := range pts[1:] {
			a.Line(c.fixedP(p))
		}
		a.Stop(false)
	})
}

// StrokeRect outlines the axis-aligned box with corners p and q.
func (c *Context) StrokeRect(p, q r2.Vec) {
	c.stroke(func(a rasterx.Adder) { c.addRect(a, p, q) })
}

// FillRect fills the axis-aligned box with corners p and q.
func (c *Context) FillRect(p, q r2.Vec) {
	c.fill(func(a rasterx.Adder) { c.addRect(a, p, q) })
}

// StrokeEllipse outlines the ellipse inscribed in the box p-q.
func (c *Context) StrokeEllipse(p, q r2.Vec) {
	c.stroke(func(a rasterx.Adder) { c.addEllipse(a, p, q) })
}

// FillEllipse fills the ellipse inscribed in the box p-q.
func (c *Context) FillEllipse(p, q r2.Vec) {
	c.fill(func(a rasterx.Adder) { c.addEllipse(a, p, q) })
}

// Dot fills a disc of radius max(0.5, width/2) at p.
func (c *Context) Dot(p r2.Vec) {
	r := math.Max(0.5, c.style.Width/2) * c.dpr
	c.fill(func(a rasterx.Adder) {
		rasterx.AddCircle(p.X*c.dpr, p.Y*c.dpr, r, a)
	})
}

func (c *Context) addRect(a rasterx.Adder, p, q r2.Vec) {
	minX, maxX := math.Min(p.X, q.X)*c.dpr, math.Max(p.X, q.X)*c.dpr
	minY, maxY := math.Min(p.Y, q.Y)*c.dpr, math.Max(p.Y, q.Y)*c.dpr
	rasterx.AddRect(minX, minY, maxX, maxY, 0, a)
}

func (c *Context) addEllipse(a rasterx.Adder, p, q r2.Vec) {
	cx, cy := (p.X+q.X)/2*c.dpr, (p.Y+q.Y)/2*c.dpr
	// A zero radius makes the arc parametrisation divide by zero.
	rx := math.Max(math.Abs(q.X-p.X)/2*c.dpr, minRadius)
	ry := math.Max(math.Abs(q.Y-p.Y)/2*c.dpr, minRadius)
	rasterx.AddEllipse(cx, cy, rx, ry, 0, a)
}

func degenerate(pts []r2.Vec) bool {
	for _, p := range pts[1:] {
		if p != pts[0] {
			return false
		}
	}
	return true
}

// Fill replaces every pixel of img with col.
func Fill(img draw.Image, col color.Color) {
	draw.Draw(img, img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}
