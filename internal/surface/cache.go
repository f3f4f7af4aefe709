package surface

import (
	"image"

	"golang.org/x/image/draw"
)

// cache holds the committed bitmap. It has exactly three operations.
type cache struct {
	img *image.RGBA
}

func (c *cache) capture(src *image.RGBA) {
	if c.img == nil || c.img.Bounds() != src.Bounds() {
		c.img = image.NewRGBA(src.Bounds())
	}
	copy(c.img.Pix, src.Pix)
}

// restore copies the cached pixels inside r back into dst; an empty r means
// the whole surface. It reports false when the cache cannot serve dst.
func (c *cache) restore(dst *image.RGBA, r image.Rectangle) bool {
	if c.img == nil || c.img.Bounds() != dst.Bounds() {
		return false
	}
	if r.Empty() {
		copy(dst.Pix, c.img.Pix)
		return true
	}
	r = r.Intersect(dst.Bounds())
	draw.Draw(dst, r, c.img, r.Min, draw.Src)
	return true
}

func (c *cache) invalidate() {
	c.img = nil
}

func clone(src *image.RGBA) *image.RGBA {
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	return out
}
