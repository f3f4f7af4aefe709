package export

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

type PNGOptions struct {
	// Size, when positive and smaller than the image, downsamples the
	// square image to Size×Size pixels.
	Size int
}

// PNG encodes img losslessly.
func PNG(w io.Writer, img image.Image, opts PNGOptions) error {
	b := img.Bounds()
	if opts.Size > 0 && opts.Size < b.Dx() {
		dst := image.NewRGBA(image.Rect(0, 0, opts.Size, opts.Size*b.Dy()/b.Dx()))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		img = dst
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
