package ui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2/driver/desktop"
)

// pencilCursor is a small pencil with its hot spot on the tip.
type pencilCursor struct{}

var pencilImage = drawPencil(16)

func (pencilCursor) Image() (image.Image, int, int) {
	return pencilImage, 1, pencilImage.Bounds().Dy() - 2
}

func drawPencil(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	body := color.RGBA{0xf0, 0x8c, 0x00, 0xff}
	edge := color.RGBA{0x21, 0x25, 0x29, 0xff}
	for i := 1; i < size-1; i++ {
		x, y := i, size-1-i
		c := body
		if i < 4 {
			c = edge
		}
		img.SetRGBA(x, y, c)
		img.SetRGBA(x+1, y, edge)
		img.SetRGBA(x, y-1, edge)
	}
	return img
}

// cursorFor maps a cursor style setting to the pointer shown over the board.
func cursorFor(style string) desktop.Cursor {
	switch style {
	case "pencil":
		return pencilCursor{}
	case "default":
		return desktop.DefaultCursor
	}
	return desktop.CrosshairCursor
}
