package main

import (
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Display is one physical screen: a drawable surface the active module
// renders onto, plus a flush that pushes the buffer to the panel.
type Display interface {
	Surface() draw.Image
	Flush() error
}

// drawText renders a single line with the fixed 7x13 face. y is the text
// baseline, so the first line of a 64-px panel sits around y=12.
func drawText(dst draw.Image, x, y int, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// fillRect paints a filled rectangle, clipped to the surface.
func fillRect(dst draw.Image, r image.Rectangle, on bool) {
	src := image.Image(image.Black)
	if on {
		src = image.White
	}
	draw.Draw(dst, r.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
}

// clearSurface blanks the whole surface.
func clearSurface(dst draw.Image) {
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
}

// hline draws a 1-px horizontal line from (x0,y) to (x1,y).
func hline(dst draw.Image, x0, x1, y int) {
	fillRect(dst, image.Rect(x0, y, x1, y+1), true)
}

// outlineRect draws a 1-px unfilled rectangle.
func outlineRect(dst draw.Image, r image.Rectangle) {
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), true)
	fillRect(dst, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), true)
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), true)
	fillRect(dst, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), true)
}
