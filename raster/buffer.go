// seehuhn.de/go/pdfink - draw ink strokes on PDF pages and images
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gg"
	"seehuhn.de/go/geom/rect"
)

// A Buffer is an RGBA pixel buffer with the origin in the top-left corner.
//
// Vector drawing goes through a [gg.Context], image operations through the
// [image.RGBA] view returned by [Buffer.RGBA].  Both share the same memory.
type Buffer struct {
	pm  *gg.Pixmap
	img *image.RGBA
}

// NewBuffer allocates a transparent buffer of the given size.
func NewBuffer(width, height int) *Buffer {
	pm := gg.NewPixmap(width, height)
	img := &image.RGBA{
		Pix:    pm.Data(),
		Stride: 4 * width,
		Rect:   image.Rect(0, 0, width, height),
	}
	return &Buffer{pm: pm, img: img}
}

// Width returns the width of the buffer in pixels.
func (b *Buffer) Width() int {
	return b.pm.Width()
}

// Height returns the height of the buffer in pixels.
func (b *Buffer) Height() int {
	return b.pm.Height()
}

// RGBA returns an image view of the buffer.
// Changes to the image are visible in the buffer and vice versa.
func (b *Buffer) RGBA() *image.RGBA {
	return b.img
}

// Pixmap returns the underlying gg pixmap.
func (b *Buffer) Pixmap() *gg.Pixmap {
	return b.pm
}

// Context returns a new drawing context which paints into the buffer.
// The context uses device coordinates: one unit is one pixel, y points
// down.  The caller should Close the context when done.
func (b *Buffer) Context() *gg.Context {
	return gg.NewContext(b.pm.Width(), b.pm.Height(), gg.WithPixmap(b.pm))
}

// Fill sets every pixel to c.
func (b *Buffer) Fill(c color.Color) {
	b.pm.Clear(gg.FromColor(c))
}

// Size returns the pixel dimensions of a page with the given bounds,
// rendered at the given width, together with the scale factor from page
// units to pixels.
//
// The height is rounded half up, so that repeated calls give the same
// result.  Both dimensions are at least one pixel.
func Size(bounds rect.Rect, targetWidth float64) (width, height int, scale float64) {
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 || targetWidth <= 0 {
		return 1, 1, 0
	}
	scale = targetWidth / w
	width = max(roundHalfUp(targetWidth), 1)
	height = max(roundHalfUp(h*scale), 1)
	return width, height, scale
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
