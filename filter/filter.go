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

// Package filter implements pixel filters which are applied to rendered
// pages before the ink strokes are drawn.
package filter

import "image"

// A Filter modifies an image in place.
// Filters must be idempotent and must not change the alpha channel.
type Filter interface {
	Apply(img *image.RGBA)
}

// Pipeline is an ordered list of filters.
type Pipeline []Filter

// ForDocument returns the filters for a document with the given settings.
// The result is empty if no filtering is required.
func ForDocument(grayscale bool) Pipeline {
	var p Pipeline
	if grayscale {
		p = append(p, Grayscale{})
	}
	return p
}

// Apply runs all filters in order.
func (p Pipeline) Apply(img *image.RGBA) {
	for _, f := range p {
		f.Apply(img)
	}
}

// Grayscale desaturates an image, using the Rec. 601 luma weights.
type Grayscale struct{}

// Apply implements the [Filter] interface.
//
// The weights are applied to the premultiplied colour values.  Since the
// weights sum to one, the result is again a valid premultiplied colour and
// pixels with R = G = B are left unchanged.
func (Grayscale) Apply(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i+3 < len(row); i += 4 {
			r := uint32(row[i])
			g := uint32(row[i+1])
			bl := uint32(row[i+2])
			lum := uint8((19595*r + 38470*g + 7471*bl + 1<<15) >> 16)
			row[i] = lum
			row[i+1] = lum
			row[i+2] = lum
		}
	}
}

// IsGray reports whether every pixel of img has R = G = B.
func IsGray(img *image.RGBA) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i+3 < len(row); i += 4 {
			if row[i] != row[i+1] || row[i] != row[i+2] {
				return false
			}
		}
	}
	return true
}
