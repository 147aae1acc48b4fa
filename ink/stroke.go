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

// Package ink records freehand strokes drawn on the pages of a document.
//
// Stroke coordinates are given in page units with the origin in the
// top-left corner of the visible page area (the crop box for PDF pages,
// the full image for raster pages), and y pointing down.  Renderers scale
// these coordinates to the pixel size of the output.
package ink

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// A Stroke is one continuous freehand path.
type Stroke struct {
	// Page is the 0-based index of the page the stroke was drawn on.
	Page int

	// Points is the path of the stroke.
	// A stroke with a single point is drawn as a dot.
	Points []vec.Vec2

	Color color.NRGBA

	// Width is the line width in page units.
	Width float64
}

// Style is the pen used for new strokes.
type Style struct {
	Color color.NRGBA
	Width float64
}

// DefaultStyle is the pen used when nothing else is configured.
var DefaultStyle = Style{
	Color: color.NRGBA{A: 255},
	Width: 2,
}

var (
	errNoPoints  = errors.New("stroke has no points")
	errBadWidth  = errors.New("stroke width must be positive")
	errNotFinite = errors.New("stroke coordinates must be finite")
)

// Validate checks that the stroke can be drawn on a document with the
// given number of pages.
func (s *Stroke) Validate(numPages int) error {
	if s.Page < 0 || s.Page >= numPages {
		return fmt.Errorf("page %d out of range [0, %d)", s.Page, numPages)
	}
	if len(s.Points) == 0 {
		return errNoPoints
	}
	if !(s.Width > 0) || math.IsInf(s.Width, 0) {
		return errBadWidth
	}
	for _, p := range s.Points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return errNotFinite
		}
	}
	return nil
}

// Bounds returns the area covered by the stroke, including the line width.
func (s *Stroke) Bounds() rect.Rect {
	if len(s.Points) == 0 {
		return rect.Rect{}
	}
	r := rect.Rect{
		LLx: s.Points[0].X, LLy: s.Points[0].Y,
		URx: s.Points[0].X, URy: s.Points[0].Y,
	}
	for _, p := range s.Points[1:] {
		r.LLx = min(r.LLx, p.X)
		r.LLy = min(r.LLy, p.Y)
		r.URx = max(r.URx, p.X)
		r.URy = max(r.URy, p.Y)
	}
	d := s.Width / 2
	r.LLx -= d
	r.LLy -= d
	r.URx += d
	r.URy += d
	return r
}

func (s *Stroke) clone() Stroke {
	res := *s
	res.Points = append([]vec.Vec2(nil), s.Points...)
	return res
}
