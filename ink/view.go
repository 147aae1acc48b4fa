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

package ink

import (
	"seehuhn.de/go/geom/vec"
)

// ViewTransform maps between the coordinates of a display surface and
// page units.  A page point p is shown at Offset + Scale*p.
type ViewTransform struct {
	Scale  float64
	Offset vec.Vec2
}

// Fit returns the transform which shows a page of the given size as large
// as possible inside a view of the given size, centred.
func Fit(pageWidth, pageHeight, viewWidth, viewHeight float64) ViewTransform {
	if pageWidth <= 0 || pageHeight <= 0 {
		return ViewTransform{Scale: 1}
	}
	s := min(viewWidth/pageWidth, viewHeight/pageHeight)
	return ViewTransform{
		Scale: s,
		Offset: vec.Vec2{
			X: (viewWidth - s*pageWidth) / 2,
			Y: (viewHeight - s*pageHeight) / 2,
		},
	}
}

// ToPage converts a point in view coordinates to page units.
func (v ViewTransform) ToPage(p vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: (p.X - v.Offset.X) / v.Scale,
		Y: (p.Y - v.Offset.Y) / v.Scale,
	}
}

// ToView converts a point in page units to view coordinates.
func (v ViewTransform) ToView(p vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: v.Offset.X + v.Scale*p.X,
		Y: v.Offset.Y + v.Scale*p.Y,
	}
}

// Capture converts a gesture recorded in view coordinates into a stroke.
// The line width is given in view units as well.
func (v ViewTransform) Capture(page int, points []vec.Vec2, style Style) Stroke {
	st := Stroke{
		Page:   page,
		Points: make([]vec.Vec2, len(points)),
		Color:  style.Color,
		Width:  style.Width / v.Scale,
	}
	for i, p := range points {
		st.Points[i] = v.ToPage(p)
	}
	return st
}
