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
	"github.com/gogpu/gg"

	"seehuhn.de/go/pdfink"
	"seehuhn.de/go/pdfink/raster"
)

// RenderOnto draws the strokes onto buf, in order.
//
// Stroke coordinates and widths are multiplied by scale to obtain pixel
// coordinates.  Strokes are drawn with round caps and joins.
func RenderOnto(buf *raster.Buffer, strokes []Stroke, scale float64) error {
	if len(strokes) == 0 {
		return nil
	}

	dc := buf.Context()
	defer dc.Close()

	for i := range strokes {
		st := &strokes[i]
		if len(st.Points) == 0 {
			continue
		}
		dc.SetColor(st.Color)
		w := st.Width * scale

		var err error
		if len(st.Points) == 1 {
			p := st.Points[0]
			dc.DrawCircle(p.X*scale, p.Y*scale, w/2)
			err = dc.Fill()
		} else {
			dc.SetStroke(gg.RoundStroke().WithWidth(w))
			p := st.Points[0]
			dc.MoveTo(p.X*scale, p.Y*scale)
			for _, p := range st.Points[1:] {
				dc.LineTo(p.X*scale, p.Y*scale)
			}
			err = dc.Stroke()
		}
		if err != nil {
			return pdfink.PageError(pdfink.RenderFailure, "draw stroke", st.Page, err)
		}
	}
	return nil
}
