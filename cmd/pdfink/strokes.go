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

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/pdfink/config"
	"seehuhn.de/go/pdfink/ink"
)

// strokeJSON is one entry of a strokes file.  Page numbers are 0-based,
// points are in page units with the origin in the top-left corner.
type strokeJSON struct {
	Page   int          `json:"page"`
	Points [][2]float64 `json:"points"`
	Color  string       `json:"color,omitempty"`
	Width  float64      `json:"width,omitempty"`
}

// readStrokes reads a JSON array of strokes.  Strokes without colour or
// width use the given pen.
func readStrokes(r io.Reader, pen ink.Style) ([]ink.Stroke, error) {
	var raw []strokeJSON
	err := json.NewDecoder(r).Decode(&raw)
	if err != nil {
		return nil, err
	}

	res := make([]ink.Stroke, len(raw))
	for i, s := range raw {
		st := ink.Stroke{
			Page:   s.Page,
			Points: make([]vec.Vec2, len(s.Points)),
			Color:  pen.Color,
			Width:  pen.Width,
		}
		for j, p := range s.Points {
			st.Points[j] = vec.Vec2{X: p[0], Y: p[1]}
		}
		if s.Color != "" {
			st.Color, err = config.ParseColor(s.Color)
			if err != nil {
				return nil, fmt.Errorf("stroke %d: colour %q: %w", i, s.Color, err)
			}
		}
		if s.Width != 0 {
			st.Width = s.Width
		}
		res[i] = st
	}
	return res, nil
}
