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
	"seehuhn.de/go/pdfink"
	"seehuhn.de/go/pdfink/raster"
)

// A Session holds the strokes drawn on one document.
//
// Strokes are kept in a single stack in the order they were appended.
// This order is the drawing order (later strokes cover earlier ones) and
// the undo order, across all pages.
//
// A Session must only be used from one goroutine at a time.  Use
// [Session.Snapshot] to hand the strokes to concurrent readers.
type Session struct {
	numPages int
	strokes  []Stroke
}

// NewSession returns an empty session for a document with numPages pages.
func NewSession(numPages int) *Session {
	return &Session{numPages: numPages}
}

// NumPages returns the number of pages of the document.
func (s *Session) NumPages() int {
	return s.numPages
}

// Append adds a stroke to the top of the stack.
// The stroke is copied, so the caller may reuse st.Points.
// Strokes which do not fit the document are rejected with an
// [pdfink.InvalidInput] error.
func (s *Session) Append(st Stroke) error {
	if err := st.Validate(s.numPages); err != nil {
		return pdfink.PageError(pdfink.InvalidInput, "append stroke", st.Page, err)
	}
	s.strokes = append(s.strokes, st.clone())
	return nil
}

// Undo removes the most recently appended stroke, on whatever page it was
// drawn.  It reports whether a stroke was removed.  Calling Undo on an
// empty session does nothing.
func (s *Session) Undo() bool {
	n := len(s.strokes)
	if n == 0 {
		return false
	}
	s.strokes[n-1] = Stroke{}
	s.strokes = s.strokes[:n-1]
	return true
}

// Clear removes all strokes.
func (s *Session) Clear() {
	s.strokes = nil
}

// Len returns the total number of strokes.
func (s *Session) Len() int {
	return len(s.strokes)
}

// Strokes returns the strokes on the given page, in drawing order.
// The returned strokes must not be modified.
func (s *Session) Strokes(page int) []Stroke {
	var res []Stroke
	for _, st := range s.strokes {
		if st.Page == page {
			res = append(res, st)
		}
	}
	return res
}

// All returns all strokes in the order they were appended.
// The returned strokes must not be modified.
func (s *Session) All() []Stroke {
	return s.strokes[:len(s.strokes):len(s.strokes)]
}

// Snapshot returns an immutable copy of the current strokes.
func (s *Session) Snapshot() *Snapshot {
	snap := &Snapshot{
		numPages: s.numPages,
		byPage:   make(map[int][]Stroke),
		total:    len(s.strokes),
	}
	for i := range s.strokes {
		st := s.strokes[i].clone()
		snap.byPage[st.Page] = append(snap.byPage[st.Page], st)
	}
	return snap
}

// A Snapshot is a read-only copy of the strokes of a session.
// A Snapshot is safe for concurrent use.
type Snapshot struct {
	numPages int
	byPage   map[int][]Stroke
	total    int
}

// NumPages returns the number of pages of the document.
func (s *Snapshot) NumPages() int {
	return s.numPages
}

// Len returns the total number of strokes.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return s.total
}

// Strokes returns the strokes on the given page, in drawing order.
// The returned strokes must not be modified.
func (s *Snapshot) Strokes(page int) []Stroke {
	if s == nil {
		return nil
	}
	return s.byPage[page]
}

// RenderOnto draws the strokes of the given page onto buf.
// The scale factor converts page units to pixels.
func (s *Snapshot) RenderOnto(buf *raster.Buffer, page int, scale float64) error {
	return RenderOnto(buf, s.Strokes(page), scale)
}
