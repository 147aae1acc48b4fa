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

// Package pdfink holds the pieces shared by the pdfink packages: the error
// taxonomy and the package logger.
//
// The work is done in the sub-packages:
//
//	source   opens a PDF file or a list of images as a sequence of pages
//	raster   renders a page into a pixel buffer
//	filter   pixel filters applied after rendering (grayscale)
//	ink      freehand strokes, with append/undo/clear
//	join     single-fire barrier and worker pool for per-page work
//	export   flattens strokes into the pages and writes PDF or PNG files
//	config   typed canvas options and processing requests
//	editor   an editing session tying the above together
//
// A typical session opens a document, records strokes and exports:
//
//	doc, err := source.Open(source.Descriptor{
//	    Paths:       []string{"in.pdf"},
//	    TargetWidth: 1200,
//	}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer doc.Close()
//
//	session := ink.NewSession(doc.NumPages())
//	err = session.Append(ink.Stroke{
//	    Page:   0,
//	    Points: []vec.Vec2{{X: 10, Y: 10}, {X: 100, Y: 80}},
//	    Color:  color.NRGBA{R: 255, A: 255},
//	    Width:  3,
//	})
//	...
//	res, err := (&export.Engine{Dir: "out"}).Export(ctx, doc, session.Snapshot(), source.Paginated)
package pdfink

// Version is the version of the pdfink library.
const Version = "0.1.0"
