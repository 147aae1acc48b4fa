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

// Package editor ties documents, ink sessions and export together into the
// operations of an interactive editing view.
package editor

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"time"

	"golang.org/x/exp/slices"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/pdfink"
	"seehuhn.de/go/pdfink/config"
	"seehuhn.de/go/pdfink/export"
	"seehuhn.de/go/pdfink/filter"
	"seehuhn.de/go/pdfink/ink"
	"seehuhn.de/go/pdfink/raster"
	"seehuhn.de/go/pdfink/source"
)

// pdfExportScale is the number of pixels per PDF unit used when no
// export width is configured.
const pdfExportScale = 2

// Options control how an editor opens and writes documents.
type Options struct {
	// Dir is the output directory.  If this is empty, files are written
	// next to the input.
	Dir string

	// TargetWidth is the export width in pixels.  If this is zero, image
	// documents are exported at the width of the first image and PDF
	// documents at pdfExportScale pixels per PDF unit.
	TargetWidth float64

	// Grayscale requests grayscale output.
	Grayscale bool

	// Workers limits the number of pages processed in parallel.
	Workers int

	// Now returns the time used in output file names.
	Now func() time.Time

	Password     string
	ReadPassword func(ID []byte, try int) string
}

// An Editor holds one document together with the strokes drawn on it.
//
// An Editor is not safe for concurrent use.
type Editor struct {
	opt     Options
	canvas  *config.Canvas
	doc     *source.Document
	session *ink.Session
}

// New returns an editor without a document.
func New(opt *Options) *Editor {
	e := &Editor{canvas: config.Default()}
	if opt != nil {
		e.opt = *opt
	}
	return e
}

// Configure applies an option map, see [config.Canvas.Apply].
//
// If the options change the file list or the canvas type, the document is
// reloaded and all strokes are discarded.  If loading fails, the previous
// document stays open and the load error is returned together with any
// rejected options.
func (e *Editor) Configure(opts map[string]any) error {
	before := *e.canvas
	err := e.canvas.Apply(opts)

	changed := before.CanvasType != e.canvas.CanvasType ||
		!slices.Equal(before.FilePath, e.canvas.FilePath)
	if changed && len(e.canvas.FilePath) > 0 {
		if loadErr := e.load(); loadErr != nil {
			e.canvas.FilePath = before.FilePath
			e.canvas.CanvasType = before.CanvasType
			err = errors.Join(err, loadErr)
		}
	}
	return err
}

// Canvas returns a copy of the current settings.
func (e *Editor) Canvas() config.Canvas {
	c := *e.canvas
	c.FilePath = slices.Clone(c.FilePath)
	return c
}

func (e *Editor) load() error {
	width := e.opt.TargetWidth
	if width <= 0 {
		width = 1
	}
	desc := e.canvas.Descriptor(width, e.opt.Grayscale)
	doc, err := source.Open(desc, &source.Options{
		Password:     e.opt.Password,
		ReadPassword: e.opt.ReadPassword,
	})
	if err != nil {
		return err
	}
	if e.opt.TargetWidth <= 0 {
		doc.TargetWidth = nativeWidth(doc)
	}

	if e.doc != nil {
		e.doc.Close()
	}
	e.doc = doc
	e.session = ink.NewSession(doc.NumPages())
	pdfink.Logger().Info("document loaded",
		"id", doc.ID, "kind", doc.Kind.String(), "pages", doc.NumPages())
	return nil
}

func nativeWidth(doc *source.Document) float64 {
	w, _ := doc.Pages()[0].Size()
	if doc.Kind == source.Paginated {
		w *= pdfExportScale
	}
	return max(w, 1)
}

// Document returns the current document, or nil if none is loaded.
func (e *Editor) Document() *source.Document {
	return e.doc
}

// Session returns the strokes of the current document, or nil if no
// document is loaded.
func (e *Editor) Session() *ink.Session {
	return e.session
}

var errNoDocument = errors.New("no document loaded")

// Draw records a gesture on the given page.  The points are in view
// coordinates and are converted to page units using view.  The pen is
// taken from the current settings.
func (e *Editor) Draw(page int, points []vec.Vec2, view ink.ViewTransform) error {
	if e.session == nil {
		return pdfink.Errorf(pdfink.InvalidInput, "draw", "", errNoDocument)
	}
	if !(view.Scale > 0) {
		return pdfink.PageError(pdfink.InvalidInput, "draw", page,
			errors.New("view scale must be positive"))
	}
	return e.session.Append(view.Capture(page, points, e.canvas.Style()))
}

// Undo removes the most recent stroke.
func (e *Editor) Undo() bool {
	if e.session == nil {
		return false
	}
	return e.session.Undo()
}

// Clear removes all strokes.
func (e *Editor) Clear() {
	if e.session != nil {
		e.session.Clear()
	}
}

// Preview renders a page with its strokes at the given width.
func (e *Editor) Preview(page int, width float64) (*raster.Buffer, error) {
	if e.doc == nil {
		return nil, pdfink.Errorf(pdfink.InvalidInput, "preview", "", errNoDocument)
	}
	p, err := e.doc.Page(page)
	if err != nil {
		return nil, err
	}
	buf, err := raster.Render(p, width, nil)
	if err != nil {
		return nil, err
	}
	filter.ForDocument(e.doc.Grayscale).Apply(buf.RGBA())

	_, _, scale := raster.PageSize(p, width, raster.CropBox)
	err = ink.RenderOnto(buf, e.session.Strokes(page), scale)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// A SaveEvent reports the outcome of [Editor.Save].
type SaveEvent struct {
	// URL lists the written files as file URLs, in page order.  This is
	// nil if saving failed.
	URL []string

	Err error

	// Result gives per-page details.  It is nil if the export did not
	// start.
	Result *export.Result
}

// Save flattens the strokes into the document and writes the result.
// PDF documents are saved as PDF, image documents as one PNG per image.
func (e *Editor) Save(ctx context.Context) SaveEvent {
	return e.SaveAs(ctx, source.Unknown)
}

// SaveAs is like [Editor.Save], but writes the given kind of output.
// If kind is Unknown, the output has the same kind as the document.
func (e *Editor) SaveAs(ctx context.Context, kind source.Kind) SaveEvent {
	if e.doc == nil {
		return SaveEvent{Err: pdfink.Errorf(pdfink.InvalidInput, "save", "", errNoDocument)}
	}
	eng := &export.Engine{
		Dir:     e.opt.Dir,
		Now:     e.opt.Now,
		Workers: e.opt.Workers,
	}
	res, err := eng.Export(ctx, e.doc, e.session.Snapshot(), kind)
	if err != nil {
		return SaveEvent{Err: err, Result: res}
	}

	paths := res.Paths()
	urls := make([]string, len(paths))
	for i, p := range paths {
		urls[i] = fileURL(p)
	}
	return SaveEvent{URL: urls, Result: res}
}

// Close releases the current document.
func (e *Editor) Close() error {
	if e.doc == nil {
		return nil
	}
	err := e.doc.Close()
	e.doc = nil
	e.session = nil
	return err
}

func fileURL(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := &url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
