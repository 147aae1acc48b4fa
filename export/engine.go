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

// Package export flattens ink strokes into the pages of a document and
// writes the result to disk.
//
// A document can be written as a single PDF file, with one full-page image
// per page, or as one PNG file per page.  Both kinds of output can be
// produced from both kinds of input.
package export

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"seehuhn.de/go/pdfink"
	"seehuhn.de/go/pdfink/filter"
	"seehuhn.de/go/pdfink/ink"
	"seehuhn.de/go/pdfink/join"
	"seehuhn.de/go/pdfink/raster"
	"seehuhn.de/go/pdfink/source"
)

// An Engine writes annotated documents.
type Engine struct {
	// Dir is the output directory.  If this is empty, the directory of the
	// first source file is used.
	Dir string

	// Now returns the time used in output file names.
	// If this is nil, time.Now is used.
	Now func() time.Time

	// Workers limits the number of pages processed in parallel.
	// If this is zero, runtime.GOMAXPROCS(0) is used.
	Workers int

	// Background is the colour of transparent page areas.
	// If this is nil, opaque white is used.
	Background color.Color
}

// PageResult is the outcome for one page.
type PageResult struct {
	Index int

	// Path is the output file containing the page.  For PDF output, this
	// is the same for all pages.
	Path string

	Err error
}

// Result describes the files written by [Engine.Export].
type Result struct {
	Kind  source.Kind
	Pages []PageResult
}

// Paths returns the output files in page order.  For PDF output, this is a
// single path.  If any page failed, Paths returns nil.
func (r *Result) Paths() []string {
	if r == nil || len(r.Pages) == 0 {
		return nil
	}
	var paths []string
	for _, p := range r.Pages {
		if p.Err != nil {
			return nil
		}
		if len(paths) > 0 && paths[len(paths)-1] == p.Path {
			continue
		}
		paths = append(paths, p.Path)
	}
	return paths
}

// Err returns the error of the first failed page, or nil.
func (r *Result) Err() error {
	if r == nil {
		return nil
	}
	outcomes := make([]join.Outcome[string], len(r.Pages))
	for i, p := range r.Pages {
		outcomes[i] = join.Outcome[string]{Index: p.Index, Err: p.Err}
	}
	return join.FirstError(outcomes)
}

// Failed returns the number of pages which could not be written.
func (r *Result) Failed() int {
	n := 0
	for _, p := range r.Pages {
		if p.Err != nil {
			n++
		}
	}
	return n
}

// Export flattens the strokes in snap into the pages of doc and writes the
// result.  If kind is Unknown, the output has the same kind as the input.
//
// The returned Result has one entry per page, in page order, even if
// some pages fail.  In this case the returned error is the error of the
// first failed page.  For PDF output, a failure of any page fails all
// pages and no file is left behind.  For PNG output, the files for the
// other pages are kept.
func (e *Engine) Export(ctx context.Context, doc *source.Document, snap *ink.Snapshot, kind source.Kind) (*Result, error) {
	if doc == nil {
		return nil, pdfink.Errorf(pdfink.InvalidInput, "export", "", errors.New("no document"))
	}
	if snap != nil && snap.NumPages() != doc.NumPages() {
		return nil, pdfink.Errorf(pdfink.InvalidInput, "export", "",
			fmt.Errorf("strokes are for %d pages, document has %d",
				snap.NumPages(), doc.NumPages()))
	}
	if kind == source.Unknown {
		kind = doc.Kind
	}

	dir := e.Dir
	if dir == "" {
		dir = sourceDir(doc)
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	j := &job{
		engine: e,
		doc:    doc,
		snap:   snap,
		dir:    dir,
		stamp:  now(),
	}

	var res *Result
	switch kind {
	case source.Paginated:
		res = j.writePDF(ctx)
	case source.ImageSet:
		res = j.writeImages(ctx)
	default:
		return nil, pdfink.Errorf(pdfink.InvalidInput, "export", "",
			fmt.Errorf("invalid output kind %d", kind))
	}

	err := res.Err()
	log := pdfink.Logger()
	if err != nil {
		log.Info("export failed", "document", doc.ID, "kind", kind.String(),
			"pages", len(res.Pages), "failed", res.Failed(), "error", err)
	} else {
		log.Info("export finished", "document", doc.ID, "kind", kind.String(),
			"pages", len(res.Pages), "files", res.Paths())
	}
	return res, err
}

// job holds the state of a single call to Export.
type job struct {
	engine *Engine
	doc    *source.Document
	snap   *ink.Snapshot
	dir    string
	stamp  time.Time
}

// flatten renders page i at the target width of the document, applies the
// filters and draws the strokes.
func (j *job) flatten(i int) (*raster.Buffer, error) {
	page := j.doc.Pages()[i]
	opt := &raster.RenderOptions{Background: j.engine.Background}
	buf, err := raster.Render(page, j.doc.TargetWidth, opt)
	if err != nil {
		return nil, err
	}

	filter.ForDocument(j.doc.Grayscale).Apply(buf.RGBA())

	_, _, scale := raster.PageSize(page, j.doc.TargetWidth, raster.CropBox)
	err = j.snap.RenderOnto(buf, i, scale)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func sourceDir(doc *source.Document) string {
	if len(doc.SourcePaths) == 0 {
		return "."
	}
	return filepath.Dir(doc.SourcePaths[0])
}

// removeFile deletes a partially written output file.
func removeFile(path string) {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		pdfink.Logger().Warn("cannot remove incomplete output", "path", path, "error", err)
	}
}
