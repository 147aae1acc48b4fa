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

package source

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"

	"seehuhn.de/go/pdfink"
)

// Origin gives the corner of a page where the y-axis starts.
type Origin int

// These are the possible origins of the page coordinate system.
const (
	// BottomLeft is used by PDF pages, y points up.
	BottomLeft Origin = iota

	// TopLeft is used by images, y points down.
	TopLeft
)

// A Page is one page of a [Document].
type Page struct {
	// Index is the 0-based position of the page in the document.
	Index int

	// Bounds is the visible area of the page.  For PDF pages this is the
	// crop box, clipped to the media box, in PDF user space.  For images
	// this is the pixel rectangle (0, 0, width, height).
	Bounds rect.Rect

	// MediaBox is the media box of a PDF page.  For images, this equals
	// Bounds.
	MediaBox rect.Rect

	// Rotate is the number of degrees by which a PDF page is rotated
	// clockwise when displayed.  This is one of 0, 90, 180 and 270.
	Rotate int

	// Origin tells how Bounds is oriented.
	Origin Origin

	// Ref and Dict give the page dictionary of a PDF page.  Inherited
	// attributes have been merged into Dict.
	Ref  pdf.Reference
	Dict pdf.Dict

	// Path and Format describe the file of an image page.  Format is the
	// name reported by [image.DecodeConfig].
	Path   string
	Format string

	doc *Document
}

// Document returns the document the page belongs to.
func (p *Page) Document() *Document {
	return p.doc
}

// Size returns the width and height of the page as it is displayed,
// taking the page rotation into account.  Ink strokes on the page use
// coordinates in the range [0, width] × [0, height], with the origin in the
// top-left corner.
func (p *Page) Size() (width, height float64) {
	w, h := p.Bounds.Dx(), p.Bounds.Dy()
	if p.Rotate == 90 || p.Rotate == 270 {
		return h, w
	}
	return w, h
}

// Image decodes the image of an image page.
func (p *Page) Image() (image.Image, error) {
	if p.Path == "" {
		return nil, pdfink.PageError(pdfink.InvalidInput, "decode image", p.Index,
			errors.New("not an image page"))
	}
	fd, err := os.Open(p.Path)
	if err != nil {
		return nil, openError(p.Path, err)
	}
	defer fd.Close()

	img, _, err := image.Decode(fd)
	if err != nil {
		e := pdfink.Errorf(pdfink.CorruptSource, "decode image", p.Path, err)
		e.Page = p.Index
		return nil, e
	}
	return img, nil
}

func imagePage(doc *Document, i int, path string) (*Page, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer fd.Close()

	cfg, format, err := image.DecodeConfig(fd)
	if err != nil {
		if strings.EqualFold(filepath.Ext(path), ".heic") {
			err = fmt.Errorf("no decoder for HEIC images: %w", err)
		}
		e := pdfink.Errorf(pdfink.CorruptSource, "open", path, err)
		e.Page = i
		return nil, e
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		e := pdfink.Errorf(pdfink.CorruptSource, "open", path, errors.New("empty image"))
		e.Page = i
		return nil, e
	}

	b := rect.Rect{URx: float64(cfg.Width), URy: float64(cfg.Height)}
	return &Page{
		Index:    i,
		Bounds:   b,
		MediaBox: b,
		Origin:   TopLeft,
		Path:     path,
		Format:   format,
		doc:      doc,
	}, nil
}

func readPageTree(doc *Document, r pdf.Getter) ([]*Page, error) {
	c := pdf.NewCursor(r)

	var pages []*Page
	it := pagetree.NewIterator(r)
	for ref, dict := range it.All() {
		i := len(pages)
		p := pdfPage(c, i, ref, dict)
		p.doc = doc
		pages = append(pages, p)
	}
	if it.Err != nil {
		return nil, it.Err
	}
	return pages, nil
}

// letter is used for pages without a usable media box
var letter = rect.Rect{URx: 612, URy: 792}

// pdfPage describes a page of a PDF file.  Unusable page boxes and
// rotations are replaced by defaults.
func pdfPage(c pdf.Cursor, i int, ref pdf.Reference, dict pdf.Dict) *Page {
	mediaBox := letter
	if mb, err := c.Rectangle(dict["MediaBox"]); err != nil {
		pdfink.Logger().Debug("media box ignored", "page", i, "error", err)
	} else if mb != nil && mb.URx > mb.LLx && mb.URy > mb.LLy {
		mediaBox = rect.Rect{LLx: mb.LLx, LLy: mb.LLy, URx: mb.URx, URy: mb.URy}
	}

	bounds := mediaBox
	if cb, err := c.Rectangle(dict["CropBox"]); err != nil {
		pdfink.Logger().Debug("crop box ignored", "page", i, "error", err)
	} else if cb != nil {
		clipped := rect.Rect{
			LLx: max(cb.LLx, mediaBox.LLx),
			LLy: max(cb.LLy, mediaBox.LLy),
			URx: min(cb.URx, mediaBox.URx),
			URy: min(cb.URy, mediaBox.URy),
		}
		if clipped.URx > clipped.LLx && clipped.URy > clipped.LLy {
			bounds = clipped
		}
	}

	rot, err := c.Integer(dict["Rotate"])
	if err != nil {
		pdfink.Logger().Debug("rotation ignored", "page", i, "error", err)
		rot = 0
	}

	return &Page{
		Index:    i,
		Bounds:   bounds,
		MediaBox: mediaBox,
		Rotate:   normalizeRotation(int(rot)),
		Origin:   BottomLeft,
		Ref:      ref,
		Dict:     dict,
	}
}

// normalizeRotation maps a /Rotate value to one of 0, 90, 180 and 270.
// Values which are not multiples of 90 are ignored.
func normalizeRotation(deg int) int {
	if deg%90 != 0 {
		return 0
	}
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}
