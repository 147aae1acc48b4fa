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

// Package raster renders pages into pixel buffers.
//
// PDF pages are drawn by walking their content streams with a
// [reader.Reader] and painting every path, glyph and image into a gg
// context.  Text is drawn for embedded TrueType, OpenType and CFF fonts.
// Image pages are scaled to the requested size.
package raster

import (
	"errors"
	"image/color"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics/content"
	"seehuhn.de/go/pdf/graphics/extract"
	pdfpage "seehuhn.de/go/pdf/page"

	"seehuhn.de/go/pdfink"
	"seehuhn.de/go/pdfink/source"
)

// Box selects the page area which is rendered.
type Box int

// These are the supported page boxes.
const (
	CropBox Box = iota
	MediaBox
)

// RenderOptions control how a page is rendered.
type RenderOptions struct {
	// Background is used to fill the buffer before the page is drawn.
	// If this is nil, opaque white is used.
	Background color.Color

	// Box selects the visible area of PDF pages.
	Box Box
}

var defaultRenderOptions = &RenderOptions{}

// PageSize returns the pixel size of a rendered page and the factor which
// converts page units to pixels.
func PageSize(page *source.Page, targetWidth float64, box Box) (width, height int, scale float64) {
	b := pageBox(page, box)
	w, h := b.Dx(), b.Dy()
	if page.Rotate == 90 || page.Rotate == 270 {
		w, h = h, w
	}
	return Size(rect.Rect{URx: w, URy: h}, targetWidth)
}

func pageBox(page *source.Page, box Box) rect.Rect {
	if box == MediaBox && page.Origin == source.BottomLeft {
		return page.MediaBox
	}
	return page.Bounds
}

// Render draws a page into a new buffer which is targetWidth pixels wide.
// The height is chosen to preserve the aspect ratio of the page.
//
// Errors are of type [*pdfink.Error] with kind RenderFailure, or
// CorruptSource if the image file of an image page cannot be decoded.
func Render(page *source.Page, targetWidth float64, opt *RenderOptions) (*Buffer, error) {
	if opt == nil {
		opt = defaultRenderOptions
	}
	if !(targetWidth > 0) {
		return nil, pdfink.PageError(pdfink.InvalidInput, "render", page.Index,
			errors.New("target width must be positive"))
	}

	w, h, scale := PageSize(page, targetWidth, opt.Box)
	if scale == 0 {
		return nil, pdfink.PageError(pdfink.RenderFailure, "render", page.Index,
			errors.New("empty page"))
	}

	buf := NewBuffer(w, h)
	bg := opt.Background
	if bg == nil {
		bg = color.White
	}
	buf.Fill(bg)

	var err error
	switch page.Origin {
	case source.TopLeft:
		err = renderImage(buf, page)
	default:
		err = renderPDF(buf, page, pageBox(page, opt.Box), scale)
	}
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func renderImage(buf *Buffer, page *source.Page) error {
	img, err := page.Image()
	if err != nil {
		return err
	}
	scaleImage(buf.RGBA(), img)
	return nil
}

func renderPDF(buf *Buffer, p *source.Page, box rect.Rect, scale float64) error {
	ctm := DeviceMatrix(box, p.Rotate, scale)

	err := p.Document().WithReader(func(r pdf.Getter) error {
		x := pdf.NewExtractor(r)
		c := pdf.CursorAt(x, nil)

		res, err := pdf.Decode(c, p.Dict["Resources"], extract.Resources)
		if pdf.IsMalformed(err) {
			pdfink.Logger().Debug("malformed page resources", "page", p.Index, "error", err)
			res = nil
		} else if err != nil {
			return err
		}
		obj, err := c.Resolve(p.Dict["Contents"])
		if err != nil {
			return err
		}
		segments, err := pdfpage.ExtractContents(c, obj)
		if err != nil {
			return err
		}
		pg := &pdfpage.Page{Resources: res, Contents: segments}

		dc := buf.Context()
		defer dc.Close()

		pr := newPageRenderer(x, dc, p.Index)
		st := content.NewState(content.Page, pg.Resources)
		st.GState.CTM = ctm
		err = pr.run(st, pg.NewIter())
		if pdf.IsMalformed(err) {
			pdfink.Logger().Debug("malformed page content",
				"page", p.Index, "error", err)
			return nil
		}
		return err
	})
	if err != nil {
		var e *pdfink.Error
		if errors.As(err, &e) {
			return err
		}
		return pdfink.PageError(pdfink.RenderFailure, "render", p.Index, err)
	}
	return nil
}

// DeviceMatrix maps PDF user space to device pixels.  The visible box is
// scaled by scale, rotated clockwise by rotate degrees and flipped so that
// the top-left corner of the displayed page ends up at the origin.
func DeviceMatrix(box rect.Rect, rotate int, s float64) matrix.Matrix {
	switch rotate {
	case 90:
		return matrix.Matrix{0, s, s, 0, -s * box.LLy, -s * box.LLx}
	case 180:
		return matrix.Matrix{-s, 0, 0, s, s * box.URx, -s * box.LLy}
	case 270:
		return matrix.Matrix{0, -s, -s, 0, s * box.URy, s * box.URx}
	default:
		return matrix.Matrix{s, 0, 0, -s, -s * box.LLx, s * box.URy}
	}
}
