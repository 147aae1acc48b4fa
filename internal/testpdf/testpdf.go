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

// Package testpdf writes small input files for tests.
package testpdf

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"
)

// Page describes one page of a test document.
type Page struct {
	MediaBox *pdf.Rectangle // default: 200x100
	CropBox  *pdf.Rectangle
	Rotate   int

	// Content is the content stream of the page.
	Content string

	Resources pdf.Dict

	// XObjects are written as uncompressed streams and added to the
	// /XObject resource dictionary.
	XObjects map[pdf.Name]Stream

	// Annots are written as indirect objects.  The /P entry is set to the
	// page.
	Annots []pdf.Dict
}

// Stream is the dictionary and data of a PDF stream.
type Stream struct {
	Dict pdf.Dict
	Data []byte
}

// Rect returns a PDF array for the given rectangle.
func Rect(llx, lly, urx, ury float64) pdf.Array {
	return pdf.Array{pdf.Number(llx), pdf.Number(lly), pdf.Number(urx), pdf.Number(ury)}
}

func asArray(r *pdf.Rectangle) pdf.Array {
	return Rect(r.LLx, r.LLy, r.URx, r.URy)
}

// Write creates a PDF file with the given pages.
func Write(path string, pages ...Page) error {
	return write(path, nil, pages)
}

// WriteEncrypted creates a PDF file which can only be opened with the
// given user password.
func WriteEncrypted(path, password string, pages ...Page) error {
	opt := &pdf.WriterOptions{
		UserPassword:  password,
		OwnerPassword: password + "-owner",
	}
	return write(path, opt, pages)
}

func write(path string, opt *pdf.WriterOptions, pages []Page) error {
	w, err := pdf.Create(path, pdf.V1_7, opt)
	if err != nil {
		return err
	}

	rm := pdf.NewResourceManager(w)
	tree := pagetree.NewWriter(w, rm)

	for _, p := range pages {
		mediaBox := p.MediaBox
		if mediaBox == nil {
			mediaBox = &pdf.Rectangle{URx: 200, URy: 100}
		}

		contentRef := w.Alloc()
		stm, err := w.OpenStream(contentRef, nil, pdf.FilterCompress{})
		if err != nil {
			return err
		}
		_, err = stm.Write([]byte(p.Content))
		if err != nil {
			return err
		}
		err = stm.Close()
		if err != nil {
			return err
		}

		pageRef := w.Alloc()
		dict := pdf.Dict{
			"Type":     pdf.Name("Page"),
			"MediaBox": asArray(mediaBox),
			"Contents": contentRef,
		}
		if p.CropBox != nil {
			dict["CropBox"] = asArray(p.CropBox)
		}
		if p.Rotate != 0 {
			dict["Rotate"] = pdf.Integer(p.Rotate)
		}
		res := p.Resources
		if len(p.XObjects) > 0 {
			xobj := pdf.Dict{}
			for name, s := range p.XObjects {
				ref := w.Alloc()
				err := writeStream(w, ref, s)
				if err != nil {
					return err
				}
				xobj[name] = ref
			}
			res = pdf.Dict{}
			for k, v := range p.Resources {
				res[k] = v
			}
			res["XObject"] = xobj
		}
		if res != nil {
			dict["Resources"] = res
		}

		var annots pdf.Array
		for _, a := range p.Annots {
			ref := w.Alloc()
			annot := pdf.Dict{"P": pageRef}
			for k, v := range a {
				annot[k] = v
			}
			err = w.Put(ref, annot)
			if err != nil {
				return err
			}
			annots = append(annots, ref)
		}
		if annots != nil {
			dict["Annots"] = annots
		}

		err = tree.AppendPageDict(pageRef, dict)
		if err != nil {
			return err
		}
	}

	treeRef, err := tree.Close()
	if err != nil {
		return err
	}
	w.GetMeta().Catalog.Pages = treeRef

	err = rm.Close()
	if err != nil {
		return err
	}
	return w.Close()
}

func writeStream(w *pdf.Writer, ref pdf.Reference, s Stream) error {
	stm, err := w.OpenStream(ref, s.Dict)
	if err != nil {
		return err
	}
	_, err = stm.Write(s.Data)
	if err != nil {
		return err
	}
	return stm.Close()
}

// Solid returns an opaque image filled with a single colour.
func Solid(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	r, g, b, a := c.RGBA()
	col := color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
	for y := range height {
		for x := range width {
			img.SetRGBA(x, y, col)
		}
	}
	return img
}

// WritePNG writes img to a PNG file.
func WritePNG(path string, img image.Image) error {
	fd, err := os.Create(path)
	if err != nil {
		return err
	}
	err = png.Encode(fd, img)
	if err != nil {
		fd.Close()
		return err
	}
	return fd.Close()
}
