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

package export

import (
	"context"
	"image"
	gocolor "image/color"
	"strconv"
	"strings"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics/color"
	pdfimage "seehuhn.de/go/pdf/graphics/image"
	"seehuhn.de/go/pdf/pagetree"

	"seehuhn.de/go/pdfink"
	"seehuhn.de/go/pdfink/join"
	"seehuhn.de/go/pdfink/raster"
	"seehuhn.de/go/pdfink/source"
)

// producer is recorded in the metadata of all PDF files written.
const producer = "seehuhn.de/go/pdfink " + pdfink.Version

// writePDF renders all pages in parallel and then writes them, in order, to
// a single PDF file.
func (j *job) writePDF(ctx context.Context) *Result {
	n := j.doc.NumPages()
	opt := &join.Options[*raster.Buffer]{Workers: j.engine.Workers, FailFast: true}
	outcomes := join.Run(ctx, n, opt, func(ctx context.Context, i int) (*raster.Buffer, error) {
		return j.flatten(i)
	})

	res := &Result{Kind: source.Paginated, Pages: make([]PageResult, n)}
	for i := range res.Pages {
		res.Pages[i].Index = i
	}
	if err := join.FirstError(outcomes); err != nil {
		for i, o := range outcomes {
			res.Pages[i].Err = o.Err
			if o.Err == nil {
				res.Pages[i].Err = err
			}
		}
		return res
	}

	bufs := make([]*raster.Buffer, n)
	for i, o := range outcomes {
		bufs[i] = o.Value
	}

	name := FileName(BaseName(j.doc.SourcePaths[0]), j.stamp, "pdf")
	fd, path, err := createUnique(j.dir, name)
	if err == nil {
		// the empty file reserves the name until it is overwritten below
		err = fd.Close()
		if err == nil {
			err = j.assemble(ctx, path, bufs)
		}
		if err != nil {
			removeFile(path)
		}
	}
	for i := range res.Pages {
		if err != nil {
			res.Pages[i].Err = err
		} else {
			res.Pages[i].Path = path
		}
	}
	return res
}

// assemble writes a PDF file with one page for every buffer.
func (j *job) assemble(ctx context.Context, path string, bufs []*raster.Buffer) error {
	xmpData, err := documentMetadata(BaseName(j.doc.SourcePaths[0]), j.stamp)
	if err != nil {
		return pdfink.Errorf(pdfink.EncodeFailure, "write metadata", path, err)
	}
	w, err := pdf.Create(path, pdf.V1_7, &pdf.WriterOptions{DocumentMetadata: xmpData})
	if err != nil {
		return pdfink.Errorf(pdfink.WriteFailure, "create pdf", path, err)
	}

	rm := pdf.NewResourceManager(w)
	tree := pagetree.NewWriter(w, rm)

	pages := j.doc.Pages()
	refs := make([]pdf.Reference, len(pages))
	for i := range refs {
		refs[i] = w.Alloc()
	}

	writePages := func(r pdf.Getter) error {
		var cp *pdf.Copier
		if r != nil {
			cp = pdf.NewCopier(w, r)
			for i, p := range pages {
				cp.Redirect(p.Ref, refs[i])
			}
		}

		for i, p := range pages {
			if err := ctx.Err(); err != nil {
				return err
			}
			dict, err := writePage(w, rm, p, bufs[i], j.doc.Grayscale)
			if err != nil {
				return pdfink.PageError(pdfink.EncodeFailure, "write page", i, err)
			}
			if cp != nil {
				annots, err := copyAnnotations(r, cp, p)
				if err != nil {
					return pdfink.PageError(pdfink.CorruptSource, "copy annotations", i, err)
				}
				if len(annots) > 0 {
					dict["Annots"] = annots
				}
			}
			err = tree.AppendPageDict(refs[i], dict)
			if err != nil {
				return pdfink.PageError(pdfink.WriteFailure, "write page", i, err)
			}
		}
		return nil
	}
	if j.doc.Kind == source.Paginated {
		err = j.doc.WithReader(writePages)
	} else {
		err = writePages(nil)
	}
	if err != nil {
		w.Close()
		return err
	}

	treeRef, err := tree.Close()
	if err != nil {
		w.Close()
		return pdfink.Errorf(pdfink.WriteFailure, "write page tree", path, err)
	}
	meta := w.GetMeta()
	meta.Catalog.Pages = treeRef
	meta.Info = &pdf.Info{
		Creator:  "pdfink",
		Producer: producer,
	}
	meta.Catalog.OutputIntents, err = writeOutputIntent(w)
	if err != nil {
		w.Close()
		return pdfink.Errorf(pdfink.WriteFailure, "write output intent", path, err)
	}

	err = rm.Close()
	if err != nil {
		w.Close()
		return pdfink.Errorf(pdfink.WriteFailure, "write pdf", path, err)
	}
	err = w.Close()
	if err != nil {
		return pdfink.Errorf(pdfink.WriteFailure, "write pdf", path, err)
	}
	return nil
}

// writePage writes the image and the content stream of a flattened page and
// returns the page dictionary.
//
// The new page keeps the visible area and the rotation of the original
// page, so that annotations copied from the original stay in place.
func writePage(w *pdf.Writer, rm *pdf.ResourceManager, p *source.Page, buf *raster.Buffer, gray bool) (pdf.Dict, error) {
	imgRef, err := rm.Embed(pageImage(buf, gray))
	if err != nil {
		return nil, err
	}

	m := imageMatrix(p)
	content := "q " + formatMatrix(m) + " cm /Im0 Do Q\n"
	contentRef := w.Alloc()
	stm, err := w.OpenStream(contentRef, nil, pdf.FilterCompress{})
	if err != nil {
		return nil, err
	}
	_, err = stm.Write([]byte(content))
	if err != nil {
		return nil, err
	}
	err = stm.Close()
	if err != nil {
		return nil, err
	}

	dict := pdf.Dict{
		"Type":     pdf.Name("Page"),
		"MediaBox": rectArray(p.Bounds),
		"Resources": pdf.Dict{
			"XObject": pdf.Dict{"Im0": imgRef},
		},
		"Contents": contentRef,
	}
	if p.Rotate != 0 {
		dict["Rotate"] = pdf.Integer(p.Rotate)
	}
	return dict, nil
}

// imageMatrix maps the unit square, where the flattened image is drawn, onto
// the visible area of the page.
func imageMatrix(p *source.Page) matrix.Matrix {
	w, h := p.Size()
	toDisplay := matrix.Matrix{w, 0, 0, -h, 0, h}
	return toDisplay.Mul(raster.DeviceMatrix(p.Bounds, p.Rotate, 1).Inv())
}

// pageImage returns a lossless image XObject for buf.  Transparent pixels
// are composited over white.  Grayscale images store the luminance of
// every pixel.
func pageImage(buf *raster.Buffer, gray bool) *pdfimage.Dict {
	var cs color.Space = color.SpaceDeviceRGB
	if gray {
		cs = color.SpaceDeviceGray
	}
	return pdfimage.FromImage(overWhite{buf.RGBA()}, cs, 8)
}

// overWhite shows an image on an opaque white background.
type overWhite struct {
	*image.RGBA
}

func (img overWhite) ColorModel() gocolor.Model {
	return gocolor.RGBAModel
}

func (img overWhite) At(x, y int) gocolor.Color {
	c := img.RGBAAt(x, y)
	// premultiplied, so adding 255-a puts the pixel over white
	return gocolor.RGBA{
		R: c.R + (255 - c.A),
		G: c.G + (255 - c.A),
		B: c.B + (255 - c.A),
		A: 255,
	}
}

// copyAnnotations copies the annotations of an original page, except for
// ink annotations and their pop-up windows.
func copyAnnotations(r pdf.Getter, cp *pdf.Copier, p *source.Page) (pdf.Array, error) {
	c := pdf.NewCursor(r)
	annots, err := c.Array(p.Dict["Annots"])
	if pdf.IsMalformed(err) {
		pdfink.Logger().Debug("annotations skipped", "page", p.Index, "error", err)
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	type annot struct {
		obj  pdf.Object
		dict pdf.Dict
	}
	ink := make(map[pdf.Reference]bool)
	var keep []annot
	for _, obj := range annots {
		dict, err := c.Dict(obj)
		if err != nil || dict == nil {
			continue
		}
		subtype, _ := c.Name(dict["Subtype"])
		if subtype == "Ink" {
			if ref, ok := obj.(pdf.Reference); ok {
				ink[ref] = true
			}
			continue
		}
		keep = append(keep, annot{obj, dict})
	}

	var res pdf.Array
	for _, a := range keep {
		if parent, ok := a.dict["Parent"].(pdf.Reference); ok && ink[parent] {
			continue
		}
		if ref, ok := a.obj.(pdf.Reference); ok {
			newRef, err := cp.CopyReference(ref)
			if err != nil {
				return nil, err
			}
			res = append(res, newRef)
			continue
		}
		dict, err := cp.CopyDict(a.dict)
		if err != nil {
			return nil, err
		}
		res = append(res, dict)
	}
	return res, nil
}

func rectArray(r rect.Rect) pdf.Array {
	return pdf.Array{
		pdf.Number(r.LLx), pdf.Number(r.LLy),
		pdf.Number(r.URx), pdf.Number(r.URy),
	}
}

func formatMatrix(m matrix.Matrix) string {
	parts := make([]string, len(m))
	for i, x := range m {
		parts[i] = formatNumber(x)
	}
	return strings.Join(parts, " ")
}

// formatNumber formats x for use in a content stream.
func formatNumber(x float64) string {
	s := strconv.FormatFloat(x, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		s = "0"
	}
	return s
}
