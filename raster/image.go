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

package raster

import (
	"errors"
	"image"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics/content"
	pdfimage "seehuhn.de/go/pdf/graphics/image"
)

// drawImage paints an image XObject into the unit square of ctm.  Soft
// masks and stencil masks attached to the image become its alpha channel.
func (p *painter) drawImage(x *pdfimage.Dict, ctm matrix.Matrix) error {
	data, err := x.Load()
	if err != nil {
		p.skip("unreadable image", "error", err)
		return nil
	}
	rgba := data.ToRGBA()
	img := image.NewNRGBA(rgba.Rect)
	xdraw.Copy(img, img.Rect.Min, rgba, rgba.Rect, xdraw.Src, nil)

	var alpha *image.Alpha
	switch {
	case x.SMask != nil:
		alpha, err = x.SMask.LoadAlpha()
	case x.MaskImage != nil:
		alpha, err = x.MaskImage.LoadAlpha()
	}
	if err != nil {
		p.skip("unreadable image mask", "error", err)
	} else if alpha != nil {
		applyAlpha(img, alpha)
	}
	if x.MaskColors != nil {
		p.skip("colour key masking")
	}

	p.drawPixels(img, ctm, p.rd.State.GState.FillAlpha)
	return nil
}

// drawStencil paints the opaque pixels of a stencil mask in the current
// fill colour.
func (p *painter) drawStencil(m *pdfimage.Mask, ctm matrix.Matrix) error {
	gs := p.rd.State.GState
	col, ok := deviceColor(gs.FillColor, gs.FillAlpha)
	if !ok {
		p.skip("pattern fill")
		return nil
	}
	alpha, err := m.LoadAlpha()
	if err != nil {
		p.skip("unreadable image mask", "error", err)
		return nil
	}

	img := image.NewNRGBA(alpha.Rect)
	for i, a := range alpha.Pix {
		// alpha.Stride equals the width for freshly decoded masks
		j := 4 * i
		img.Pix[j+0] = col.R
		img.Pix[j+1] = col.G
		img.Pix[j+2] = col.B
		img.Pix[j+3] = uint8(uint32(a) * uint32(col.A) / 255)
	}
	p.drawPixels(img, ctm, 1)
	return nil
}

// inlineImage paints a BI ... ID ... EI image.
func (p *painter) inlineImage(op content.Operator, ctm matrix.Matrix) error {
	res := p.rd.State.Resources
	raw, err := content.DecodeInlineImage(op, res)
	if err != nil {
		p.skip("unreadable inline image", "error", err)
		return nil
	}
	dict := op.Args[0].(pdf.Dict)

	width, _ := inlineInt(dict, "W", "Width")
	height, _ := inlineInt(dict, "H", "Height")
	if width <= 0 || height <= 0 {
		p.skip("unreadable inline image", "error", errors.New("invalid size"))
		return nil
	}
	decode, _ := inlineEntry(dict, "D", "Decode").(pdf.Array)

	if isMask, _ := inlineEntry(dict, "IM", "ImageMask").(pdf.Boolean); isMask {
		inverted := false
		if len(decode) == 2 {
			first, _ := decode[0].(pdf.Integer)
			inverted = first == 1
		}
		return p.drawStencil(&pdfimage.Mask{
			Width:    width,
			Height:   height,
			Inverted: inverted,
			Source:   inlineData(raw),
		}, ctm)
	}

	cs := content.InlineImageColorSpace(dict, res)
	if cs == nil {
		p.skip("inline image without colour space")
		return nil
	}
	bpc, ok := inlineInt(dict, "BPC", "BitsPerComponent")
	if !ok {
		bpc = 8
	}
	img := &pdfimage.Dict{
		Width:            width,
		Height:           height,
		ColorSpace:       cs,
		BitsPerComponent: bpc,
		Data:             inlineData(raw),
	}
	for _, obj := range decode {
		switch x := obj.(type) {
		case pdf.Integer:
			img.Decode = append(img.Decode, float64(x))
		case pdf.Real:
			img.Decode = append(img.Decode, float64(x))
		case pdf.Number:
			img.Decode = append(img.Decode, float64(x))
		}
	}
	return p.drawImage(img, ctm)
}

func inlineEntry(dict pdf.Dict, short, long pdf.Name) pdf.Object {
	if obj, ok := dict[short]; ok {
		return obj
	}
	return dict[long]
}

func inlineInt(dict pdf.Dict, short, long pdf.Name) (int, bool) {
	x, ok := inlineEntry(dict, short, long).(pdf.Integer)
	return int(x), ok
}

// inlineData holds the decoded samples of an inline image.
type inlineData []byte

func (d inlineData) Pixels() ([]byte, error) { return d, nil }

func (d inlineData) IsJPX() bool { return false }

func (d inlineData) WriteStream(*pdf.EmbedHelper, pdf.Reference, pdf.Dict) error {
	return errors.New("inline image data cannot be embedded")
}

// applyAlpha multiplies the alpha channel of img by mask.  The mask is
// scaled to the size of the image.
func applyAlpha(img *image.NRGBA, mask *image.Alpha) {
	b := img.Rect
	mb := mask.Rect
	if mb.Empty() {
		return
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		my := mb.Min.Y + (y-b.Min.Y)*mb.Dy()/b.Dy()
		for x := b.Min.X; x < b.Max.X; x++ {
			mx := mb.Min.X + (x-b.Min.X)*mb.Dx()/b.Dx()
			a := mask.AlphaAt(mx, my).A
			i := img.PixOffset(x, y) + 3
			img.Pix[i] = uint8(uint32(img.Pix[i]) * uint32(a) / 255)
		}
	}
}

// drawPixels paints img into the unit square of ctm, with the top row of
// the image at y = 1.  Drawing goes through gg, so that the current
// clipping region applies.
func (p *painter) drawPixels(img image.Image, ctm matrix.Matrix, alpha float64) {
	if alpha <= 0 {
		return
	}
	b := img.Bounds()
	if b.Empty() {
		return
	}
	w, h := float64(b.Dx()), float64(b.Dy())
	m := matrix.Matrix{1 / w, 0, 0, -1 / h, 0, 1}.Mul(ctm)

	p.dc.Push()
	p.dc.SetTransform(ggMatrix(m))
	p.dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		Opacity: min(alpha, 1),
	})
	p.dc.Pop()
}

// scaleImage draws src so that it exactly covers dst.
func scaleImage(dst *image.RGBA, src image.Image) {
	xdraw.CatmullRom.Scale(dst, dst.Rect, src, src.Bounds(), xdraw.Over, nil)
}
