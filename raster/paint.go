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
	gocolor "image/color"
	"math"

	"github.com/gogpu/gg"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/font"
	"seehuhn.de/go/pdf/graphics"
	"seehuhn.de/go/pdf/graphics/color"
	"seehuhn.de/go/pdf/graphics/content"
	"seehuhn.de/go/pdf/graphics/form"
	pdfimage "seehuhn.de/go/pdf/graphics/image"
	"seehuhn.de/go/pdf/reader"

	"seehuhn.de/go/pdfink"
)

// maxFormDepth limits the nesting of form XObjects.
const maxFormDepth = 16

// pageRenderer holds what all content streams of one page share.
type pageRenderer struct {
	x    *pdf.Extractor
	dc   *gg.Context
	page int

	fonts map[font.Instance]*glyphSet
	forms int

	skipped map[string]bool
}

func newPageRenderer(x *pdf.Extractor, dc *gg.Context, page int) *pageRenderer {
	return &pageRenderer{
		x:       x,
		dc:      dc,
		page:    page,
		fonts:   make(map[font.Instance]*glyphSet),
		skipped: make(map[string]bool),
	}
}

// skip logs content which cannot be rendered.  Every reason is only
// logged once per page.
func (pr *pageRenderer) skip(reason string, args ...any) {
	if pr.skipped[reason] {
		return
	}
	pr.skipped[reason] = true
	args = append([]any{"page", pr.page, "reason", reason}, args...)
	pdfink.Logger().Debug("content skipped", args...)
}

// run paints one content stream, starting from the graphics state st.
// The clipping paths already in st must have been applied to the gg
// context by the caller.
func (pr *pageRenderer) run(st *content.State, it content.Iter) error {
	rd := reader.New(pr.x)
	rd.State = st

	p := &painter{
		pageRenderer: pr,
		rd:           rd,
		clips:        len(st.GState.ClipPaths),
	}
	rd.EveryOp = p.op
	rd.GraphicsStateSaved = p.save
	rd.GraphicsStateRestored = p.restore
	rd.Character = p.char
	rd.XObject = p.xObject
	rd.InlineImage = p.inlineImage

	err := rd.ProcessIter(it)
	for ; p.depth > 0; p.depth-- {
		pr.dc.Pop()
	}
	return err
}

// painter turns the callbacks of a [reader.Reader] into gg drawing
// operations.
type painter struct {
	*pageRenderer
	rd *reader.Reader

	// depth counts the q operators not yet matched by Q.
	depth int

	// clips is the number of entries of GState.ClipPaths which have been
	// applied to the gg context.
	clips int
}

func (p *painter) op(op string, _ []pdf.Object) error {
	var fill, stroke, evenOdd bool
	switch content.OpName(op) {
	case content.OpStroke, content.OpCloseAndStroke:
		stroke = true
	case content.OpFill, content.OpFillCompat:
		fill = true
	case content.OpFillEvenOdd:
		fill, evenOdd = true, true
	case content.OpFillAndStroke, content.OpCloseFillAndStroke:
		fill, stroke = true, true
	case content.OpFillAndStrokeEvenOdd, content.OpCloseFillAndStrokeEvenOdd:
		fill, stroke, evenOdd = true, true, true
	case content.OpEndPath:
		// clipping only
	default:
		return nil
	}

	gs := p.rd.State.GState
	var err error
	if (fill || stroke) && p.setPath(p.rd.State.PaintedPath().Iter(), gs.CTM) {
		if fill {
			err = p.fill(gs, evenOdd)
		}
		if err == nil && stroke {
			err = p.stroke(gs)
		}
	}
	p.dc.ClearPath()

	// W and W* take effect after the path has been painted
	p.applyClips()
	return err
}

func (p *painter) save() error {
	p.dc.Push()
	p.depth++
	return nil
}

func (p *painter) restore() error {
	if p.depth == 0 {
		return nil
	}
	p.dc.Pop()
	p.depth--
	p.clips = len(p.rd.State.GState.ClipPaths)
	return nil
}

// applyClips intersects the clipping region of the gg context with the
// clipping paths which were added to the graphics state since the last
// call.  gg always clips with the nonzero winding rule.
func (p *painter) applyClips() {
	clipPaths := p.rd.State.GState.ClipPaths
	for _, cp := range clipPaths[min(p.clips, len(clipPaths)):] {
		p.dc.ClearPath()
		if p.setPath(cp.Path.Iter(), cp.CTM) {
			p.dc.Clip()
		} else {
			// an empty clipping path hides everything
			p.dc.ClipRect(0, 0, 0, 0)
		}
	}
	p.clips = len(clipPaths)
	p.dc.ClearPath()
}

// setPath replaces the current gg path by the image of pth under m.
// The result reports whether the path is non-empty.
func (p *painter) setPath(pth path.Path, m matrix.Matrix) bool {
	p.dc.ClearPath()
	empty := true
	for cmd, pts := range pth {
		switch cmd {
		case path.CmdMoveTo:
			q := m.Apply(pts[0])
			p.dc.MoveTo(q.X, q.Y)
		case path.CmdLineTo:
			q := m.Apply(pts[0])
			p.dc.LineTo(q.X, q.Y)
			empty = false
		case path.CmdQuadTo:
			c := m.Apply(pts[0])
			q := m.Apply(pts[1])
			p.dc.QuadraticTo(c.X, c.Y, q.X, q.Y)
			empty = false
		case path.CmdCubeTo:
			c1 := m.Apply(pts[0])
			c2 := m.Apply(pts[1])
			q := m.Apply(pts[2])
			p.dc.CubicTo(c1.X, c1.Y, c2.X, c2.Y, q.X, q.Y)
			empty = false
		case path.CmdClose:
			p.dc.ClosePath()
		}
	}
	return !empty
}

func (p *painter) fill(gs *graphics.State, evenOdd bool) error {
	col, ok := deviceColor(gs.FillColor, gs.FillAlpha)
	if !ok {
		p.skip("pattern fill")
		return nil
	}
	p.dc.SetColor(col)
	if evenOdd {
		p.dc.SetFillRule(gg.FillRuleEvenOdd)
	} else {
		p.dc.SetFillRule(gg.FillRuleNonZero)
	}
	return p.dc.FillPreserve()
}

func (p *painter) stroke(gs *graphics.State) error {
	col, ok := deviceColor(gs.StrokeColor, gs.StrokeAlpha)
	if !ok {
		p.skip("pattern stroke")
		return nil
	}
	p.dc.SetColor(col)
	p.dc.SetStroke(strokeStyle(gs))
	return p.dc.StrokePreserve()
}

// strokeStyle converts the line parameters of gs to device pixels.
func strokeStyle(gs *graphics.State) gg.Stroke {
	scale := deviceScale(gs.CTM)
	st := gg.DefaultStroke().
		WithWidth(max(gs.LineWidth*scale, 1)).
		WithCap(gg.LineCap(gs.LineCap)).
		WithJoin(gg.LineJoin(gs.LineJoin)).
		WithMiterLimit(max(gs.MiterLimit, 1))
	if len(gs.DashPattern) > 0 {
		dash := make([]float64, len(gs.DashPattern))
		for i, x := range gs.DashPattern {
			dash[i] = x * scale
		}
		st = st.WithDashPattern(dash...).WithDashOffset(gs.DashPhase * scale)
	}
	return st
}

// deviceScale returns the factor by which m scales lengths, on average.
func deviceScale(m matrix.Matrix) float64 {
	return math.Sqrt(math.Abs(m[0]*m[3] - m[1]*m[2]))
}

// deviceColor converts a PDF colour to sRGB, with the given constant
// alpha applied.  The second result is false for pattern colours.
func deviceColor(c color.Color, alpha float64) (gocolor.NRGBA, bool) {
	if c == nil {
		return gocolor.NRGBA{A: to8(alpha)}, true
	}
	if cs := c.ColorSpace(); cs != nil && cs.Family() == color.FamilyPattern {
		return gocolor.NRGBA{}, false
	}
	r, g, b, a := c.RGBA()
	if a == 0 {
		return gocolor.NRGBA{}, true
	}
	return gocolor.NRGBA{
		R: uint8(r * 0xffff / a >> 8),
		G: uint8(g * 0xffff / a >> 8),
		B: uint8(b * 0xffff / a >> 8),
		A: to8(alpha * float64(a) / 0xffff),
	}, true
}

func to8(x float64) uint8 {
	return uint8(math.Round(255 * min(max(x, 0), 1)))
}

// ggMatrix converts a PDF transformation matrix to gg's representation.
func ggMatrix(m matrix.Matrix) gg.Matrix {
	return gg.Matrix{
		A: m[0], B: m[2], C: m[4],
		D: m[1], E: m[3], F: m[5],
	}
}

func (p *painter) xObject(obj graphics.XObject, ctm matrix.Matrix) error {
	switch x := obj.(type) {
	case *pdfimage.Dict:
		return p.drawImage(x, ctm)
	case *pdfimage.Mask:
		return p.drawStencil(x, ctm)
	case *form.Form:
		return p.drawForm(x, ctm)
	default:
		p.skip("xobject", "subtype", obj.Subtype())
		return nil
	}
}

// drawForm paints a form XObject.  The form runs in a copy of the current
// graphics state and is clipped to its bounding box.
func (p *painter) drawForm(f *form.Form, ctm matrix.Matrix) error {
	if f.Content == nil {
		return nil
	}
	if p.forms >= maxFormDepth {
		p.skip("nested forms")
		return nil
	}

	m := f.Matrix
	if m.IsZero() {
		m = matrix.Identity
	}
	ctm = m.Mul(ctm)

	res := f.Res
	if res == nil {
		res = p.rd.State.Resources
	}
	st := content.NewState(content.Form, res)
	gs := p.rd.State.GState.Clone()
	gs.CTM = ctm
	st.GState = gs

	p.dc.Push()
	defer p.dc.Pop()

	b := f.BBox
	bbox := path.Data{}
	bbox.MoveTo(vec.Vec2{X: b.LLx, Y: b.LLy}).
		LineTo(vec.Vec2{X: b.URx, Y: b.LLy}).
		LineTo(vec.Vec2{X: b.URx, Y: b.URy}).
		LineTo(vec.Vec2{X: b.LLx, Y: b.URy}).
		Close()
	if p.setPath(bbox.Iter(), ctm) {
		p.dc.SetFillRule(gg.FillRuleNonZero)
		p.dc.Clip()
	}
	p.dc.ClearPath()

	p.forms++
	err := p.run(st, f.Content.NewIter())
	p.forms--
	return err
}
