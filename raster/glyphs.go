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
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/pdf/font"
	"seehuhn.de/go/pdf/font/dict"
	"seehuhn.de/go/pdf/font/encoding"
	"seehuhn.de/go/pdf/font/glyphdata"
	"seehuhn.de/go/pdf/font/glyphdata/cffglyphs"
	"seehuhn.de/go/pdf/font/glyphdata/sfntglyphs"
	"seehuhn.de/go/pdf/graphics"
	"seehuhn.de/go/postscript/cid"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cff"
	"seehuhn.de/go/sfnt/glyph"
)

// glyphSet gives access to the outlines of an embedded font program.
type glyphSet struct {
	outline func(glyph.ID) path.Path

	// fontMatrix maps glyph space to text space.
	fontMatrix matrix.Matrix

	// gid selects the glyph for a character.  Simple fonts use the
	// character code plus one as the CID.
	gid func(cid.CID) glyph.ID
}

// char draws one glyph at the current text position, according to the
// text rendering mode.  Text clipping modes are drawn without clipping.
func (p *painter) char(code font.Code) error {
	gs := p.rd.State.GState

	var fill, stroke bool
	switch gs.TextRenderingMode {
	case graphics.TextRenderingModeFill, graphics.TextRenderingModeFillClip:
		fill = true
	case graphics.TextRenderingModeStroke, graphics.TextRenderingModeStrokeClip:
		stroke = true
	case graphics.TextRenderingModeFillStroke, graphics.TextRenderingModeFillStrokeClip:
		fill, stroke = true, true
	default:
		return nil
	}
	if gs.TextRenderingMode >= graphics.TextRenderingModeFillClip {
		p.skip("text clipping")
	}

	g := p.glyphs(gs.TextFont)
	if g == nil {
		return nil
	}
	gid := g.gid(code.CID)
	if gid == 0 && code.Notdef != 0 {
		gid = g.gid(code.Notdef)
	}

	m := g.fontMatrix.Mul(gs.TextRenderingMatrix())
	var err error
	if p.setPath(g.outline(gid), m) {
		if fill {
			err = p.fill(gs, false)
		}
		if err == nil && stroke {
			err = p.stroke(gs)
		}
	}
	p.dc.ClearPath()
	return err
}

// glyphs returns the outlines for a font, or nil if the glyphs of the
// font cannot be drawn.  Results are cached for the duration of a page.
func (p *painter) glyphs(f font.Instance) *glyphSet {
	if f == nil {
		return nil
	}
	if g, ok := p.fonts[f]; ok {
		return g
	}

	g, err := loadGlyphs(f.FontInfo())
	if err != nil {
		p.skip("unreadable font", "font", f.PostScriptName(), "error", err)
	} else if g == nil {
		p.skip("font without embedded outlines", "font", f.PostScriptName())
	}
	p.fonts[f] = g
	return g
}

// loadGlyphs reads the embedded font program described by info.  The
// result is nil for fonts which are not embedded, and for Type 1 and
// Type 3 fonts.
func loadGlyphs(info any) (*glyphSet, error) {
	switch info := info.(type) {
	case *dict.FontInfoSimple:
		return loadSimple(info.FontFile, info.IsSymbolic, info.Encoding)

	case *dict.FontInfoGlyfEmbedded:
		if info.FontFile == nil {
			return nil, nil
		}
		f, err := sfntglyphs.FromStream(info.FontFile)
		if err != nil {
			return nil, err
		}
		g := fromSFNT(f)
		cidToGID := info.CIDToGID
		g.gid = func(c cid.CID) glyph.ID {
			if cidToGID == nil {
				return glyph.ID(c)
			}
			if int(c) < len(cidToGID) {
				return cidToGID[c]
			}
			return 0
		}
		return g, nil

	case *dict.FontInfoCID:
		if info.FontFile == nil {
			return nil, nil
		}
		switch info.FontFile.Type {
		case glyphdata.CFF:
			f, err := cffglyphs.FromStream(info.FontFile)
			if err != nil {
				return nil, err
			}
			g := fromCFF(f)
			g.gid = cidSelector(f.Outlines)
			return g, nil
		case glyphdata.OpenTypeCFF, glyphdata.OpenTypeGlyf, glyphdata.TrueType:
			f, err := sfntglyphs.FromStream(info.FontFile)
			if err != nil {
				return nil, err
			}
			g := fromSFNT(f)
			if o, ok := f.Outlines.(*cff.Outlines); ok {
				g.gid = cidSelector(o)
			} else {
				g.gid = func(c cid.CID) glyph.ID { return glyph.ID(c) }
			}
			return g, nil
		}
	}
	return nil, nil
}

func loadSimple(stm *glyphdata.Stream, symbolic bool, enc encoding.Simple) (*glyphSet, error) {
	if stm == nil {
		return nil, nil
	}
	switch stm.Type {
	case glyphdata.TrueType, glyphdata.OpenTypeGlyf:
		f, err := sfntglyphs.FromStream(stm)
		if err != nil {
			return nil, err
		}
		g := fromSFNT(f)
		sel := sfntglyphs.NewTrueTypeSelector(f, symbolic, enc)
		g.gid = func(c cid.CID) glyph.ID {
			gid, _ := sel(c)
			return gid
		}
		return g, nil

	case glyphdata.OpenTypeCFFSimple:
		f, err := sfntglyphs.FromStream(stm)
		if err != nil {
			return nil, err
		}
		o, ok := f.Outlines.(*cff.Outlines)
		if !ok {
			return nil, nil
		}
		g := fromSFNT(f)
		g.gid = nameSelector(o, enc)
		return g, nil

	case glyphdata.CFFSimple:
		f, err := cffglyphs.FromStream(stm)
		if err != nil {
			return nil, err
		}
		g := fromCFF(f)
		g.gid = nameSelector(f.Outlines, enc)
		return g, nil
	}
	return nil, nil
}

func fromSFNT(f *sfnt.Font) *glyphSet {
	fm := f.FontMatrix
	if fm.IsZero() {
		upem := float64(f.UnitsPerEm)
		if upem <= 0 {
			upem = 1000
		}
		fm = matrix.Scale(1/upem, 1/upem)
	}
	return &glyphSet{outline: f.Outlines.Path, fontMatrix: fm}
}

func fromCFF(f *cff.Font) *glyphSet {
	fm := f.FontMatrix
	if fm.IsZero() {
		fm = matrix.Scale(0.001, 0.001)
	}
	return &glyphSet{outline: f.Outlines.Path, fontMatrix: fm}
}

// nameSelector maps character codes of a simple CFF font to glyphs, via
// the glyph names from the PDF encoding.  Codes without a name use the
// built-in encoding of the font.
func nameSelector(o *cff.Outlines, enc encoding.Simple) func(cid.CID) glyph.ID {
	byName := make(map[string]glyph.ID, len(o.Glyphs))
	for i, g := range o.Glyphs {
		if g != nil && g.Name != "" {
			byName[g.Name] = glyph.ID(i)
		}
	}
	return func(c cid.CID) glyph.ID {
		if c == 0 || c > 256 {
			return 0
		}
		code := byte(c - 1)
		if enc != nil {
			name := enc(code)
			if name != "" && name != encoding.UseBuiltin {
				return byName[name]
			}
		}
		if int(code) < len(o.Encoding) {
			return o.Encoding[code]
		}
		return 0
	}
}

// cidSelector maps CIDs to the glyphs of a CFF font.  Fonts which are not
// CID-keyed use the CID as the glyph index.
func cidSelector(o *cff.Outlines) func(cid.CID) glyph.ID {
	if o.GIDToCID == nil {
		return func(c cid.CID) glyph.ID { return glyph.ID(c) }
	}
	toGID := make(map[cid.CID]glyph.ID, len(o.GIDToCID))
	for gid, c := range o.GIDToCID {
		toGID[c] = glyph.ID(gid)
	}
	return func(c cid.CID) glyph.ID {
		return toGID[c]
	}
}
