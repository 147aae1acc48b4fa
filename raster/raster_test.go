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
	"image"
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"github.com/gogpu/gg"
	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/font/encoding"
	"seehuhn.de/go/pdf/graphics"
	pdfcolor "seehuhn.de/go/pdf/graphics/color"
	"seehuhn.de/go/postscript/cid"
	"seehuhn.de/go/sfnt/cff"
	"seehuhn.de/go/sfnt/glyph"

	"seehuhn.de/go/pdfink/internal/testpdf"
	"seehuhn.de/go/pdfink/source"
)

var (
	white = color.RGBA{255, 255, 255, 255}
	black = color.RGBA{0, 0, 0, 255}
	red   = color.RGBA{255, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

func TestSize(t *testing.T) {
	type result struct {
		W, H  int
		Scale float64
	}
	cases := []struct {
		bounds rect.Rect
		target float64
		want   result
	}{
		{rect.Rect{URx: 200, URy: 100}, 50, result{50, 25, 0.25}},
		{rect.Rect{URx: 4, URy: 1}, 2, result{2, 1, 0.5}}, // 0.5 rounds up
		{rect.Rect{URx: 3, URy: 1}, 5, result{5, 2, 5.0 / 3}},
		{rect.Rect{LLx: 10, LLy: 10, URx: 110, URy: 60}, 200, result{200, 100, 2}},
		{rect.Rect{URx: 0, URy: 10}, 100, result{1, 1, 0}},
		{rect.Rect{URx: 10, URy: 10}, 0, result{1, 1, 0}},
	}
	for _, c := range cases {
		w, h, s := Size(c.bounds, c.target)
		if d := cmp.Diff(c.want, result{w, h, s}); d != "" {
			t.Errorf("Size(%v, %g) (-want +got):\n%s", c.bounds, c.target, d)
		}
	}
}

func TestSizeAspectRatio(t *testing.T) {
	for _, w := range []float64{1, 7, 100, 612, 841.89} {
		for _, h := range []float64{1, 3, 100, 792, 595.28} {
			for _, target := range []float64{1, 17, 300, 800} {
				pw, ph, _ := Size(rect.Rect{URx: w, URy: h}, target)
				if pw != int(math.Floor(target+0.5)) {
					t.Errorf("%gx%g at %g: width %d", w, h, target, pw)
				}
				want := max(int(math.Floor(h*(target/w)+0.5)), 1)
				if ph != want {
					t.Errorf("%gx%g at %g: height %d, want %d", w, h, target, ph, want)
				}
			}
		}
	}
}

func openPages(t *testing.T, pages ...testpdf.Page) *source.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.pdf")
	if err := testpdf.Write(path, pages...); err != nil {
		t.Fatal(err)
	}
	doc, err := source.Open(source.Descriptor{Paths: []string{path}, TargetWidth: 200}, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { doc.Close() })
	return doc
}

func renderOne(t *testing.T, p testpdf.Page, width float64, opt *RenderOptions) *Buffer {
	t.Helper()
	doc := openPages(t, p)
	buf, err := Render(doc.Pages()[0], width, opt)
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func checkPixels(t *testing.T, buf *Buffer, want map[[2]int]color.RGBA) {
	t.Helper()
	img := buf.RGBA()
	for pos, c := range want {
		got := img.RGBAAt(pos[0], pos[1])
		if !closeColor(got, c, 2) {
			t.Errorf("pixel %v = %v, want %v", pos, got, c)
		}
	}
}

func closeColor(a, b color.RGBA, tol int) bool {
	d := func(x, y uint8) bool {
		diff := int(x) - int(y)
		return diff >= -tol && diff <= tol
	}
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

func TestRenderFill(t *testing.T) {
	buf := renderOne(t, testpdf.Page{Content: "1 0 0 rg 0 0 100 50 re f"}, 200, nil)
	if buf.Width() != 200 || buf.Height() != 100 {
		t.Fatalf("size %dx%d, want 200x100", buf.Width(), buf.Height())
	}
	checkPixels(t, buf, map[[2]int]color.RGBA{
		{50, 75}:  red,   // bottom left quarter of the page
		{150, 75}: white, // bottom right
		{50, 25}:  white, // top left
	})
}

func TestRenderScaled(t *testing.T) {
	buf := renderOne(t, testpdf.Page{Content: "0 0 1 rg 100 0 100 100 re f"}, 100, nil)
	if buf.Width() != 100 || buf.Height() != 50 {
		t.Fatalf("size %dx%d, want 100x50", buf.Width(), buf.Height())
	}
	checkPixels(t, buf, map[[2]int]color.RGBA{
		{25, 25}: white,
		{75, 25}: blue,
	})
}

func TestRenderCropBox(t *testing.T) {
	p := testpdf.Page{
		MediaBox: &pdf.Rectangle{URx: 200, URy: 200},
		CropBox:  &pdf.Rectangle{LLx: 100, LLy: 100, URx: 200, URy: 200},
		Content:  "1 0 0 rg 100 150 50 50 re f",
	}
	buf := renderOne(t, p, 100, nil)
	if buf.Width() != 100 || buf.Height() != 100 {
		t.Fatalf("size %dx%d, want 100x100", buf.Width(), buf.Height())
	}
	checkPixels(t, buf, map[[2]int]color.RGBA{
		{25, 25}: red,
		{75, 25}: white,
		{25, 75}: white,
	})

	full := renderOne(t, p, 100, &RenderOptions{Box: MediaBox})
	checkPixels(t, full, map[[2]int]color.RGBA{
		{60, 10}: red,
		{10, 10}: white,
	})
}

func TestRenderRotated(t *testing.T) {
	p := testpdf.Page{
		Rotate:  90,
		Content: "1 0 0 rg 0 0 100 50 re f",
	}
	buf := renderOne(t, p, 100, nil)
	if buf.Width() != 100 || buf.Height() != 200 {
		t.Fatalf("size %dx%d, want 100x200", buf.Width(), buf.Height())
	}
	// after a clockwise quarter turn, the bottom left corner of the page
	// is at the top left of the image
	checkPixels(t, buf, map[[2]int]color.RGBA{
		{25, 50}:  red,
		{75, 50}:  white,
		{25, 150}: white,
	})
}

func TestDeviceMatrix(t *testing.T) {
	box := rect.Rect{LLx: 10, LLy: 20, URx: 110, URy: 70}
	type pt struct{ X, Y float64 }
	corners := func(m matrix.Matrix) []pt {
		var res []pt
		for _, c := range [][2]float64{{10, 20}, {110, 20}, {110, 70}, {10, 70}} {
			v := m.Apply(vec.Vec2{X: c[0], Y: c[1]})
			res = append(res, pt{v.X, v.Y})
		}
		return res
	}
	cases := map[int][]pt{
		0:   {{0, 50}, {100, 50}, {100, 0}, {0, 0}},
		90:  {{0, 0}, {0, 100}, {50, 100}, {50, 0}},
		180: {{100, 0}, {0, 0}, {0, 50}, {100, 50}},
		270: {{50, 100}, {50, 0}, {0, 0}, {0, 100}},
	}
	for rot, want := range cases {
		got := corners(DeviceMatrix(box, rot, 1))
		if d := cmp.Diff(want, got); d != "" {
			t.Errorf("rotate %d (-want +got):\n%s", rot, d)
		}
	}
}

func TestRenderBackground(t *testing.T) {
	buf := renderOne(t, testpdf.Page{}, 20, &RenderOptions{Background: blue})
	checkPixels(t, buf, map[[2]int]color.RGBA{
		{0, 0}:  blue,
		{19, 9}: blue,
	})
}

func TestRenderStroke(t *testing.T) {
	buf := renderOne(t, testpdf.Page{Content: "0 0 1 RG 10 w 0 50 m 200 50 l S"}, 200, nil)
	checkPixels(t, buf, map[[2]int]color.RGBA{
		{100, 50}: blue,
		{100, 20}: white,
		{100, 80}: white,
	})
}

func TestRenderGraphicsState(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    map[[2]int]color.RGBA
	}{
		{
			name:    "restore colour",
			content: "q 1 0 0 rg Q 0 0 200 100 re f",
			want:    map[[2]int]color.RGBA{{100, 50}: black},
		},
		{
			name:    "clip",
			content: "0 0 50 100 re W n 1 0 0 rg 0 0 200 100 re f",
			want:    map[[2]int]color.RGBA{{25, 50}: red, {150, 50}: white},
		},
		{
			name:    "clip restored",
			content: "q 0 0 50 100 re W n Q 1 0 0 rg 0 0 200 100 re f",
			want:    map[[2]int]color.RGBA{{25, 50}: red, {150, 50}: red},
		},
		{
			name:    "transform",
			content: "1 0 0 1 100 0 cm 1 0 0 rg 0 0 50 100 re f",
			want:    map[[2]int]color.RGBA{{25, 50}: white, {125, 50}: red, {175, 50}: white},
		},
		{
			name:    "gray",
			content: "0.5 g 0 0 200 100 re f",
			want:    map[[2]int]color.RGBA{{100, 50}: {128, 128, 128, 255}},
		},
		{
			name:    "colour space operators",
			content: "/DeviceRGB cs 0 0 1 sc 0 0 200 100 re f",
			want:    map[[2]int]color.RGBA{{100, 50}: blue},
		},
		{
			name:    "even odd",
			content: "1 0 0 rg 0 0 200 100 re 50 25 100 50 re f*",
			want:    map[[2]int]color.RGBA{{10, 10}: red, {100, 50}: white},
		},
		{
			name:    "unknown operators",
			content: "1 0 0 rg /Foo bar 0 0 200 100 re f",
			want:    map[[2]int]color.RGBA{{100, 50}: red},
		},
		{
			name:    "unbalanced restore",
			content: "Q Q 1 0 0 rg 0 0 200 100 re f",
			want:    map[[2]int]color.RGBA{{100, 50}: red},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf := renderOne(t, testpdf.Page{Content: c.content}, 200, nil)
			checkPixels(t, buf, c.want)
		})
	}
}

func TestRenderImageXObject(t *testing.T) {
	p := testpdf.Page{
		Content: "q 200 0 0 100 0 0 cm /Im1 Do Q",
		XObjects: map[pdf.Name]testpdf.Stream{
			"Im1": {
				Dict: pdf.Dict{
					"Type":             pdf.Name("XObject"),
					"Subtype":          pdf.Name("Image"),
					"Width":            pdf.Integer(2),
					"Height":           pdf.Integer(1),
					"ColorSpace":       pdf.Name("DeviceRGB"),
					"BitsPerComponent": pdf.Integer(8),
				},
				Data: []byte{255, 0, 0, 0, 0, 255},
			},
		},
	}
	buf := renderOne(t, p, 200, nil)
	checkPixels(t, buf, map[[2]int]color.RGBA{
		{20, 50}:  red,
		{180, 50}: blue,
	})
}

func TestRenderForm(t *testing.T) {
	p := testpdf.Page{
		Content: "1 0 0 rg /Fm1 Do 0 0 10 10 re f",
		XObjects: map[pdf.Name]testpdf.Stream{
			"Fm1": {
				Dict: pdf.Dict{
					"Type":    pdf.Name("XObject"),
					"Subtype": pdf.Name("Form"),
					"BBox":    testpdf.Rect(0, 0, 50, 50),
					"Matrix":  pdf.Array{pdf.Integer(1), pdf.Integer(0), pdf.Integer(0), pdf.Integer(1), pdf.Integer(100), pdf.Integer(0)},
				},
				// the form fills more than its bounding box
				Data: []byte("0 0 1 rg 0 0 100 100 re f"),
			},
		},
	}
	buf := renderOne(t, p, 200, nil)
	checkPixels(t, buf, map[[2]int]color.RGBA{
		{125, 75}: blue,  // inside the form's bounding box
		{175, 75}: white, // clipped by the bounding box
		{5, 95}:   red,   // colour is restored after the form
	})
}

func TestRenderImagePage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "red.png")
	if err := testpdf.WritePNG(path, testpdf.Solid(20, 10, red)); err != nil {
		t.Fatal(err)
	}
	doc, err := source.Open(source.Descriptor{Paths: []string{path}, TargetWidth: 40}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer doc.Close()

	buf, err := Render(doc.Pages()[0], 40, nil)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Width() != 40 || buf.Height() != 20 {
		t.Fatalf("size %dx%d, want 40x20", buf.Width(), buf.Height())
	}
	checkPixels(t, buf, map[[2]int]color.RGBA{
		{20, 10}: red,
		{1, 1}:   red,
	})
}

func TestRenderMalformedContent(t *testing.T) {
	// a truncated content stream keeps whatever was drawn so far
	buf := renderOne(t, testpdf.Page{Content: "1 0 0 rg 0 0 200 100 re f (unterminated"}, 200, nil)
	checkPixels(t, buf, map[[2]int]color.RGBA{{100, 50}: red})
}

func redPixel() testpdf.Stream {
	return testpdf.Stream{
		Dict: pdf.Dict{
			"Type":             pdf.Name("XObject"),
			"Subtype":          pdf.Name("Image"),
			"Width":            pdf.Integer(1),
			"Height":           pdf.Integer(1),
			"ColorSpace":       pdf.Name("DeviceRGB"),
			"BitsPerComponent": pdf.Integer(8),
		},
		Data: []byte{255, 0, 0},
	}
}

func TestRenderImageClipped(t *testing.T) {
	p := testpdf.Page{
		Content:  "0 0 50 100 re W n q 200 0 0 100 0 0 cm /Im1 Do Q",
		XObjects: map[pdf.Name]testpdf.Stream{"Im1": redPixel()},
	}
	buf := renderOne(t, p, 200, nil)
	checkPixels(t, buf, map[[2]int]color.RGBA{
		{25, 50}:  red,
		{100, 50}: white,
		{180, 50}: white,
	})
}

func TestRenderImageInForm(t *testing.T) {
	p := testpdf.Page{
		Content: "/Fm1 Do",
		XObjects: map[pdf.Name]testpdf.Stream{
			"Im1": redPixel(),
			"Fm1": {
				Dict: pdf.Dict{
					"Type":    pdf.Name("XObject"),
					"Subtype": pdf.Name("Form"),
					"BBox":    testpdf.Rect(0, 0, 100, 100),
				},
				// the form has no resources of its own
				Data: []byte("q 200 0 0 100 0 0 cm /Im1 Do Q"),
			},
		},
	}
	buf := renderOne(t, p, 200, nil)
	checkPixels(t, buf, map[[2]int]color.RGBA{
		{50, 50}:  red,
		{150, 50}: white,
	})
}

func TestRenderStencilMask(t *testing.T) {
	// one row of two pixels: only the left one is painted
	p := testpdf.Page{
		Content: "0 0 1 rg q 200 0 0 100 0 0 cm /Im1 Do Q",
		XObjects: map[pdf.Name]testpdf.Stream{
			"Im1": {
				Dict: pdf.Dict{
					"Type":             pdf.Name("XObject"),
					"Subtype":          pdf.Name("Image"),
					"Width":            pdf.Integer(2),
					"Height":           pdf.Integer(1),
					"ImageMask":        pdf.Boolean(true),
					"BitsPerComponent": pdf.Integer(1),
				},
				Data: []byte{0b0100_0000},
			},
		},
	}
	buf := renderOne(t, p, 200, nil)
	checkPixels(t, buf, map[[2]int]color.RGBA{
		{50, 50}:  blue,
		{150, 50}: white,
	})
}

func TestRenderInlineImage(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    map[[2]int]color.RGBA
	}{
		{
			name: "rgb",
			content: "q 200 0 0 100 0 0 cm BI /W 2 /H 1 /CS /RGB /BPC 8 ID " +
				"\xff\x00\x00\x00\x00\xff\nEI Q",
			want: map[[2]int]color.RGBA{{20, 50}: red, {180, 50}: blue},
		},
		{
			name:    "stencil",
			content: "0 0 1 rg q 200 0 0 100 0 0 cm BI /W 2 /H 1 /IM true ID \x40\nEI Q",
			want:    map[[2]int]color.RGBA{{50, 50}: blue, {150, 50}: white},
		},
		{
			name:    "inverted stencil",
			content: "1 0 0 rg q 200 0 0 100 0 0 cm BI /W 2 /H 1 /IM true /D [1 0] ID \x40\nEI Q",
			want:    map[[2]int]color.RGBA{{50, 50}: white, {150, 50}: red},
		},
		{
			name:    "clipped",
			content: "100 0 100 100 re W n q 200 0 0 100 0 0 cm BI /W 1 /H 1 /CS /G /BPC 8 ID \x00\nEI Q",
			want:    map[[2]int]color.RGBA{{50, 50}: white, {150, 50}: black},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf := renderOne(t, testpdf.Page{Content: c.content}, 200, nil)
			checkPixels(t, buf, c.want)
		})
	}
}

func TestRenderNestedClip(t *testing.T) {
	content := "q 0 0 100 100 re W n q 50 0 150 100 re W n " +
		"1 0 0 rg 0 0 200 100 re f Q 0 0 1 rg 0 0 40 100 re f Q"
	buf := renderOne(t, testpdf.Page{Content: content}, 200, nil)
	checkPixels(t, buf, map[[2]int]color.RGBA{
		{25, 50}:  blue,  // inner clip removed, outer clip still active
		{75, 50}:  red,   // inside both clips
		{150, 50}: white, // outside the outer clip
	})
}

func TestRenderEmptyClip(t *testing.T) {
	buf := renderOne(t, testpdf.Page{Content: "0 0 0 0 re W n 1 0 0 rg 0 0 200 100 re f"}, 200, nil)
	checkPixels(t, buf, map[[2]int]color.RGBA{{100, 50}: white})
}

func TestDeviceColor(t *testing.T) {
	cases := []struct {
		name  string
		col   pdfcolor.Color
		alpha float64
		want  color.NRGBA
	}{
		{"gray", pdfcolor.DeviceGray(1), 1, color.NRGBA{255, 255, 255, 255}},
		{"rgb", pdfcolor.DeviceRGB{0, 1, 0}, 1, color.NRGBA{0, 255, 0, 255}},
		{"half transparent", pdfcolor.DeviceRGB{0, 0, 1}, 0.5, color.NRGBA{0, 0, 255, 128}},
		{"default", nil, 1, color.NRGBA{0, 0, 0, 255}},
	}
	for _, c := range cases {
		got, ok := deviceColor(c.col, c.alpha)
		if !ok {
			t.Errorf("%s: not converted", c.name)
			continue
		}
		if !closeColor(color.RGBA(got), color.RGBA(c.want), 2) {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestDeviceColorCMYK(t *testing.T) {
	// CMYK goes through a press profile, so only the hue is checked
	got, ok := deviceColor(pdfcolor.DeviceCMYK{0, 1, 1, 0}, 1)
	if !ok || got.R < 180 || got.G > 80 || got.B > 80 || got.A != 255 {
		t.Errorf("magenta+yellow = %v, want a red", got)
	}

	buf := renderOne(t, testpdf.Page{Content: "0 1 1 0 k 0 0 200 100 re f"}, 200, nil)
	px := buf.RGBA().RGBAAt(100, 50)
	if px.R < 180 || px.G > 80 || px.B > 80 {
		t.Errorf("rendered magenta+yellow = %v, want a red", px)
	}
}

func TestStrokeStyle(t *testing.T) {
	gs := graphics.NewState()
	gs.CTM = matrix.Scale(2, 2)
	gs.LineWidth = 3
	gs.DashPattern = []float64{1, 2}
	gs.DashPhase = 0.5
	gs.LineCap = graphics.LineCapRound

	st := strokeStyle(&gs)
	if st.Width != 6 {
		t.Errorf("width %g, want 6", st.Width)
	}
	if st.Cap != gg.LineCapRound {
		t.Errorf("cap %v, want round", st.Cap)
	}
	if st.Dash == nil {
		t.Fatal("dash pattern missing")
	}
	if d := cmp.Diff([]float64{2, 4}, st.Dash.Array); d != "" {
		t.Errorf("dash (-want +got):\n%s", d)
	}
	if st.Dash.Offset != 1 {
		t.Errorf("dash offset %g, want 1", st.Dash.Offset)
	}

	// hairlines are drawn one pixel wide
	gs.LineWidth = 0
	if w := strokeStyle(&gs).Width; w != 1 {
		t.Errorf("hairline width %g, want 1", w)
	}
}

func TestNameSelector(t *testing.T) {
	o := &cff.Outlines{
		Glyphs: []*cff.Glyph{
			{Name: ".notdef"}, {Name: "A"}, {Name: "B"}, {Name: "space"},
		},
		Encoding: make([]glyph.ID, 256),
	}
	o.Encoding['x'] = 3

	enc := func(code byte) string {
		switch code {
		case 'a':
			return "A"
		case 'b':
			return "B"
		case 'z':
			return "missing"
		}
		return encoding.UseBuiltin
	}
	sel := nameSelector(o, enc)
	cases := map[byte]glyph.ID{
		'a': 1,
		'b': 2,
		'x': 3, // from the built-in encoding
		'z': 0,
		'y': 0,
	}
	for code, want := range cases {
		if got := sel(cid.CID(code) + 1); got != want {
			t.Errorf("code %q: glyph %d, want %d", code, got, want)
		}
	}
	if got := sel(0); got != 0 {
		t.Errorf("CID 0: glyph %d, want 0", got)
	}
}

func TestCIDSelector(t *testing.T) {
	o := &cff.Outlines{
		Glyphs:   []*cff.Glyph{{}, {}, {}},
		GIDToCID: []cid.CID{0, 100, 7},
	}
	sel := cidSelector(o)
	got := []glyph.ID{sel(0), sel(100), sel(7), sel(8)}
	want := []glyph.ID{0, 1, 2, 0}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("glyphs (-want +got):\n%s", d)
	}

	// fonts which are not CID-keyed use the CID as the glyph index
	plain := cidSelector(&cff.Outlines{Glyphs: []*cff.Glyph{{}, {}}})
	if g := plain(1); g != 1 {
		t.Errorf("plain font: glyph %d, want 1", g)
	}
}

func TestApplyAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	mask := image.NewAlpha(image.Rect(0, 0, 2, 1))
	mask.Pix[0] = 0
	mask.Pix[1] = 128

	applyAlpha(img, mask)
	var got []uint8
	for x := range 4 {
		got = append(got, img.NRGBAAt(x, 1).A)
	}
	if d := cmp.Diff([]uint8{0, 0, 128, 128}, got); d != "" {
		t.Errorf("alpha (-want +got):\n%s", d)
	}
}
