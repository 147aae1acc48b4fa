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
	"time"

	"golang.org/x/text/language"
	"seehuhn.de/go/icc"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/xmp"
)

// pdfNamespace is the XMP namespace for PDF metadata.
// See https://developer.adobe.com/xmp/docs/XMPNamespaces/pdf/
type pdfNamespace struct {
	_        xmp.Namespace `xmp:"http://ns.adobe.com/pdf/1.3/"`
	_        xmp.Prefix    `xmp:"pdf"`
	Producer xmp.AgentName
}

// documentMetadata returns the XMP metadata stream for an exported file.
func documentMetadata(title string, t time.Time) (*pdf.MetadataStream, error) {
	dc := &xmp.DublinCore{}
	dc.Title.Set(language.MustParse("x-default"), title)

	basic := &xmp.Basic{}
	basic.CreateDate = xmp.NewDate(t, xmp.PrecisionSecond)
	basic.ModifyDate = xmp.NewDate(t, xmp.PrecisionSecond)

	info := &pdfNamespace{
		Producer: xmp.NewAgentName(producer),
	}

	packet := xmp.NewPacket()
	if err := packet.Set(dc, basic, info); err != nil {
		return nil, err
	}
	return &pdf.MetadataStream{Data: packet}, nil
}

// sRGBCondition identifies the output condition of exported files.  The
// page images are sRGB, or sRGB luminance for grayscale output.
const sRGBCondition = "sRGB IEC61966-2.1"

// writeOutputIntent embeds an sRGB ICC profile and returns the value of
// the /OutputIntents entry of the document catalog.
func writeOutputIntent(w *pdf.Writer) (pdf.Object, error) {
	p, err := icc.Decode(icc.SRGBv2Profile)
	if err != nil {
		return nil, err
	}

	profileRef := w.Alloc()
	stm, err := w.OpenStream(profileRef, pdf.Dict{
		"N": pdf.Integer(p.ColorSpace.NumComponents()),
	}, pdf.FilterCompress{})
	if err != nil {
		return nil, err
	}
	if _, err := stm.Write(icc.SRGBv2Profile); err != nil {
		return nil, err
	}
	if err := stm.Close(); err != nil {
		return nil, err
	}

	intent := pdf.Dict{
		"Type":                      pdf.Name("OutputIntent"),
		"S":                         pdf.Name("GTS_PDFA1"),
		"OutputConditionIdentifier": pdf.String(sRGBCondition),
		"Info":                      pdf.String(sRGBCondition),
		"DestOutputProfile":         profileRef,
	}
	return pdf.Array{intent}, nil
}
