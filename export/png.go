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
	"bufio"
	"context"
	"image/png"
	"strconv"

	"seehuhn.de/go/pdfink"
	"seehuhn.de/go/pdfink/join"
	"seehuhn.de/go/pdfink/raster"
	"seehuhn.de/go/pdfink/source"
)

// writeImages writes one PNG file per page.  Pages are processed in
// parallel, and a failed page does not stop the others.
func (j *job) writeImages(ctx context.Context) *Result {
	n := j.doc.NumPages()
	opt := &join.Options[string]{Workers: j.engine.Workers}
	outcomes := join.Run(ctx, n, opt, func(ctx context.Context, i int) (string, error) {
		buf, err := j.flatten(i)
		if err != nil {
			return "", err
		}
		return j.writePNG(i, buf)
	})

	res := &Result{Kind: source.ImageSet, Pages: make([]PageResult, n)}
	for i, o := range outcomes {
		res.Pages[i] = PageResult{Index: i, Path: o.Value, Err: o.Err}
	}
	return res
}

// imageBase returns the base name of the output file for page i.
// For image documents every page has its own source file.  Pages of a PDF
// file are told apart by their index.
func (j *job) imageBase(i int) string {
	if j.doc.Kind == source.ImageSet && i < len(j.doc.SourcePaths) {
		return BaseName(j.doc.SourcePaths[i])
	}
	return BaseName(j.doc.SourcePaths[0]) + "_" + strconv.Itoa(i)
}

func (j *job) writePNG(i int, buf *raster.Buffer) (string, error) {
	name := FileName(j.imageBase(i), j.stamp, "png")
	return WritePNG(j.dir, name, buf)
}

// WritePNG encodes buf as a PNG file in dir.  If the name is taken, a
// numeric suffix is added.  The path of the new file is returned.
func WritePNG(dir, name string, buf *raster.Buffer) (string, error) {
	fd, path, err := createUnique(dir, name)
	if err != nil {
		return "", err
	}

	w := bufio.NewWriter(fd)
	err = png.Encode(w, buf.RGBA())
	if err != nil {
		fd.Close()
		removeFile(path)
		return "", pdfink.Errorf(pdfink.EncodeFailure, "encode png", path, err)
	}
	err = w.Flush()
	if err == nil {
		err = fd.Close()
	} else {
		fd.Close()
	}
	if err != nil {
		removeFile(path)
		return "", pdfink.Errorf(pdfink.WriteFailure, "write png", path, err)
	}
	return path, nil
}
