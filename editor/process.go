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

package editor

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"

	"seehuhn.de/go/pdfink"
	"seehuhn.de/go/pdfink/config"
	"seehuhn.de/go/pdfink/export"
	"seehuhn.de/go/pdfink/filter"
	"seehuhn.de/go/pdfink/join"
	"seehuhn.de/go/pdfink/raster"
	"seehuhn.de/go/pdfink/source"
)

// Process scales every page of the requested documents to the requested
// width and writes it as a PNG file.  An image "x.jpg" is written as
// "x_resized.png", page i of a PDF file "y.pdf" as "y_<i>_resized.png".
//
// Only opt.Dir, opt.Workers and the password fields are used.  The
// returned slice lists the written files as file URLs, in request order.
// If any page fails, the returned slice is nil and the error joins the
// errors of all failed documents and pages.  Files written for other
// pages are kept.
func Process(ctx context.Context, req *config.ProcessRequest, opt *Options) ([]string, error) {
	if req == nil || len(req.Documents) == 0 {
		return nil, pdfink.Errorf(pdfink.InvalidInput, "process", "", errors.New("no documents"))
	}
	if opt == nil {
		opt = &Options{}
	}

	var urls []string
	var errs []error
	for _, path := range req.Documents {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		paths, err := processDocument(ctx, path, req, opt)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, p := range paths {
			urls = append(urls, fileURL(p))
		}
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		pdfink.Logger().Info("processing failed", "documents", len(req.Documents), "error", err)
		return nil, err
	}
	pdfink.Logger().Info("processing finished", "documents", len(req.Documents), "files", len(urls))
	return urls, nil
}

func processDocument(ctx context.Context, path string, req *config.ProcessRequest, opt *Options) ([]string, error) {
	doc, err := source.Open(source.Descriptor{
		Paths:       []string{path},
		TargetWidth: req.TargetWidth,
		Grayscale:   req.Grayscale,
	}, &source.Options{
		Password:     opt.Password,
		ReadPassword: opt.ReadPassword,
	})
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	dir := opt.Dir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	base := export.BaseName(path)
	filters := filter.ForDocument(doc.Grayscale)

	n := doc.NumPages()
	outcomes := join.Run(ctx, n, &join.Options[string]{Workers: opt.Workers},
		func(ctx context.Context, i int) (string, error) {
			buf, err := raster.Render(doc.Pages()[i], doc.TargetWidth, nil)
			if err != nil {
				return "", err
			}
			filters.Apply(buf.RGBA())

			name := base + "_resized.png"
			if doc.Kind == source.Paginated {
				name = base + "_" + strconv.Itoa(i) + "_resized.png"
			}
			return export.WritePNG(dir, name, buf)
		})

	var errs []error
	paths := make([]string, 0, n)
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
			continue
		}
		paths = append(paths, o.Value)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return paths, nil
}
