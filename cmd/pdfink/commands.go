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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"os"
	"strings"

	"seehuhn.de/go/pdfink/config"
	"seehuhn.de/go/pdfink/editor"
	"seehuhn.de/go/pdfink/filter"
	"seehuhn.de/go/pdfink/raster"
	"seehuhn.de/go/pdfink/source"
)

func runProcess(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("process", flag.ExitOnError)
	width := flags.Float64("width", 800, "output width in pixels")
	gray := flags.Bool("gray", false, "convert to grayscale")
	out := flags.String("out", "", "output directory (default: next to the input)")
	flags.Parse(args)

	if flags.NArg() < 1 {
		return errors.New("no input files given")
	}
	req, err := config.ParseProcessRequest(map[string]any{
		config.KeyDocuments:     flags.Args(),
		config.KeyGrayscale:     *gray,
		config.KeyExpectedWidth: *width,
	})
	if err != nil {
		return err
	}

	urls, err := editor.Process(ctx, req, &editor.Options{
		Dir:          *out,
		ReadPassword: readPassword,
	})
	if err != nil {
		return err
	}
	printURLs(urls)
	return nil
}

func runAnnotate(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("annotate", flag.ExitOnError)
	configFile := flags.String("config", "", "JSON file with canvas options")
	strokesFile := flags.String("strokes", "", "JSON file with strokes")
	out := flags.String("out", "", "output directory (default: next to the input)")
	as := flags.String("as", "", "output kind, pdf or image (default: same as input)")
	width := flags.Float64("width", 0, "output width in pixels (default: natural size)")
	gray := flags.Bool("gray", false, "convert to grayscale")
	flags.Parse(args)

	kind := source.Unknown
	if *as != "" {
		k, ok := source.ParseKind(*as)
		if !ok {
			return fmt.Errorf("invalid output kind %q", *as)
		}
		kind = k
	}

	e := editor.New(&editor.Options{
		Dir:          *out,
		TargetWidth:  *width,
		Grayscale:    *gray,
		ReadPassword: readPassword,
	})
	defer e.Close()

	opts := map[string]any{}
	if *configFile != "" {
		fd, err := os.Open(*configFile)
		if err != nil {
			return err
		}
		c := config.Default()
		err = c.LoadJSON(fd)
		fd.Close()
		if err != nil {
			return err
		}
		opts = canvasOptions(c)
	}
	if flags.NArg() > 0 {
		opts[config.KeyFilePath] = flags.Args()
	}
	if err := e.Configure(opts); err != nil {
		return err
	}
	if e.Document() == nil {
		return errors.New("no input files given")
	}

	if *strokesFile != "" {
		fd, err := os.Open(*strokesFile)
		if err != nil {
			return err
		}
		canvas := e.Canvas()
		strokes, err := readStrokes(fd, canvas.Style())
		fd.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", *strokesFile, err)
		}
		for _, st := range strokes {
			if err := e.Session().Append(st); err != nil {
				return err
			}
		}
	}

	ev := e.SaveAs(ctx, kind)
	if ev.Err != nil {
		return ev.Err
	}
	printURLs(ev.URL)
	return nil
}

// canvasOptions converts settings back into an option map, so that they
// can be applied to an editor.
func canvasOptions(c *config.Canvas) map[string]any {
	opts := map[string]any{
		config.KeyToolBarHidden:  c.ToolBarHidden,
		config.KeyViewBackground: hexColor(c.ViewBackground.R, c.ViewBackground.G, c.ViewBackground.B, c.ViewBackground.A),
		config.KeyLineColor:      hexColor(c.LineColor.R, c.LineColor.G, c.LineColor.B, c.LineColor.A),
		config.KeyLineWidth:      c.LineWidth,
	}
	if c.CanvasType != source.Unknown {
		opts[config.KeyCanvasType] = c.CanvasType.String()
	}
	if len(c.FilePath) > 0 {
		opts[config.KeyFilePath] = c.FilePath
	}
	return opts
}

func hexColor(r, g, b, a uint8) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", r, g, b, a)
}

func runRender(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("render", flag.ExitOnError)
	width := flags.Float64("width", 800, "output width in pixels")
	pageNo := flags.Int("page", 1, "page number to render (1-based)")
	gray := flags.Bool("gray", false, "convert to grayscale")
	outFile := flags.String("o", "out.png", "output file name")
	flags.Parse(args)

	if flags.NArg() != 1 {
		return errors.New("need exactly one input file")
	}

	doc, err := source.Open(source.Descriptor{
		Paths:       flags.Args(),
		TargetWidth: *width,
		Grayscale:   *gray,
	}, &source.Options{ReadPassword: readPassword})
	if err != nil {
		return err
	}
	defer doc.Close()

	page, err := doc.Page(*pageNo - 1)
	if err != nil {
		return err
	}
	buf, err := raster.Render(page, doc.TargetWidth, nil)
	if err != nil {
		return err
	}
	filter.ForDocument(doc.Grayscale).Apply(buf.RGBA())

	out, err := os.Create(*outFile)
	if err != nil {
		return err
	}
	err = png.Encode(out, buf.RGBA())
	if err != nil {
		out.Close()
		return err
	}
	err = out.Close()
	if err != nil {
		return err
	}

	fmt.Printf("rendered page %d of %s to %s\n", *pageNo, flags.Arg(0), *outFile)
	return nil
}

func runInfo(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("info", flag.ExitOnError)
	flags.Parse(args)

	if flags.NArg() < 1 {
		return errors.New("no input files given")
	}

	var errs []error
	for _, path := range flags.Args() {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := showInfo(path)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func showInfo(path string) error {
	doc, err := source.Open(source.Descriptor{
		Paths:       []string{path},
		TargetWidth: 1,
	}, &source.Options{ReadPassword: readPassword})
	if err != nil {
		return err
	}
	defer doc.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", path, doc.Kind)
	if doc.Kind == source.Paginated {
		fmt.Fprintf(&b, " %s", doc.Version())
	}
	fmt.Fprintf(&b, ", %d pages\n", doc.NumPages())
	for _, p := range doc.Pages() {
		w, h := p.Size()
		fmt.Fprintf(&b, "  page %d: %gx%g", p.Index+1, w, h)
		if p.Rotate != 0 {
			fmt.Fprintf(&b, ", rotated by %d", p.Rotate)
		}
		if p.Format != "" {
			fmt.Fprintf(&b, ", %s", p.Format)
		}
		b.WriteByte('\n')
	}
	fmt.Print(b.String())
	return nil
}
