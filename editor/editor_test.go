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
	"image/color"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf"

	"seehuhn.de/go/pdfink"
	"seehuhn.de/go/pdfink/config"
	"seehuhn.de/go/pdfink/ink"
	"seehuhn.de/go/pdfink/internal/testpdf"
)

func fixedTime() time.Time {
	return time.Date(2025, 12, 24, 18, 30, 0, 0, time.UTC)
}

func writeImage(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := testpdf.WritePNG(path, testpdf.Solid(w, h, color.White)); err != nil {
		t.Fatal(err)
	}
	return path
}

func writePDF(t *testing.T, dir, name string, pages ...testpdf.Page) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := testpdf.Write(path, pages...); err != nil {
		t.Fatal(err)
	}
	return path
}

func newEditor(t *testing.T, opt *Options) *Editor {
	t.Helper()
	e := New(opt)
	t.Cleanup(func() { e.Close() })
	return e
}

func urlPath(t *testing.T, s string) string {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	if u.Scheme != "file" {
		t.Errorf("%q is not a file URL", s)
	}
	return filepath.FromSlash(u.Path)
}

func TestDrawAndPreview(t *testing.T) {
	path := writeImage(t, t.TempDir(), "img.png", 20, 10)
	e := newEditor(t, nil)
	err := e.Configure(map[string]any{
		"canvasType": "image",
		"filePath":   []any{path},
		"lineColor":  "#ff0000",
		"lineWidth":  20,
	})
	if err != nil {
		t.Fatal(err)
	}

	view := ink.Fit(20, 10, 200, 100)
	err = e.Draw(0, []vec.Vec2{{X: 0, Y: 50}, {X: 200, Y: 50}}, view)
	if err != nil {
		t.Fatal(err)
	}
	strokes := e.Session().Strokes(0)
	if len(strokes) != 1 {
		t.Fatalf("got %d strokes, want 1", len(strokes))
	}
	want := []vec.Vec2{{X: 0, Y: 5}, {X: 20, Y: 5}}
	if d := cmp.Diff(want, strokes[0].Points); d != "" {
		t.Errorf("points (-want +got):\n%s", d)
	}
	if strokes[0].Width != 2 {
		t.Errorf("width = %g, want 2", strokes[0].Width)
	}

	buf, err := e.Preview(0, 20)
	if err != nil {
		t.Fatal(err)
	}
	img := buf.RGBA()
	if c := img.RGBAAt(10, 5); c.R < 200 || c.G > 60 || c.B > 60 {
		t.Errorf("stroke pixel = %v, want red", c)
	}
	if c := img.RGBAAt(10, 0); c.R < 250 || c.G < 250 || c.B < 250 {
		t.Errorf("background pixel = %v, want white", c)
	}

	if !e.Undo() {
		t.Error("Undo returned false")
	}
	if e.Undo() {
		t.Error("Undo on empty session returned true")
	}
}

func TestSaveImages(t *testing.T) {
	in := t.TempDir()
	paths := []string{
		writeImage(t, in, "first.png", 30, 10),
		writeImage(t, in, "second.png", 12, 12),
	}
	out := t.TempDir()
	e := newEditor(t, &Options{Dir: out, Now: fixedTime})
	err := e.Configure(map[string]any{"filePath": paths})
	if err != nil {
		t.Fatal(err)
	}
	err = e.Draw(1, []vec.Vec2{{X: 1, Y: 1}}, ink.ViewTransform{Scale: 1})
	if err != nil {
		t.Fatal(err)
	}

	ev := e.Save(context.Background())
	if ev.Err != nil {
		t.Fatal(ev.Err)
	}
	var got []string
	for _, u := range ev.URL {
		got = append(got, urlPath(t, u))
	}
	want := []string{
		filepath.Join(out, "first_2025-12-24-18-30-00.png"),
		filepath.Join(out, "second_2025-12-24-18-30-00.png"),
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Fatalf("files (-want +got):\n%s", d)
	}

	// without an explicit width, images keep the width of the first image
	fd, err := os.Open(got[1])
	if err != nil {
		t.Fatal(err)
	}
	defer fd.Close()
	cfg, err := png.DecodeConfig(fd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 30 || cfg.Height != 30 {
		t.Errorf("second image is %dx%d, want 30x30", cfg.Width, cfg.Height)
	}
}

func TestSavePDF(t *testing.T) {
	in := t.TempDir()
	path := writePDF(t, in, "report.pdf", testpdf.Page{}, testpdf.Page{})
	e := newEditor(t, &Options{Now: fixedTime, TargetWidth: 100})
	err := e.Configure(map[string]any{"canvasType": "pdf", "filePath": []string{path}})
	if err != nil {
		t.Fatal(err)
	}
	if n := e.Document().NumPages(); n != 2 {
		t.Fatalf("document has %d pages, want 2", n)
	}

	ev := e.Save(context.Background())
	if ev.Err != nil {
		t.Fatal(ev.Err)
	}
	if len(ev.URL) != 1 {
		t.Fatalf("got %d URLs, want 1", len(ev.URL))
	}
	got := urlPath(t, ev.URL[0])
	if want := filepath.Join(in, "report_2025-12-24-18-30-00.pdf"); got != want {
		t.Errorf("saved to %q, want %q", got, want)
	}
	if _, err := os.Stat(got); err != nil {
		t.Error(err)
	}
}

func TestSaveWithoutDocument(t *testing.T) {
	e := newEditor(t, nil)
	ev := e.Save(context.Background())
	if ev.URL != nil || !errors.Is(ev.Err, pdfink.ErrInvalidInput) {
		t.Errorf("unexpected event %+v", ev)
	}
	if err := e.Draw(0, []vec.Vec2{{}}, ink.ViewTransform{Scale: 1}); !errors.Is(err, pdfink.ErrInvalidInput) {
		t.Errorf("Draw without document: %v", err)
	}
}

func TestConfigureErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeImage(t, dir, "ok.png", 4, 4)

	e := newEditor(t, nil)
	err := e.Configure(map[string]any{
		"filePath":  []string{path},
		"something": true,
	})
	if !errors.Is(err, config.ErrUnknownKey) {
		t.Errorf("expected unknown key error, got %v", err)
	}
	if e.Document() == nil {
		t.Fatal("valid options were not applied")
	}
	first := e.Document()
	if err := e.Draw(0, []vec.Vec2{{X: 1, Y: 1}}, ink.ViewTransform{Scale: 1}); err != nil {
		t.Fatal(err)
	}

	err = e.Configure(map[string]any{"filePath": []string{filepath.Join(dir, "missing.png")}})
	if !errors.Is(err, pdfink.ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
	if e.Document() != first || e.Session().Len() != 1 {
		t.Error("failed load replaced the document")
	}
	if c := e.Canvas(); len(c.FilePath) != 1 || c.FilePath[0] != path {
		t.Errorf("file path = %v, want %v", c.FilePath, path)
	}

	other := writeImage(t, dir, "other.png", 4, 4)
	if err := e.Configure(map[string]any{"filePath": []string{other}}); err != nil {
		t.Fatal(err)
	}
	if e.Session().Len() != 0 {
		t.Error("strokes survived loading a new document")
	}
}

func TestProcess(t *testing.T) {
	in := t.TempDir()
	img := writeImage(t, in, "photo.png", 40, 20)
	doc := writePDF(t, in, "doc.pdf",
		testpdf.Page{},
		testpdf.Page{MediaBox: &pdf.Rectangle{URx: 100, URy: 100}},
	)
	out := t.TempDir()

	req := &config.ProcessRequest{Documents: []string{img, doc}, Grayscale: true, TargetWidth: 10}
	urls, err := Process(context.Background(), req, &Options{Dir: out})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		fileURL(filepath.Join(out, "photo_resized.png")),
		fileURL(filepath.Join(out, "doc_0_resized.png")),
		fileURL(filepath.Join(out, "doc_1_resized.png")),
	}
	if d := cmp.Diff(want, urls); d != "" {
		t.Fatalf("urls (-want +got):\n%s", d)
	}

	sizes := [][2]int{{10, 5}, {10, 5}, {10, 10}}
	for i, u := range urls {
		fd, err := os.Open(urlPath(t, u))
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := png.DecodeConfig(fd)
		fd.Close()
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Width != sizes[i][0] || cfg.Height != sizes[i][1] {
			t.Errorf("%s: %dx%d, want %dx%d", u, cfg.Width, cfg.Height, sizes[i][0], sizes[i][1])
		}
	}
}

func TestProcessFailure(t *testing.T) {
	in := t.TempDir()
	img := writeImage(t, in, "fine.png", 4, 4)
	req := &config.ProcessRequest{
		Documents:   []string{img, filepath.Join(in, "gone.png")},
		TargetWidth: 8,
	}
	urls, err := Process(context.Background(), req, &Options{Dir: t.TempDir()})
	if urls != nil {
		t.Errorf("urls = %v, want nil", urls)
	}
	if err == nil || !strings.Contains(err.Error(), "gone.png") {
		t.Errorf("unexpected error %v", err)
	}

	_, err = Process(context.Background(), &config.ProcessRequest{}, nil)
	if !errors.Is(err, pdfink.ErrInvalidInput) {
		t.Errorf("empty request: %v", err)
	}
}
