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

// Package source opens the input of an editing session as a sequence of
// pages.
//
// The input is either a single PDF file, or a list of image files.  In the
// second case every image becomes one page.
package source

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/xdg-go/stringprep"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdfink"
)

// Descriptor describes the input of a document.
type Descriptor struct {
	// Paths lists the input files.  A paginated document has exactly
	// one path.  If more than one PDF file is given, only the first one
	// is used.
	Paths []string

	// Kind selects the document kind.  If this is Unknown, the kind is
	// detected from the files.
	Kind Kind

	// TargetWidth is the width, in pixels, at which pages are exported.
	TargetWidth float64

	// Grayscale requests grayscale output.
	Grayscale bool
}

// Options control how input files are opened.
type Options struct {
	// Password is tried first when opening an encrypted PDF file.
	Password string

	// ReadPassword, if set, is called when Password is empty or wrong.
	// The argument try counts the calls, starting from 0.  Returning the
	// empty string gives up.
	ReadPassword func(ID []byte, try int) string
}

// maxPasswordTries limits the number of calls to Options.ReadPassword.
const maxPasswordTries = 16

// A Document is an opened input, split into pages.
//
// The methods of a Document are safe for concurrent use.
type Document struct {
	ID          string
	Kind        Kind
	SourcePaths []string
	TargetWidth float64
	Grayscale   bool

	pages []*Page

	// PDF files only
	version pdf.Version
	r       *pdf.Reader

	mu     sync.Mutex
	active sync.WaitGroup
	closed bool
}

// Open opens the input described by desc.
//
// Errors are of type [*pdfink.Error]: UnsupportedFormat if the kind of the
// input cannot be determined, CorruptSource if a file cannot be parsed and
// InvalidInput for unusable descriptors or missing files.
func Open(desc Descriptor, opt *Options) (*Document, error) {
	if len(desc.Paths) == 0 {
		return nil, pdfink.Errorf(pdfink.InvalidInput, "open", "", errors.New("no input files"))
	}
	if !(desc.TargetWidth > 0) || math.IsInf(desc.TargetWidth, 0) {
		return nil, pdfink.Errorf(pdfink.InvalidInput, "open", "",
			fmt.Errorf("invalid target width %g", desc.TargetWidth))
	}
	if opt == nil {
		opt = &Options{}
	}
	for _, p := range desc.Paths {
		if _, err := os.Stat(p); err != nil {
			return nil, openError(p, err)
		}
	}

	kind := desc.Kind
	if kind == Unknown {
		var err error
		kind, err = detectAll(desc.Paths)
		if err != nil {
			return nil, err
		}
	}

	doc := &Document{
		ID:          documentID(desc.Paths),
		Kind:        kind,
		SourcePaths: append([]string(nil), desc.Paths...),
		TargetWidth: desc.TargetWidth,
		Grayscale:   desc.Grayscale,
	}

	var err error
	switch kind {
	case Paginated:
		doc.SourcePaths = doc.SourcePaths[:1]
		err = doc.openPDF(opt)
	case ImageSet:
		err = doc.openImages()
	default:
		err = pdfink.Errorf(pdfink.UnsupportedFormat, "open", desc.Paths[0], nil)
	}
	if err != nil {
		doc.Close()
		return nil, err
	}

	pdfink.Logger().Debug("document opened",
		"id", doc.ID, "kind", doc.Kind.String(), "pages", len(doc.pages))
	return doc, nil
}

func (d *Document) openPDF(opt *Options) error {
	path := d.SourcePaths[0]

	r, err := openReader(path, opt)
	if err != nil {
		return err
	}
	d.r = r

	meta := r.GetMeta()
	if meta.Catalog == nil {
		return pdfink.Errorf(pdfink.CorruptSource, "open", path, errors.New("missing document catalog"))
	}
	d.version = meta.Version
	pages, err := readPageTree(d, r)
	if err != nil {
		return pdfink.Errorf(pdfink.CorruptSource, "open", path, err)
	}
	if len(pages) == 0 {
		return pdfink.Errorf(pdfink.CorruptSource, "open", path, errors.New("document has no pages"))
	}
	d.pages = pages
	return nil
}

// openReader opens a PDF file, asking for passwords until one works or
// opt.ReadPassword gives up.
func openReader(path string, opt *Options) (*pdf.Reader, error) {
	password, err := preparePassword(opt.Password)
	if err != nil {
		return nil, pdfink.Errorf(pdfink.InvalidInput, "open", path, err)
	}

	try := 0
	for {
		ropt := &pdf.ReaderOptions{
			Password:      password,
			ErrorHandling: pdf.ErrorHandlingReport,
		}
		r, err := pdf.Open(path, ropt)
		if err == nil {
			return r, nil
		}

		var authErr *pdf.AuthenticationError
		if !errors.As(err, &authErr) {
			return nil, openError(path, err)
		}
		if opt.ReadPassword == nil || try >= maxPasswordTries {
			return nil, pdfink.Errorf(pdfink.InvalidInput, "open", path, err)
		}
		next := opt.ReadPassword(authErr.ID, try)
		try++
		if next == "" {
			return nil, pdfink.Errorf(pdfink.InvalidInput, "open", path, err)
		}
		password, err = preparePassword(next)
		if err != nil {
			return nil, pdfink.Errorf(pdfink.InvalidInput, "open", path, err)
		}
	}
}

// preparePassword normalises a password the way PDF 2.0 requires for AES-256
// encryption.
func preparePassword(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	prepared, err := stringprep.SASLprep.Prepare(password)
	if err != nil {
		return "", fmt.Errorf("invalid password: %w", err)
	}
	return prepared, nil
}

func (d *Document) openImages() error {
	d.pages = make([]*Page, 0, len(d.SourcePaths))
	for i, path := range d.SourcePaths {
		p, err := imagePage(d, i, path)
		if err != nil {
			return err
		}
		d.pages = append(d.pages, p)
	}
	return nil
}

// NumPages returns the number of pages.
func (d *Document) NumPages() int {
	return len(d.pages)
}

// Pages returns the pages of the document, in order.
func (d *Document) Pages() []*Page {
	return d.pages[:len(d.pages):len(d.pages)]
}

// Page returns the page with the given 0-based index.
func (d *Document) Page(i int) (*Page, error) {
	if i < 0 || i >= len(d.pages) {
		return nil, pdfink.PageError(pdfink.InvalidInput, "page", i,
			fmt.Errorf("document has %d pages", len(d.pages)))
	}
	return d.pages[i], nil
}

// Version returns the PDF version of a paginated document.
func (d *Document) Version() pdf.Version {
	return d.version
}

// WithReader calls fn with the reader for the PDF file of a paginated
// document.  Calls from different goroutines may run in parallel.  The
// reader must not be used after fn returns.
//
// [Document.Close] waits until all calls to fn have returned.
func (d *Document) WithReader(fn func(r pdf.Getter) error) error {
	if d.Kind != Paginated {
		return pdfink.Errorf(pdfink.InvalidInput, "read", "", errors.New("not a PDF document"))
	}

	d.mu.Lock()
	if d.closed || d.r == nil {
		d.mu.Unlock()
		return pdfink.Errorf(pdfink.InvalidInput, "read", d.SourcePaths[0], errors.New("document is closed"))
	}
	d.active.Add(1)
	r := d.r
	d.mu.Unlock()

	defer d.active.Done()
	return fn(r)
}

// Close releases all resources held by the document.  If WithReader calls
// are in progress, Close waits for them to finish.
func (d *Document) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	r := d.r
	d.r = nil
	d.mu.Unlock()

	d.active.Wait()
	if r == nil {
		return nil
	}
	return r.Close()
}

// documentID derives a stable identifier from the input paths.
func documentID(paths []string) string {
	h := sha256.New()
	for _, p := range paths {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}
