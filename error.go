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

package pdfink

import (
	"errors"
	"strconv"
	"strings"
)

// Kind classifies the errors returned by the pdfink packages.
type Kind int

// These are the possible error kinds.
const (
	Unknown Kind = iota

	// UnsupportedFormat means that an input file is neither a PDF file nor
	// an image in a recognized format.
	UnsupportedFormat

	// CorruptSource means that an input file has a known format, but cannot
	// be parsed or decoded.
	CorruptSource

	// RenderFailure means that a page could not be drawn.
	RenderFailure

	// EncodeFailure means that an output file could not be serialized.
	EncodeFailure

	// WriteFailure means that an output file could not be written to disk.
	WriteFailure

	// InvalidInput means that a caller-supplied value was rejected.
	InvalidInput
)

func (k Kind) String() string {
	switch k {
	case UnsupportedFormat:
		return "unsupported format"
	case CorruptSource:
		return "corrupt source"
	case RenderFailure:
		return "render failure"
	case EncodeFailure:
		return "encode failure"
	case WriteFailure:
		return "write failure"
	case InvalidInput:
		return "invalid input"
	default:
		return "unknown error"
	}
}

// Error is the error type returned at the public boundary of all pdfink
// packages.
type Error struct {
	Kind Kind

	// Op names the operation which failed, e.g. "open" or "export".
	Op string

	// Path is the file involved, if any.
	Path string

	// Page is the 0-based page index involved, or -1.
	Page int

	Err error
}

// Sentinel values for use with [errors.Is].
// Only the Kind field is compared.
var (
	ErrUnsupportedFormat = &Error{Kind: UnsupportedFormat, Page: -1}
	ErrCorruptSource     = &Error{Kind: CorruptSource, Page: -1}
	ErrRenderFailure     = &Error{Kind: RenderFailure, Page: -1}
	ErrEncodeFailure     = &Error{Kind: EncodeFailure, Page: -1}
	ErrWriteFailure      = &Error{Kind: WriteFailure, Page: -1}
	ErrInvalidInput      = &Error{Kind: InvalidInput, Page: -1}
)

// Errorf is a shorthand for constructing an *Error without page
// information.
func Errorf(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Page: -1, Err: err}
}

// PageError constructs an *Error which refers to the given page.
func PageError(kind Kind, op string, page int, err error) *Error {
	return &Error{Kind: kind, Op: op, Page: page, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	if e.Page >= 0 {
		b.WriteString("page ")
		b.WriteString(strconv.Itoa(e.Page))
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
// This allows to use the sentinel values with [errors.Is].
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain,
// or Unknown if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
