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

package source

import (
	"bytes"
	"errors"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	// image decoders for image sets
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"seehuhn.de/go/pdfink"
)

// Kind distinguishes paginated documents from sets of images.
type Kind int

// These are the supported kinds of documents.
const (
	Unknown Kind = iota

	// Paginated is a PDF file.
	Paginated

	// ImageSet is an ordered list of image files, one page per image.
	ImageSet
)

func (k Kind) String() string {
	switch k {
	case Paginated:
		return "pdf"
	case ImageSet:
		return "image"
	default:
		return "unknown"
	}
}

// ParseKind converts the canvas type names "pdf" and "image" into a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(s) {
	case "pdf":
		return Paginated, true
	case "image":
		return ImageSet, true
	default:
		return Unknown, false
	}
}

var extKind = map[string]Kind{
	".pdf":  Paginated,
	".png":  ImageSet,
	".jpg":  ImageSet,
	".jpeg": ImageSet,
	".gif":  ImageSet,
	".tif":  ImageSet,
	".tiff": ImageSet,
	".bmp":  ImageSet,
	".webp": ImageSet,

	// recognized, but there is no decoder
	".heic": ImageSet,
}

var errUnknownContent = errors.New("neither a PDF file nor a known image format")

// DetectKind determines the kind of a single input file.
// The file name extension is used if it is known.  Otherwise the start of
// the file is inspected.
func DetectKind(path string) (Kind, error) {
	if k, ok := extKind[strings.ToLower(filepath.Ext(path))]; ok {
		return k, nil
	}

	fd, err := os.Open(path)
	if err != nil {
		return Unknown, openError(path, err)
	}
	defer fd.Close()

	head := make([]byte, 1024)
	n, err := io.ReadFull(fd, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Unknown, pdfink.Errorf(pdfink.CorruptSource, "detect", path, err)
	}
	return sniff(head[:n], fd, path)
}

func sniff(head []byte, fd io.ReadSeeker, path string) (Kind, error) {
	if bytes.HasPrefix(bytes.TrimLeft(head, "\x00\t\n\r "), []byte("%PDF-")) {
		return Paginated, nil
	}
	if _, err := fd.Seek(0, io.SeekStart); err == nil {
		if _, _, err := image.DecodeConfig(fd); err == nil {
			return ImageSet, nil
		}
	}
	return Unknown, pdfink.Errorf(pdfink.UnsupportedFormat, "detect", path, errUnknownContent)
}

// detectAll determines the common kind of all inputs.
func detectAll(paths []string) (Kind, error) {
	kind := Unknown
	for _, p := range paths {
		k, err := DetectKind(p)
		if err != nil {
			return Unknown, err
		}
		if kind != Unknown && k != kind {
			return Unknown, pdfink.Errorf(pdfink.UnsupportedFormat, "detect", p,
				errors.New("cannot mix PDF files and images"))
		}
		kind = k
	}
	return kind, nil
}

func openError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return pdfink.Errorf(pdfink.InvalidInput, "open", path, err)
	}
	return pdfink.Errorf(pdfink.CorruptSource, "open", path, err)
}
