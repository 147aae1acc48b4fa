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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"seehuhn.de/go/pdfink"
)

// TimestampLayout is the layout of the time stamp in output file names.
const TimestampLayout = "2006-01-02-15-04-05"

// maxSuffix limits the search for a free file name.
const maxSuffix = 1000

// BaseName returns the file name of path without directory and extension.
// Everything from the first dot onwards is removed, so "scan.2024.pdf"
// becomes "scan".  The result is in Unicode normal form C.
func BaseName(path string) string {
	name := norm.NFC.String(filepath.Base(path))
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "export"
	}
	return name
}

// FileName returns "<base>_<timestamp>.<ext>".
func FileName(base string, t time.Time, ext string) string {
	return base + "_" + t.Format(TimestampLayout) + "." + ext
}

// createUnique creates a new file in dir.  If name is already taken,
// "-1", "-2", ... is inserted before the extension.
func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i < maxSuffix; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)
		fd, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		} else if err != nil {
			return nil, "", pdfink.Errorf(pdfink.WriteFailure, "create", path, err)
		}
		if i > 0 {
			pdfink.Logger().Warn("output file name taken",
				"name", name, "using", candidate)
		}
		return fd, path, nil
	}
	return nil, "", pdfink.Errorf(pdfink.WriteFailure, "create", filepath.Join(dir, name),
		errors.New("no free file name"))
}
