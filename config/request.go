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

package config

import (
	"errors"
)

// Keys of a processing request.
const (
	KeyDocuments     = "documents"
	KeyGrayscale     = "grayscale"
	KeyExpectedWidth = "expectedWidth"
	KeyTargetWidth   = "targetWidth"
)

// A ProcessRequest asks for a list of documents to be scaled to a fixed
// width and written as images.
type ProcessRequest struct {
	Documents   []string
	Grayscale   bool
	TargetWidth float64
}

// ParseProcessRequest reads a processing request from an option map.
// All entries are required.  The width may be given as "expectedWidth" or
// as "targetWidth".  If any entry is missing or invalid, the returned
// error joins one [*FieldError] per problem.
func ParseProcessRequest(m map[string]any) (*ProcessRequest, error) {
	req := &ProcessRequest{}
	var errs []error
	fail := func(key string, err error) {
		errs = append(errs, &FieldError{Key: key, Value: m[key], Err: err})
	}

	if v, ok := m[KeyDocuments]; !ok {
		fail(KeyDocuments, ErrValue)
	} else if paths, err := toPaths(v); err != nil {
		fail(KeyDocuments, err)
	} else {
		req.Documents = paths
	}

	if v, ok := m[KeyGrayscale]; !ok {
		fail(KeyGrayscale, ErrValue)
	} else if b, ok := v.(bool); !ok {
		fail(KeyGrayscale, ErrType)
	} else {
		req.Grayscale = b
	}

	key := KeyExpectedWidth
	v, ok := m[key]
	if !ok {
		key = KeyTargetWidth
		v, ok = m[key]
	}
	if !ok {
		fail(KeyExpectedWidth, ErrValue)
	} else if x, err := toNumber(v); err != nil {
		fail(key, err)
	} else if !(x > 0) {
		fail(key, ErrValue)
	} else {
		req.TargetWidth = x
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return req, nil
}
