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

// Package config converts the option maps supplied by a host application
// into typed settings.
//
// Updates are partial: a missing or invalid entry leaves the corresponding
// setting unchanged, and every rejected entry is reported as a
// [*FieldError].
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"net/url"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"seehuhn.de/go/pdfink"
	"seehuhn.de/go/pdfink/ink"
	"seehuhn.de/go/pdfink/source"
)

// These are the keys recognized by [Canvas.Apply].
const (
	KeyCanvasType     = "canvasType"
	KeyFilePath       = "filePath"
	KeyToolBarHidden  = "isToolBarHidden"
	KeyViewBackground = "viewBackgroundColor"
	KeyLineColor      = "lineColor"
	KeyLineWidth      = "lineWidth"
)

// Canvas holds the settings of an editing view.
type Canvas struct {
	// CanvasType is the kind of document shown.  Unknown means the kind is
	// detected from the files.
	CanvasType source.Kind

	// FilePath lists the input files.  PDF documents use only the first
	// entry.
	FilePath []string

	ToolBarHidden  bool
	ViewBackground color.NRGBA

	// LineColor and LineWidth describe the pen for new strokes.
	LineColor color.NRGBA
	LineWidth float64
}

// Default returns the settings used before any options are applied.
func Default() *Canvas {
	return &Canvas{
		ViewBackground: color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		LineColor:      ink.DefaultStyle.Color,
		LineWidth:      ink.DefaultStyle.Width,
	}
}

// Style returns the pen described by the settings.
func (c *Canvas) Style() ink.Style {
	return ink.Style{Color: c.LineColor, Width: c.LineWidth}
}

// Descriptor returns the input described by the settings.
func (c *Canvas) Descriptor(targetWidth float64, grayscale bool) source.Descriptor {
	return source.Descriptor{
		Paths:       slices.Clone(c.FilePath),
		Kind:        c.CanvasType,
		TargetWidth: targetWidth,
		Grayscale:   grayscale,
	}
}

// A FieldError describes a rejected option.
type FieldError struct {
	Key   string
	Value any
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("option %q: %v (value %#v)", e.Key, e.Err, e.Value)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

var (
	// ErrUnknownKey is reported for options which are not recognized.
	ErrUnknownKey = errors.New("unknown option")

	// ErrType is reported for options of the wrong type.
	ErrType = errors.New("wrong type")

	// ErrValue is reported for options with an unusable value.
	ErrValue = errors.New("invalid value")
)

// Apply updates the settings from an option map.
//
// Entries which are absent keep their previous value.  Entries which are
// invalid are skipped and reported, the remaining entries are still
// applied.  The returned error, if any, joins one [*FieldError] per
// rejected entry, in key order.
func (c *Canvas) Apply(opts map[string]any) error {
	rest := maps.Clone(opts)
	var errs []error
	reject := func(key string, err error) {
		fe := &FieldError{Key: key, Value: opts[key], Err: err}
		pdfink.Logger().Warn("option rejected", "key", key, "error", err)
		errs = append(errs, fe)
	}

	if v, ok := rest[KeyCanvasType]; ok {
		delete(rest, KeyCanvasType)
		s, ok := v.(string)
		if !ok {
			reject(KeyCanvasType, ErrType)
		} else if k, ok := source.ParseKind(s); !ok {
			reject(KeyCanvasType, ErrValue)
		} else {
			c.CanvasType = k
		}
	}

	if v, ok := rest[KeyFilePath]; ok {
		delete(rest, KeyFilePath)
		paths, err := toPaths(v)
		if err != nil {
			reject(KeyFilePath, err)
		} else {
			c.FilePath = paths
		}
	}

	if v, ok := rest[KeyToolBarHidden]; ok {
		delete(rest, KeyToolBarHidden)
		if b, ok := v.(bool); ok {
			c.ToolBarHidden = b
		} else {
			reject(KeyToolBarHidden, ErrType)
		}
	}

	for _, key := range []string{KeyViewBackground, KeyLineColor} {
		v, ok := rest[key]
		if !ok {
			continue
		}
		delete(rest, key)
		s, ok := v.(string)
		if !ok {
			reject(key, ErrType)
			continue
		}
		col, err := ParseColor(s)
		if err != nil {
			reject(key, err)
			continue
		}
		if key == KeyLineColor {
			c.LineColor = col
		} else {
			c.ViewBackground = col
		}
	}

	if v, ok := rest[KeyLineWidth]; ok {
		delete(rest, KeyLineWidth)
		x, err := toNumber(v)
		if err == nil && !(x > 0) {
			err = ErrValue
		}
		if err != nil {
			reject(KeyLineWidth, err)
		} else {
			c.LineWidth = x
		}
	}

	unknown := make([]string, 0, len(rest))
	for key := range rest {
		unknown = append(unknown, key)
	}
	slices.Sort(unknown)
	for _, key := range unknown {
		reject(key, ErrUnknownKey)
	}

	return errors.Join(errs...)
}

// LoadJSON reads a JSON object of options and applies it.
// A document which is not a JSON object is an [pdfink.InvalidInput] error
// and leaves the settings unchanged.
func (c *Canvas) LoadJSON(r io.Reader) error {
	var opts map[string]any
	err := json.NewDecoder(r).Decode(&opts)
	if err != nil {
		return pdfink.Errorf(pdfink.InvalidInput, "read options", "", err)
	}
	return c.Apply(opts)
}

// ParseColor parses a colour of the form "#RGB", "#RGBA", "#RRGGBB" or
// "#RRGGBBAA".  The leading "#" is optional.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 3, 4, 6, 8:
		// pass
	default:
		return color.NRGBA{}, ErrValue
	}
	for i := 0; i < len(hex); i++ {
		if !isHexDigit(hex[i]) {
			return color.NRGBA{}, ErrValue
		}
	}

	c := gg.Hex(hex)
	return color.NRGBA{
		R: to8(c.R),
		G: to8(c.G),
		B: to8(c.B),
		A: to8(c.A),
	}, nil
}

func isHexDigit(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func to8(x float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, x)) * 255))
}

// toPaths accepts a non-empty list of file paths or file URLs.
func toPaths(v any) ([]string, error) {
	var raw []string
	switch v := v.(type) {
	case []string:
		raw = v
	case []any:
		for _, x := range v {
			s, ok := x.(string)
			if !ok {
				return nil, ErrType
			}
			raw = append(raw, s)
		}
	default:
		return nil, ErrType
	}
	if len(raw) == 0 {
		return nil, ErrValue
	}

	paths := make([]string, len(raw))
	for i, s := range raw {
		p, err := filePath(s)
		if err != nil {
			return nil, err
		}
		paths[i] = p
	}
	return paths, nil
}

// filePath converts "file://" URLs into paths.  Other strings are used
// unchanged.
func filePath(s string) (string, error) {
	if s == "" {
		return "", ErrValue
	}
	if !strings.HasPrefix(s, "file:") {
		return s, nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Path == "" {
		return "", ErrValue
	}
	return u.Path, nil
}

// toNumber accepts the numeric types produced by JSON decoders and host
// bridges.
func toNumber(v any) (float64, error) {
	var x float64
	switch v := v.(type) {
	case float64:
		x = v
	case float32:
		x = float64(v)
	case int:
		x = float64(v)
	case int64:
		x = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, ErrValue
		}
		x = f
	default:
		return 0, ErrType
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, ErrValue
	}
	return x, nil
}
