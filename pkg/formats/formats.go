// Package formats is the catalog of file formats bufmap knows how to lay
// out, plus detection: each format's static fields (magic numbers and
// signatures) reject buffers of other formats with a validation error, so
// Detect simply tries them in turn.
package formats

import (
	"errors"
	"fmt"
	"strings"

	"github.com/twinfer/bufmap/pkg/bufmap"
	"github.com/twinfer/bufmap/pkg/byteview"
	"github.com/twinfer/bufmap/pkg/formats/bmp"
	"github.com/twinfer/bufmap/pkg/formats/pe"
	"github.com/twinfer/bufmap/pkg/formats/png"
)

// ErrUnknownFormat is returned by Detect when no format accepts the buffer,
// and by Lookup for an unknown key.
var ErrUnknownFormat = errors.New("unknown format")

// Format is one declared file format.
type Format struct {
	Key    string // short name used in configuration, e.g. "png"
	Name   string // top-level struct name
	Endian byteview.Endian
	Shape  bufmap.Shape
}

// Build lays the format over data.
func (f Format) Build(data []byte, opts ...bufmap.Option) (*bufmap.Struct, error) {
	return bufmap.Build(f.Name, data, f.Endian, f.Shape, opts...)
}

// All lists the known formats in detection order.
var All = []Format{
	{Key: "bmp", Name: bmp.Name, Endian: bmp.Endian, Shape: bmp.Shape},
	{Key: "png", Name: png.Name, Endian: png.Endian, Shape: png.Shape},
	{Key: "pe", Name: pe.Name, Endian: pe.Endian, Shape: pe.Shape},
}

// Keys returns the keys of All.
func Keys() []string {
	out := make([]string, len(All))
	for i, f := range All {
		out[i] = f.Key
	}
	return out
}

// Lookup returns the format with the given key, ignoring case.
func Lookup(key string) (Format, error) {
	for _, f := range All {
		if strings.EqualFold(f.Key, key) {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownFormat, key, strings.Join(Keys(), ", "))
}

// Detect builds data with each format in turn and returns the first that
// succeeds. A validation error means "not this format" and moves on to the
// next one; any other error means the buffer has the format's signature but
// a broken layout, and is returned as is.
func Detect(data []byte, opts ...bufmap.Option) (*bufmap.Struct, Format, error) {
	logger := bufmap.LoggerFrom(opts...)
	for _, f := range All {
		s, err := f.Build(data, opts...)
		switch {
		case err == nil:
			logger.Debug("detected format", "format", f.Key, "size", s.Size())
			return s, f, nil
		case errors.Is(err, bufmap.ErrValidation):
			logger.Debug("format rejected buffer", "format", f.Key, "error", err)
			continue
		default:
			return nil, f, fmt.Errorf("failed to build %s: %w", f.Name, err)
		}
	}
	return nil, Format{}, fmt.Errorf("%w: none of %s matched %d bytes", ErrUnknownFormat, strings.Join(Keys(), ", "), len(data))
}
