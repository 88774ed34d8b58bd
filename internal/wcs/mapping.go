// Copyright (C) 2020 Markus L. Noga
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

// Package wcs provides world coordinate systems: mappings between the zero-based
// pixel coordinates of an image and world coordinates such as right ascension
// and declination, as described by FITS headers.
package wcs

import (
	"fmt"
	"io"

	"github.com/mlnoga/footprint/internal/fits"
)

// A Mapping converts between the zero-based pixel coordinates of an image and
// world coordinates. Conversions are batched. Non-finite results mark points
// outside the valid domain of the mapping.
type Mapping interface {
	PixelShape() (width, height int)
	PixelToWorld(xs, ys []float64) (lon, lat []float64)
	WorldToPixel(lon, lat []float64) (xs, ys []float64)
}

// A Periodic mapping wraps around in pixel x after XPeriod pixels, or never if XPeriod is 0
type Periodic interface {
	XPeriod() float64
}

// A Descriptor resolves into a Mapping. The key selects one of several
// coordinate systems defined in the same header, "" being the primary one.
type Descriptor interface {
	Resolve(key string) (Mapping, error)
}

// Normalizes an alternate WCS key: blank for the primary system, or a single letter A..Z
func normalizeKey(key string) (string, error) {
	if key == "" || key == " " {
		return "", nil
	}
	if len(key) == 1 && key[0] >= 'A' && key[0] <= 'Z' {
		return key, nil
	}
	if len(key) == 1 && key[0] >= 'a' && key[0] <= 'z' {
		return string(key[0] - 'a' + 'A'), nil
	}
	return "", fmt.Errorf("invalid WCS key '%s', want blank or a single letter A-Z", key)
}

type headerDescriptor struct {
	h *fits.Header
}

// Returns a descriptor which builds its mapping from the given FITS header
func FromHeader(h *fits.Header) Descriptor {
	return headerDescriptor{h}
}

func (d headerDescriptor) Resolve(key string) (Mapping, error) {
	return NewFromHeader(d.h, key)
}

func (d headerDescriptor) String() string {
	if d.h.FileName != "" {
		return d.h.FileName
	}
	return fmt.Sprintf("header %d", d.h.ID)
}

type fileDescriptor struct {
	fileName  string
	id        int
	logWriter io.Writer
}

// Returns a descriptor which reads its mapping from the header of the given file.
// Reading happens on resolution. Parse warnings go to the given writer.
func FromFile(fileName string, id int, logWriter io.Writer) Descriptor {
	if logWriter == nil {
		logWriter = io.Discard
	}
	return fileDescriptor{fileName, id, logWriter}
}

func (d fileDescriptor) Resolve(key string) (Mapping, error) {
	h, err := fits.ReadHeaderFile(d.fileName, d.id, d.logWriter)
	if err != nil {
		return nil, err
	}
	m, err := NewFromHeader(h, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.fileName, err)
	}
	return m, nil
}

func (d fileDescriptor) String() string {
	return d.fileName
}

type fixedDescriptor struct {
	m Mapping
}

// Returns a descriptor which resolves to the given mapping for any key.
// Used to avoid repeated resolution of the same descriptor.
func Fixed(m Mapping) Descriptor {
	return fixedDescriptor{m}
}

func (d fixedDescriptor) Resolve(key string) (Mapping, error) {
	return d.m, nil
}

func (d fixedDescriptor) String() string {
	return fmt.Sprintf("%v", d.m)
}
