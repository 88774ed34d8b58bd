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


package fits

import (
	"fmt"
	"strconv"
)

// FITS header data.
// Spec here:   https://fits.gsfc.nasa.gov/standard40/fits_standard40aa-le.pdf
// Primer here: https://fits.gsfc.nasa.gov/fits_primer.html
type Header struct {
	ID       int    // Sequential ID number, for log output
	FileName string // Original file name, if any, for log output

	Bools    map[string]bool
	Ints     map[string]int64
	Floats   map[string]float64
	Strings  map[string]string
	Dates    map[string]string
	Comments []string
	History  []string
	End      bool
	Length   int32
}

// Creates a FITS header initialized with empty maps and arrays
func NewHeader() *Header {
	return &Header{
		Bools:    make(map[string]bool),
		Ints:     make(map[string]int64),
		Floats:   make(map[string]float64),
		Strings:  make(map[string]string),
		Dates:    make(map[string]string),
		Comments: make([]string, 0),
		History:  make([]string, 0),
		End:      false,
	}
}

const fitsBlockSize int = 2880 // Block size of FITS header and data units
const HeaderLineSize int = 80  // Line size of a FITS header

// Returns true if the header contains the given key with any value type
func (h *Header) Has(key string) bool {
	if _, ok := h.Bools[key]; ok {
		return true
	}
	if _, ok := h.Ints[key]; ok {
		return true
	}
	if _, ok := h.Floats[key]; ok {
		return true
	}
	if _, ok := h.Strings[key]; ok {
		return true
	}
	_, ok := h.Dates[key]
	return ok
}

// Returns a numeric header value. Integer values are converted.
func (h *Header) GetFloat(key string) (float64, bool) {
	if val, ok := h.Floats[key]; ok {
		return val, true
	}
	if val, ok := h.Ints[key]; ok {
		return float64(val), true
	}
	return 0, false
}

// Returns a numeric header value, or the given default if absent
func (h *Header) GetFloatOr(key string, def float64) float64 {
	if val, ok := h.GetFloat(key); ok {
		return val
	}
	return def
}

func (h *Header) GetInt(key string) (int64, bool) {
	val, ok := h.Ints[key]
	return val, ok
}

func (h *Header) GetString(key string) (string, bool) {
	val, ok := h.Strings[key]
	return val, ok
}

func (h *Header) GetBool(key string) (bool, bool) {
	val, ok := h.Bools[key]
	return val, ok
}

// Returns the image axis dimensions, most quickly varying dimension first (i.e. X,Y).
// Tile-compressed images stored as binary tables report the dimensions of the
// uncompressed image from ZNAXISn.
func (h *Header) Naxisn() (naxisn []int32, err error) {
	prefix := "NAXIS"
	if zimage, _ := h.GetBool("ZIMAGE"); zimage {
		prefix = "ZNAXIS"
	}
	naxis, ok := h.GetInt(prefix)
	if !ok {
		return nil, fmt.Errorf("%d: FITS header does not contain key %s", h.ID, prefix)
	}
	if naxis < 0 || naxis > 999 {
		return nil, fmt.Errorf("%d: invalid %s=%d, must be 0..999", h.ID, prefix, naxis)
	}
	naxisn = make([]int32, naxis)
	for i := int64(1); i <= naxis; i++ {
		name := prefix + strconv.FormatInt(i, 10)
		nai, ok := h.GetInt(name)
		if !ok {
			return nil, fmt.Errorf("%d: FITS header does not contain key %s", h.ID, name)
		}
		naxisn[i-1] = int32(nai)
	}
	return naxisn, nil
}
