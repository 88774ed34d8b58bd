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

package wcs

import (
	"fmt"
	"math"
	"strings"

	"github.com/mlnoga/footprint/internal/fits"
	"gonum.org/v1/gonum/mat"
)

// Builds the mapping for the coordinate system with the given key from a FITS header.
// Celestial axes with TAN, SIN or CAR projection yield a Celestial mapping,
// axes without projection code a linear Affine mapping. Distortion suffixes
// such as -SIP are ignored.
func NewFromHeader(h *fits.Header, key string) (Mapping, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, fmt.Errorf("%d: %w", h.ID, err)
	}

	width, height := 0, 0
	naxisn, err := h.Naxisn()
	if err != nil && h.Has("NAXIS") {
		return nil, err
	}
	if len(naxisn) >= 2 {
		width, height = int(naxisn[0]), int(naxisn[1])
	}

	ctype1, ok := h.GetString("CTYPE1" + key)
	if !ok && key != "" {
		return nil, fmt.Errorf("%d: header has no coordinate system with key '%s'", h.ID, key)
	}
	ctype2, _ := h.GetString("CTYPE2" + key)

	crpix := [2]float64{h.GetFloatOr("CRPIX1"+key, 0), h.GetFloatOr("CRPIX2"+key, 0)}
	crval := [2]float64{h.GetFloatOr("CRVAL1"+key, 0), h.GetFloatOr("CRVAL2"+key, 0)}
	cd := linearMatrix(h, key)

	proj1, proj2 := projectionCode(ctype1), projectionCode(ctype2)
	if proj1 == "" && proj2 == "" {
		// world = crval + CD * (pixel + 1 - crpix)
		a, b, d, e := cd.At(0, 0), cd.At(0, 1), cd.At(1, 0), cd.At(1, 1)
		trans := Transform2D{
			A: a, B: b, C: crval[0] - a*(crpix[0]-1) - b*(crpix[1]-1),
			D: d, E: e, F: crval[1] - d*(crpix[0]-1) - e*(crpix[1]-1),
		}
		m, err := NewAffine(width, height, trans)
		if err != nil {
			return nil, fmt.Errorf("%d: linear coordinate system with key '%s': %w", h.ID, key, err)
		}
		return m, nil
	}
	if proj1 != proj2 {
		return nil, fmt.Errorf("%d: mismatched projections '%s' and '%s' for key '%s'", h.ID, ctype1, ctype2, key)
	}

	lonAxis := 0
	if isLatitude(ctype1) {
		lonAxis = 1
	}
	m, err := NewCelestial(CelestialParams{
		Width:   width,
		Height:  height,
		Proj:    proj1,
		CRPix:   crpix,
		CRVal:   crval,
		CD:      cd,
		LonAxis: lonAxis,
		LonPole: h.GetFloatOr("LONPOLE"+key, math.NaN()),
		LatPole: h.GetFloatOr("LATPOLE"+key, math.NaN()),
	})
	if err != nil {
		return nil, fmt.Errorf("%d: coordinate system with key '%s': %w", h.ID, key, err)
	}
	return m, nil
}

// Returns the linear transformation matrix from CDi_j, or from PCi_j or CROTA2 scaled by CDELTi
func linearMatrix(h *fits.Header, key string) *mat.Dense {
	if hasAny(h, key, "CD1_1", "CD1_2", "CD2_1", "CD2_2") {
		return mat.NewDense(2, 2, []float64{
			h.GetFloatOr("CD1_1"+key, 0), h.GetFloatOr("CD1_2"+key, 0),
			h.GetFloatOr("CD2_1"+key, 0), h.GetFloatOr("CD2_2"+key, 0),
		})
	}

	cdelt := []float64{h.GetFloatOr("CDELT1"+key, 1), h.GetFloatOr("CDELT2"+key, 1)}
	pc := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	if hasAny(h, key, "PC1_1", "PC1_2", "PC2_1", "PC2_2") {
		pc = mat.NewDense(2, 2, []float64{
			h.GetFloatOr("PC1_1"+key, 1), h.GetFloatOr("PC1_2"+key, 0),
			h.GetFloatOr("PC2_1"+key, 0), h.GetFloatOr("PC2_2"+key, 1),
		})
	} else if crota, ok := h.GetFloat("CROTA2"); ok && key == "" && cdelt[0] != 0 && cdelt[1] != 0 {
		s, c := sind(crota), cosd(crota)
		ratio := cdelt[1] / cdelt[0]
		pc = mat.NewDense(2, 2, []float64{c, -s * ratio, s / ratio, c})
	}

	var cd mat.Dense
	cd.Mul(mat.NewDiagDense(2, cdelt), pc)
	return &cd
}

func hasAny(h *fits.Header, key string, names ...string) bool {
	for _, name := range names {
		if h.Has(name + key) {
			return true
		}
	}
	return false
}

// Extracts the projection code from a CTYPE value in 4-3 form, e.g. TAN from RA---TAN
func projectionCode(ctype string) string {
	if len(ctype) < 8 || ctype[4] != '-' {
		return ""
	}
	return strings.TrimRight(ctype[5:8], " -")
}

// True if the CTYPE value names a latitude-like axis, e.g. DEC--TAN or GLAT-CAR
func isLatitude(ctype string) bool {
	return strings.HasPrefix(ctype, "DEC") || (len(ctype) >= 4 && ctype[1:4] == "LAT")
}
