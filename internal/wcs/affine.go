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
)

// A 2D affine coordinate transformation x'=a*x+b*y+c, y'=d*x+e*y+f
type Transform2D struct {
	A float64
	B float64
	C float64
	D float64
	E float64
	F float64
}

func (t Transform2D) String() string {
	return fmt.Sprintf("x'=%.5gx %+.5gy %+.5g, y'=%.5gx %+.5gy %+.5g",
		t.A, t.B, t.C, t.D, t.E, t.F)
}

func IdentityTransform2D() Transform2D {
	return Transform2D{1, 0, 0, 0, 1, 0}
}

// Apply given 2D transformation to the given coordinates
func (t *Transform2D) Apply(x, y float64) (xP, yP float64) {
	return t.A*x + t.B*y + t.C, t.D*x + t.E*y + t.F
}

// Apply given 2D transformation to many given coordinates
func (t *Transform2D) ApplySlice(xs, ys []float64) (xPs, yPs []float64) {
	xPs, yPs = make([]float64, len(xs)), make([]float64, len(xs))
	for i := range xs {
		xPs[i], yPs[i] = t.Apply(xs[i], ys[i])
	}
	return xPs, yPs
}

// Invert a given 2D transformation. Returns error if the matrix is singular
func (t *Transform2D) Invert() (inv Transform2D, err error) {
	det := t.A*t.E - t.B*t.D
	if det < 1e-12 && -det < 1e-12 {
		return Transform2D{}, fmt.Errorf("matrix has no inverse, determinant=%g", det)
	}
	return Transform2D{
		A: t.E / det,
		B: -t.B / det,
		C: (t.B*t.F - t.C*t.E) / det,
		D: -t.D / det,
		E: t.A / det,
		F: (t.C*t.D - t.A*t.F) / det,
	}, nil
}

// An affine mapping between pixel and world coordinates, for linear world
// coordinate systems and for tests
type Affine struct {
	Width  int
	Height int
	Trans  Transform2D // pixel to world
	inv    Transform2D // world to pixel
}

// Creates an affine mapping for an image of the given size. Fails if trans cannot be inverted
func NewAffine(width, height int, trans Transform2D) (*Affine, error) {
	inv, err := trans.Invert()
	if err != nil {
		return nil, err
	}
	return &Affine{width, height, trans, inv}, nil
}

// Creates an affine mapping where world coordinates equal pixel coordinates
func Identity(width, height int) *Affine {
	return &Affine{width, height, IdentityTransform2D(), IdentityTransform2D()}
}

func (m *Affine) PixelShape() (width, height int) {
	return m.Width, m.Height
}

func (m *Affine) PixelToWorld(xs, ys []float64) (lon, lat []float64) {
	return m.Trans.ApplySlice(xs, ys)
}

func (m *Affine) WorldToPixel(lon, lat []float64) (xs, ys []float64) {
	return m.inv.ApplySlice(lon, lat)
}

func (m *Affine) Resolve(key string) (Mapping, error) {
	return m, nil
}

func (m *Affine) String() string {
	return fmt.Sprintf("affine %dx%d %v", m.Width, m.Height, m.Trans)
}

