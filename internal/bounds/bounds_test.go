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

package bounds

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/mlnoga/footprint/internal/wcs"
	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/mat"
)

func affine(t *testing.T, width, height int, trans wcs.Transform2D) *wcs.Affine {
	t.Helper()
	a, err := wcs.NewAffine(width, height, trans)
	if err != nil {
		t.Fatalf("NewAffine: %s", err.Error())
	}
	return a
}

func findBounds(t *testing.T, image, target wcs.Descriptor, trim Trim, clip *Clip) Box {
	t.Helper()
	box, ok, err := FindBounds(image, target, trim, "", clip)
	if err != nil {
		t.Fatalf("FindBounds: %s", err.Error())
	}
	if !ok {
		t.Fatalf("FindBounds: unexpected null result")
	}
	return box
}

func TestPerimeter(t *testing.T) {
	xs, ys := Perimeter(2, 7, 1, 4)
	if len(xs) != 2*(5+3) || len(ys) != len(xs) {
		t.Fatalf("got %d samples, want %d", len(xs), 2*(5+3))
	}
	seen := map[[2]float64]bool{}
	for i := range xs {
		p := [2]float64{xs[i], ys[i]}
		if seen[p] {
			t.Errorf("duplicate sample %v", p)
		}
		seen[p] = true
		onEdge := xs[i] == 2 || xs[i] == 7 || ys[i] == 1 || ys[i] == 4
		if !onEdge || xs[i] < 2 || xs[i] > 7 || ys[i] < 1 || ys[i] > 4 {
			t.Errorf("sample %v is not on the perimeter", p)
		}
	}
	for _, c := range [][2]float64{{2, 1}, {7, 1}, {7, 4}, {2, 4}} {
		if !seen[c] {
			t.Errorf("corner %v missing", c)
		}
	}
	if xs[0] != 2 || ys[0] != 1 {
		t.Errorf("perimeter starts at (%g,%g), want (2,1)", xs[0], ys[0])
	}
}

func TestFindBoundsIdentity(t *testing.T) {
	id := wcs.Identity(10, 10)
	if got, want := findBounds(t, id, id, Trim{}, nil), (Box{0, 10, 0, 10}); got != want {
		t.Errorf("got %v want %v", got, want)
	}
	if got, want := findBounds(t, id, id, Trim{2, 2, 2, 2}, nil), (Box{2, 8, 2, 8}); got != want {
		t.Errorf("trimmed: got %v want %v", got, want)
	}
	if got, want := findBounds(t, id, id, Trim{1, 0, 0, 3}, nil), (Box{1, 10, 0, 7}); got != want {
		t.Errorf("asymmetric trim: got %v want %v", got, want)
	}
}

func TestFindBoundsShifted(t *testing.T) {
	src := affine(t, 20, 10, wcs.Transform2D{A: 1, C: 100, E: 1, F: -50})
	target := affine(t, 100, 100, wcs.Transform2D{A: 2, C: 90, E: 2, F: -60})
	// target x = (lon-90)/2, y = (lat+60)/2
	if got, want := findBounds(t, src, target, Trim{}, nil), (Box{5, 15, 5, 10}); got != want {
		t.Errorf("got %v want %v", got, want)
	}
}

func TestFindBoundsClip(t *testing.T) {
	id := wcs.Identity(10, 10)
	noClip := NoClip()
	if got, want := findBounds(t, id, id, Trim{}, &noClip), findBounds(t, id, id, Trim{}, nil); got != want {
		t.Errorf("unspecified clip: got %v want %v", got, want)
	}

	clip := &Clip{math.NaN(), 5, math.NaN(), math.NaN()}
	if got, want := findBounds(t, id, id, Trim{}, clip), (Box{0, 5, 0, 10}); got != want {
		t.Errorf("clipped: got %v want %v", got, want)
	}
	if !math.IsNaN(clip.LonMin) || clip.LonMax != 5 || !math.IsNaN(clip.LatMin) || !math.IsNaN(clip.LatMax) {
		t.Errorf("clip was modified: %v", clip)
	}

	outside, err := NewClip(100, 200, math.NaN(), math.NaN())
	if err != nil {
		t.Fatalf("NewClip: %s", err.Error())
	}
	box, ok, err := FindBounds(id, id, Trim{}, "", outside)
	if err != nil || ok {
		t.Errorf("disjoint clip: got %v %v %v, want null result", box, ok, err)
	}
	boxes, err := FindBoundsSplit(id, id, Trim{}, "", outside)
	if err != nil || len(boxes) != 0 {
		t.Errorf("disjoint clip split: got %v %v, want empty", boxes, err)
	}
}

func TestNewClip(t *testing.T) {
	for _, vals := range [][]float64{nil, {1}, {1, 2, 3}, {1, 2, 3, 4, 5}} {
		_, err := NewClip(vals...)
		var ce *ConfigurationError
		if !errors.As(err, &ce) {
			t.Errorf("NewClip(%v): got %v, want configuration error", vals, err)
		}
	}
}

func TestClipJSON(t *testing.T) {
	var c Clip
	if err := json.Unmarshal([]byte(`{"lonMax": 5, "latMin": null}`), &c); err != nil {
		t.Fatalf("Unmarshal: %s", err.Error())
	}
	if !math.IsNaN(c.LonMin) || c.LonMax != 5 || !math.IsNaN(c.LatMin) || !math.IsNaN(c.LatMax) {
		t.Errorf("got %v", c)
	}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %s", err.Error())
	}
	if string(b) != `{"lonMin":null,"lonMax":5,"latMin":null,"latMax":null}` {
		t.Errorf("got %s", b)
	}
}

func TestTrimErrors(t *testing.T) {
	id := wcs.Identity(10, 10)
	for _, trim := range []Trim{{5, 5, 0, 0}, {0, 0, 10, 0}, {0, 12, 0, 0}, {-1, 0, 0, 0}} {
		_, _, err := FindBounds(id, id, trim, "", nil)
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("trim %v: got %v, want configuration error", trim, err)
		}
	}
}

func TestTrimMonotonic(t *testing.T) {
	src := affine(t, 64, 48, wcs.Transform2D{A: 0.8, B: 0.3, C: 5, D: -0.2, E: 1.1, F: 3})
	target := wcs.Identity(200, 200)
	rng := fastrand.RNG{}
	for i := 0; i < 100; i++ {
		small := Trim{int(rng.Uint32n(10)), int(rng.Uint32n(10)), int(rng.Uint32n(10)), int(rng.Uint32n(10))}
		large := Trim{small.Left + int(rng.Uint32n(10)), small.Right + int(rng.Uint32n(10)),
			small.Bottom + int(rng.Uint32n(10)), small.Top + int(rng.Uint32n(10))}
		outer := findBounds(t, src, target, small, nil)
		inner := findBounds(t, src, target, large, nil)
		if !outer.Contains(inner) {
			t.Errorf("trim %v gives %v, not inside %v from trim %v", large, inner, outer, small)
		}
	}
}

func sinSource(t *testing.T) *wcs.Celestial {
	t.Helper()
	m, err := wcs.NewCelestial(wcs.CelestialParams{
		Width: 400, Height: 400, Proj: "SIN",
		CRPix:   [2]float64{200.5, 200.5},
		CD:      mat.NewDense(2, 2, []float64{-0.5, 0, 0, 0.5}),
		LonPole: math.NaN(), LatPole: math.NaN(),
	})
	if err != nil {
		t.Fatalf("NewCelestial: %s", err.Error())
	}
	return m
}

func TestValidationErrors(t *testing.T) {
	_, _, err := FindBounds(sinSource(t), wcs.Identity(10, 10), Trim{}, "", nil)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Stage != "pixel to world" {
		t.Errorf("SIN beyond horizon: got %v, want pixel to world validation error", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("errors.Is(%v, ErrValidation) is false", err)
	}

	// longitudes 170..190 are behind the tangent plane of a TAN target at (0,0)
	src := affine(t, 20, 10, wcs.Transform2D{A: 1, C: 170, E: 1})
	tan, err := wcs.NewCelestial(wcs.CelestialParams{
		Width: 100, Height: 100, Proj: "TAN",
		CRPix:   [2]float64{50.5, 50.5},
		CD:      mat.NewDense(2, 2, []float64{-0.01, 0, 0, 0.01}),
		LonPole: math.NaN(), LatPole: math.NaN(),
	})
	if err != nil {
		t.Fatalf("NewCelestial: %s", err.Error())
	}
	_, _, err = FindBounds(src, tan, Trim{}, "", nil)
	if !errors.As(err, &ve) || ve.Stage != "world to pixel" {
		t.Errorf("TAN behind tangent plane: got %v, want world to pixel validation error", err)
	}
}

func carTarget(t *testing.T) *wcs.Celestial {
	t.Helper()
	m, err := wcs.NewCelestial(wcs.CelestialParams{
		Width: 360, Height: 180, Proj: "CAR",
		CRPix:   [2]float64{180.5, 90.5},
		CRVal:   [2]float64{180, 0},
		CD:      mat.NewDense(2, 2, []float64{-1, 0, 0, 1}),
		LonPole: math.NaN(), LatPole: math.NaN(),
	})
	if err != nil {
		t.Fatalf("NewCelestial: %s", err.Error())
	}
	return m
}

func TestFindBoundsSplit(t *testing.T) {
	car := carTarget(t)

	// longitudes 350.5..370.5 straddle the wrap of the target at 0/360
	src := affine(t, 20, 10, wcs.Transform2D{A: 1, C: 350.5, E: 1})
	boxes, err := FindBoundsSplit(src, car, Trim{}, "", nil)
	if err != nil {
		t.Fatalf("FindBoundsSplit: %s", err.Error())
	}
	if len(boxes) != 2 {
		t.Fatalf("got %d boxes %v, want 2", len(boxes), boxes)
	}
	if boxes[0].XMin < -1 || boxes[0].XMax > 10 {
		t.Errorf("low box %v, want x within [-1,10]", boxes[0])
	}
	if boxes[1].XMin < 348 || boxes[1].XMax > 360 {
		t.Errorf("high box %v, want x within [348,360]", boxes[1])
	}
	for _, b := range boxes {
		if b.YMin < 88 || b.YMax > 101 {
			t.Errorf("box %v, want y within [88,101]", b)
		}
	}
	whole := findBounds(t, src, car, Trim{}, nil)
	if whole.Width() < 300 || !whole.Contains(boxes[0].Union(boxes[1])) {
		t.Errorf("unsplit box %v should span the wrap and contain %v", whole, boxes)
	}

	// no crossing gives the same single box as FindBounds
	src = affine(t, 20, 10, wcs.Transform2D{A: 1, C: 100.5, E: 1})
	boxes, err = FindBoundsSplit(src, car, Trim{}, "", nil)
	if err != nil {
		t.Fatalf("FindBoundsSplit: %s", err.Error())
	}
	if want := findBounds(t, src, car, Trim{}, nil); len(boxes) != 1 || boxes[0] != want {
		t.Errorf("got %v want [%v]", boxes, want)
	}

	// a wide source clipped to its lower half leaves a gap between its right and
	// left edges, which is not a crossing
	src = affine(t, 300, 10, wcs.Transform2D{A: 1, C: 30.5, E: 1})
	clip := &Clip{LonMin: math.NaN(), LonMax: math.NaN(), LatMin: math.NaN(), LatMax: 5}
	boxes, err = FindBoundsSplit(src, car, Trim{}, "", clip)
	if err != nil {
		t.Fatalf("FindBoundsSplit: %s", err.Error())
	}
	if want := findBounds(t, src, car, Trim{}, clip); len(boxes) != 1 || boxes[0] != want {
		t.Errorf("clipped wide source: got %v want [%v]", boxes, want)
	}

	// a crossing next to a clipped part is still found
	src = affine(t, 20, 10, wcs.Transform2D{A: 1, C: 350.5, E: 1})
	boxes, err = FindBoundsSplit(src, car, Trim{}, "", clip)
	if err != nil || len(boxes) != 2 {
		t.Errorf("clipped straddling source: got %v %v, want 2 boxes", boxes, err)
	}

	// non-periodic targets never split
	id := wcs.Identity(10, 10)
	boxes, err = FindBoundsSplit(id, id, Trim{}, "", nil)
	if err != nil || len(boxes) != 1 || boxes[0] != (Box{0, 10, 0, 10}) {
		t.Errorf("identity: got %v %v", boxes, err)
	}
}
