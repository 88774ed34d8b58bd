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
	"math"
	"sort"

	"github.com/mlnoga/footprint/internal/wcs"
	"gonum.org/v1/gonum/floats"
)

// Returns the closed perimeter of the rectangle with corners (left,bottom) and
// (right,top) at one pixel resolution, counter-clockwise from the bottom left.
// Each lattice point appears exactly once.
func Perimeter(left, right, bottom, top int) (xs, ys []float64) {
	n := 2*(right-left) + 2*(top-bottom)
	xs, ys = make([]float64, 0, n), make([]float64, 0, n)
	for x := left; x < right; x++ {
		xs, ys = append(xs, float64(x)), append(ys, float64(bottom))
	}
	for y := bottom; y < top; y++ {
		xs, ys = append(xs, float64(right)), append(ys, float64(y))
	}
	for x := right; x > left; x-- {
		xs, ys = append(xs, float64(x)), append(ys, float64(top))
	}
	for y := top; y > bottom; y-- {
		xs, ys = append(xs, float64(left)), append(ys, float64(y))
	}
	return xs, ys
}

// Reprojected perimeter samples which survived clipping, in perimeter order
type samples struct {
	xs, ys []float64
	idx    []int // position of each sample on the perimeter
	ring   int   // number of perimeter positions before clipping
	target wcs.Mapping
}

// Reports whether samples i and j were neighbours on the unclipped perimeter
func (s *samples) adjacent(i, j int) bool {
	d := s.idx[j] - s.idx[i]
	return d == 1 || d == 1-s.ring
}

// Runs the perimeter of the trimmed image through both mappings, applying the clip if given
func sample(image, target wcs.Descriptor, trim Trim, key string, clip *Clip) (s samples, err error) {
	src, err := image.Resolve(key)
	if err != nil {
		return s, err
	}
	s.target, err = target.Resolve("")
	if err != nil {
		return s, err
	}

	if trim.Left < 0 || trim.Right < 0 || trim.Bottom < 0 || trim.Top < 0 {
		return s, configErrorf("trim %v must not be negative", trim)
	}
	width, height := src.PixelShape()
	left, right := trim.Left, width-trim.Right
	bottom, top := trim.Bottom, height-trim.Top
	if right <= left || top <= bottom {
		return s, configErrorf("trim %v leaves no pixels of a %dx%d image", trim, width, height)
	}

	xs, ys := Perimeter(left, right, bottom, top)
	s.ring = len(xs)
	s.idx = make([]int, len(xs))
	for i := range s.idx {
		s.idx[i] = i
	}
	lon, lat := src.PixelToWorld(xs, ys)
	for i := range lon {
		if !isFinite(lon[i]) || !isFinite(lat[i]) {
			return s, &ValidationError{Stage: "pixel to world", X: xs[i], Y: ys[i]}
		}
	}

	if clip != nil {
		c := clip.withDefaults()
		n := 0
		for i := range lon {
			if c.contains(lon[i], lat[i]) {
				lon[n], lat[n], s.idx[n] = lon[i], lat[i], s.idx[i]
				n++
			}
		}
		if n == 0 {
			return s, nil
		}
		lon, lat, s.idx = lon[:n], lat[:n], s.idx[:n]
	}

	s.xs, s.ys = s.target.WorldToPixel(lon, lat)
	for i := range s.xs {
		if !isFinite(s.xs[i]) || !isFinite(s.ys[i]) {
			return samples{}, &ValidationError{Stage: "world to pixel", X: lon[i], Y: lat[i]}
		}
	}
	return s, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Returns the integer box enclosing the given non-empty point set
func enclose(xs, ys []float64) Box {
	return Box{
		XMin: int(math.Floor(floats.Min(xs))),
		XMax: int(math.Ceil(floats.Max(xs))),
		YMin: int(math.Floor(floats.Min(ys))),
		YMax: int(math.Ceil(floats.Max(ys))),
	}
}

// Finds the pixel bounding box in the target mapping covering the given image after
// reprojection. The image is resolved with the given alternate WCS key, the target
// with the primary one. Trim excludes pixels from the image edges, and the optional
// clip restricts the footprint to a world coordinate rectangle. Returns ok=false if
// no part of the image falls within the clip rectangle.
func FindBounds(image, target wcs.Descriptor, trim Trim, key string, clip *Clip) (box Box, ok bool, err error) {
	s, err := sample(image, target, trim, key, clip)
	if err != nil || len(s.xs) == 0 {
		return Box{}, false, err
	}
	return enclose(s.xs, s.ys), true, nil
}

// Like FindBounds, but aware of targets which are periodic in x. If the reprojected
// perimeter crosses the wrap, one box is returned for each side of it, ordered by
// XMin. Returns a single box if there is no crossing, and an empty slice if no part
// of the image falls within the clip rectangle. Crossings are only detected between
// neighbouring perimeter pixels, so a crossing within a clipped part of the
// perimeter goes unnoticed.
func FindBoundsSplit(image, target wcs.Descriptor, trim Trim, key string, clip *Clip) ([]Box, error) {
	s, err := sample(image, target, trim, key, clip)
	if err != nil {
		return nil, err
	}
	if len(s.xs) == 0 {
		return []Box{}, nil
	}

	period := 0.0
	if p, ok := s.target.(wcs.Periodic); ok {
		period = p.XPeriod()
	}
	if !(period > 0) {
		return []Box{enclose(s.xs, s.ys)}, nil
	}

	// flip sides on every crossing; the closing pair adds nothing new for the assignment
	side := make([]bool, len(s.xs))
	crossings, cur := 0, false
	for i := 1; i < len(s.xs); i++ {
		if s.adjacent(i-1, i) && math.Abs(s.xs[i]-s.xs[i-1]) > period/2 {
			cur = !cur
			crossings++
		}
		side[i] = cur
	}
	if last := len(s.xs) - 1; last > 0 && s.adjacent(last, 0) && math.Abs(s.xs[0]-s.xs[last]) > period/2 {
		crossings++
	}
	if crossings == 0 {
		return []Box{enclose(s.xs, s.ys)}, nil
	}

	var axs, ays, bxs, bys []float64
	for i := range s.xs {
		if side[i] {
			bxs, bys = append(bxs, s.xs[i]), append(bys, s.ys[i])
		} else {
			axs, ays = append(axs, s.xs[i]), append(ays, s.ys[i])
		}
	}
	res := make([]Box, 0, 2)
	if len(axs) > 0 {
		res = append(res, enclose(axs, ays))
	}
	if len(bxs) > 0 {
		res = append(res, enclose(bxs, bys))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].XMin < res[j].XMin })
	return res, nil
}
