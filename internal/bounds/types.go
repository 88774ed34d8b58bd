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

// Package bounds finds the pixel bounding box an image covers after reprojection
// into a target world coordinate system. Only the perimeter of the source image is
// transformed; mappings are assumed smooth enough for the reprojected perimeter
// to enclose the reprojected interior. This sizes output canvases before any
// expensive resampling takes place.
package bounds

import (
	"encoding/json"
	"fmt"
	"math"
)

// Pixels to exclude from each edge of a source image before its footprint is computed
type Trim struct {
	Left   int `json:"left"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Top    int `json:"top"`
}

func (t Trim) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", t.Left, t.Right, t.Bottom, t.Top)
}

// A rectangle in world coordinates. NaN marks an unspecified bound, which
// defaults to the matching infinity. Bounds are inclusive.
type Clip struct {
	LonMin float64
	LonMax float64
	LatMin float64
	LatMax float64
}

// Returns a clip rectangle with all bounds unspecified
func NoClip() Clip {
	nan := math.NaN()
	return Clip{nan, nan, nan, nan}
}

// Creates a clip rectangle from exactly four values lonMin, lonMax, latMin, latMax.
// NaN values leave the corresponding bound unspecified.
func NewClip(vals ...float64) (*Clip, error) {
	if len(vals) != 4 {
		return nil, configErrorf("clip rectangle needs 4 values (lonMin, lonMax, latMin, latMax), got %d", len(vals))
	}
	return &Clip{vals[0], vals[1], vals[2], vals[3]}, nil
}

// Returns a copy with unspecified bounds replaced by infinities
func (c Clip) withDefaults() Clip {
	if math.IsNaN(c.LonMin) {
		c.LonMin = math.Inf(-1)
	}
	if math.IsNaN(c.LonMax) {
		c.LonMax = math.Inf(1)
	}
	if math.IsNaN(c.LatMin) {
		c.LatMin = math.Inf(-1)
	}
	if math.IsNaN(c.LatMax) {
		c.LatMax = math.Inf(1)
	}
	return c
}

func (c Clip) contains(lon, lat float64) bool {
	return c.LonMin <= lon && lon <= c.LonMax && c.LatMin <= lat && lat <= c.LatMax
}

func (c Clip) String() string {
	return fmt.Sprintf("(%g, %g, %g, %g)", c.LonMin, c.LonMax, c.LatMin, c.LatMax)
}

// JSON representation of a clip rectangle; null or missing fields are unspecified
type clipJSON struct {
	LonMin *float64 `json:"lonMin"`
	LonMax *float64 `json:"lonMax"`
	LatMin *float64 `json:"latMin"`
	LatMax *float64 `json:"latMax"`
}

func (c Clip) MarshalJSON() ([]byte, error) {
	opt := func(v float64) *float64 {
		if math.IsNaN(v) {
			return nil
		}
		return &v
	}
	return json.Marshal(clipJSON{opt(c.LonMin), opt(c.LonMax), opt(c.LatMin), opt(c.LatMax)})
}

func (c *Clip) UnmarshalJSON(b []byte) error {
	var cj clipJSON
	if err := json.Unmarshal(b, &cj); err != nil {
		return err
	}
	val := func(p *float64) float64 {
		if p == nil {
			return math.NaN()
		}
		return *p
	}
	*c = Clip{val(cj.LonMin), val(cj.LonMax), val(cj.LatMin), val(cj.LatMax)}
	return nil
}

// An integer bounding box in target pixel space, with XMin<=XMax and YMin<=YMax
type Box struct {
	XMin int `json:"xmin"`
	XMax int `json:"xmax"`
	YMin int `json:"ymin"`
	YMax int `json:"ymax"`
}

func (b Box) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", b.XMin, b.XMax, b.YMin, b.YMax)
}

func (b Box) Width() int  { return b.XMax - b.XMin }
func (b Box) Height() int { return b.YMax - b.YMin }

// Returns the smallest box containing both b and o
func (b Box) Union(o Box) Box {
	if o.XMin < b.XMin {
		b.XMin = o.XMin
	}
	if o.XMax > b.XMax {
		b.XMax = o.XMax
	}
	if o.YMin < b.YMin {
		b.YMin = o.YMin
	}
	if o.YMax > b.YMax {
		b.YMax = o.YMax
	}
	return b
}

// Returns true if o lies entirely within b
func (b Box) Contains(o Box) bool {
	return b.XMin <= o.XMin && o.XMax <= b.XMax && b.YMin <= o.YMin && o.YMax <= b.YMax
}
