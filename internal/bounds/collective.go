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
	"fmt"

	"github.com/mlnoga/footprint/internal/wcs"
)

// A set of images sharing the same trim
type Group struct {
	Images []wcs.Descriptor
	Trim   Trim
}

// Lifts a single image into the nested form expected by NewGroups
func Single(d wcs.Descriptor) [][]wcs.Descriptor {
	return [][]wcs.Descriptor{{d}}
}

// Lifts a flat list of images into one group
func Flat(ds ...wcs.Descriptor) [][]wcs.Descriptor {
	return [][]wcs.Descriptor{ds}
}

// Pairs image groups with trims. Without trims, all groups are untrimmed.
// A single trim applies to all groups. Otherwise there must be exactly one
// trim per group.
func NewGroups(images [][]wcs.Descriptor, trims ...Trim) ([]Group, error) {
	switch {
	case len(trims) == 0:
		trims = []Trim{{}}
		fallthrough
	case len(trims) == 1:
		groups := make([]Group, len(images))
		for i, imgs := range images {
			groups[i] = Group{Images: imgs, Trim: trims[0]}
		}
		return groups, nil
	case len(trims) != len(images):
		return nil, configErrorf("got %d trims for %d image groups", len(trims), len(images))
	}
	groups := make([]Group, len(images))
	for i, imgs := range images {
		groups[i] = Group{Images: imgs, Trim: trims[i]}
	}
	return groups, nil
}

// Finds the bounding box in the target mapping covering all images of all groups.
// Each image is evaluated with its group's trim and without clipping. Fails with
// a ConfigurationError if there is no image at all.
func FindCollectiveBounds(groups []Group, target wcs.Descriptor, key string) (Box, error) {
	dst, err := target.Resolve("")
	if err != nil {
		return Box{}, err
	}
	fixed := wcs.Fixed(dst)
	var boxes []Box
	for gi, g := range groups {
		for ii, img := range g.Images {
			b, ok, err := FindBounds(img, fixed, g.Trim, key, nil)
			if err != nil {
				return Box{}, fmt.Errorf("group %d image %d: %w", gi, ii, err)
			}
			if ok {
				boxes = append(boxes, b)
			}
		}
	}
	return Reduce(boxes)
}

// Folds boxes into their union. Fails with a ConfigurationError if there are none.
func Reduce(boxes []Box) (Box, error) {
	if len(boxes) == 0 {
		return Box{}, configErrorf("no bounding boxes to combine")
	}
	res := boxes[0]
	for _, b := range boxes[1:] {
		res = res.Union(b)
	}
	return res, nil
}
