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
	"errors"
	"path/filepath"
	"testing"

	"github.com/mlnoga/footprint/internal/wcs"
)

func TestFindCollectiveBounds(t *testing.T) {
	id := wcs.Identity(10, 10)
	groups, err := NewGroups(Flat(id, id))
	if err != nil {
		t.Fatalf("NewGroups: %s", err.Error())
	}
	box, err := FindCollectiveBounds(groups, id, "")
	if err != nil {
		t.Fatalf("FindCollectiveBounds: %s", err.Error())
	}
	if want := (Box{0, 10, 0, 10}); box != want {
		t.Errorf("got %v want %v", box, want)
	}
}

func TestCollectiveContainsEach(t *testing.T) {
	target := wcs.Identity(500, 500)
	images := [][]wcs.Descriptor{
		{affine(t, 30, 20, wcs.Transform2D{A: 1, C: 10, E: 1, F: 5}), affine(t, 30, 20, wcs.Transform2D{A: 1, C: 200, E: 1, F: 40})},
		{affine(t, 50, 50, wcs.Transform2D{A: 0.5, B: 0.5, C: 60, D: -0.5, E: 0.5, F: 300})},
	}
	trims := []Trim{{1, 2, 3, 4}, {5, 5, 5, 5}}
	groups, err := NewGroups(images, trims...)
	if err != nil {
		t.Fatalf("NewGroups: %s", err.Error())
	}
	total, err := FindCollectiveBounds(groups, target, "")
	if err != nil {
		t.Fatalf("FindCollectiveBounds: %s", err.Error())
	}
	for gi, g := range images {
		for _, img := range g {
			b := findBounds(t, img, target, trims[gi], nil)
			if !total.Contains(b) {
				t.Errorf("collective %v does not contain %v", total, b)
			}
		}
	}
}

func TestCollectiveSingleEqualsFindBounds(t *testing.T) {
	src := affine(t, 40, 30, wcs.Transform2D{A: 0.9, B: 0.1, C: 3, D: 0.2, E: 1.2, F: 7})
	target := wcs.Identity(100, 100)
	trim := Trim{2, 3, 4, 5}
	groups, err := NewGroups(Single(src), trim)
	if err != nil {
		t.Fatalf("NewGroups: %s", err.Error())
	}
	got, err := FindCollectiveBounds(groups, target, "")
	if err != nil {
		t.Fatalf("FindCollectiveBounds: %s", err.Error())
	}
	if want := findBounds(t, src, target, trim, nil); got != want {
		t.Errorf("got %v want %v", got, want)
	}
}

func TestNewGroups(t *testing.T) {
	id := wcs.Identity(10, 10)
	images := [][]wcs.Descriptor{{id}, {id, id}, {id}}

	groups, err := NewGroups(images)
	if err != nil || len(groups) != 3 || groups[2].Trim != (Trim{}) || len(groups[1].Images) != 2 {
		t.Errorf("no trims: got %v %v", groups, err)
	}
	groups, err = NewGroups(images, Trim{1, 1, 1, 1})
	if err != nil || len(groups) != 3 || groups[1].Trim != (Trim{1, 1, 1, 1}) {
		t.Errorf("one trim: got %v %v", groups, err)
	}
	groups, err = NewGroups(images, Trim{1, 0, 0, 0}, Trim{2, 0, 0, 0}, Trim{3, 0, 0, 0})
	if err != nil || groups[2].Trim.Left != 3 {
		t.Errorf("per group trims: got %v %v", groups, err)
	}
	_, err = NewGroups(images, Trim{}, Trim{})
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Errorf("mismatched trims: got %v, want configuration error", err)
	}
}

func TestCollectiveErrors(t *testing.T) {
	id := wcs.Identity(10, 10)
	if _, err := FindCollectiveBounds(nil, id, ""); !errors.Is(err, ErrConfiguration) {
		t.Errorf("no groups: got %v, want configuration error", err)
	}
	if _, err := FindCollectiveBounds([]Group{{}}, id, ""); !errors.Is(err, ErrConfiguration) {
		t.Errorf("empty group: got %v, want configuration error", err)
	}

	missing := wcs.FromFile(filepath.Join(t.TempDir(), "missing.fits"), 0, nil)
	groups, _ := NewGroups(Flat(id, missing))
	if _, err := FindCollectiveBounds(groups, id, ""); err == nil {
		t.Errorf("expected error for missing file")
	}

	groups, _ = NewGroups(Flat(id), Trim{6, 6, 0, 0})
	if _, err := FindCollectiveBounds(groups, id, ""); !errors.Is(err, ErrConfiguration) {
		t.Errorf("over-trimmed image: got %v, want configuration error", err)
	}
}

func TestReduce(t *testing.T) {
	got, err := Reduce([]Box{{0, 5, 2, 3}, {-1, 2, 0, 10}, {3, 7, 1, 1}})
	if err != nil {
		t.Fatalf("Reduce: %s", err.Error())
	}
	if want := (Box{-1, 7, 0, 10}); got != want {
		t.Errorf("got %v want %v", got, want)
	}
}
