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

package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mlnoga/footprint/internal/bounds"
	"github.com/mlnoga/footprint/internal/ops"
)

// Parses a trim from "left,right,bottom,top", or a single value for all edges. Empty means no trim
func parseTrim(s string) (bounds.Trim, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return bounds.Trim{}, nil
	}
	parts := strings.Split(s, ",")
	vals := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return bounds.Trim{}, fmt.Errorf("invalid trim '%s': %w", s, err)
		}
		vals[i] = v
	}
	switch len(vals) {
	case 1:
		return bounds.Trim{Left: vals[0], Right: vals[0], Bottom: vals[0], Top: vals[0]}, nil
	case 4:
		return bounds.Trim{Left: vals[0], Right: vals[1], Bottom: vals[2], Top: vals[3]}, nil
	}
	return bounds.Trim{}, fmt.Errorf("invalid trim '%s': need 1 or 4 values, got %d", s, len(vals))
}

// Parses a clip rectangle from "lonMin,lonMax,latMin,latMax". Blank entries are unspecified.
// Returns nil for an empty string
func parseClip(s string) (*bounds.Clip, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	vals := make([]float64, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			vals[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid clip '%s': %w", s, err)
		}
		vals[i] = v
	}
	return bounds.NewClip(vals...)
}

// Parses a file group from "pattern[,pattern...][@trim]"
func parseGroup(s string) (ops.FileGroup, error) {
	patterns, trimStr := s, ""
	if i := strings.LastIndex(s, "@"); i >= 0 {
		patterns, trimStr = s[:i], s[i+1:]
	}
	trim, err := parseTrim(trimStr)
	if err != nil {
		return ops.FileGroup{}, err
	}
	g := ops.FileGroup{Trim: trim}
	for _, p := range strings.Split(patterns, ",") {
		if p = strings.TrimSpace(p); p != "" {
			g.Patterns = append(g.Patterns, p)
		}
	}
	if len(g.Patterns) == 0 {
		return ops.FileGroup{}, fmt.Errorf("file group '%s' has no patterns", s)
	}
	return g, nil
}
