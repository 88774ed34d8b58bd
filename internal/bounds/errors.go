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
	"fmt"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
)

// Malformed inputs: trims leaving no pixels, clip rectangles of the wrong arity,
// mismatched trim and group counts, or aggregates without any box.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return "configuration error: " + e.Msg }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func configErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{fmt.Sprintf(format, args...)}
}

// A coordinate transform produced a non-finite value, i.e. the queried point
// lies outside the valid domain of a mapping.
type ValidationError struct {
	Stage string  // "pixel to world" or "world to pixel"
	X     float64 // the input point of the failed transform
	Y     float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s transform of (%g, %g) is not finite", e.Stage, e.X, e.Y)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
