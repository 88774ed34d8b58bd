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

package ops

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mlnoga/footprint/internal/bounds"
	"github.com/mlnoga/footprint/internal/logging"
	"github.com/mlnoga/footprint/internal/wcs"
)

// File name patterns with wildcards, sharing the same trim
type FileGroup struct {
	Patterns []string    `json:"files"`
	Trim     bounds.Trim `json:"trim"`
}

// Turn filename wildcards into a list of file names. With restrict set, matches
// outside the current directory tree are skipped.
func ExpandPatterns(patterns []string, restrict bool, c *Context) (fileNames []string, err error) {
	for _, pattern := range patterns {
		if restrict && !isPathAllowed(pattern) {
			return nil, fmt.Errorf("pattern %s outside current directory tree, aborting", pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			if restrict && !isPathAllowed(match) {
				c.Log.Warn().Str("file", match).Msg("pattern match outside current directory tree, skipping")
				continue
			}
			fileNames = append(fileNames, match)
		}
	}
	if len(fileNames) == 0 {
		return nil, fmt.Errorf("no files to load from pattern %v", patterns)
	}
	return fileNames, nil
}

// Returns true if a path is considered safe, i.e. not an absolute path,
// and doesn't contain the ".." characters to change to a parent directory
func isPathAllowed(p string) bool {
	if filepath.IsAbs(p) {
		return false
	} // relative paths only
	if strings.Contains(p, "..") {
		return false
	} // no going outside the tree
	return true
}

// Expands the patterns of all file groups into numbered sources. Headers are
// read lazily when the footprint is computed.
func LoadSources(groups []FileGroup, restrict bool, c *Context) ([]Source, error) {
	if len(groups) == 0 {
		return nil, errors.New("no file groups given")
	}
	logWriter := logging.WriterAt(c.Log, zerolog.WarnLevel)
	var srcs []Source
	for gi, g := range groups {
		fileNames, err := ExpandPatterns(g.Patterns, restrict, c)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", gi, err)
		}
		for _, fileName := range fileNames {
			id := len(srcs)
			srcs = append(srcs, Source{
				ID:       id,
				FileName: fileName,
				Group:    gi,
				Image:    wcs.FromFile(fileName, id, logWriter),
				Trim:     g.Trim,
			})
		}
	}
	c.Log.Info().Msgf("Found %d files.", len(srcs))
	return srcs, nil
}

// Returns a descriptor for the target file, applying the same path restrictions as for sources
func LoadTarget(fileName string, restrict bool, c *Context) (wcs.Descriptor, error) {
	if fileName == "" {
		return nil, errors.New("no target image")
	}
	if restrict && !isPathAllowed(fileName) {
		return nil, fmt.Errorf("target %s outside current directory tree, aborting", fileName)
	}
	return wcs.FromFile(fileName, -1, logging.WriterAt(c.Log, zerolog.WarnLevel)), nil
}
