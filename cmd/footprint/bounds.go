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
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mlnoga/footprint/internal/ops"
)

func (a *app) boundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bounds [flags] file...",
		Short: "Show the bounding box of each image in the target pixel space",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runBounds,
	}
	cmd.Flags().Bool("json", false, "print footprints as JSON")
	return cmd
}

func (a *app) runBounds(cmd *cobra.Command, args []string) error {
	fps, err := a.footprints(args)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	return printFootprints(cmd.OutOrStdout(), fps, asJSON)
}

// Finds the footprints of the given files with the configured target, trim, clip and split settings
func (a *app) footprints(patterns []string) ([]*ops.Footprint, error) {
	trim, err := parseTrim(a.v.GetString("trim"))
	if err != nil {
		return nil, err
	}
	clip, err := parseClip(a.v.GetString("clip"))
	if err != nil {
		return nil, err
	}
	target, err := a.target()
	if err != nil {
		return nil, err
	}
	srcs, err := ops.LoadSources([]ops.FileGroup{{Patterns: patterns, Trim: trim}}, false, a.ctx)
	if err != nil {
		return nil, err
	}
	j := ops.Job{Target: target, Key: a.v.GetString("key"), Clip: clip, Split: a.v.GetBool("split")}
	return j.Run(srcs, a.ctx)
}

func printFootprints(w io.Writer, fps []*ops.Footprint, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(fps)
	}
	for _, f := range fps {
		if !f.Ok() {
			fmt.Fprintf(w, "%d\t%s\t-\n", f.ID, f.FileName)
			continue
		}
		for _, b := range f.Boxes {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\n", f.ID, f.FileName, b.XMin, b.XMax, b.YMin, b.YMax)
		}
	}
	return nil
}
