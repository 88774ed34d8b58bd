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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlnoga/footprint/internal/ops"
)

func (a *app) collectiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collective [flags] [file...]",
		Short: "Show the bounding box covering all images in the target pixel space",
		Long: `Show the bounding box covering all images in the target pixel space.

Files given as arguments form one group using the --trim setting. Further
groups with their own trims are given with --group 'pattern[,pattern...][@trim]'.`,
		RunE: a.runCollective,
	}
	cmd.Flags().StringArray("group", nil, "file group as `patterns@trim`, may be repeated")
	cmd.Flags().Bool("json", false, "print result as JSON")
	return cmd
}

func (a *app) runCollective(cmd *cobra.Command, args []string) error {
	var groups []ops.FileGroup
	if len(args) > 0 {
		trim, err := parseTrim(a.v.GetString("trim"))
		if err != nil {
			return err
		}
		groups = append(groups, ops.FileGroup{Patterns: args, Trim: trim})
	}
	groupArgs, _ := cmd.Flags().GetStringArray("group")
	for _, s := range groupArgs {
		g, err := parseGroup(s)
		if err != nil {
			return err
		}
		groups = append(groups, g)
	}
	if len(groups) == 0 {
		return errors.New("no input files")
	}

	target, err := a.target()
	if err != nil {
		return err
	}
	srcs, err := ops.LoadSources(groups, false, a.ctx)
	if err != nil {
		return err
	}
	box, _, err := ops.Collective(srcs, target, a.v.GetString("key"), a.ctx)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return json.NewEncoder(w).Encode(map[string]interface{}{"box": box, "canvasMB": ops.CanvasMB(box, 1)})
	}
	fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", box.XMin, box.XMax, box.YMin, box.YMax)
	return nil
}
