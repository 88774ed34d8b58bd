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
	"github.com/spf13/cobra"

	"github.com/mlnoga/footprint/internal/bounds"
	"github.com/mlnoga/footprint/internal/preview"
)

func (a *app) previewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview [flags] file...",
		Short: "Draw the footprints of all images on their collective canvas",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runPreview,
	}
	cmd.Flags().StringP("out", "o", "footprint.png", "save preview to `file`, .png or .jpg, or - for PNG on stdout")
	cmd.Flags().Int("max-size", 1024, "maximum width or height of the preview in pixels")
	a.v.BindPFlag("preview.maxSize", cmd.Flags().Lookup("max-size"))
	return cmd
}

func (a *app) runPreview(cmd *cobra.Command, args []string) error {
	fps, err := a.footprints(args)
	if err != nil {
		return err
	}
	var boxes []bounds.Box
	for _, f := range fps {
		boxes = append(boxes, f.Boxes...)
	}
	canvas, err := bounds.Reduce(boxes)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	maxSize := a.v.GetInt("preview.maxSize")
	if out == "-" {
		return preview.Render(cmd.OutOrStdout(), canvas, fps, maxSize)
	}
	if err := preview.RenderToFile(out, canvas, fps, maxSize); err != nil {
		return err
	}
	a.log.Info().Str("file", out).Stringer("canvas", canvas).Msgf("wrote preview of %d footprints", len(fps))
	return nil
}
