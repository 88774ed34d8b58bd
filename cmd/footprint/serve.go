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
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mlnoga/footprint/internal/rest"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chroot, _ := cmd.Flags().GetString("chroot")
			setuid, _ := cmd.Flags().GetInt("setuid")
			if err := rest.MakeSandbox(chroot, setuid, a.log.Logger); err != nil {
				return err
			}
			a.routeGinOutput()
			return rest.Serve(a.v.GetString("serve.addr"), a.ctx)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen on `address`")
	cmd.Flags().String("chroot", "", "change the filesystem root to `dir` before serving (requires root)")
	cmd.Flags().Int("setuid", -1, "change to `uid` before serving, -1=keep")
	a.v.BindPFlag("serve.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

// Sends gin's own debug and recovery output through the application log
func (a *app) routeGinOutput() {
	gin.DefaultWriter = a.log.Writer(zerolog.DebugLevel)
	gin.DefaultErrorWriter = a.log.Writer(zerolog.ErrorLevel)
}
