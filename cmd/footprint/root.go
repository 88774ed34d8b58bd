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
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mlnoga/footprint/internal/logging"
	"github.com/mlnoga/footprint/internal/ops"
	"github.com/mlnoga/footprint/internal/wcs"
)

// Command line application state, set up before any command runs
type app struct {
	v       *viper.Viper
	cfgFile string
	log     *logging.Logger
	ctx     *ops.Context
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:   "footprint",
		Short: "Find the bounding boxes of astronomical images reprojected into a target",
		Long: `Footprint Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Footprint computes which pixels of a target world coordinate system an image
covers after reprojection, by transforming the perimeter of the image through
the FITS WCS headers of source and target. Use it to size output canvases
before resampling.

Examples:
  # Bounding box of each light frame in the pixel space of a reference frame
  footprint bounds --target ref.fits lights/*.fits

  # Canvas covering all frames, trimming 10 pixels of each edge
  footprint collective --target ref.fits --trim 10 lights/*.fits

  # Separate trims per channel
  footprint collective --target ref.fits --group 'r/*.fits@8,8,4,4' --group 'g/*.fits@2'`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.init,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config `file` (default is $HOME/.footprint.yaml)")
	pf.String("target", "", "target image or header `file` defining the output pixel space")
	pf.String("key", "", "alternate WCS key A-Z of the source images, blank for the primary WCS")
	pf.String("trim", "", "pixels to exclude from each edge as `left,right,bottom,top`, or one value for all edges")
	pf.String("clip", "", "world coordinate clip rectangle as `lonMin,lonMax,latMin,latMax`; leave entries blank for no limit")
	pf.Bool("split", false, "split bounding boxes at the wraparound of periodic targets")
	pf.Int("threads", 0, "number of images to process in parallel, 0=number of CPUs")
	pf.String("log-level", "info", "log level, one of trace, debug, info, warn, error")
	pf.String("log-file", "", "also write log output to `file`")
	pf.Int("log-max-size", 10, "rotate the log file after this many megabytes")
	pf.Int("log-max-backups", 3, "number of rotated log files to keep")
	for key, flag := range map[string]string{
		"target": "target", "key": "key", "trim": "trim", "clip": "clip", "split": "split", "threads": "threads",
		"log.level": "log-level", "log.file": "log-file", "log.maxSizeMB": "log-max-size", "log.maxBackups": "log-max-backups",
	} {
		a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(a.boundsCmd(), a.collectiveCmd(), a.previewCmd(), a.serveCmd(), versionCmd(), legalCmd())
	return root, a
}

// Reads configuration from .env, the environment and the config file, and sets up logging
func (a *app) init(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	a.v.SetEnvPrefix("FOOTPRINT")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(home)
		a.v.SetConfigType("yaml")
		a.v.SetConfigName(".footprint")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return err
		}
	}

	var err error
	a.log, err = logging.New(logging.Config{
		Level:      a.v.GetString("log.level"),
		File:       a.v.GetString("log.file"),
		MaxSizeMB:  a.v.GetInt("log.maxSizeMB"),
		MaxBackups: a.v.GetInt("log.maxBackups"),
		Console:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	if used := a.v.ConfigFileUsed(); used != "" {
		a.log.Debug().Str("file", used).Msg("using config file")
	}
	a.ctx = ops.NewContext(a.log.Logger, a.v.GetInt("threads"))
	return nil
}

func (a *app) close() {
	if a.log != nil {
		a.log.Close()
	}
}

func (a *app) target() (wcs.Descriptor, error) {
	return ops.LoadTarget(a.v.GetString("target"), false, a.ctx)
}
