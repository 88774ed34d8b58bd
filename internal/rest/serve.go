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

package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mlnoga/footprint/internal/bounds"
	"github.com/mlnoga/footprint/internal/fits"
	"github.com/mlnoga/footprint/internal/logging"
	"github.com/mlnoga/footprint/internal/ops"
	"github.com/mlnoga/footprint/internal/wcs"
)

type server struct {
	c        *ops.Context
	restrict bool // only allow relative paths within the current directory tree
}

// Creates the request router. File names in requests are resolved relative to
// the working directory; with restrict set, no other paths are accepted.
func NewRouter(c *ops.Context, restrict bool) *gin.Engine {
	s := &server{c: c, restrict: restrict}
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.POST("/bounds", s.postBounds)
			v1.POST("/collective", s.postCollective)
		}
	}
	return r
}

// Listens and serves on the given address, e.g. ":8080"
func Serve(addr string, c *ops.Context) error {
	c.Log.Info().Str("addr", addr).Msg("serving REST API")
	return NewRouter(c, true).Run(addr)
}

func (s *server) logRequests(c *gin.Context) {
	c.Next()
	s.c.Log.Debug().Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Int("status", c.Writer.Status()).Msg("request")
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

type boundsArgs struct {
	Files        []string        `json:"files"`        // a single group of files
	Groups       []ops.FileGroup `json:"groups"`       // or several groups with their own trims
	Trim         bounds.Trim     `json:"trim"`         // trim for files
	Target       string          `json:"target"`       // target file name
	TargetHeader string          `json:"targetHeader"` // or target header cards, one per line
	Key          string          `json:"key"`
	Clip         *bounds.Clip    `json:"clip"`
	Split        bool            `json:"split"`
}

// Turns the arguments into sources and a target, or reports a bad request
func (s *server) parse(c *gin.Context) (args boundsArgs, srcs []ops.Source, target wcs.Descriptor, ok bool) {
	if err := c.ShouldBindJSON(&args); err != nil {
		badRequest(c, err)
		return args, nil, nil, false
	}
	groups := args.Groups
	if len(args.Files) > 0 {
		groups = append([]ops.FileGroup{{Patterns: args.Files, Trim: args.Trim}}, groups...)
	}
	srcs, err := ops.LoadSources(groups, s.restrict, s.c)
	if err != nil {
		badRequest(c, err)
		return args, nil, nil, false
	}

	switch {
	case args.TargetHeader != "":
		h, err := fits.ReadTextHeader(strings.NewReader(args.TargetHeader), -1, logging.WriterAt(s.c.Log, zerolog.WarnLevel))
		if err != nil {
			badRequest(c, err)
			return args, nil, nil, false
		}
		m, err := wcs.FromHeader(h).Resolve("")
		if err != nil {
			badRequest(c, err)
			return args, nil, nil, false
		}
		target = wcs.Fixed(m)
	default:
		if target, err = ops.LoadTarget(args.Target, s.restrict, s.c); err != nil {
			badRequest(c, err)
			return args, nil, nil, false
		}
	}
	return args, srcs, target, true
}

func (s *server) postBounds(c *gin.Context) {
	args, srcs, target, ok := s.parse(c)
	if !ok {
		return
	}
	j := ops.Job{Target: target, Key: args.Key, Clip: args.Clip, Split: args.Split}
	fps, err := j.Run(srcs, s.c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"footprints": fps})
}

func (s *server) postCollective(c *gin.Context) {
	args, srcs, target, ok := s.parse(c)
	if !ok {
		return
	}
	box, fps, err := ops.Collective(srcs, target, args.Key, s.c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"box":        box,
		"canvasMB":   ops.CanvasMB(box, 1),
		"footprints": fps,
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// Reports configuration and validation errors as unprocessable, and everything else as internal errors
func (s *server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, bounds.ErrConfiguration) || errors.Is(err, bounds.ErrValidation) {
		status = http.StatusUnprocessableEntity
	}
	s.c.Log.Error().Err(err).Int("status", status).Msg("request failed")
	c.JSON(status, gin.H{"error": err.Error()})
}
