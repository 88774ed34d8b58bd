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
	"runtime"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog"

	"github.com/mlnoga/footprint/internal/bounds"
	"github.com/mlnoga/footprint/internal/wcs"
)

// An execution context for footprint computations
type Context struct {
	Log        zerolog.Logger
	MemoryMB   int // memory.TotalMemory()/1024/1024
	MaxThreads int `json:"maxThreads"`
}

func NewContext(log zerolog.Logger, maxThreads int) *Context {
	if maxThreads <= 0 {
		maxThreads = runtime.GOMAXPROCS(0)
	}
	return &Context{
		Log:        log,
		MemoryMB:   int(memory.TotalMemory() / 1024 / 1024),
		MaxThreads: maxThreads,
	}
}

// The footprint of one source image in the target pixel space. No boxes
// means the image does not intersect the clip rectangle.
type Footprint struct {
	ID       int          `json:"id"`
	FileName string       `json:"fileName,omitempty"`
	Group    int          `json:"group"`
	Boxes    []bounds.Box `json:"boxes"`
}

func (f *Footprint) Ok() bool { return len(f.Boxes) > 0 }

// A promise for a footprint. Returns a materialized footprint, or an error
type Promise func() (f *Footprint, err error)

// Materializes all promises with given concurrency limit.
// Errors of individual promises are concatenated.
func MaterializeAll(ins []Promise, maxThreads int) (outs []*Footprint, err error) {
	if len(ins) == 0 {
		return nil, nil
	}
	if maxThreads < 1 {
		maxThreads = 1
	}
	outs = make([]*Footprint, len(ins))
	limiter := make(chan bool, maxThreads)
	errs := make(chan error, len(ins))
	for i, in := range ins {
		limiter <- true
		go func(i int, theIn Promise) {
			defer func() { <-limiter }()
			f, err := theIn() // materialize the promise
			if err != nil {
				errs <- err
				return
			}
			outs[i] = f
			errs <- nil
		}(i, in)
	}
	for i := 0; i < cap(limiter); i++ { // wait for goroutines to finish
		limiter <- true
	}
	for i := 0; i < len(ins); i++ { // collect errors
		if e := <-errs; e != nil {
			if err == nil {
				err = e
			} else {
				err = fmt.Errorf("%s; %w", err.Error(), e)
			}
		}
	}
	return RemoveNils(outs), err
}

// Remove nils from an array of footprints, editing the underlying array in place
func RemoveNils(fps []*Footprint) []*Footprint {
	o := 0
	for i := 0; i < len(fps); i++ {
		if fps[i] != nil {
			fps[o] = fps[i]
			o++
		}
	}
	for i := o; i < len(fps); i++ {
		fps[i] = nil
	}
	return fps[:o]
}

// A source image to compute the footprint for
type Source struct {
	ID       int
	FileName string
	Group    int
	Image    wcs.Descriptor
	Trim     bounds.Trim
}

// Turns image groups into a flat list of numbered sources
func SourcesFromGroups(groups []bounds.Group) []Source {
	var srcs []Source
	for gi, g := range groups {
		for _, img := range g.Images {
			srcs = append(srcs, Source{ID: len(srcs), FileName: fmt.Sprintf("%v", img), Group: gi, Image: img, Trim: g.Trim})
		}
	}
	return srcs
}

// Parameters for finding the footprints of many sources in the same target
type Job struct {
	Target wcs.Descriptor
	Key    string       // alternate WCS key of the sources, "" for the primary one
	Clip   *bounds.Clip // optional
	Split  bool         // split footprints at the wrap of periodic targets
}

// Creates a promise for the footprint of the given source
func (j *Job) MakePromise(src Source, c *Context) Promise {
	return func() (f *Footprint, err error) {
		f = &Footprint{ID: src.ID, FileName: src.FileName, Group: src.Group}
		if j.Split {
			f.Boxes, err = bounds.FindBoundsSplit(src.Image, j.Target, src.Trim, j.Key, j.Clip)
		} else {
			var box bounds.Box
			var ok bool
			box, ok, err = bounds.FindBounds(src.Image, j.Target, src.Trim, j.Key, j.Clip)
			if ok {
				f.Boxes = []bounds.Box{box}
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%d: %s: %w", src.ID, src.FileName, err)
		}
		if !f.Ok() {
			c.Log.Info().Int("id", f.ID).Str("file", f.FileName).Msg("outside clip rectangle")
		} else {
			c.Log.Info().Int("id", f.ID).Str("file", f.FileName).Interface("boxes", f.Boxes).Msg("found bounds")
		}
		return f, nil
	}
}

// Creates one promise per source
func (j *Job) MakePromises(srcs []Source, c *Context) []Promise {
	outs := make([]Promise, len(srcs))
	for i, src := range srcs {
		outs[i] = j.MakePromise(src, c)
	}
	return outs
}

// Finds the footprints of all sources in parallel. The target is resolved only once.
func (j *Job) Run(srcs []Source, c *Context) ([]*Footprint, error) {
	if j.Target == nil {
		return nil, errors.New("no target image")
	}
	dst, err := j.Target.Resolve("")
	if err != nil {
		return nil, err
	}
	resolved := *j
	resolved.Target = wcs.Fixed(dst)
	return MaterializeAll(resolved.MakePromises(srcs, c), c.MaxThreads)
}

// Finds the collective bounding box of all sources in the target, like
// bounds.FindCollectiveBounds but with images evaluated in parallel.
// Warns if a float32 canvas of that size would exceed physical memory.
func Collective(srcs []Source, target wcs.Descriptor, key string, c *Context) (bounds.Box, []*Footprint, error) {
	j := Job{Target: target, Key: key}
	fps, err := j.Run(srcs, c)
	if err != nil {
		return bounds.Box{}, fps, err
	}
	var boxes []bounds.Box
	for _, f := range fps {
		boxes = append(boxes, f.Boxes...)
	}
	box, err := bounds.Reduce(boxes)
	if err != nil {
		return box, fps, err
	}

	canvasMB := CanvasMB(box, 1)
	ev := c.Log.Info()
	if c.MemoryMB > 0 && canvasMB > c.MemoryMB {
		ev = c.Log.Warn()
	}
	ev.Stringer("box", box).Int("canvasMB", canvasMB).Int("memoryMB", c.MemoryMB).Msgf("collective bounds of %d images", len(fps))
	return box, fps, nil
}

// Returns the size in megabytes of a float32 canvas with the given box and number of channels
func CanvasMB(box bounds.Box, channels int) int {
	bytes := int64(box.Width()) * int64(box.Height()) * int64(channels) * 4
	return int((bytes + 1024*1024 - 1) / (1024 * 1024))
}
