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

// Package preview draws the footprints of source images on their target canvas,
// for checking canvas sizing at a glance.
package preview

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mlnoga/footprint/internal/bounds"
	"github.com/mlnoga/footprint/internal/ops"
)

const margin = 8

var (
	background = color.RGBA{16, 16, 24, 255}
	canvasEdge = color.RGBA{200, 200, 200, 255}
)

// Returns n well separated opaque colors of equal lightness
func Palette(n int) []color.RGBA {
	pal := make([]color.RGBA, n)
	for i := range pal {
		r, g, b := colorful.Hcl(float64(i)*360/float64(n), 0.6, 0.7).Clamped().RGB255()
		pal[i] = color.RGBA{r, g, b, 255}
	}
	return pal
}

// Maps canvas coordinates to image pixels, with y pointing down
type scaler struct {
	canvas bounds.Box
	scale  float64
}

func (s scaler) x(x int) int { return margin + int(math.Round(float64(x-s.canvas.XMin)*s.scale)) }
func (s scaler) y(y int) int { return margin + int(math.Round(float64(s.canvas.YMax-y)*s.scale)) }

// Draws the footprints onto an image of the canvas, scaled down so that the
// longer side has at most maxSize pixels. Each footprint gets its own color and
// is labeled with its ID.
func Draw(canvas bounds.Box, fps []*ops.Footprint, maxSize int) (*image.RGBA, error) {
	if canvas.Width() <= 0 || canvas.Height() <= 0 {
		return nil, fmt.Errorf("empty canvas %v", canvas)
	}
	if maxSize <= 0 {
		return nil, fmt.Errorf("invalid maximum preview size %d", maxSize)
	}
	longer := canvas.Width()
	if canvas.Height() > longer {
		longer = canvas.Height()
	}
	s := scaler{canvas, math.Min(1, float64(maxSize)/float64(longer))}
	width := int(math.Ceil(float64(canvas.Width())*s.scale)) + 1 + 2*margin
	height := int(math.Ceil(float64(canvas.Height())*s.scale)) + 1 + 2*margin

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	rectangle(img, s.x(canvas.XMin), s.y(canvas.YMax), s.x(canvas.XMax), s.y(canvas.YMin), canvasEdge)

	pal := Palette(len(fps))
	d := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	for i, f := range fps {
		d.Src = image.NewUniform(pal[i])
		for _, b := range f.Boxes {
			x0, y0, x1, y1 := s.x(b.XMin), s.y(b.YMax), s.x(b.XMax), s.y(b.YMin)
			rectangle(img, x0, y0, x1, y1, pal[i])
			d.Dot = fixed.P(x0+3, y0+basicfont.Face7x13.Ascent+2)
			d.DrawString(strconv.Itoa(f.ID))
		}
	}
	return img, nil
}

// Draws the outline of a rectangle with inclusive corners. Pixels outside the image are skipped
func rectangle(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, c)
		img.SetRGBA(x, y1, c)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, c)
		img.SetRGBA(x1, y, c)
	}
}

// Renders the preview as PNG
func Render(w io.Writer, canvas bounds.Box, fps []*ops.Footprint, maxSize int) error {
	img, err := Draw(canvas, fps, maxSize)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Renders the preview to a PNG or JPEG file, depending on the suffix
func RenderToFile(fileName string, canvas bounds.Box, fps []*ops.Footprint, maxSize int) error {
	fnLower := strings.ToLower(fileName)
	isPNG := strings.HasSuffix(fnLower, ".png")
	isJPG := strings.HasSuffix(fnLower, ".jpg") || strings.HasSuffix(fnLower, ".jpeg")
	if !isPNG && !isJPG {
		return errors.New("unknown suffix, expecting .png, .jpg or .jpeg")
	}
	img, err := Draw(canvas, fps, maxSize)
	if err != nil {
		return err
	}

	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()
	writer := bufio.NewWriter(file)

	if isPNG {
		err = png.Encode(writer, img)
	} else {
		err = jpeg.Encode(writer, img, &jpeg.Options{Quality: 95})
	}
	if err != nil {
		return err
	}
	return writer.Flush()
}
