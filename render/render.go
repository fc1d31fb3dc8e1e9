// Package render turns membership grids into images.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	mandel "github.com/marben/mandel_engine"
)

const (
	memberShade    = 0x00
	nonMemberShade = 0xff
)

// Gray maps members to black and everything else to white.
// Row 0 of the grid is the lowest imaginary value, so rows are flipped to put
// the positive imaginary axis at the top of the image.
func Gray(g *mandel.Grid) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for y := range g.Height {
		row := g.Row(g.Height - 1 - y)
		pix := img.Pix[y*img.Stride : y*img.Stride+g.Width]
		for x, c := range row {
			if c == 1 {
				pix[x] = memberShade
			} else {
				pix[x] = nonMemberShade
			}
		}
	}
	return img
}

// Scale enlarges img by an integer factor with nearest-neighbour sampling,
// keeping cell edges sharp.
func Scale(img image.Image, factor int) *image.RGBA {
	b := img.Bounds()
	if factor < 1 {
		factor = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// Caption writes text in the bottom-left corner on a contrasting strip.
func Caption(img *image.RGBA, text string) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	b := img.Bounds()
	strip := image.Rect(b.Min.X, b.Max.Y-face.Height-4, b.Max.X, b.Max.Y)
	xdraw.Draw(img, strip, image.NewUniform(color.RGBA{R: 0x3a, G: 0x3a, B: 0x6e, A: 0xff}), image.Point{}, xdraw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(b.Min.X+4, b.Max.Y-4-face.Descent),
	}
	d.DrawString(text)
}

// Options for WritePNG.
type Options struct {
	Scale   int
	Caption string
}

// WritePNG renders g and encodes it as PNG.
func WritePNG(w io.Writer, g *mandel.Grid, opts Options) error {
	img := Scale(Gray(g), opts.Scale)
	Caption(img, opts.Caption)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("png.Encode: %w", err)
	}
	return nil
}
