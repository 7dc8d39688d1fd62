package chip8

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

var (
	PixelOn  = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	PixelOff = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xFF}
)

// RGBA decodes the bitmap into a 64x32 RGBA8888 byte slice
// (length 64*32*4), suitable for uploading to a texture as-is.
func (d *Display) RGBA() []byte {
	pixels := make([]byte, DisplayWidth*DisplayHeight*4)
	for i, p := range d.Pixels {
		c := PixelOff
		if p == 1 {
			c = PixelOn
		}
		pixels[i*4+0] = c.R
		pixels[i*4+1] = c.G
		pixels[i*4+2] = c.B
		pixels[i*4+3] = c.A
	}
	return pixels
}

// Image returns the bitmap as an *image.RGBA with every CHIP-8 pixel
// blown up to a scale x scale block. A scale below 1 is treated as 1.
func (d *Display) Image(scale int) *image.RGBA {
	src := &image.RGBA{
		Pix:    d.RGBA(),
		Stride: DisplayWidth * 4,
		Rect:   image.Rect(0, 0, DisplayWidth, DisplayHeight),
	}
	if scale <= 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, DisplayWidth*scale, DisplayHeight*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// SavePNG encodes the scaled bitmap as a PNG and writes it to filename.
func (d *Display) SavePNG(filename string, scale int) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, d.Image(scale)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
