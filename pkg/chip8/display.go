package chip8

const (
	DisplayWidth  = 64
	DisplayHeight = 32
)

// Display is the 64x32 monochrome bitmap, one byte (0 or 1) per pixel,
// row-major. Dirty records that the presentation layer owes a redraw.
type Display struct {
	Pixels [DisplayWidth * DisplayHeight]byte
	Dirty  bool
}

func (d *Display) Clear() {
	d.Pixels = [DisplayWidth * DisplayHeight]byte{}
	d.Dirty = true
}

// Pixel reports whether the pixel at (x, y) is lit. Coordinates outside
// the display read as unlit.
func (d *Display) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= DisplayWidth || y >= DisplayHeight {
		return false
	}
	return d.Pixels[y*DisplayWidth+x] == 1
}

// DrawSprite XORs an 8-pixel-wide sprite, one byte per row, with its top
// left corner at (x, y). The origin wraps onto the display; rows and
// columns that run past the edge are wrapped when wrap is set and clipped
// otherwise. It reports whether any lit pixel was turned off.
func (d *Display) DrawSprite(x, y byte, rows []byte, wrap bool) bool {
	x0 := int(x) % DisplayWidth
	y0 := int(y) % DisplayHeight
	collision := false

	for row, bits := range rows {
		py := y0 + row
		if py >= DisplayHeight {
			if !wrap {
				break
			}
			py %= DisplayHeight
		}
		for col := 0; col < 8; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}
			px := x0 + col
			if px >= DisplayWidth {
				if !wrap {
					break
				}
				px %= DisplayWidth
			}
			idx := py*DisplayWidth + px
			if d.Pixels[idx] == 1 {
				collision = true
			}
			d.Pixels[idx] ^= 1
		}
	}
	d.Dirty = true
	return collision
}
