package viz

import (
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a Braille pixel grid split into layers. Layers are cleared
// independently and merged when rendered, so persistent traces survive the
// per-frame redraw of the rods.
type Canvas struct {
	Width, Height int
	layers        [][][]rune
}

func NewCanvas(w, h, layers int) *Canvas {
	if layers < 1 {
		layers = 1
	}
	c := &Canvas{Width: w, Height: h, layers: make([][][]rune, layers)}
	for l := range c.layers {
		grid := make([][]rune, h)
		for i := range grid {
			grid[i] = make([]rune, w)
			for j := range grid[i] {
				grid[i][j] = blank
			}
		}
		c.layers[l] = grid
	}
	return c
}

// Layers reports the number of layers.
func (c *Canvas) Layers() int { return len(c.layers) }

// Set sets a pixel at (x, y) on layer l where x,y are in "sub-pixel" coordinates.
// The canvas size in sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(l, x, y int) {
	if l < 0 || l >= len(c.layers) || x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.layers[l][row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the pixel is lit on any layer.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	bit := rune(pixelMap[y%4][x%2])
	for _, grid := range c.layers {
		if grid[y/4][x/2]&bit != 0 {
			return true
		}
	}
	return false
}

// ClearLayer resets a single layer.
func (c *Canvas) ClearLayer(l int) {
	if l < 0 || l >= len(c.layers) {
		return
	}
	for i := range c.layers[l] {
		for j := range c.layers[l][i] {
			c.layers[l][i][j] = blank
		}
	}
}

// Clear resets every layer.
func (c *Canvas) Clear() {
	for l := range c.layers {
		c.ClearLayer(l)
	}
}

// DrawLine draws a line on layer l using Bresenham's algorithm.
func (c *Canvas) DrawLine(l, x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(l, x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Dot fills a 3x3 block centred on (x, y).
func (c *Canvas) Dot(l, x, y int) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			c.Set(l, x+dx, y+dy)
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			r := rune(blank)
			for _, grid := range c.layers {
				r |= grid[row][col]
			}
			b.WriteRune(r)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
