package viz

import "strings"

const brailleBlank = 0x2800

// dotBit[y][x] is the braille bit of dot (x, y) inside one 2×4 cell.
var dotBit = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a Width×Height grid of braille cells, i.e. a (2·Width)×(4·Height)
// dot matrix with (0, 0) in the top-left corner.
type Canvas struct {
	Width, Height int
	cells         []uint8
}

func NewCanvas(w, h int) *Canvas {
	return &Canvas{Width: w, Height: h, cells: make([]uint8, w*h)}
}

func (c *Canvas) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < 2*c.Width && y < 4*c.Height
}

// Set lights dot (x, y); dots off the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if c.inside(x, y) {
		c.cells[(y/4)*c.Width+x/2] |= dotBit[y%4][x%2]
	}
}

// Dot reports whether dot (x, y) is lit.
func (c *Canvas) Dot(x, y int) bool {
	return c.inside(x, y) && c.cells[(y/4)*c.Width+x/2]&dotBit[y%4][x%2] != 0
}

// Cell is the braille rune at column col, row row.
func (c *Canvas) Cell(col, row int) rune {
	return rune(brailleBlank + int(c.cells[row*c.Width+col]))
}

func (c *Canvas) Clear() {
	clear(c.cells)
}

// DrawLine draws a Bresenham line between two dots.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), -absInt(y1-y0)
	sx, sy := 1, 1
	if x1 < x0 {
		sx = -1
	}
	if y1 < y0 {
		sy = -1
	}
	e := dx + dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		if 2*e >= dy {
			e += dy
			x0 += sx
		}
		if 2*e <= dx {
			e += dx
			y0 += sy
		}
	}
}

// Plot maps (x, y) from the box [x0,x1]×[y0,y1] onto the canvas, y up.
// Points outside the box are dropped.
func (c *Canvas) Plot(x, y, x0, x1, y0, y1 float64) {
	if x1 <= x0 || y1 <= y0 || x < x0 || x > x1 || y < y0 || y > y1 {
		return
	}
	w, h := c.Width*2-1, c.Height*4-1
	px := int((x - x0) / (x1 - x0) * float64(w))
	py := int((y1 - y) / (y1 - y0) * float64(h))
	c.Set(px, py)
}

func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(c.Height * (3*c.Width + 1))
	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			b.WriteRune(c.Cell(col, row))
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
