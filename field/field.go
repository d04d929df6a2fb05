// Package field precomputes a dense screen-space lookup from pixel to
// wind vector plus an overlay pixel buffer, by pushing a built grid
// through a projection with per-pixel distortion correction.
package field

import (
	"math"
	"math/rand"
)

// Bounds is the viewport rectangle the field covers, in pixels.
type Bounds struct {
	X, Y          int
	Width, Height int
}

// vec is one cached 2x2-pixel-block vector: screen-space motion (du, dv)
// and the geographic wind magnitude. A NaN magnitude marks a hole (a
// visible pixel where the grid had no defined value).
type vec [3]float64

var holeVec = vec{math.NaN(), math.NaN(), math.NaN()}

// Field is a dense, immutable lookup from screen pixel to motion vector,
// with the rendered overlay buffer alongside. Built fresh for every
// (grid, projection, viewport) combination and released once superseded.
type Field struct {
	bounds  Bounds
	columns [][]vec // one column per 2 pixels of width, one entry per 2 pixels of height
	overlay []byte  // RGBA, bounds.Width*bounds.Height*4
}

func newField(b Bounds) *Field {
	return &Field{
		bounds:  b,
		columns: make([][]vec, (b.Width+1)/2),
		overlay: make([]byte, b.Width*b.Height*4),
	}
}

// Bounds returns the viewport rectangle the field covers.
func (f *Field) Bounds() Bounds { return f.bounds }

// Overlay returns the field's RGBA pixel buffer, row-major over the
// bounds rectangle.
func (f *Field) Overlay() []byte { return f.overlay }

func (f *Field) lookup(x, y float64) (vec, bool) {
	// Offsets must be floored before dividing: integer division truncates
	// toward zero, which would fold pixels just left of or above the
	// bounds into the first block.
	dx := int(math.Floor(x)) - f.bounds.X
	dy := int(math.Floor(y)) - f.bounds.Y
	if dx < 0 || dy < 0 {
		return holeVec, false
	}
	cx := dx / 2
	cy := dy / 2
	if cx >= len(f.columns) {
		return holeVec, false
	}
	col := f.columns[cx]
	if col == nil || cy >= len(col) {
		return holeVec, false
	}
	return col[cy], true
}

// At returns the screen-space motion vector and wind magnitude at a pixel.
// ok is false outside the field or where no value is defined.
func (f *Field) At(x, y float64) (du, dv, mag float64, ok bool) {
	v, ok := f.lookup(x, y)
	if !ok || math.IsNaN(v[2]) {
		return 0, 0, 0, false
	}
	return v[0], v[1], v[2], true
}

// IsDefined reports whether the pixel has a defined vector.
func (f *Field) IsDefined(x, y float64) bool {
	v, ok := f.lookup(x, y)
	return ok && !math.IsNaN(v[2])
}

// IsInsideBoundary reports whether the pixel lies inside the viewport
// rectangle the field covers.
func (f *Field) IsInsideBoundary(x, y float64) bool {
	b := f.bounds
	return x >= float64(b.X) && x < float64(b.X+b.Width) &&
		y >= float64(b.Y) && y < float64(b.Y+b.Height)
}

// Randomize moves (x, y) to a random defined position on the field.
// Gives up after a bounded number of draws on sparse fields.
func (f *Field) Randomize(rng *rand.Rand) (x, y float64, ok bool) {
	b := f.bounds
	for i := 0; i < 30; i++ {
		x = float64(b.X) + rng.Float64()*float64(b.Width)
		y = float64(b.Y) + rng.Float64()*float64(b.Height)
		if f.IsDefined(x, y) {
			return x, y, true
		}
	}
	return x, y, false
}

// setBlock writes one color into the 2x2 pixel block at (x, y), clipped
// to the overlay rectangle.
func (f *Field) setBlock(x, y int, c [4]uint8) {
	b := f.bounds
	for dy := 0; dy < 2; dy++ {
		py := y + dy - b.Y
		if py < 0 || py >= b.Height {
			continue
		}
		for dx := 0; dx < 2; dx++ {
			px := x + dx - b.X
			if px < 0 || px >= b.Width {
				continue
			}
			i := (py*b.Width + px) * 4
			f.overlay[i] = c[0]
			f.overlay[i+1] = c[1]
			f.overlay[i+2] = c[2]
			f.overlay[i+3] = c[3]
		}
	}
}

// Release clears the field's buffers. Called when the field is superseded
// or its build is cancelled mid-way.
func (f *Field) Release() {
	f.columns = nil
	f.overlay = nil
}

// Released reports whether Release has run.
func (f *Field) Released() bool { return f.columns == nil }
