package grid

import "math"

// ArrayGrid is a fixed-size 2D array addressed by integer (x, y), backing
// irregular-mesh rasterization. Cells start empty (NaN). It is owned
// exclusively by the rasterization step that creates it and discarded once
// a Grid wraps its data.
type ArrayGrid struct {
	w, h int
	data []float64
}

// NewArrayGrid allocates a w by h grid with every cell empty.
func NewArrayGrid(w, h int) *ArrayGrid {
	data := make([]float64, w*h)
	for i := range data {
		data[i] = math.NaN()
	}
	return &ArrayGrid{w: w, h: h, data: data}
}

// Width returns the grid width in cells.
func (a *ArrayGrid) Width() int { return a.w }

// Height returns the grid height in cells.
func (a *ArrayGrid) Height() int { return a.h }

// InBounds reports whether (x, y) addresses a cell.
func (a *ArrayGrid) InBounds(x, y int) bool {
	return x >= 0 && x < a.w && y >= 0 && y < a.h
}

// At returns the cell value; NaN means empty.
func (a *ArrayGrid) At(x, y int) float64 {
	return a.data[y*a.w+x]
}

// Set stores a cell value.
func (a *ArrayGrid) Set(x, y int, v float64) {
	a.data[y*a.w+x] = v
}

// Filled reports whether the cell holds a value.
func (a *ArrayGrid) Filled(x, y int) bool {
	return !math.IsNaN(a.data[y*a.w+x])
}
