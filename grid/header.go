package grid

import "time"

// Header is the immutable descriptor of a built grid: geographic origin,
// per-step resolution, dimensions, and scan orientation.
type Header struct {
	Lo1 float64 // west edge longitude, degrees
	La1 float64 // north edge latitude, degrees
	Dx  float64 // longitude step, degrees, positive
	Dy  float64 // latitude step, degrees, positive
	Nx  int     // columns in the source scan
	Ny  int     // rows in the source scan

	// Flipped reports that source row 0 is the northernmost row. When
	// false, source row 0 is the southernmost and rows are reversed
	// during the build so storage is always latitude-descending.
	Flipped bool

	RefTime time.Time // reference timestamp of the data
}

// Lo2 returns the east edge longitude.
func (h Header) Lo2() float64 { return h.Lo1 + float64(h.Nx-1)*h.Dx }

// La2 returns the south edge latitude.
func (h Header) La2() float64 { return h.La1 - float64(h.Ny-1)*h.Dy }

// Continuous reports whether the grid wraps the full circle of longitude.
// Continuous grids get column 0 duplicated past the last column so lookups
// straddling the antimeridian need no special casing.
func (h Header) Continuous() bool { return float64(h.Nx)*h.Dx >= 360 }
