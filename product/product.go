// Package product turns a discovered dataset plus a user selection into
// queryable grids with display metadata. Each overlay kind has its own
// strategy for locating source variables and fetching raw samples; all of
// them funnel into the grid builder.
package product

import (
	"github.com/pthm-cable/gale/grid"
)

// Overlay kinds with dedicated strategies. Any other non-empty overlay
// string selects a dataset variable by name through the generic-scalar
// strategy.
const (
	OverlayNone        = ""
	OverlayWind        = "wind"
	OverlayTemperature = "temp"
)

// Selection is the user's choice of time step, height level, and overlay.
type Selection struct {
	TimeIndex   int
	HeightIndex int
	Overlay     string
}

// Product pairs a built grid with its display metadata. The primary
// product of a build carries vector-field semantics (wind); an overlay
// product, when selected, carries the scalar used for coloring.
type Product struct {
	Grid        *grid.Grid
	Kind        string
	Units       []Unit
	Bounds      [2]float64
	Description string
}

// IsVector reports whether the product's grid is a two-component field.
func (p *Product) IsVector() bool { return p.Grid.IsVector() }
