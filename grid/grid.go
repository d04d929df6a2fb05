// Package grid converts heterogeneous source data into uniform, queryable
// scalar and vector fields with bilinear interpolation, antimeridian
// wraparound, and missing-value diffusion for unstructured meshes.
package grid

import "math"

// Grid is a queryable field derived from a header plus row-major sample
// planes stored in latitude-descending order. Scalar grids carry one plane;
// vector grids carry two (u, v). Missing samples are NaN. Immutable after
// construction.
type Grid struct {
	hdr  Header
	rows [][]float64 // scalar value or u component
	vrow [][]float64 // v component, nil for scalar grids
}

// Header returns the grid's descriptor.
func (g *Grid) Header() Header { return g.hdr }

// IsVector reports whether the grid carries a two-component field.
func (g *Grid) IsVector() bool { return g.vrow != nil }

// rowLen is Nx, or Nx+1 for continuous grids (duplicated wrap column).
func (g *Grid) rowLen() int {
	if g.hdr.Continuous() {
		return g.hdr.Nx + 1
	}
	return g.hdr.Nx
}

// floorMod is the x mod n that follows the sign of n, so longitudes west of
// the origin index into the grid from the wrap side.
func floorMod(x, n float64) float64 {
	return x - n*math.Floor(x/n)
}

// indices maps a geographic point to fractional grid indices, or ok=false
// when the point falls outside the grid extent.
func (g *Grid) indices(lon, lat float64) (i, j float64, ok bool) {
	h := g.hdr
	i = floorMod(lon-h.Lo1, 360) / h.Dx
	j = (h.La1 - lat) / h.Dy
	if i < 0 || i > float64(g.rowLen()-1) || j < 0 || j > float64(h.Ny-1) {
		return 0, 0, false
	}
	return i, j, true
}

// corners locates the 4 enclosing lattice points and the fractional offsets
// within the cell. Ceiling indices clamp at the far edge so exact-boundary
// queries still resolve.
func corners(i, j float64, maxI, maxJ int) (fi, ci, fj, cj int, x, y float64) {
	fi = int(i)
	fj = int(j)
	x = i - float64(fi)
	y = j - float64(fj)
	ci = fi + 1
	if ci > maxI {
		ci = maxI
	}
	cj = fj + 1
	if cj > maxJ {
		cj = maxJ
	}
	return
}

// Bilinear blends 4 corner samples by fractional offsets x, y in [0, 1).
func Bilinear(g00, g10, g01, g11, x, y float64) float64 {
	rx := 1 - x
	ry := 1 - y
	return g00*rx*ry + g10*x*ry + g01*rx*y + g11*x*y
}

// Scalar interpolates the grid at a geographic point. Returns ok=false
// outside the grid extent or when any enclosing sample is missing.
func (g *Grid) Scalar(lon, lat float64) (float64, bool) {
	i, j, ok := g.indices(lon, lat)
	if !ok {
		return 0, false
	}
	fi, ci, fj, cj, x, y := corners(i, j, g.rowLen()-1, g.hdr.Ny-1)
	g00 := g.rows[fj][fi]
	g10 := g.rows[fj][ci]
	g01 := g.rows[cj][fi]
	g11 := g.rows[cj][ci]
	if math.IsNaN(g00) || math.IsNaN(g10) || math.IsNaN(g01) || math.IsNaN(g11) {
		return 0, false
	}
	return Bilinear(g00, g10, g01, g11, x, y), true
}

// Vector interpolates a two-component grid at a geographic point, blending
// each component and returning the magnitude of the result. Returns
// ok=false outside the extent or when any enclosing sample is missing.
func (g *Grid) Vector(lon, lat float64) (u, v, mag float64, ok bool) {
	if g.vrow == nil {
		return 0, 0, 0, false
	}
	i, j, iok := g.indices(lon, lat)
	if !iok {
		return 0, 0, 0, false
	}
	fi, ci, fj, cj, x, y := corners(i, j, g.rowLen()-1, g.hdr.Ny-1)
	u00, u10, u01, u11 := g.rows[fj][fi], g.rows[fj][ci], g.rows[cj][fi], g.rows[cj][ci]
	v00, v10, v01, v11 := g.vrow[fj][fi], g.vrow[fj][ci], g.vrow[cj][fi], g.vrow[cj][ci]
	if math.IsNaN(u00) || math.IsNaN(u10) || math.IsNaN(u01) || math.IsNaN(u11) ||
		math.IsNaN(v00) || math.IsNaN(v10) || math.IsNaN(v01) || math.IsNaN(v11) {
		return 0, 0, 0, false
	}
	u = Bilinear(u00, u10, u01, u11, x, y)
	v = Bilinear(v00, v10, v01, v11, x, y)
	return u, v, math.Hypot(u, v), true
}

// ForEach visits every lattice point with its scalar sample. Missing
// samples are passed as NaN.
func (g *Grid) ForEach(fn func(lon, lat, v float64)) {
	h := g.hdr
	for j, row := range g.rows {
		lat := h.La1 - float64(j)*h.Dy
		for x, val := range row {
			fn(h.Lo1+float64(x)*h.Dx, lat, val)
		}
	}
}

// ForEachVector visits every lattice point with its u and v samples.
// Missing samples are passed as NaN.
func (g *Grid) ForEachVector(fn func(lon, lat, u, v float64)) {
	h := g.hdr
	for j, row := range g.rows {
		lat := h.La1 - float64(j)*h.Dy
		for x, u := range row {
			fn(h.Lo1+float64(x)*h.Dx, lat, u, g.vrow[j][x])
		}
	}
}
