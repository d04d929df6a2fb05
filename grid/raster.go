package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// RasterOptions tunes irregular-mesh rasterization. Both knobs are tuning
// constants without a principled derivation, so they are configurable.
type RasterOptions struct {
	// CellsPerDegree oversamples the synthetic raster relative to whole
	// degrees. Default 2.
	CellsPerDegree int
	// FillNeighborMin is how many filled 4-neighbors an empty cell needs
	// before diffusion fills it with their mean. Default 2.
	FillNeighborMin int
}

func (o RasterOptions) withDefaults() RasterOptions {
	if o.CellsPerDegree <= 0 {
		o.CellsPerDegree = 2
	}
	if o.FillNeighborMin <= 0 {
		o.FillNeighborMin = 2
	}
	return o
}

// rasterExtent is the integer-degree bounding box of a scattered mesh.
type rasterExtent struct {
	minLon, maxLon float64
	minLat, maxLat float64
	steps          float64
	w, h           int
}

func newRasterExtent(lonDeg, latDeg []float64, cellsPerDegree int) rasterExtent {
	e := rasterExtent{
		minLon: math.Floor(floats.Min(lonDeg)),
		maxLon: math.Ceil(floats.Max(lonDeg)),
		minLat: math.Floor(floats.Min(latDeg)),
		maxLat: math.Ceil(floats.Max(latDeg)),
		steps:  float64(cellsPerDegree),
	}
	e.w = int((e.maxLon-e.minLon)*e.steps) + 1
	e.h = int((e.maxLat-e.minLat)*e.steps) + 1
	return e
}

// index maps a degree coordinate pair to the nearest raster cell.
func (e rasterExtent) index(lonDeg, latDeg float64) (x, y int) {
	x = int(math.Round((lonDeg - e.minLon) * e.steps))
	y = int(math.Round((latDeg - e.minLat) * e.steps))
	return
}

func (e rasterExtent) header() Header {
	return Header{
		Lo1: e.minLon,
		La1: e.maxLat,
		Dx:  1 / e.steps,
		Dy:  1 / e.steps,
		Nx:  e.w,
		Ny:  e.h,
		// ArrayGrid row 0 sits at the southern edge.
		Flipped: false,
	}
}

func toDegrees(rad []float64) []float64 {
	deg := make([]float64, len(rad))
	for i, r := range rad {
		deg[i] = r * 180 / math.Pi
	}
	return deg
}

// scatter writes each source cell's value into its nearest raster cell.
func scatter(ag *ArrayGrid, e rasterExtent, lonDeg, latDeg, values []float64) {
	for i := range values {
		x, y := e.index(lonDeg[i], latDeg[i])
		if ag.InBounds(x, y) {
			ag.Set(x, y, values[i])
		}
	}
}

// fillHoles diffuses values into empty cells left by scattering. Each
// column is scanned from its vertical midpoint outward toward both edges,
// so cells filled near the dataset's equatorial center enable filling
// further neighbors before the scan reaches sparse polar rows. An empty
// cell becomes the mean of its filled 4-neighbors once at least minFill of
// them hold values. Runs exactly once per raster.
func fillHoles(ag *ArrayGrid, minFill int) {
	fill := func(x, y int) {
		if ag.Filled(x, y) {
			return
		}
		sum := 0.0
		n := 0
		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := x+d[0], y+d[1]
			if ag.InBounds(nx, ny) && ag.Filled(nx, ny) {
				sum += ag.At(nx, ny)
				n++
			}
		}
		if n >= minFill {
			ag.Set(x, y, sum/float64(n))
		}
	}
	mid := ag.Height() / 2
	for x := 0; x < ag.Width(); x++ {
		for y := mid; y < ag.Height(); y++ {
			fill(x, y)
		}
		for y := mid - 1; y >= 0; y-- {
			fill(x, y)
		}
	}
}

func checkMesh(lonRad, latRad []float64, lens ...int) error {
	if len(lonRad) == 0 || len(latRad) != len(lonRad) {
		return fmt.Errorf("grid: mesh coordinates empty or mismatched (%d lon, %d lat)", len(lonRad), len(latRad))
	}
	for _, n := range lens {
		if n != len(lonRad) {
			return fmt.Errorf("grid: mesh has %d cells but %d values", len(lonRad), n)
		}
	}
	return nil
}

// Rasterize builds a regular scalar grid from an unstructured mesh given as
// per-cell lon/lat coordinates in radians plus one value per cell.
func Rasterize(lonRad, latRad, values []float64, opts RasterOptions) (*Grid, error) {
	if err := checkMesh(lonRad, latRad, len(values)); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	lonDeg, latDeg := toDegrees(lonRad), toDegrees(latRad)
	e := newRasterExtent(lonDeg, latDeg, opts.CellsPerDegree)

	ag := NewArrayGrid(e.w, e.h)
	scatter(ag, e, lonDeg, latDeg, values)
	fillHoles(ag, opts.FillNeighborMin)

	return Build(e.header(), func(i int) float64 { return ag.data[i] }), nil
}

// RasterizeVector builds a regular two-component grid from an unstructured
// mesh, rasterizing and hole-filling each component plane independently.
func RasterizeVector(lonRad, latRad, u, v []float64, opts RasterOptions) (*Grid, error) {
	if err := checkMesh(lonRad, latRad, len(u), len(v)); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	lonDeg, latDeg := toDegrees(lonRad), toDegrees(latRad)
	e := newRasterExtent(lonDeg, latDeg, opts.CellsPerDegree)

	agU := NewArrayGrid(e.w, e.h)
	agV := NewArrayGrid(e.w, e.h)
	scatter(agU, e, lonDeg, latDeg, u)
	scatter(agV, e, lonDeg, latDeg, v)
	fillHoles(agU, opts.FillNeighborMin)
	fillHoles(agV, opts.FillNeighborMin)

	return BuildVector(e.header(),
		func(i int) float64 { return agU.data[i] },
		func(i int) float64 { return agV.data[i] },
	), nil
}
