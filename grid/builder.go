package grid

// buildPlane assembles one sample plane from a flat index accessor. Rows
// are stored latitude-descending regardless of source scan order, and
// continuous grids get column 0 duplicated as the last column.
func buildPlane(hdr Header, at func(i int) float64) [][]float64 {
	rowLen := hdr.Nx
	if hdr.Continuous() {
		rowLen = hdr.Nx + 1
	}
	rows := make([][]float64, hdr.Ny)
	for r := 0; r < hdr.Ny; r++ {
		dest := r
		if !hdr.Flipped {
			dest = hdr.Ny - 1 - r
		}
		row := make([]float64, rowLen)
		base := r * hdr.Nx
		for c := 0; c < hdr.Nx; c++ {
			row[c] = at(base + c)
		}
		if rowLen > hdr.Nx {
			row[hdr.Nx] = row[0]
		}
		rows[dest] = row
	}
	return rows
}

// Build creates a scalar grid from a header and a flat row-major accessor
// over Ny*Nx samples. Missing samples should be NaN.
func Build(hdr Header, at func(i int) float64) *Grid {
	return &Grid{hdr: hdr, rows: buildPlane(hdr, at)}
}

// BuildVector creates a two-component grid from a header and flat accessors
// for the u and v planes.
func BuildVector(hdr Header, atU, atV func(i int) float64) *Grid {
	return &Grid{
		hdr:  hdr,
		rows: buildPlane(hdr, atU),
		vrow: buildPlane(hdr, atV),
	}
}
