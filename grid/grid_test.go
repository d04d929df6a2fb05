package grid

import (
	"math"
	"testing"
)

// globalHeader is a 1-degree global grid scanned north to south from the
// prime meridian, the layout GFS-style datasets use.
func globalHeader() Header {
	return Header{Lo1: 0, La1: 90, Dx: 1, Dy: 1, Nx: 360, Ny: 181, Flipped: true}
}

func TestHeaderEdges(t *testing.T) {
	h := globalHeader()
	if got := h.Lo2(); got != 359 {
		t.Errorf("Lo2 = %v, want 359", got)
	}
	if got := h.La2(); got != -90 {
		t.Errorf("La2 = %v, want -90", got)
	}
	if !h.Continuous() {
		t.Error("360x1 degree grid should be continuous")
	}

	regional := Header{Lo1: 0, La1: 10, Dx: 1, Dy: 1, Nx: 11, Ny: 11}
	if regional.Continuous() {
		t.Error("11-degree regional grid should not be continuous")
	}
}

func TestBilinear(t *testing.T) {
	tests := []struct {
		name               string
		g00, g10, g01, g11 float64
		x, y               float64
		want               float64
	}{
		{"corner00", 1, 2, 3, 4, 0, 0, 1},
		{"center", 1, 2, 3, 4, 0.5, 0.5, 2.5},
		{"xEdge", 0, 10, 0, 10, 0.5, 0, 5},
		{"yWeighted", 0, 0, 8, 8, 0, 0.25, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Bilinear(tt.g00, tt.g10, tt.g01, tt.g11, tt.x, tt.y); got != tt.want {
				t.Errorf("Bilinear = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScalarExactLattice(t *testing.T) {
	// Sample value encodes its own scan position, so lookups are checkable.
	h := globalHeader()
	g := Build(h, func(i int) float64 {
		row, col := i/h.Nx, i%h.Nx
		return float64(row*1000 + col)
	})

	tests := []struct {
		name     string
		lon, lat float64
		want     float64
	}{
		{"northWest", 0, 90, 0},
		{"equatorGreenwich", 0, 0, 90000},
		{"southEdge", 0, -90, 180000},
		{"eastColumn", 359, 0, 90359},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := g.Scalar(tt.lon, tt.lat)
			if !ok {
				t.Fatalf("Scalar(%v, %v) not ok", tt.lon, tt.lat)
			}
			if got != tt.want {
				t.Errorf("Scalar(%v, %v) = %v, want %v", tt.lon, tt.lat, got, tt.want)
			}
		})
	}
}

func TestContinuousGridWrapColumn(t *testing.T) {
	h := globalHeader()
	g := Build(h, func(i int) float64 { return float64(i) })
	for j, row := range g.rows {
		if len(row) != h.Nx+1 {
			t.Fatalf("row %d length = %d, want %d", j, len(row), h.Nx+1)
		}
		if row[h.Nx] != row[0] {
			t.Fatalf("row %d wrap column = %v, want duplicate of %v", j, row[h.Nx], row[0])
		}
	}
}

func TestScalarWraparound(t *testing.T) {
	// Value = column index; straddling the antimeridian must blend column
	// 359 with the duplicated column 0.
	h := globalHeader()
	g := Build(h, func(i int) float64 { return float64(i % h.Nx) })

	got, ok := g.Scalar(359.5, 0)
	if !ok {
		t.Fatal("Scalar(359.5, 0) not ok")
	}
	want := 359 * 0.5 // blend of 359 and the wrapped 0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Scalar(359.5, 0) = %v, want %v", got, want)
	}

	// Longitudes west of the origin resolve through the wrap side.
	got2, ok := g.Scalar(-0.5, 0)
	if !ok {
		t.Fatal("Scalar(-0.5, 0) not ok")
	}
	if got2 != got {
		t.Errorf("Scalar(-0.5, 0) = %v, want %v (same point as 359.5)", got2, got)
	}
}

func TestScalarOutsideExtent(t *testing.T) {
	h := Header{Lo1: 0, La1: 10, Dx: 1, Dy: 1, Nx: 11, Ny: 11, Flipped: true}
	g := Build(h, func(i int) float64 { return 1 })

	tests := []struct {
		name     string
		lon, lat float64
	}{
		{"westOfGrid", -1, 5},
		{"eastOfGrid", 11, 5},
		{"northOfGrid", 5, 11},
		{"southOfGrid", 5, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := g.Scalar(tt.lon, tt.lat); ok {
				t.Errorf("Scalar(%v, %v) ok, want outside-extent miss", tt.lon, tt.lat)
			}
		})
	}
}

func TestScalarMissingSample(t *testing.T) {
	h := Header{Lo1: 0, La1: 10, Dx: 1, Dy: 1, Nx: 11, Ny: 11, Flipped: true}
	g := Build(h, func(i int) float64 {
		if i == 0 { // north-west corner sample
			return math.NaN()
		}
		return 1
	})
	if _, ok := g.Scalar(0.5, 9.5); ok {
		t.Error("cell touching a missing sample should not interpolate")
	}
	if v, ok := g.Scalar(5, 5); !ok || v != 1 {
		t.Errorf("Scalar(5, 5) = %v, %v; want 1, true", v, ok)
	}
}

func TestFlippedOrientation(t *testing.T) {
	// The same south-to-north scan should land identically whether the
	// source declares itself flipped (rows pre-reversed) or not.
	h := Header{Lo1: 0, La1: 2, Dx: 1, Dy: 1, Nx: 3, Ny: 3}
	southUp := []float64{
		0, 1, 2, // lat 0
		10, 11, 12, // lat 1
		20, 21, 22, // lat 2
	}
	northUp := []float64{
		20, 21, 22,
		10, 11, 12,
		0, 1, 2,
	}

	g1 := Build(h, func(i int) float64 { return southUp[i] })
	h.Flipped = true
	g2 := Build(h, func(i int) float64 { return northUp[i] })

	for lat := 0.0; lat <= 2; lat++ {
		for lon := 0.0; lon <= 2; lon++ {
			v1, ok1 := g1.Scalar(lon, lat)
			v2, ok2 := g2.Scalar(lon, lat)
			if !ok1 || !ok2 || v1 != v2 {
				t.Fatalf("orientation mismatch at (%v, %v): %v/%v vs %v/%v",
					lon, lat, v1, ok1, v2, ok2)
			}
			if want := lat*10 + lon; v1 != want {
				t.Fatalf("Scalar(%v, %v) = %v, want %v", lon, lat, v1, want)
			}
		}
	}
}

func TestVector(t *testing.T) {
	h := globalHeader()
	g := BuildVector(h,
		func(i int) float64 { return 3 },
		func(i int) float64 { return 4 },
	)
	u, v, m, ok := g.Vector(123.4, -56.7)
	if !ok {
		t.Fatal("Vector not ok inside extent")
	}
	if u != 3 || v != 4 || m != 5 {
		t.Errorf("Vector = (%v, %v, %v), want (3, 4, 5)", u, v, m)
	}
	if !g.IsVector() {
		t.Error("IsVector = false for a vector grid")
	}
}

func TestVectorExactLattice(t *testing.T) {
	h := globalHeader()
	g := BuildVector(h,
		func(i int) float64 { return float64(i % h.Nx) },
		func(i int) float64 { return float64(i / h.Nx) },
	)
	u, v, _, ok := g.Vector(123, 90-45) // scan row 45, column 123
	if !ok {
		t.Fatal("Vector not ok at a lattice point")
	}
	if u != 123 || v != 45 {
		t.Errorf("Vector = (%v, %v), want exact lattice samples (123, 45)", u, v)
	}
}

func TestVectorOnScalarGrid(t *testing.T) {
	g := Build(globalHeader(), func(i int) float64 { return 1 })
	if _, _, _, ok := g.Vector(0, 0); ok {
		t.Error("Vector on a scalar grid should report not ok")
	}
	if g.IsVector() {
		t.Error("IsVector = true for a scalar grid")
	}
}

func TestForEachVisitsEverySample(t *testing.T) {
	h := Header{Lo1: 0, La1: 4, Dx: 1, Dy: 1, Nx: 5, Ny: 5, Flipped: true}
	g := Build(h, func(i int) float64 { return float64(i) })
	count := 0
	sum := 0.0
	g.ForEach(func(lon, lat, v float64) {
		count++
		sum += v
	})
	if count != 25 {
		t.Errorf("visited %d samples, want 25", count)
	}
	if sum != 300 { // 0+1+...+24
		t.Errorf("sum = %v, want 300", sum)
	}
}
