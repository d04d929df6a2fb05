package grid

import (
	"math"
	"testing"
)

func deg2rad(d float64) float64 { return d * math.Pi / 180 }

func TestRasterExtentIndexInBounds(t *testing.T) {
	lon := []float64{-10.2, 0, 4.7, 9.9}
	lat := []float64{-5.5, 0, 2.2, 5.1}
	e := newRasterExtent(lon, lat, 2)

	if e.minLon != -11 || e.maxLon != 10 {
		t.Errorf("lon extent = [%v, %v], want [-11, 10]", e.minLon, e.maxLon)
	}
	if e.minLat != -6 || e.maxLat != 6 {
		t.Errorf("lat extent = [%v, %v], want [-6, 6]", e.minLat, e.maxLat)
	}

	// Every source coordinate, extremes included, must land on a cell.
	for i := range lon {
		for j := range lat {
			x, y := e.index(lon[i], lat[j])
			if x < 0 || x >= e.w || y < 0 || y >= e.h {
				t.Errorf("index(%v, %v) = (%d, %d) out of %dx%d",
					lon[i], lat[j], x, y, e.w, e.h)
			}
		}
	}
}

func TestFillHolesNeighborThreshold(t *testing.T) {
	// Center cell of a 3x3 raster: filling depends on how many 4-neighbors
	// hold values.
	tests := []struct {
		name      string
		neighbors int
		filled    bool
		want      float64
	}{
		{"noNeighbors", 0, false, 0},
		{"oneNeighbor", 1, false, 0},
		{"twoNeighbors", 2, true, 15},
		{"fourNeighbors", 4, true, 25},
	}
	// Neighbor fill order and values: right 10, left 20, up 30, down 40.
	coords := [4][2]int{{2, 1}, {0, 1}, {1, 2}, {1, 0}}
	vals := [4]float64{10, 20, 30, 40}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ag := NewArrayGrid(3, 3)
			for i := 0; i < tt.neighbors; i++ {
				ag.Set(coords[i][0], coords[i][1], vals[i])
			}
			fillHoles(ag, 2)
			if got := ag.Filled(1, 1); got != tt.filled {
				t.Fatalf("Filled(1,1) = %v, want %v", got, tt.filled)
			}
			if tt.filled && ag.At(1, 1) != tt.want {
				t.Errorf("At(1,1) = %v, want mean %v", ag.At(1, 1), tt.want)
			}
		})
	}
}

func TestFillHolesCascadesFromMidpoint(t *testing.T) {
	// One seeded column pair: the midpoint-outward scan lets each newly
	// filled cell support the next one, so the whole column fills.
	ag := NewArrayGrid(2, 8)
	for y := 0; y < 8; y++ {
		ag.Set(0, y, 5)
	}
	ag.Set(1, 4, 5)
	fillHoles(ag, 2)
	for y := 0; y < 8; y++ {
		if !ag.Filled(1, y) {
			t.Fatalf("cell (1, %d) not filled by cascade", y)
		}
		if ag.At(1, y) != 5 {
			t.Errorf("cell (1, %d) = %v, want 5", y, ag.At(1, y))
		}
	}
}

func TestRasterizeKnownMesh(t *testing.T) {
	// A dense 0.5-degree mesh over [0, 4]x[0, 4] with value = lon degree.
	var lonRad, latRad, vals []float64
	for lat := 0.0; lat <= 4; lat += 0.5 {
		for lon := 0.0; lon <= 4; lon += 0.5 {
			lonRad = append(lonRad, deg2rad(lon))
			latRad = append(latRad, deg2rad(lat))
			vals = append(vals, lon)
		}
	}
	g, err := Rasterize(lonRad, latRad, vals, RasterOptions{CellsPerDegree: 2})
	if err != nil {
		t.Fatal(err)
	}

	h := g.Header()
	if h.Lo1 != 0 || h.La1 != 4 || h.Dx != 0.5 || h.Dy != 0.5 {
		t.Fatalf("header = %+v, want origin (0, 4) at 0.5 degree steps", h)
	}
	if h.Nx != 9 || h.Ny != 9 {
		t.Fatalf("header size = %dx%d, want 9x9", h.Nx, h.Ny)
	}

	for _, lon := range []float64{0, 1.5, 4} {
		got, ok := g.Scalar(lon, 2)
		if !ok {
			t.Fatalf("Scalar(%v, 2) not ok", lon)
		}
		if math.Abs(got-lon) > 1e-9 {
			t.Errorf("Scalar(%v, 2) = %v, want %v", lon, got, lon)
		}
	}
}

func TestRasterizeFillsSparseGaps(t *testing.T) {
	// A coarse 1-degree mesh rasterized at 2 cells per degree leaves every
	// other cell empty; diffusion should close most of the interior.
	var lonRad, latRad, vals []float64
	for lat := -3.0; lat <= 3; lat++ {
		for lon := -3.0; lon <= 3; lon++ {
			lonRad = append(lonRad, deg2rad(lon))
			latRad = append(latRad, deg2rad(lat))
			vals = append(vals, 7)
		}
	}
	g, err := Rasterize(lonRad, latRad, vals, RasterOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got, ok := g.Scalar(0.25, 0.25)
	if !ok {
		t.Fatal("interior point not interpolable after diffusion fill")
	}
	if math.Abs(got-7) > 1e-9 {
		t.Errorf("Scalar(0.25, 0.25) = %v, want 7", got)
	}
}

func TestRasterizeVector(t *testing.T) {
	var lonRad, latRad, us, vs []float64
	for lat := 0.0; lat <= 2; lat += 0.5 {
		for lon := 0.0; lon <= 2; lon += 0.5 {
			lonRad = append(lonRad, deg2rad(lon))
			latRad = append(latRad, deg2rad(lat))
			us = append(us, 3)
			vs = append(vs, 4)
		}
	}
	g, err := RasterizeVector(lonRad, latRad, us, vs, RasterOptions{})
	if err != nil {
		t.Fatal(err)
	}
	u, v, m, ok := g.Vector(1, 1)
	if !ok {
		t.Fatal("Vector(1, 1) not ok")
	}
	if u != 3 || v != 4 || m != 5 {
		t.Errorf("Vector = (%v, %v, %v), want (3, 4, 5)", u, v, m)
	}
}

func TestRasterizeRejectsBadMesh(t *testing.T) {
	tests := []struct {
		name           string
		lon, lat, vals []float64
	}{
		{"empty", nil, nil, nil},
		{"mismatchedCoords", []float64{0, 1}, []float64{0}, []float64{1, 2}},
		{"mismatchedValues", []float64{0, 1}, []float64{0, 1}, []float64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Rasterize(tt.lon, tt.lat, tt.vals, RasterOptions{}); err == nil {
				t.Error("Rasterize accepted a malformed mesh")
			}
		})
	}
}
