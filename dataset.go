package main

import (
	"math"
	"math/rand"
	"time"

	"github.com/pthm-cable/gale/source"
)

// demoSource builds a synthetic 1-degree global dataset: two mid-latitude
// jet streams with a meandering meridional component, a zonal temperature
// field, and relative humidity, over 4 forecast times and 3 levels.
func demoSource() *source.MemorySource {
	const (
		nLon  = 360
		nLat  = 181
		nTime = 4
		nLev  = 3
	)

	src := source.NewMemorySource()
	src.SetAttribute("title", "gale demo: synthetic jet streams")
	src.SetAttribute("ref_time", time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC).Format(time.RFC3339))

	src.AddDimension("time", nTime, nil)
	src.AddDimension("lev", nLev, map[string]string{"units": "hPa"})
	src.AddDimension("lat", nLat, map[string]string{"units": "degrees_north"})
	src.AddDimension("lon", nLon, map[string]string{"units": "degrees_east"})

	// Coordinate variables. Latitude runs north to south.
	latVals := make([]float64, nLat)
	for i := range latVals {
		latVals[i] = 90 - float64(i)
	}
	lonVals := make([]float64, nLon)
	for i := range lonVals {
		lonVals[i] = float64(i)
	}
	src.MustAddVariable("lat", []string{"lat"},
		map[string]string{"units": "degrees_north"}, latVals)
	src.MustAddVariable("lon", []string{"lon"},
		map[string]string{"units": "degrees_east"}, lonVals)

	n := nTime * nLev * nLat * nLon
	us := make([]float64, n)
	vs := make([]float64, n)
	ts := make([]float64, n)
	rh := make([]float64, n)

	i := 0
	for ti := 0; ti < nTime; ti++ {
		phase := float64(ti) * 0.8
		for li := 0; li < nLev; li++ {
			alt := 1 + 0.6*float64(li)
			for yi := 0; yi < nLat; yi++ {
				lat := latVals[yi]
				latRad := lat * math.Pi / 180
				// Westerly jets centered on 45N/45S, trades near the equator.
				jet := 18 * math.Exp(-math.Pow((math.Abs(lat)-45)/12, 2))
				trade := -6 * math.Exp(-math.Pow(lat/15, 2))
				for xi := 0; xi < nLon; xi++ {
					lonRad := lonVals[xi] * math.Pi / 180
					us[i] = alt * (jet + trade + 2*math.Sin(lonRad*2+phase))
					vs[i] = alt * 7 * math.Sin(lonRad*3+phase) * math.Cos(latRad)
					ts[i] = 288 - 65*math.Sin(latRad)*math.Sin(latRad) -
						8*float64(li) + 3*math.Sin(lonRad*2+phase)
					rh[i] = 55 + 35*math.Sin(latRad*4)*math.Cos(lonRad*3+phase)
					i++
				}
			}
		}
	}

	dims := []string{"time", "lev", "lat", "lon"}
	src.MustAddVariable("u", dims, map[string]string{
		"standard_name": "eastward_wind", "units": "m s-1",
	}, us)
	src.MustAddVariable("v", dims, map[string]string{
		"standard_name": "northward_wind", "units": "m s-1",
	}, vs)
	src.MustAddVariable("t", dims, map[string]string{
		"standard_name": "air_temperature", "units": "K",
	}, ts)
	src.MustAddVariable("rh", dims, map[string]string{
		"standard_name": "relative_humidity", "units": "%",
	}, rh)
	return src
}

// demoMeshSource builds a synthetic unstructured dataset: samples scattered
// uniformly over the sphere with ICON-style per-cell coordinates in
// radians. Exercises the rasterization path end to end.
func demoMeshSource() *source.MemorySource {
	const nCells = 40000

	src := source.NewMemorySource()
	src.SetAttribute("title", "gale demo: unstructured mesh")
	src.SetAttribute("ref_time", time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC).Format(time.RFC3339))

	src.AddDimension("cell", nCells, nil)

	rng := rand.New(rand.NewSource(7))
	clon := make([]float64, nCells)
	clat := make([]float64, nCells)
	us := make([]float64, nCells)
	vs := make([]float64, nCells)
	ts := make([]float64, nCells)
	for i := 0; i < nCells; i++ {
		lon := rng.Float64()*2*math.Pi - math.Pi
		lat := math.Asin(2*rng.Float64() - 1) // uniform over the sphere
		clon[i] = lon
		clat[i] = lat

		latDeg := lat * 180 / math.Pi
		jet := 18 * math.Exp(-math.Pow((math.Abs(latDeg)-45)/12, 2))
		us[i] = jet + 2*math.Sin(lon*2)
		vs[i] = 7 * math.Sin(lon*3) * math.Cos(lat)
		ts[i] = 288 - 65*math.Sin(lat)*math.Sin(lat)
	}

	src.MustAddVariable("clon", []string{"cell"}, map[string]string{
		"standard_name": "longitude", "units": "radian",
	}, clon)
	src.MustAddVariable("clat", []string{"cell"}, map[string]string{
		"standard_name": "latitude", "units": "radian",
	}, clat)

	dims := []string{"cell"}
	src.MustAddVariable("u", dims, map[string]string{
		"standard_name": "eastward_wind", "units": "m s-1",
	}, us)
	src.MustAddVariable("v", dims, map[string]string{
		"standard_name": "northward_wind", "units": "m s-1",
	}, vs)
	src.MustAddVariable("t", dims, map[string]string{
		"standard_name": "air_temperature", "units": "K",
	}, ts)
	return src
}
