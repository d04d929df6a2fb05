package geo

import "math"

// finite-difference step in degrees, small enough that the secant tracks
// the local derivative, large enough to stay clear of float round-off.
const h = 0.0000360

// Distortion estimates the projection's partial derivatives at a
// geographic point whose known projection is (x, y). The longitude
// derivatives are divided by cos(lat), correcting for meridian
// convergence so an eastward unit vector has comparable screen length at
// all latitudes.
func Distortion(p Projection, lon, lat, x, y float64) (dxdl, dydl, dxdp, dydp float64) {
	// Step toward zero so the probe never crosses the antimeridian or a pole.
	hl := -h
	if lon < 0 {
		hl = h
	}
	hp := -h
	if lat < 0 {
		hp = h
	}

	plx, ply := p.Project(lon+hl, lat)
	ppx, ppy := p.Project(lon, lat+hp)

	k := math.Cos(lat * math.Pi / 180)
	dxdl = (plx - x) / hl / k
	dydl = (ply - y) / hl / k
	dxdp = (ppx - x) / hp
	dydp = (ppy - y) / hp
	return
}

// Distort converts a geographic wind vector (u eastward, v northward) at a
// point into a screen-space motion vector, scaled for particle advection
// and corrected for the projection's local scale and shear.
func Distort(p Projection, lon, lat, x, y, scale, u, v float64) (du, dv float64) {
	us := u * scale
	vs := v * scale
	dxdl, dydl, dxdp, dydp := Distortion(p, lon, lat, x, y)
	du = dxdl*us + dxdp*vs
	dv = dydl*us + dydp*vs
	return
}
