// Package geo provides map projections and the projection-distortion
// correction used when converting geographic wind vectors into screen
// space.
package geo

import "math"

const deg = math.Pi / 180

// Projection maps geographic coordinates (degrees) to screen pixels and
// back. Invert reports ok=false for pixels with no geographic preimage,
// which doubles as the off-globe visibility mask.
type Projection interface {
	Project(lon, lat float64) (x, y float64)
	Invert(x, y float64) (lon, lat float64, ok bool)
}

// Orthographic is a globe seen from infinity, centered on (Lon0, Lat0),
// with Scale pixels per unit sphere radius and the sphere center drawn at
// (CX, CY).
type Orthographic struct {
	Scale   float64
	CX, CY  float64
	Lon0    float64
	Lat0    float64
	sinLat0 float64
	cosLat0 float64
}

// NewOrthographic creates an orthographic projection.
func NewOrthographic(scale, cx, cy, lon0, lat0 float64) *Orthographic {
	return &Orthographic{
		Scale:   scale,
		CX:      cx,
		CY:      cy,
		Lon0:    lon0,
		Lat0:    lat0,
		sinLat0: math.Sin(lat0 * deg),
		cosLat0: math.Cos(lat0 * deg),
	}
}

// Project maps a geographic point to screen pixels. Points on the far
// hemisphere still project (onto the near disc); Invert is the visibility
// test.
func (p *Orthographic) Project(lon, lat float64) (x, y float64) {
	dl := (lon - p.Lon0) * deg
	phi := lat * deg
	cosPhi := math.Cos(phi)
	x = p.CX + p.Scale*cosPhi*math.Sin(dl)
	y = p.CY - p.Scale*(p.cosLat0*math.Sin(phi)-p.sinLat0*cosPhi*math.Cos(dl))
	return
}

// Invert maps a screen pixel back to geographic coordinates. Pixels off
// the projected disc return ok=false.
func (p *Orthographic) Invert(x, y float64) (lon, lat float64, ok bool) {
	dx := (x - p.CX) / p.Scale
	dy := -(y - p.CY) / p.Scale
	rho := math.Hypot(dx, dy)
	if rho > 1 {
		return 0, 0, false
	}
	if rho == 0 {
		return p.Lon0, p.Lat0, true
	}
	c := math.Asin(rho)
	sinC := math.Sin(c)
	cosC := math.Cos(c)
	lat = math.Asin(cosC*p.sinLat0+dy*sinC*p.cosLat0/rho) / deg
	lon = p.Lon0 + math.Atan2(dx*sinC, rho*p.cosLat0*cosC-dy*p.sinLat0*sinC)/deg
	if lon > 180 {
		lon -= 360
	} else if lon < -180 {
		lon += 360
	}
	return lon, lat, true
}

// Equirectangular maps degrees linearly to pixels: Scale pixels per degree
// around a screen center (CX, CY). Used for flat views and as a reference
// projection in tests.
type Equirectangular struct {
	Scale  float64
	CX, CY float64
}

// Project maps a geographic point to screen pixels.
func (p *Equirectangular) Project(lon, lat float64) (x, y float64) {
	return p.CX + lon*p.Scale, p.CY - lat*p.Scale
}

// Invert maps a screen pixel back to geographic coordinates; ok=false
// outside the world rectangle.
func (p *Equirectangular) Invert(x, y float64) (lon, lat float64, ok bool) {
	lon = (x - p.CX) / p.Scale
	lat = (p.CY - y) / p.Scale
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return 0, 0, false
	}
	return lon, lat, true
}
