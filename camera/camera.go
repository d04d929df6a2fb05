// Package camera provides view control for the globe: dragging rotates
// the projection center, the mouse wheel zooms.
package camera

import (
	"github.com/pthm-cable/gale/field"
	"github.com/pthm-cable/gale/geo"
)

// Camera holds the current globe orientation and zoom for a viewport.
type Camera struct {
	// Lon, Lat is the geographic point at the center of the view.
	Lon, Lat float64

	// Scale is the globe radius in pixels.
	Scale float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH int

	// Zoom constraints
	MinScale, MaxScale float64
}

// New creates a camera centered on (lon, lat) at the given scale.
func New(viewportW, viewportH int, scale, minScale, maxScale, lon, lat float64) *Camera {
	return &Camera{
		Lon:       lon,
		Lat:       lat,
		Scale:     scale,
		ViewportW: viewportW,
		ViewportH: viewportH,
		MinScale:  minScale,
		MaxScale:  maxScale,
	}
}

// Drag rotates the globe by a screen-space mouse delta. Sensitivity
// follows the zoom so a drag moves the surface roughly with the cursor.
func (c *Camera) Drag(dxPix, dyPix float64) {
	degPerPix := 90 / c.Scale
	c.Lon -= dxPix * degPerPix
	c.Lat += dyPix * degPerPix
	if c.Lon > 180 {
		c.Lon -= 360
	} else if c.Lon < -180 {
		c.Lon += 360
	}
	if c.Lat > 89 {
		c.Lat = 89
	} else if c.Lat < -89 {
		c.Lat = -89
	}
}

// Zoom scales the globe by wheel steps, clamped to the configured range.
func (c *Camera) Zoom(wheel float64) {
	c.Scale *= 1 + wheel*0.1
	if c.Scale < c.MinScale {
		c.Scale = c.MinScale
	} else if c.Scale > c.MaxScale {
		c.Scale = c.MaxScale
	}
}

// Projection returns the orthographic projection for the current view.
func (c *Camera) Projection() *geo.Orthographic {
	return geo.NewOrthographic(c.Scale,
		float64(c.ViewportW)/2, float64(c.ViewportH)/2, c.Lon, c.Lat)
}

// Bounds returns the screen rectangle the globe disc occupies, clipped to
// the viewport. Field interpolation only covers this rectangle.
func (c *Camera) Bounds() field.Bounds {
	cx := c.ViewportW / 2
	cy := c.ViewportH / 2
	r := int(c.Scale) + 1

	x0 := cx - r
	if x0 < 0 {
		x0 = 0
	}
	y0 := cy - r
	if y0 < 0 {
		y0 = 0
	}
	x1 := cx + r
	if x1 > c.ViewportW {
		x1 = c.ViewportW
	}
	y1 := cy + r
	if y1 > c.ViewportH {
		y1 = c.ViewportH
	}
	return field.Bounds{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
