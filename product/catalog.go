package product

import (
	"math"
	"strings"
	"time"

	"github.com/pthm-cable/gale/grid"
	"github.com/pthm-cable/gale/source"
)

var (
	latNames    = []string{"lat", "latitude"}
	lonNames    = []string{"lon", "longitude"}
	heightNames = []string{"lev", "level", "levitation", "height", "altitude", "depth", "plev", "isobaric"}
	timeNames   = []string{"time"}
)

// Mesh describes an unstructured dataset: per-cell coordinate variables
// over a cell dimension instead of independent lat/lon axes.
type Mesh struct {
	LonVar  string
	LatVar  string
	CellDim string
}

// Catalog is the discovered dimension/variable mapping of one dataset: the
// spatial axes (or mesh coordinates), the time and height dimensions, and
// the coordinate values needed to build grid headers.
type Catalog struct {
	Source source.DataSource
	Title  string

	Dims []source.Dimension
	Vars []source.Variable

	LonDim  string
	LatDim  string
	LonVals []float64
	LatVals []float64

	TimeDim  string
	TimeSize int

	HeightDim  string
	HeightSize int

	Mesh    *Mesh
	RefTime time.Time
}

// Discover queries a data source's metadata and resolves which dimensions
// and variables play which role. A dataset must carry either lat/lon axes
// or a pair of per-cell coordinate variables.
func Discover(src source.DataSource) (*Catalog, error) {
	dims, err := src.Dimensions()
	if err != nil {
		return nil, err
	}
	vars, err := src.Variables()
	if err != nil {
		return nil, err
	}

	cat := &Catalog{
		Source: src,
		Title:  src.Attribute("title"),
		Dims:   dims,
		Vars:   vars,
	}
	if ref := src.Attribute("ref_time"); ref != "" {
		if t, err := time.Parse(time.RFC3339, ref); err == nil {
			cat.RefTime = t
		}
	}

	for _, d := range dims {
		attrs := d.Attributes
		switch {
		case matchesRole(d.Name, attrs, latNames, "degrees_north"):
			cat.LatDim = d.Name
		case matchesRole(d.Name, attrs, lonNames, "degrees_east"):
			cat.LonDim = d.Name
		case matchesRole(d.Name, attrs, timeNames, ""):
			cat.TimeDim = d.Name
			cat.TimeSize = d.Size
		case matchesRole(d.Name, attrs, heightNames, ""):
			cat.HeightDim = d.Name
			cat.HeightSize = d.Size
		}
	}

	if cat.LatDim != "" && cat.LonDim != "" {
		if cat.LatVals, err = coordValues(src, cat.LatDim, dimSize(dims, cat.LatDim)); err != nil {
			return nil, err
		}
		if cat.LonVals, err = coordValues(src, cat.LonDim, dimSize(dims, cat.LonDim)); err != nil {
			return nil, err
		}
		return cat, nil
	}

	// No axes: look for an unstructured mesh.
	mesh := findMesh(vars)
	if mesh == nil {
		return nil, configErrf("dataset has neither lat/lon dimensions nor mesh coordinates")
	}
	cat.Mesh = mesh
	return cat, nil
}

func matchesRole(name string, attrs map[string]string, names []string, units string) bool {
	for _, n := range names {
		if strings.EqualFold(name, n) {
			return true
		}
	}
	if units != "" && attrs != nil && strings.EqualFold(attrs["units"], units) {
		return true
	}
	return false
}

func dimSize(dims []source.Dimension, name string) int {
	for _, d := range dims {
		if d.Name == name {
			return d.Size
		}
	}
	return 0
}

func coordValues(src source.DataSource, name string, size int) ([]float64, error) {
	seq, err := src.VariableValues(name, size)
	if err != nil {
		return nil, err
	}
	vals := make([]float64, seq.Len())
	for i := range vals {
		vals[i] = seq.At(i)
	}
	return vals, nil
}

// findMesh looks for a longitude/latitude coordinate-variable pair sharing
// a single cell dimension.
func findMesh(vars []source.Variable) *Mesh {
	var lonVar, latVar *source.Variable
	for i := range vars {
		v := &vars[i]
		if len(v.Dimensions) != 1 {
			continue
		}
		switch {
		case describesCoord(v, lonNames, "longitude"):
			lonVar = v
		case describesCoord(v, latNames, "latitude"):
			latVar = v
		}
	}
	if lonVar == nil || latVar == nil || lonVar.Dimensions[0] != latVar.Dimensions[0] {
		return nil
	}
	return &Mesh{LonVar: lonVar.Name, LatVar: latVar.Name, CellDim: lonVar.Dimensions[0]}
}

func describesCoord(v *source.Variable, names []string, keyword string) bool {
	for _, n := range names {
		if strings.EqualFold(v.Name, n) {
			return true
		}
	}
	// ICON-style cell coordinates: clon, clat.
	if strings.EqualFold(v.Name, "c"+keyword[:3]) {
		return true
	}
	for _, key := range []string{"standard_name", "long_name"} {
		if strings.Contains(strings.ToLower(v.Attributes[key]), keyword) {
			return true
		}
	}
	return false
}

// header derives a regular grid header from the coordinate axes.
func (c *Catalog) header() (grid.Header, error) {
	if len(c.LonVals) < 2 || len(c.LatVals) < 2 {
		return grid.Header{}, configErrf("dataset axes too small to grid (%d lon, %d lat)",
			len(c.LonVals), len(c.LatVals))
	}
	dx := math.Abs(c.LonVals[1] - c.LonVals[0])
	dy := math.Abs(c.LatVals[1] - c.LatVals[0])
	north := c.LatVals[0]
	flipped := true // source row 0 is northernmost
	if last := c.LatVals[len(c.LatVals)-1]; last > north {
		north = last
		flipped = false
	}
	return grid.Header{
		Lo1:     c.LonVals[0],
		La1:     north,
		Dx:      dx,
		Dy:      dy,
		Nx:      len(c.LonVals),
		Ny:      len(c.LatVals),
		Flipped: flipped,
		RefTime: c.RefTime,
	}, nil
}

// meshCoords loads the per-cell coordinates in radians.
func (c *Catalog) meshCoords() (lonRad, latRad []float64, err error) {
	size := dimSize(c.Dims, c.Mesh.CellDim)
	lonRad, err = coordValues(c.Source, c.Mesh.LonVar, size)
	if err != nil {
		return nil, nil, err
	}
	latRad, err = coordValues(c.Source, c.Mesh.LatVar, size)
	if err != nil {
		return nil, nil, err
	}
	// Coordinate variables declared in degrees get converted.
	if c.coordInDegrees(c.Mesh.LonVar) {
		for i := range lonRad {
			lonRad[i] *= math.Pi / 180
		}
		for i := range latRad {
			latRad[i] *= math.Pi / 180
		}
	}
	return lonRad, latRad, nil
}

func (c *Catalog) coordInDegrees(name string) bool {
	for _, v := range c.Vars {
		if v.Name == name {
			return strings.Contains(strings.ToLower(v.Attributes["units"]), "degree")
		}
	}
	return false
}

// spatialSize is the number of samples one 2D slice of a variable carries.
func (c *Catalog) spatialSize() int {
	if c.Mesh != nil {
		return dimSize(c.Dims, c.Mesh.CellDim)
	}
	return len(c.LonVals) * len(c.LatVals)
}

// isSpatial reports whether a dimension name is one of the grid axes.
func (c *Catalog) isSpatial(dim string) bool {
	if c.Mesh != nil {
		return dim == c.Mesh.CellDim
	}
	return dim == c.LatDim || dim == c.LonDim
}

// indexVector assembles the fixed leading indices for a variable under a
// selection: the time dimension takes the selected time index, the height
// dimension the selected height index, any other non-spatial dimension
// defaults to 0. Indices are validated here, before any data is fetched.
func (c *Catalog) indexVector(v source.Variable, sel Selection) ([]int, error) {
	var idx []int
	for _, dim := range v.Dimensions {
		if c.isSpatial(dim) {
			// Spatial dimensions stay free; they must be trailing.
			if len(idx) != len(v.Dimensions)-spatialCount(c) {
				return nil, configErrf("variable %q has non-trailing spatial dimensions", v.Name)
			}
			break
		}
		switch dim {
		case c.TimeDim:
			if sel.TimeIndex < 0 || sel.TimeIndex >= c.TimeSize {
				return nil, configErrf("time index %d out of range [0, %d)", sel.TimeIndex, c.TimeSize)
			}
			idx = append(idx, sel.TimeIndex)
		case c.HeightDim:
			if sel.HeightIndex < 0 || sel.HeightIndex >= c.HeightSize {
				return nil, configErrf("height index %d out of range [0, %d)", sel.HeightIndex, c.HeightSize)
			}
			idx = append(idx, sel.HeightIndex)
		default:
			// A dimension the selection knows nothing about; take the
			// first slice.
			idx = append(idx, 0)
		}
	}
	return idx, nil
}

func spatialCount(c *Catalog) int {
	if c.Mesh != nil {
		return 1
	}
	return 2
}

// varies reports whether the variable spans the named dimension.
func varies(v source.Variable, dim string) bool {
	for _, d := range v.Dimensions {
		if d == dim {
			return true
		}
	}
	return false
}
