package product

import (
	"fmt"
	"math"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pthm-cable/gale/grid"
	"github.com/pthm-cable/gale/source"
)

var (
	windUNames = []string{"u", "ugrd", "u10", "uas", "u-component_of_wind", "eastward_wind"}
	windVNames = []string{"v", "vgrd", "v10", "vas", "v-component_of_wind", "northward_wind"}
	tempNames  = []string{"t", "tmp", "temp", "t2m", "tas", "air_temperature", "temperature"}
)

type cacheKey struct {
	cat    *Catalog
	kind   string
	time   int
	height int
}

// Factory builds products from a catalog and a selection, keeping recently
// built grids in an LRU cache keyed by (catalog, overlay, time, height).
// A new catalog means new cache keys, so stale grids age out naturally.
type Factory struct {
	raster grid.RasterOptions
	cache  *lru.Cache[cacheKey, *Product]
}

// NewFactory creates a factory with the given cache capacity and
// rasterization tuning.
func NewFactory(cacheSize int, raster grid.RasterOptions) *Factory {
	if cacheSize < 1 {
		cacheSize = 1
	}
	cache, _ := lru.New[cacheKey, *Product](cacheSize)
	return &Factory{raster: raster, cache: cache}
}

// Create builds the primary wind product plus, when the selection names
// one, a single overlay product. Exactly one grid is built per (variable,
// time, height) selection; repeats come from the cache.
func (f *Factory) Create(cat *Catalog, sel Selection) ([]*Product, error) {
	primary, err := f.product(cat, OverlayWind, sel)
	if err != nil {
		return nil, err
	}
	products := []*Product{primary}
	if sel.Overlay != OverlayNone && sel.Overlay != OverlayWind {
		overlay, err := f.product(cat, sel.Overlay, sel)
		if err != nil {
			return nil, err
		}
		products = append(products, overlay)
	}
	return products, nil
}

func (f *Factory) product(cat *Catalog, kind string, sel Selection) (*Product, error) {
	key := cacheKey{cat: cat, kind: kind, time: sel.TimeIndex, height: sel.HeightIndex}
	if p, ok := f.cache.Get(key); ok {
		return p, nil
	}
	var (
		p   *Product
		err error
	)
	switch kind {
	case OverlayWind:
		p, err = f.buildWind(cat, sel)
	case OverlayTemperature:
		p, err = f.buildTemperature(cat, sel)
	default:
		p, err = f.buildScalar(cat, sel, kind)
	}
	if err != nil {
		return nil, err
	}
	f.cache.Add(key, p)
	return p, nil
}

// fetch validates the selection against the variable's dimensions, then
// reads one 2D slice of samples. Validation happens strictly before the
// read so a bad index never touches the backend.
func (f *Factory) fetch(cat *Catalog, v source.Variable, sel Selection) ([]float64, error) {
	idx, err := cat.indexVector(v, sel)
	if err != nil {
		return nil, err
	}
	seq, err := cat.Source.Values(v.Name, idx...)
	if err != nil {
		return nil, err
	}
	want := cat.spatialSize()
	if seq.Len() != want {
		return nil, fmt.Errorf("product: variable %q yielded %d samples, want %d", v.Name, seq.Len(), want)
	}
	out := make([]float64, want)
	for i := range out {
		out[i] = seq.At(i)
	}
	return out, nil
}

func (f *Factory) scalarGrid(cat *Catalog, vals []float64) (*grid.Grid, error) {
	if cat.Mesh != nil {
		lonRad, latRad, err := cat.meshCoords()
		if err != nil {
			return nil, err
		}
		return grid.Rasterize(lonRad, latRad, vals, f.raster)
	}
	hdr, err := cat.header()
	if err != nil {
		return nil, err
	}
	return grid.Build(hdr, func(i int) float64 { return vals[i] }), nil
}

func (f *Factory) vectorGrid(cat *Catalog, us, vs []float64) (*grid.Grid, error) {
	if cat.Mesh != nil {
		lonRad, latRad, err := cat.meshCoords()
		if err != nil {
			return nil, err
		}
		return grid.RasterizeVector(lonRad, latRad, us, vs, f.raster)
	}
	hdr, err := cat.header()
	if err != nil {
		return nil, err
	}
	return grid.BuildVector(hdr,
		func(i int) float64 { return us[i] },
		func(i int) float64 { return vs[i] },
	), nil
}

func (f *Factory) buildWind(cat *Catalog, sel Selection) (*Product, error) {
	uVar, ok := findVariable(cat.Vars, windUNames, "eastward")
	if !ok {
		return nil, configErrf("no eastward wind component variable in dataset")
	}
	vVar, ok := findVariable(cat.Vars, windVNames, "northward")
	if !ok {
		return nil, configErrf("no northward wind component variable in dataset")
	}
	us, err := f.fetch(cat, uVar, sel)
	if err != nil {
		return nil, err
	}
	vs, err := f.fetch(cat, vVar, sel)
	if err != nil {
		return nil, err
	}
	g, err := f.vectorGrid(cat, us, vs)
	if err != nil {
		return nil, err
	}
	maxMag := 0.0
	g.ForEachVector(func(_, _, u, v float64) {
		if m := math.Hypot(u, v); !math.IsNaN(m) && m > maxMag {
			maxMag = m
		}
	})
	return &Product{
		Grid:        g,
		Kind:        OverlayWind,
		Units:       WindUnits(),
		Bounds:      [2]float64{0, maxMag},
		Description: "Wind" + levelSuffix(cat, sel),
	}, nil
}

func (f *Factory) buildTemperature(cat *Catalog, sel Selection) (*Product, error) {
	tVar, ok := findVariable(cat.Vars, tempNames, "temperature")
	if !ok {
		return nil, configErrf("no temperature variable in dataset")
	}
	vals, err := f.fetch(cat, tVar, sel)
	if err != nil {
		return nil, err
	}
	g, err := f.scalarGrid(cat, vals)
	if err != nil {
		return nil, err
	}
	lo, hi := scalarBounds(g)
	return &Product{
		Grid:        g,
		Kind:        OverlayTemperature,
		Units:       TemperatureUnits(),
		Bounds:      [2]float64{lo, hi},
		Description: "Temperature" + levelSuffix(cat, sel),
	}, nil
}

func (f *Factory) buildScalar(cat *Catalog, sel Selection, name string) (*Product, error) {
	var match *source.Variable
	for i := range cat.Vars {
		v := &cat.Vars[i]
		if strings.EqualFold(v.Name, name) && variesOverGrid(cat, *v) {
			match = v
			break
		}
	}
	if match == nil {
		return nil, configErrf("no variable %q over the dataset grid", name)
	}
	vals, err := f.fetch(cat, *match, sel)
	if err != nil {
		return nil, err
	}
	g, err := f.scalarGrid(cat, vals)
	if err != nil {
		return nil, err
	}
	lo, hi := scalarBounds(g)
	return &Product{
		Grid:        g,
		Kind:        match.Name,
		Units:       DerivedUnits(match.Attributes["units"], lo, hi),
		Bounds:      [2]float64{lo, hi},
		Description: match.Name + levelSuffix(cat, sel),
	}, nil
}

// findVariable locates a variable by name list, falling back to a
// descriptive-attribute match.
func findVariable(vars []source.Variable, names []string, keyword string) (source.Variable, bool) {
	for _, v := range vars {
		for _, n := range names {
			if strings.EqualFold(v.Name, n) {
				return v, true
			}
		}
	}
	for _, v := range vars {
		for _, key := range []string{"standard_name", "long_name"} {
			if strings.Contains(strings.ToLower(v.Attributes[key]), keyword) {
				return v, true
			}
		}
	}
	return source.Variable{}, false
}

func variesOverGrid(cat *Catalog, v source.Variable) bool {
	if cat.Mesh != nil {
		return varies(v, cat.Mesh.CellDim)
	}
	return varies(v, cat.LatDim) && varies(v, cat.LonDim)
}

func scalarBounds(g *grid.Grid) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	g.ForEach(func(_, _, v float64) {
		if math.IsNaN(v) {
			return
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	})
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

func levelSuffix(cat *Catalog, sel Selection) string {
	if cat.HeightDim == "" {
		return ""
	}
	return fmt.Sprintf(" @ %s %d", cat.HeightDim, sel.HeightIndex)
}
