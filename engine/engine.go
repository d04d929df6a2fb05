// Package engine chains the pipeline stages - metadata discovery, grid
// build, field interpolation, particle animation - through agents reacting
// to upstream update events. Changing the source, selection, or view
// re-triggers the owning stage; every downstream stage follows, and any
// stage's in-flight work is superseded the moment its inputs change.
package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/pthm-cable/gale/agent"
	"github.com/pthm-cable/gale/config"
	"github.com/pthm-cable/gale/field"
	"github.com/pthm-cable/gale/geo"
	"github.com/pthm-cable/gale/grid"
	"github.com/pthm-cable/gale/particles"
	"github.com/pthm-cable/gale/product"
	"github.com/pthm-cable/gale/source"
	"github.com/pthm-cable/gale/telemetry"
)

// View pairs a projection with the viewport it renders into.
type View struct {
	Proj   geo.Projection
	Bounds field.Bounds
}

// Palette maps a normalized value in [0, 1] to an RGBA color. The actual
// color scale is the caller's; the engine only normalizes product values
// into it.
type Palette func(t float64, alpha uint8) [4]uint8

// Options configures an engine.
type Options struct {
	Palette Palette
	Perf    *telemetry.PerfCollector // optional stage timing
	Seed    int64                    // particle RNG seed
}

// Engine owns the four pipeline agents. Stage values are read through the
// agents; stage transitions happen automatically on updates.
type Engine struct {
	cfg     *config.Config
	factory *product.Factory
	opts    Options

	Catalog  *agent.Agent[*product.Catalog]
	Products *agent.Agent[[]*product.Product]
	Field    *agent.Agent[*field.Field]
	Animator *agent.Agent[*particles.Animator]

	mu      sync.Mutex
	src     source.DataSource
	sel     product.Selection
	view    View
	hasView bool
}

// New creates an engine wired per the loaded configuration.
func New(cfg *config.Config, opts Options) *Engine {
	if opts.Palette == nil {
		opts.Palette = func(t float64, alpha uint8) [4]uint8 {
			g := uint8(t * 255)
			return [4]uint8{g, g, g, alpha}
		}
	}
	e := &Engine{
		cfg:  cfg,
		opts: opts,
		factory: product.NewFactory(cfg.Products.CacheSize, grid.RasterOptions{
			CellsPerDegree:  cfg.Raster.CellsPerDegree,
			FillNeighborMin: cfg.Raster.FillNeighborMin,
		}),
	}
	d := cfg.Derived.Debounce
	e.Catalog = agent.New("catalog", agent.WithDebounce[*product.Catalog](d))
	e.Products = agent.New("products", agent.WithDebounce[[]*product.Product](d))
	e.Field = agent.New("field", agent.WithDebounce[*field.Field](d))
	e.Animator = agent.New("animator", agent.WithDebounce[*particles.Animator](d))

	// Stage transitions: each stage re-submits when its upstream updates.
	// Rejections stop the chain; downstream stages keep their previous,
	// still-consistent values.
	e.Catalog.OnUpdate(func(*product.Catalog) { e.submitProducts() })
	e.Products.OnUpdate(func([]*product.Product) { e.submitField() })
	e.Field.OnUpdate(e.submitAnimator)
	return e
}

// SetSource points the pipeline at a dataset and kicks off discovery.
func (e *Engine) SetSource(src source.DataSource) {
	e.mu.Lock()
	e.src = src
	e.mu.Unlock()
	e.submitCatalog()
}

// SetSelection changes the time/height/overlay selection and rebuilds
// products onward.
func (e *Engine) SetSelection(sel product.Selection) {
	e.mu.Lock()
	e.sel = sel
	e.mu.Unlock()
	e.submitProducts()
}

// Selection returns the current selection.
func (e *Engine) Selection() product.Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel
}

// SetView changes the projection/viewport and rebuilds the field onward.
func (e *Engine) SetView(v View) {
	e.mu.Lock()
	e.view = v
	e.hasView = true
	e.mu.Unlock()
	e.submitField()
}

// Stop cancels every stage. The animator's loop exits and releases the
// current field.
func (e *Engine) Stop() {
	e.Animator.Cancel()
	e.Field.Cancel()
	e.Products.Cancel()
	e.Catalog.Cancel()
}

func (e *Engine) stageTimer(stage string) func() {
	if e.opts.Perf == nil {
		return func() {}
	}
	return e.opts.Perf.Time(stage)
}

func (e *Engine) submitCatalog() {
	e.mu.Lock()
	src := e.src
	e.mu.Unlock()
	if src == nil {
		return
	}
	e.Catalog.Submit(func(ctx context.Context) (*product.Catalog, error) {
		defer e.stageTimer(telemetry.StageCatalog)()
		cat, err := product.Discover(src)
		if err != nil {
			return nil, err
		}
		// The source may have been swapped mid-discovery; self-abort
		// rather than publish a catalog for the wrong dataset.
		e.mu.Lock()
		current := e.src
		e.mu.Unlock()
		if current != src {
			return nil, agent.ErrCancelled
		}
		return cat, ctx.Err()
	})
}

func (e *Engine) submitProducts() {
	cat, ok := e.Catalog.Value()
	if !ok {
		return
	}
	e.mu.Lock()
	sel := e.sel
	e.mu.Unlock()
	e.Products.Submit(func(ctx context.Context) ([]*product.Product, error) {
		defer e.stageTimer(telemetry.StageProducts)()
		products, err := e.factory.Create(cat, sel)
		if err != nil {
			return nil, err
		}
		return products, ctx.Err()
	})
}

func (e *Engine) submitField() {
	products, ok := e.Products.Value()
	if !ok {
		return
	}
	e.mu.Lock()
	view, hasView := e.view, e.hasView
	e.mu.Unlock()
	if !hasView {
		return
	}

	primary := products[0]
	coloring := primary
	var overlayGrid *grid.Grid
	if len(products) > 1 {
		coloring = products[1]
		overlayGrid = coloring.Grid
	}
	lo, hi := coloring.Bounds[0], coloring.Bounds[1]
	span := hi - lo
	if span == 0 {
		span = 1
	}
	gradient := func(v float64, alpha uint8) [4]uint8 {
		t := (v - lo) / span
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		return e.opts.Palette(t, alpha)
	}

	plan := field.Plan{
		Primary:       primary.Grid,
		Overlay:       overlayGrid,
		Proj:          view.Proj,
		Bounds:        view.Bounds,
		Gradient:      gradient,
		VelocityScale: e.cfg.Particles.VelocityScale * float64(view.Bounds.Height),
		BatchBudget:   e.cfg.Derived.BatchBudget,
		BatchPause:    e.cfg.Derived.BatchPause,
		Progress: func(done float64) {
			slog.Debug("field interpolation", "done", done)
		},
	}
	e.Field.Submit(func(ctx context.Context) (*field.Field, error) {
		defer e.stageTimer(telemetry.StageField)()
		return field.Interpolate(ctx, plan)
	})
}

// submitAnimator starts an animation over the field delivered by one Field
// update. The field is taken from the update event, not re-read from the
// agent: two back-to-back updates must hand each animator its own field,
// so a superseded animator's release can never touch the field a newer
// animator holds.
func (e *Engine) submitAnimator(f *field.Field) {
	products, ok := e.Products.Value()
	if !ok {
		return
	}
	cfg := e.cfg
	pool := int(float64(f.Bounds().Width) * cfg.Particles.Multiplier)
	if pool > cfg.Particles.MaxCount {
		pool = cfg.Particles.MaxCount
	}
	opts := particles.Options{
		PoolSize:      pool,
		MaxAge:        cfg.Particles.MaxAge,
		Buckets:       cfg.Particles.SpeedBuckets,
		MaxIntensity:  products[0].Bounds[1],
		FrameInterval: cfg.Derived.FrameInterval,
	}
	seed := e.opts.Seed
	e.Animator.Submit(func(ctx context.Context) (*particles.Animator, error) {
		an := particles.New(f, opts, rand.New(rand.NewSource(seed)))
		// The loop is governed by this task's token: the next submission
		// or an explicit Cancel stops it and releases the field.
		go an.Run(ctx)
		return an, ctx.Err()
	})
}
