package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/gale/config"
	"github.com/pthm-cable/gale/field"
	"github.com/pthm-cable/gale/geo"
	"github.com/pthm-cable/gale/grid"
	"github.com/pthm-cable/gale/product"
	"github.com/pthm-cable/gale/source"
)

// testConfig loads the defaults and tightens the timing knobs so the
// pipeline settles quickly under test.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Agent.DebounceMS = 1
	cfg.Field.BatchBudgetMS = 50
	cfg.Field.BatchPauseMS = 1
	cfg.Particles.FrameIntervalMS = 5
	cfg.Particles.MaxCount = 100
	recompute(cfg)
	return cfg
}

func recompute(cfg *config.Config) {
	cfg.Derived.BatchBudget = time.Duration(cfg.Field.BatchBudgetMS) * time.Millisecond
	cfg.Derived.BatchPause = time.Duration(cfg.Field.BatchPauseMS) * time.Millisecond
	cfg.Derived.FrameInterval = time.Duration(cfg.Particles.FrameIntervalMS) * time.Millisecond
	cfg.Derived.Debounce = time.Duration(cfg.Agent.DebounceMS) * time.Millisecond
}

// testDataset is a coarse global dataset with uniform wind and a
// temperature gradient, over 2 times and 2 levels.
func testDataset() *source.MemorySource {
	const (
		nLon  = 36
		nLat  = 19
		nTime = 2
		nLev  = 2
	)
	src := source.NewMemorySource()
	src.SetAttribute("title", "engine test dataset")

	src.AddDimension("time", nTime, nil)
	src.AddDimension("lev", nLev, nil)
	src.AddDimension("lat", nLat, map[string]string{"units": "degrees_north"})
	src.AddDimension("lon", nLon, map[string]string{"units": "degrees_east"})

	lats := make([]float64, nLat)
	for i := range lats {
		lats[i] = 90 - float64(i)*10
	}
	lons := make([]float64, nLon)
	for i := range lons {
		lons[i] = float64(i) * 10
	}
	src.MustAddVariable("lat", []string{"lat"}, nil, lats)
	src.MustAddVariable("lon", []string{"lon"}, nil, lons)

	n := nTime * nLev * nLat * nLon
	us := make([]float64, n)
	vs := make([]float64, n)
	ts := make([]float64, n)
	for i := range us {
		us[i] = 3
		vs[i] = 4
		ts[i] = 250 + float64(i%nLon)
	}
	dims := []string{"time", "lev", "lat", "lon"}
	src.MustAddVariable("u", dims, map[string]string{"units": "m s-1"}, us)
	src.MustAddVariable("v", dims, map[string]string{"units": "m s-1"}, vs)
	src.MustAddVariable("t", dims, map[string]string{"units": "K"}, ts)
	return src
}

func testView() View {
	return View{
		Proj:   &geo.Equirectangular{Scale: 1, CX: 20, CY: 15},
		Bounds: field.Bounds{X: 0, Y: 0, Width: 40, Height: 30},
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	eng := New(testConfig(t), Options{Seed: 1})
	defer eng.Stop()

	eng.SetSelection(product.Selection{Overlay: product.OverlayTemperature})
	eng.SetView(testView())
	eng.SetSource(testDataset())

	waitFor(t, "animator", func() bool { _, ok := eng.Animator.Value(); return ok })

	cat, _ := eng.Catalog.Value()
	if cat.TimeSize != 2 || cat.HeightSize != 2 {
		t.Errorf("catalog sizes = (%d, %d), want (2, 2)", cat.TimeSize, cat.HeightSize)
	}

	products, _ := eng.Products.Value()
	if len(products) != 2 {
		t.Fatalf("got %d products, want wind + temperature", len(products))
	}
	if products[0].Bounds != [2]float64{0, 5} {
		t.Errorf("wind bounds = %v, want [0, 5]", products[0].Bounds)
	}

	f, _ := eng.Field.Value()
	if !f.IsDefined(20, 15) {
		t.Error("field undefined at the viewport center")
	}

	an, _ := eng.Animator.Value()
	waitFor(t, "strokes", func() bool { return len(an.Strokes(nil)) > 0 })
}

func TestSelectionChangeRebuildsDownstream(t *testing.T) {
	eng := New(testConfig(t), Options{Seed: 1})
	defer eng.Stop()

	eng.SetSelection(product.Selection{})
	eng.SetView(testView())
	eng.SetSource(testDataset())
	waitFor(t, "first field", func() bool { _, ok := eng.Field.Value(); return ok })
	first, _ := eng.Field.Value()

	// A burst of selection changes: only the last one may win.
	for h := 0; h < 2; h++ {
		for ti := 0; ti < 2; ti++ {
			eng.SetSelection(product.Selection{TimeIndex: ti, HeightIndex: h})
		}
	}
	final := product.Selection{TimeIndex: 1, HeightIndex: 1}
	if got := eng.Selection(); got != final {
		t.Fatalf("Selection() = %+v, want %+v", got, final)
	}

	waitFor(t, "rebuilt field", func() bool {
		f, ok := eng.Field.Value()
		return ok && f != first
	})
	products, _ := eng.Products.Value()
	if !strings.HasSuffix(products[0].Description, "lev 1") {
		t.Errorf("description = %q, want the final selection's level", products[0].Description)
	}
}

func TestBadSelectionKeepsPreviousProducts(t *testing.T) {
	eng := New(testConfig(t), Options{Seed: 1})
	defer eng.Stop()

	eng.SetSelection(product.Selection{})
	eng.SetView(testView())
	eng.SetSource(testDataset())
	waitFor(t, "products", func() bool { _, ok := eng.Products.Value(); return ok })
	before, _ := eng.Products.Value()

	rejected := make(chan error, 1)
	eng.Products.OnReject(func(err error) { rejected <- err })
	eng.SetSelection(product.Selection{TimeIndex: 99})

	select {
	case <-rejected:
	case <-time.After(5 * time.Second):
		t.Fatal("out-of-range selection was not rejected")
	}
	after, _ := eng.Products.Value()
	if len(after) != len(before) || after[0] != before[0] {
		t.Error("rejected selection replaced the products value")
	}
}

func TestStopReleasesField(t *testing.T) {
	eng := New(testConfig(t), Options{Seed: 1})

	eng.SetSelection(product.Selection{})
	eng.SetView(testView())
	eng.SetSource(testDataset())
	waitFor(t, "animator", func() bool { _, ok := eng.Animator.Value(); return ok })

	f, _ := eng.Field.Value()
	eng.Stop()
	waitFor(t, "field release", f.Released)
}

func TestSupersededAnimatorReleasesOnlyItsField(t *testing.T) {
	eng := New(testConfig(t), Options{Seed: 1})
	defer eng.Stop()

	eng.SetSelection(product.Selection{})
	eng.SetView(testView())
	eng.SetSource(testDataset())
	waitFor(t, "animator", func() bool { _, ok := eng.Animator.Value(); return ok })

	buildField := func() *field.Field {
		t.Helper()
		h := grid.Header{Lo1: 0, La1: 90, Dx: 10, Dy: 10, Nx: 36, Ny: 19, Flipped: true}
		g := grid.BuildVector(h,
			func(i int) float64 { return 3 },
			func(i int) float64 { return 4 },
		)
		v := testView()
		f, err := field.Interpolate(context.Background(), field.Plan{
			Primary:       g,
			Proj:          v.Proj,
			Bounds:        v.Bounds,
			VelocityScale: 1,
		})
		if err != nil {
			t.Fatal(err)
		}
		return f
	}

	// Two back-to-back field updates: each animator must hold the field
	// of its own update, and superseding the first must not release the
	// second's field.
	f1 := buildField()
	f2 := buildField()
	eng.submitAnimator(f1)
	waitFor(t, "first animator", func() bool {
		an, ok := eng.Animator.Value()
		return ok && an.Field() == f1
	})
	eng.submitAnimator(f2)
	waitFor(t, "superseded field release", f1.Released)
	waitFor(t, "second animator", func() bool {
		an, ok := eng.Animator.Value()
		return ok && an.Field() == f2
	})
	if f2.Released() {
		t.Error("the current animator's field was released by its superseded predecessor")
	}
}

func TestSourceSwapSupersedesCatalog(t *testing.T) {
	eng := New(testConfig(t), Options{Seed: 1})
	defer eng.Stop()

	eng.SetSelection(product.Selection{})
	eng.SetView(testView())

	first := testDataset()
	second := testDataset()
	second.SetAttribute("title", "second dataset")

	eng.SetSource(first)
	eng.SetSource(second)

	waitFor(t, "catalog", func() bool {
		cat, ok := eng.Catalog.Value()
		return ok && cat.Title == "second dataset"
	})
}
