package field

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/pthm-cable/gale/geo"
	"github.com/pthm-cable/gale/grid"
)

// Gradient maps an overlay value to an RGBA color. The palette itself is
// the caller's business; the interpolator only drives it.
type Gradient func(value float64, alpha uint8) [4]uint8

// Plan is everything one field build needs.
type Plan struct {
	// Primary is the vector grid driving particle motion.
	Primary *grid.Grid
	// Overlay optionally supplies the scalar used for coloring; when nil
	// the primary magnitude colors the overlay instead.
	Overlay *grid.Grid

	Proj     geo.Projection
	Bounds   Bounds
	Gradient Gradient

	// VelocityScale converts wind speed to pixels of particle motion per
	// frame, before distortion correction.
	VelocityScale float64
	// OverlayAlpha is the alpha written for defined overlay pixels.
	// Zero means the default (160).
	OverlayAlpha uint8

	// BatchBudget caps how long the interpolator runs before yielding;
	// BatchPause is how long it yields for. Zero values take defaults
	// (100ms, 25ms).
	BatchBudget time.Duration
	BatchPause  time.Duration

	// Progress, when set, receives the fraction of viewport width
	// processed at each yield point and 1 on completion.
	Progress func(done float64)
}

func (p Plan) withDefaults() (Plan, error) {
	switch {
	case p.Primary == nil || !p.Primary.IsVector():
		return p, errors.New("field: plan needs a vector primary grid")
	case p.Proj == nil:
		return p, errors.New("field: plan needs a projection")
	case p.Bounds.Width <= 0 || p.Bounds.Height <= 0:
		return p, errors.New("field: plan needs a non-empty viewport")
	}
	if p.Gradient == nil {
		p.Gradient = func(float64, uint8) [4]uint8 { return [4]uint8{0, 0, 0, 0} }
	}
	if p.OverlayAlpha == 0 {
		p.OverlayAlpha = 160
	}
	if p.BatchBudget <= 0 {
		p.BatchBudget = 100 * time.Millisecond
	}
	if p.BatchPause <= 0 {
		p.BatchPause = 25 * time.Millisecond
	}
	return p, nil
}

// Interpolate builds a field from a plan. The work runs as a column queue
// with a wall-clock deadline: when a batch exhausts its budget the
// interpolator reports progress, checks for cancellation, and pauses
// briefly before resuming. Cancellation discards partial results.
func Interpolate(ctx context.Context, plan Plan) (*Field, error) {
	plan, err := plan.withDefaults()
	if err != nil {
		return nil, err
	}
	f := newField(plan.Bounds)
	b := plan.Bounds

	deadline := time.Now().Add(plan.BatchBudget)
	for x := b.X; x < b.X+b.Width; x += 2 {
		interpolateColumn(&plan, f, x)
		if time.Now().After(deadline) {
			if plan.Progress != nil {
				plan.Progress(float64(x+2-b.X) / float64(b.Width))
			}
			select {
			case <-ctx.Done():
				f.Release()
				return nil, ctx.Err()
			case <-time.After(plan.BatchPause):
			}
			deadline = time.Now().Add(plan.BatchBudget)
		}
	}
	if err := ctx.Err(); err != nil {
		f.Release()
		return nil, err
	}
	if plan.Progress != nil {
		plan.Progress(1)
	}
	return f, nil
}

// interpolateColumn fills one 2-pixel-wide column: inverse-project each
// even pixel pair, interpolate the primary grid there, distortion-correct
// the motion vector, and write the overlay color block.
func interpolateColumn(plan *Plan, f *Field, x int) {
	b := plan.Bounds
	col := make([]vec, (b.Height+1)/2)
	for i := range col {
		col[i] = holeVec
	}
	for y := b.Y; y < b.Y+b.Height; y += 2 {
		lon, lat, visible := plan.Proj.Invert(float64(x), float64(y))
		if !visible {
			// Off the globe: excluded from the mask, stays transparent.
			continue
		}
		colorVal := math.NaN()
		if u, v, m, ok := plan.Primary.Vector(lon, lat); ok {
			du, dv := geo.Distort(plan.Proj, lon, lat, float64(x), float64(y), plan.VelocityScale, u, v)
			col[(y-b.Y)/2] = vec{du, dv, m}
			colorVal = m
		}
		if plan.Overlay != nil {
			if ov, ok := plan.Overlay.Scalar(lon, lat); ok {
				colorVal = ov
			} else {
				colorVal = math.NaN()
			}
		}
		if !math.IsNaN(colorVal) {
			f.setBlock(x, y, plan.Gradient(colorVal, plan.OverlayAlpha))
		}
	}
	f.columns[(x-b.X)/2] = col
}
