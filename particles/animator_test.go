package particles

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/pthm-cable/gale/field"
	"github.com/pthm-cable/gale/geo"
	"github.com/pthm-cable/gale/grid"
)

// testField builds a small fully defined field with uniform eastward wind.
func testField(t *testing.T) *field.Field {
	t.Helper()
	h := grid.Header{Lo1: 0, La1: 90, Dx: 1, Dy: 1, Nx: 360, Ny: 181, Flipped: true}
	g := grid.BuildVector(h,
		func(i int) float64 { return 10 },
		func(i int) float64 { return 0 },
	)
	f, err := field.Interpolate(context.Background(), field.Plan{
		Primary:       g,
		Proj:          &geo.Equirectangular{Scale: 1, CX: 30, CY: 20},
		Bounds:        field.Bounds{X: 0, Y: 0, Width: 60, Height: 40},
		VelocityScale: 0.1,
	})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestStepMovesParticlesEastward(t *testing.T) {
	f := testField(t)
	an := New(f, Options{PoolSize: 50, MaxAge: 1000, MaxIntensity: 20}, rand.New(rand.NewSource(1)))

	before := make([]Particle, len(an.particles))
	copy(before, an.particles)

	an.Step()

	strokes := an.Strokes(nil)
	if len(strokes) == 0 {
		t.Fatal("no strokes after a step over a fully defined field")
	}
	for _, s := range strokes {
		if s.X2 <= s.X1 {
			t.Fatalf("stroke moved west: %+v (wind is eastward)", s)
		}
		if s.Bucket < 0 || s.Bucket >= an.Buckets() {
			t.Fatalf("stroke bucket %d out of range [0, %d)", s.Bucket, an.Buckets())
		}
	}

	moved := 0
	for i := range an.particles {
		if an.particles[i].X != before[i].X {
			moved++
		}
	}
	if moved == 0 {
		t.Error("no particle moved")
	}
}

func TestStepAgesAndRelocates(t *testing.T) {
	f := testField(t)
	an := New(f, Options{PoolSize: 10, MaxAge: 2}, rand.New(rand.NewSource(2)))

	// Force every particle past the age limit; the next step relocates
	// them all and resets their ages.
	for i := range an.particles {
		an.particles[i].Age = 3
	}
	an.Step()
	fresh := 0
	for i := range an.particles {
		switch age := an.particles[i].Age; age {
		case 1:
			fresh++
		case an.opts.MaxAge + 1:
			// Relocated next to the field edge and expired immediately.
		default:
			t.Fatalf("particle %d age = %d after relocation, want 1 or %d",
				i, age, an.opts.MaxAge+1)
		}
	}
	if fresh == 0 {
		t.Error("no particle survived relocation")
	}
}

func TestStepExpiresUndefinedParticles(t *testing.T) {
	f := testField(t)
	an := New(f, Options{PoolSize: 4, MaxAge: 100}, rand.New(rand.NewSource(3)))

	// Park a particle outside the field: it must expire without a stroke.
	an.particles[0].X, an.particles[0].Y = -100, -100
	an.particles[0].Age = 0
	an.Step()

	if got := an.particles[0].Age; got != an.opts.MaxAge+1 {
		t.Errorf("stranded particle age = %d, want %d", got, an.opts.MaxAge+1)
	}
	for _, s := range an.Strokes(nil) {
		if s.X1 == -100 {
			t.Error("stranded particle produced a stroke")
		}
	}
}

func TestBucketFor(t *testing.T) {
	f := testField(t)
	an := New(f, Options{PoolSize: 1, Buckets: 10, MaxIntensity: 20}, rand.New(rand.NewSource(4)))

	tests := []struct {
		mag  float64
		want int
	}{
		{0, 0},
		{1.9, 0},
		{2, 1},
		{10, 5},
		{19.9, 9},
		{20, 9},  // at the cap
		{500, 9}, // beyond the cap clamps
	}
	for _, tt := range tests {
		if got := an.bucketFor(tt.mag); got != tt.want {
			t.Errorf("bucketFor(%v) = %d, want %d", tt.mag, got, tt.want)
		}
	}
}

func TestStrokesReusesDst(t *testing.T) {
	f := testField(t)
	an := New(f, Options{PoolSize: 20, MaxAge: 1000}, rand.New(rand.NewSource(5)))
	an.Step()

	dst := make([]Stroke, 0, 64)
	out := an.Strokes(dst)
	if cap(out) != cap(dst) {
		t.Errorf("Strokes grew the destination: cap %d, want %d", cap(out), cap(dst))
	}
	// A second copy into the same slice must match.
	again := an.Strokes(out)
	if len(again) != len(out) {
		t.Errorf("second copy has %d strokes, want %d", len(again), len(out))
	}
}

func TestRunReleasesFieldOnCancel(t *testing.T) {
	f := testField(t)
	an := New(f, Options{PoolSize: 10, FrameInterval: 5 * time.Millisecond}, rand.New(rand.NewSource(6)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		an.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancellation")
	}
	if !f.Released() {
		t.Error("field not released after the loop stopped")
	}
}
