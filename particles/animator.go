// Package particles advances a fixed pool of particles through a built
// field, bucketing them by speed for batched stroke rendering.
package particles

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/pthm-cable/gale/field"
)

// Particle is transient simulation state: current position, target
// position, and age in frames.
type Particle struct {
	X, Y   float64
	XT, YT float64
	Age    int
}

// Stroke is one renderable particle segment for the current frame,
// tagged with its speed bucket.
type Stroke struct {
	X1, Y1 float64
	X2, Y2 float64
	Bucket int
}

// Options tunes the animation.
type Options struct {
	PoolSize      int           // fixed number of particles
	MaxAge        int           // frames before relocation
	Buckets       int           // speed quantization levels
	MaxIntensity  float64       // speed mapped to the last bucket
	FrameInterval time.Duration // simulation tick interval
}

func (o Options) withDefaults() Options {
	if o.PoolSize <= 0 {
		o.PoolSize = 1000
	}
	if o.MaxAge <= 0 {
		o.MaxAge = 100
	}
	if o.Buckets <= 0 {
		o.Buckets = 10
	}
	if o.MaxIntensity <= 0 {
		o.MaxIntensity = 17
	}
	if o.FrameInterval <= 0 {
		o.FrameInterval = 40 * time.Millisecond
	}
	return o
}

// Animator owns a particle pool over one field. The pool size is fixed at
// start; particles leaving the field or exceeding the max age relocate to
// new random valid positions.
type Animator struct {
	f    *field.Field
	opts Options
	rng  *rand.Rand

	mu        sync.Mutex
	particles []Particle
	strokes   []Stroke
}

// New seeds a pool of particles at random valid positions with randomized
// initial ages, so relocations spread out instead of arriving in waves.
func New(f *field.Field, opts Options, rng *rand.Rand) *Animator {
	opts = opts.withDefaults()
	a := &Animator{
		f:         f,
		opts:      opts,
		rng:       rng,
		particles: make([]Particle, opts.PoolSize),
	}
	for i := range a.particles {
		p := &a.particles[i]
		p.X, p.Y, _ = f.Randomize(rng)
		p.Age = rng.Intn(opts.MaxAge)
	}
	return a
}

// Field returns the field the animator advances particles through.
func (a *Animator) Field() *field.Field { return a.f }

// Buckets returns the number of speed buckets strokes are tagged with.
func (a *Animator) Buckets() int { return a.opts.Buckets }

// Step advances the simulation one tick: relocate aged-out particles,
// expire particles whose current or target pixel is undefined, and bucket
// the rest by quantized speed while moving them to their targets.
func (a *Animator) Step() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.strokes = a.strokes[:0]
	for i := range a.particles {
		p := &a.particles[i]
		if p.Age > a.opts.MaxAge {
			if x, y, ok := a.f.Randomize(a.rng); ok {
				p.X, p.Y = x, y
			}
			p.Age = 0
		}
		if du, dv, m, ok := a.f.At(p.X, p.Y); !ok {
			p.Age = a.opts.MaxAge
		} else {
			xt, yt := p.X+du, p.Y+dv
			if a.f.IsDefined(xt, yt) {
				p.XT, p.YT = xt, yt
				a.strokes = append(a.strokes, Stroke{
					X1: p.X, Y1: p.Y,
					X2: xt, Y2: yt,
					Bucket: a.bucketFor(m),
				})
				p.X, p.Y = xt, yt
			} else {
				// Target is undefined: age out in place, no motion.
				p.Age = a.opts.MaxAge
			}
		}
		p.Age++
	}
}

func (a *Animator) bucketFor(m float64) int {
	i := int(m / a.opts.MaxIntensity * float64(a.opts.Buckets))
	if i >= a.opts.Buckets {
		i = a.opts.Buckets - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Strokes copies the current frame's strokes into dst, reusing its
// capacity. Safe to call while Run is ticking.
func (a *Animator) Strokes(dst []Stroke) []Stroke {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append(dst[:0], a.strokes...)
}

// Run steps the animation on a fixed frame interval, decoupled from the
// interpolation cadence, until the context is cancelled. On cancellation
// the field's resources are released and the loop returns.
func (a *Animator) Run(ctx context.Context) {
	ticker := time.NewTicker(a.opts.FrameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.f.Release()
			return
		case <-ticker.C:
			a.Step()
		}
	}
}
