// Package renderer draws the field overlay and particle strokes with
// raylib. It consumes the engine's outputs; all computation lives
// upstream.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gale/field"
	"github.com/pthm-cable/gale/particles"
)

// trailDepth is how many past frames of strokes stay visible, fading out.
const trailDepth = 4

// GlobeRenderer owns the GPU-side overlay texture and the per-bucket
// stroke colors for particle rendering. Recent stroke frames are kept in
// a small ring so trails fade instead of vanishing.
type GlobeRenderer struct {
	overlayTex rl.Texture2D
	hasOverlay bool
	bounds     field.Bounds

	colors []rl.Color
	trail  [trailDepth][]particles.Stroke
	head   int
}

// New creates a renderer with the given number of particle speed buckets.
// Slow particles draw dim, fast ones bright.
func New(buckets int) *GlobeRenderer {
	if buckets < 1 {
		buckets = 1
	}
	span := buckets - 1
	if span < 1 {
		span = 1
	}
	colors := make([]rl.Color, buckets)
	for i := range colors {
		v := uint8(90 + i*165/span)
		colors[i] = rl.Color{R: v, G: v, B: v, A: 255}
	}
	return &GlobeRenderer{colors: colors}
}

// SetField uploads a freshly built field's overlay buffer to the GPU.
// Must run on the render thread.
func (r *GlobeRenderer) SetField(f *field.Field) {
	b := f.Bounds()
	overlay := f.Overlay()
	if overlay == nil {
		return
	}
	if r.hasOverlay && (r.bounds.Width != b.Width || r.bounds.Height != b.Height) {
		rl.UnloadTexture(r.overlayTex)
		r.hasOverlay = false
	}
	if !r.hasOverlay {
		img := rl.GenImageColor(b.Width, b.Height, rl.Blank)
		r.overlayTex = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		r.hasOverlay = true
	}
	pixels := make([]color.RGBA, b.Width*b.Height)
	for i := range pixels {
		pixels[i] = color.RGBA{
			R: overlay[i*4],
			G: overlay[i*4+1],
			B: overlay[i*4+2],
			A: overlay[i*4+3],
		}
	}
	rl.UpdateTexture(r.overlayTex, pixels)
	r.bounds = b
}

// Draw renders the globe outline, the overlay, and the particle strokes.
// The last few frames of strokes draw at decaying alpha, oldest first, so
// particles leave short fading trails.
func (r *GlobeRenderer) Draw(cx, cy int32, radius float32, an *particles.Animator) {
	rl.DrawCircleLines(cx, cy, radius, rl.Color{R: 70, G: 70, B: 80, A: 255})

	if r.hasOverlay {
		rl.DrawTexture(r.overlayTex, int32(r.bounds.X), int32(r.bounds.Y), rl.White)
	}

	if an == nil {
		return
	}
	r.trail[r.head] = an.Strokes(r.trail[r.head])
	for age := trailDepth - 1; age >= 0; age-- {
		frame := r.trail[(r.head-age+trailDepth)%trailDepth]
		fade := float32(trailDepth-age) / trailDepth
		for _, s := range frame {
			bucket := s.Bucket
			if bucket >= len(r.colors) {
				bucket = len(r.colors) - 1
			}
			rl.DrawLineV(
				rl.Vector2{X: float32(s.X1), Y: float32(s.Y1)},
				rl.Vector2{X: float32(s.X2), Y: float32(s.Y2)},
				rl.Fade(r.colors[bucket], fade),
			)
		}
	}
	r.head = (r.head + 1) % trailDepth
}

// Unload frees GPU resources.
func (r *GlobeRenderer) Unload() {
	if r.hasOverlay {
		rl.UnloadTexture(r.overlayTex)
		r.hasOverlay = false
	}
}
