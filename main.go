package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gale/camera"
	"github.com/pthm-cable/gale/config"
	"github.com/pthm-cable/gale/engine"
	"github.com/pthm-cable/gale/field"
	"github.com/pthm-cable/gale/product"
	"github.com/pthm-cable/gale/renderer"
	"github.com/pthm-cable/gale/source"
	"github.com/pthm-cable/gale/telemetry"
	"github.com/pthm-cable/gale/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run the pipeline without graphics")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "Particle RNG seed (0 = time-based)")
	overlay := flag.String("overlay", "temp", "Overlay: none, wind, temp, or a variable name")
	mesh := flag.Bool("mesh", false, "Use the irregular-mesh demo dataset")
	maxFrames := flag.Int("max-frames", 0, "Stop after N animation frames (0 = unlimited; headless default 100)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to snapshot config", "error", err)
	}

	eng := engine.New(cfg, engine.Options{
		Palette: palette,
		Perf:    perf,
		Seed:    rngSeed,
	})

	var src source.DataSource
	if *mesh {
		src = demoMeshSource()
	} else {
		src = demoSource()
	}

	sel := product.Selection{Overlay: overlayArg(*overlay)}
	eng.SetSelection(sel)

	if *headless {
		runHeadless(eng, cfg, src, perf, output, *maxFrames)
		return
	}
	runWindow(eng, cfg, src, perf)
}

// overlayArg maps the CLI overlay flag to a selection value.
func overlayArg(s string) string {
	switch s {
	case "none", "":
		return product.OverlayNone
	case "wind":
		return product.OverlayWind
	case "temp":
		return product.OverlayTemperature
	default:
		return s
	}
}

func newCamera(cfg *config.Config) *camera.Camera {
	return camera.New(cfg.Screen.Width, cfg.Screen.Height,
		cfg.Globe.Scale, cfg.Globe.MinScale, cfg.Globe.MaxScale,
		cfg.Globe.Longitude, cfg.Globe.Latitude)
}

func runHeadless(eng *engine.Engine, cfg *config.Config, src source.DataSource,
	perf *telemetry.PerfCollector, output *telemetry.OutputManager, maxFrames int) {

	if maxFrames <= 0 {
		maxFrames = 100
	}
	cam := newCamera(cfg)
	eng.SetView(engine.View{Proj: cam.Projection(), Bounds: cam.Bounds()})
	eng.SetSource(src)

	slog.Info("starting headless pipeline", "max_frames", maxFrames)

	deadline := time.Now().Add(60 * time.Second)
	for {
		if _, ok := eng.Animator.Value(); ok {
			break
		}
		if time.Now().After(deadline) {
			slog.Error("pipeline did not settle in time")
			os.Exit(1)
		}
		time.Sleep(25 * time.Millisecond)
	}

	slog.Info("pipeline settled, animating")
	time.Sleep(time.Duration(maxFrames) * cfg.Derived.FrameInterval)
	eng.Stop()

	perf.LogStats()
	if err := output.WriteStats(perf.Stats()); err != nil {
		slog.Error("failed to write stats", "error", err)
	}
}

func runWindow(eng *engine.Engine, cfg *config.Config, src source.DataSource,
	perf *telemetry.PerfCollector) {

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "gale")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	cam := newCamera(cfg)
	eng.SetView(engine.View{Proj: cam.Projection(), Bounds: cam.Bounds()})
	eng.SetSource(src)

	rend := renderer.New(cfg.Particles.SpeedBuckets)
	defer rend.Unload()

	hud := ui.NewHUD(10, 10, 280, []string{"none", "wind", "temp", "rh"})

	var lastField *field.Field
	dragging := false

	for !rl.WindowShouldClose() {
		frameDone := perf.Time(telemetry.StageFrame)

		// Input
		if wheel := rl.GetMouseWheelMove(); wheel != 0 {
			cam.Zoom(float64(wheel))
			eng.SetView(engine.View{Proj: cam.Projection(), Bounds: cam.Bounds()})
		}
		if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
			d := rl.GetMouseDelta()
			if dragging && (d.X != 0 || d.Y != 0) {
				cam.Drag(float64(d.X), float64(d.Y))
				eng.SetView(engine.View{Proj: cam.Projection(), Bounds: cam.Bounds()})
			}
			dragging = true
		} else {
			dragging = false
		}
		if rl.IsKeyPressed(rl.KeyH) {
			hud.Toggle()
		}

		// Upload freshly built fields to the GPU on the render thread.
		if f, ok := eng.Field.Value(); ok && f != lastField && !f.Released() {
			rend.SetField(f)
			lastField = f
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Color{R: 6, G: 10, B: 22, A: 255})

		an, _ := eng.Animator.Value()
		rend.Draw(int32(cfg.Screen.Width/2), int32(cfg.Screen.Height/2), float32(cam.Scale), an)

		timeSize, heightSize := datasetSizes(eng)
		if sel, changed := hud.Draw(eng.Selection(), timeSize, heightSize, pipelineStatus(eng)); changed {
			eng.SetSelection(sel)
		}

		rl.EndDrawing()
		frameDone()
	}

	eng.Stop()
}

func datasetSizes(eng *engine.Engine) (timeSize, heightSize int) {
	cat, ok := eng.Catalog.Value()
	if !ok {
		return 0, 0
	}
	return cat.TimeSize, cat.HeightSize
}

func pipelineStatus(eng *engine.Engine) string {
	if _, ok := eng.Animator.Value(); ok {
		products, pok := eng.Products.Value()
		if pok {
			return products[len(products)-1].Description
		}
		return "ready"
	}
	if _, ok := eng.Catalog.Value(); ok {
		return "building..."
	}
	return "loading..."
}
