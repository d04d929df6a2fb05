// Package telemetry tracks pipeline stage timings and writes experiment
// output.
package telemetry

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Stage names for the rendering pipeline.
const (
	StageCatalog  = "catalog"
	StageProducts = "products"
	StageField    = "field"
	StageFrame    = "frame"
)

// PerfCollector tracks per-stage durations over a rolling window. Stages
// complete on different goroutines, so recording is locked.
type PerfCollector struct {
	window int

	mu      sync.Mutex
	samples map[string][]float64 // milliseconds, ring buffer per stage
	index   map[string]int
	count   map[string]int
}

// NewPerfCollector creates a collector averaging over the last window
// samples per stage.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{
		window:  window,
		samples: make(map[string][]float64),
		index:   make(map[string]int),
		count:   make(map[string]int),
	}
}

// Record adds one duration sample for a stage.
func (p *PerfCollector) Record(stage string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ring, ok := p.samples[stage]
	if !ok {
		ring = make([]float64, p.window)
		p.samples[stage] = ring
	}
	ring[p.index[stage]] = float64(d) / float64(time.Millisecond)
	p.index[stage] = (p.index[stage] + 1) % p.window
	if p.count[stage] < p.window {
		p.count[stage]++
	}
}

// Time starts timing a stage and returns the function that stops the
// clock and records the sample.
func (p *PerfCollector) Time(stage string) func() {
	start := time.Now()
	return func() {
		p.Record(stage, time.Since(start))
	}
}

// StageStats holds aggregated timings for one stage.
type StageStats struct {
	Stage string  `csv:"stage"`
	Count int     `csv:"count"`
	AvgMS float64 `csv:"avg_ms"`
	MinMS float64 `csv:"min_ms"`
	MaxMS float64 `csv:"max_ms"`
	StdMS float64 `csv:"std_ms"`
}

// Stats aggregates the current window, sorted by stage name.
func (p *PerfCollector) Stats() []StageStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]StageStats, 0, len(p.samples))
	for stage, ring := range p.samples {
		n := p.count[stage]
		if n == 0 {
			continue
		}
		window := ring[:n]
		s := StageStats{
			Stage: stage,
			Count: n,
			AvgMS: stat.Mean(window, nil),
			StdMS: stat.StdDev(window, nil),
			MinMS: window[0],
			MaxMS: window[0],
		}
		for _, v := range window {
			if v < s.MinMS {
				s.MinMS = v
			}
			if v > s.MaxMS {
				s.MaxMS = v
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })
	return out
}

// LogStats emits the current window through slog.
func (p *PerfCollector) LogStats() {
	for _, s := range p.Stats() {
		slog.Info("stage timing",
			"stage", s.Stage,
			"count", s.Count,
			"avg_ms", s.AvgMS,
			"min_ms", s.MinMS,
			"max_ms", s.MaxMS,
		)
	}
}
