// Package perf estimates real-world performance for a configuration from
// curated per-component benchmark scores. Scores are unitless indexes, not
// measurements; they exist to let shoppers compare configurations, so their
// relative ordering matters more than their absolute values.
package perf

import (
	"fmt"
	"math"

	"partforge/internal/domain"
)

// Provider resolves component ids against the catalog, same contract as the
// compatibility evaluator's.
type Provider interface {
	Lookup(category domain.Category, id string) (domain.Component, bool, error)
}

type cpuScore struct {
	SingleCore float64
	MultiCore  float64
	Gaming     float64
}

type gpuScore struct {
	Res1080 float64
	Res1440 float64
	Res4K   float64
	Content float64
}

// Benchmark tables keyed by catalog component id. A catalog part with no
// entry here simply has no estimate yet; Estimate degrades to not-ready
// rather than guessing.
var cpuScores = map[string]cpuScore{
	"cpu-7600x":   {SingleCore: 185, MultiCore: 1200, Gaming: 170},
	"cpu-7800x3d": {SingleCore: 205, MultiCore: 1450, Gaming: 210},
	"cpu-13600k":  {SingleCore: 190, MultiCore: 1350, Gaming: 175},
	"cpu-13900k":  {SingleCore: 240, MultiCore: 2250, Gaming: 215},
}

var gpuScores = map[string]gpuScore{
	"gpu-4070s":  {Res1080: 205, Res1440: 190, Res4K: 160, Content: 185},
	"gpu-4090":   {Res1080: 250, Res1440: 240, Res4K: 220, Content: 240},
	"gpu-7800xt": {Res1080: 195, Res1440: 180, Res4K: 150, Content: 165},
}

// Tier boundaries over the 1080p gaming score, lowest first.
var tiers = []struct {
	ceiling float64
	name    string
}{
	{130, "Entry-level"},
	{160, "Mainstream"},
	{190, "High-end"},
	{220, "Enthusiast"},
	{math.Inf(1), "Ultimate"},
}

// Summary is the shopper-facing estimate for one configuration.
type Summary struct {
	Gaming1080      int    `json:"gaming_1080p"`
	Gaming1440      int    `json:"gaming_1440p"`
	Gaming4K        int    `json:"gaming_4k"`
	ContentCreation int    `json:"content_creation"`
	Productivity    int    `json:"productivity"`
	Tier            string `json:"tier"`
}

// Estimate scores cfg. It needs at least a CPU and a GPU with benchmark
// data; anything less reports ok=false rather than a misleading partial
// number. RAM scales the result when selected and is assumed to be a 16GB
// baseline otherwise. The only error cause is a failing catalog lookup.
func Estimate(p Provider, cfg domain.Configuration) (Summary, bool, error) {
	cpu, ok, err := scoreFor(p, cfg, domain.CategoryCPU)
	if err != nil || !ok {
		return Summary{}, false, err
	}
	gpu, ok, err := scoreFor(p, cfg, domain.CategoryGPU)
	if err != nil || !ok {
		return Summary{}, false, err
	}
	c := cpuScores[cpu]
	g := gpuScores[gpu]

	ram, err := ramImpact(p, cfg)
	if err != nil {
		return Summary{}, false, err
	}

	// Gaming leans on the GPU, harder at higher resolutions. Content
	// creation loads both; productivity is almost all CPU.
	s := Summary{
		Gaming1080:      score((g.Res1080*0.7 + c.Gaming*0.3) * ram),
		Gaming1440:      score((g.Res1440*0.8 + c.Gaming*0.2) * ram),
		Gaming4K:        score((g.Res4K*0.9 + c.Gaming*0.1) * ram),
		ContentCreation: score((c.MultiCore*0.5 + g.Content*0.4 + c.SingleCore*0.1) * ram),
		Productivity:    score((c.SingleCore*0.6 + c.MultiCore*0.4) * ram),
	}
	for _, t := range tiers {
		if float64(s.Gaming1080) < t.ceiling {
			s.Tier = t.name
			break
		}
	}
	return s, true, nil
}

// scoreFor resolves the selected id and confirms benchmark data exists for
// it. Stale or unscored ids read as no selection.
func scoreFor(p Provider, cfg domain.Configuration, cat domain.Category) (string, bool, error) {
	id := cfg[cat]
	if id == "" {
		return "", false, nil
	}
	_, ok, err := p.Lookup(cat, id)
	if err != nil {
		return "", false, fmt.Errorf("catalog lookup %s/%s: %w", cat, id, err)
	}
	if !ok {
		return "", false, nil
	}
	switch cat {
	case domain.CategoryCPU:
		_, ok = cpuScores[id]
	case domain.CategoryGPU:
		_, ok = gpuScores[id]
	default:
		ok = false
	}
	return id, ok, nil
}

// ramImpact scales scores by memory capacity and generation, against a 16GB
// baseline of 1.0.
func ramImpact(p Provider, cfg domain.Configuration) (float64, error) {
	id := cfg[domain.CategoryRAM]
	if id == "" {
		return 1.0, nil
	}
	ram, ok, err := p.Lookup(domain.CategoryRAM, id)
	if err != nil {
		return 0, fmt.Errorf("catalog lookup ram/%s: %w", id, err)
	}
	if !ok {
		return 1.0, nil
	}

	factor := 1.0
	switch capacity := ram.AttrInt("capacity_gb"); {
	case capacity >= 64:
		factor = 1.15
	case capacity >= 32:
		factor = 1.1
	case capacity >= 16:
		factor = 1.0
	case capacity > 0:
		factor = 0.85
	}
	if ram.AttrString("type") == "DDR5" {
		factor *= 1.15
	} else {
		factor *= 0.98
	}
	return factor, nil
}

func score(v float64) int { return int(math.Round(v)) }
