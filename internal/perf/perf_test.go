package perf_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"partforge/internal/domain"
	"partforge/internal/perf"
)

// mapProvider backs Estimate with an in-memory catalog.
type mapProvider map[domain.Category]map[string]domain.Component

func (m mapProvider) Lookup(cat domain.Category, id string) (domain.Component, bool, error) {
	c, ok := m[cat][id]
	return c, ok, nil
}

func testCatalog() mapProvider {
	part := func(cat domain.Category, id string, attrs map[string]any) domain.Component {
		return domain.Component{ID: id, Category: cat, Name: id, Attrs: attrs}
	}
	return mapProvider{
		domain.CategoryCPU: {
			"cpu-13900k":   part(domain.CategoryCPU, "cpu-13900k", nil),
			"cpu-7600x":    part(domain.CategoryCPU, "cpu-7600x", nil),
			"cpu-unscored": part(domain.CategoryCPU, "cpu-unscored", nil),
		},
		domain.CategoryGPU: {
			"gpu-4090":   part(domain.CategoryGPU, "gpu-4090", nil),
			"gpu-7800xt": part(domain.CategoryGPU, "gpu-7800xt", nil),
		},
		domain.CategoryRAM: {
			"ram-ddr5-64": part(domain.CategoryRAM, "ram-ddr5-64",
				map[string]any{"type": "DDR5", "capacity_gb": float64(64)}),
			"ram-ddr4-32": part(domain.CategoryRAM, "ram-ddr4-32",
				map[string]any{"type": "DDR4", "capacity_gb": float64(32)}),
		},
	}
}

func TestEstimate_FlagshipConfig(t *testing.T) {
	summary, ok, err := perf.Estimate(testCatalog(), domain.Configuration{
		domain.CategoryCPU: "cpu-13900k",
		domain.CategoryGPU: "gpu-4090",
		domain.CategoryRAM: "ram-ddr5-64",
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, perf.Summary{
		Gaming1080:      317,
		Gaming1440:      311,
		Gaming4K:        290,
		ContentCreation: 1647,
		Productivity:    1381,
		Tier:            "Ultimate",
	}, summary)
}

func TestEstimate_BudgetConfig(t *testing.T) {
	summary, ok, err := perf.Estimate(testCatalog(), domain.Configuration{
		domain.CategoryCPU: "cpu-7600x",
		domain.CategoryGPU: "gpu-7800xt",
		domain.CategoryRAM: "ram-ddr4-32",
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, perf.Summary{
		Gaming1080:      202,
		Gaming1440:      192,
		Gaming4K:        164,
		ContentCreation: 738,
		Productivity:    637,
		Tier:            "Enthusiast",
	}, summary)
}

func TestEstimate_NeedsCPUAndGPU(t *testing.T) {
	cat := testCatalog()

	_, ok, err := perf.Estimate(cat, domain.Configuration{domain.CategoryCPU: "cpu-13900k"})
	require.NoError(t, err)
	require.False(t, ok, "no GPU selected")

	_, ok, err = perf.Estimate(cat, domain.Configuration{domain.CategoryGPU: "gpu-4090"})
	require.NoError(t, err)
	require.False(t, ok, "no CPU selected")

	_, ok, err = perf.Estimate(cat, domain.Configuration{})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEstimate_UnscoredPartNotReady(t *testing.T) {
	// Catalog knows the part but no benchmark data exists for it yet: not
	// ready beats a made-up number.
	_, ok, err := perf.Estimate(testCatalog(), domain.Configuration{
		domain.CategoryCPU: "cpu-unscored",
		domain.CategoryGPU: "gpu-4090",
	})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEstimate_StaleRAMReadsAsBaseline(t *testing.T) {
	cat := testCatalog()
	base, ok, err := perf.Estimate(cat, domain.Configuration{
		domain.CategoryCPU: "cpu-13900k",
		domain.CategoryGPU: "gpu-4090",
	})
	require.NoError(t, err)
	require.True(t, ok)

	stale, ok, err := perf.Estimate(cat, domain.Configuration{
		domain.CategoryCPU: "cpu-13900k",
		domain.CategoryGPU: "gpu-4090",
		domain.CategoryRAM: "ram-gone",
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, base, stale, "stale ram id must not change the estimate")
}
