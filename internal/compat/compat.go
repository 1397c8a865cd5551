// Package compat evaluates a configuration against the component catalog:
// it prices the selected parts and reports hardware-constraint violations.
package compat

import (
	"fmt"

	"github.com/shopspring/decimal"

	"partforge/internal/domain"
)

// Provider resolves component ids against the catalog. Lookup returns
// ok=false when the id is unknown in the category; the error is reserved for
// infrastructure failures (the catalog itself being unreachable).
type Provider interface {
	Lookup(category domain.Category, id string) (domain.Component, bool, error)
}

// Baseline load in watts for board, storage, fans and everything else not
// covered by CPU/GPU TDP.
const baseLoadWatts = 150

// Evaluate prices cfg and runs the compatibility rules, in this fixed order:
// socket, ram type, wattage, form factor. Multiple issues may be returned
// together; there is no early exit.
//
// The function is total over its input domain: an empty configuration yields
// ([], 0), and a component id that does not resolve is silently skipped for
// both pricing and rules. That tolerance for stale ids is a contract, not an
// oversight. The only error cause is a failing catalog lookup.
func Evaluate(p Provider, cfg domain.Configuration) ([]domain.CompatibilityIssue, decimal.Decimal, error) {
	total := decimal.Zero
	if len(cfg) == 0 {
		return nil, total, nil
	}

	resolved := make(map[domain.Category]domain.Component, len(cfg))
	for _, cat := range domain.RequiredCategories {
		id := cfg[cat]
		if id == "" {
			continue
		}
		comp, ok, err := p.Lookup(cat, id)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("catalog lookup %s/%s: %w", cat, id, err)
		}
		if !ok {
			continue // stale id: contributes nothing, fires no rule
		}
		resolved[cat] = comp
		total = total.Add(comp.Price)
	}

	var issues []domain.CompatibilityIssue

	// Socket rule
	if cpu, ok := resolved[domain.CategoryCPU]; ok {
		if mobo, ok := resolved[domain.CategoryMotherboard]; ok {
			if cpu.AttrString("socket") != mobo.AttrString("socket") {
				issues = append(issues, domain.CompatibilityIssue{Message: fmt.Sprintf(
					"CPU socket (%s) is not compatible with motherboard socket (%s)",
					cpu.AttrString("socket"), mobo.AttrString("socket"))})
			}
		}
	}

	// Memory rule
	if ram, ok := resolved[domain.CategoryRAM]; ok {
		if mobo, ok := resolved[domain.CategoryMotherboard]; ok {
			if ram.AttrString("type") != mobo.AttrString("ram_type") {
				issues = append(issues, domain.CompatibilityIssue{Message: fmt.Sprintf(
					"RAM type (%s) is not compatible with motherboard (%s)",
					ram.AttrString("type"), mobo.AttrString("ram_type"))})
			}
		}
	}

	// Power rule: CPU TDP + GPU TDP + fixed baseline. A supply that exactly
	// meets the requirement passes.
	if psu, ok := resolved[domain.CategoryPowerSupply]; ok {
		required := baseLoadWatts
		if cpu, ok := resolved[domain.CategoryCPU]; ok {
			required += cpu.AttrInt("tdp")
		}
		if gpu, ok := resolved[domain.CategoryGPU]; ok {
			required += gpu.AttrInt("tdp")
		}
		if wattage := psu.AttrInt("wattage"); wattage < required {
			issues = append(issues, domain.CompatibilityIssue{Message: fmt.Sprintf(
				"Power supply (%dW) is insufficient for the selected components (estimated %dW required)",
				wattage, required)})
		}
	}

	// Form-factor rule
	if cs, ok := resolved[domain.CategoryCase]; ok {
		if mobo, ok := resolved[domain.CategoryMotherboard]; ok {
			if cs.AttrString("form_factor") != mobo.AttrString("form_factor") {
				issues = append(issues, domain.CompatibilityIssue{Message: fmt.Sprintf(
					"Case form factor (%s) does not support motherboard form factor (%s)",
					cs.AttrString("form_factor"), mobo.AttrString("form_factor"))})
			}
		}
	}

	return issues, total, nil
}
