package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is a component slot in a build. The set is closed: these eight
// categories are also the required set for checkout eligibility.
type Category string

const (
	CategoryCPU         Category = "cpu"
	CategoryMotherboard Category = "motherboard"
	CategoryRAM         Category = "ram"
	CategoryGPU         Category = "gpu"
	CategoryStorage     Category = "storage"
	CategoryPowerSupply Category = "power_supply"
	CategoryCase        Category = "case"
	CategoryCooling     Category = "cooling"
)

// RequiredCategories lists every slot a configuration must fill before it can
// be checked out.
var RequiredCategories = []Category{
	CategoryCPU,
	CategoryMotherboard,
	CategoryRAM,
	CategoryGPU,
	CategoryStorage,
	CategoryPowerSupply,
	CategoryCase,
	CategoryCooling,
}

func ValidCategory(s string) (Category, bool) {
	for _, c := range RequiredCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Component is a catalog entry. Attrs carries the category-specific fields
// (socket, ram_type, tdp, wattage, form_factor, ...) as decoded JSON.
type Component struct {
	ID       string          `db:"id" json:"id"`
	Category Category        `db:"category" json:"category"`
	Name     string          `db:"name" json:"name"`
	Price    decimal.Decimal `db:"price" json:"price"`
	Attrs    map[string]any  `db:"-" json:"attrs,omitempty"`
}

// AttrString returns a string attribute, or "" when absent or not a string.
func (c Component) AttrString(key string) string {
	if v, ok := c.Attrs[key].(string); ok {
		return v
	}
	return ""
}

// AttrInt returns a numeric attribute rounded to the nearest integer.
// JSON numbers decode as float64; missing or non-numeric values count as 0.
func (c Component) AttrInt(key string) int {
	switch v := c.Attrs[key].(type) {
	case float64:
		if v < 0 {
			return int(v - 0.5)
		}
		return int(v + 0.5)
	case int:
		return v
	}
	return 0
}

// Configuration is the user's in-progress category -> component-id selection.
// Categories are optional while building; last write wins per category.
type Configuration map[Category]string

func (cfg Configuration) Clone() Configuration {
	if cfg == nil {
		return nil
	}
	out := make(Configuration, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}

// Missing returns the required categories the configuration has not filled,
// in canonical category order.
func (cfg Configuration) Missing() []Category {
	var out []Category
	for _, c := range RequiredCategories {
		if cfg[c] == "" {
			out = append(out, c)
		}
	}
	return out
}

func (cfg Configuration) Complete() bool { return len(cfg.Missing()) == 0 }

// CompatibilityIssue is a human-readable hardware-constraint violation.
// Issues are advisory: they never block adding to cart or checking out.
type CompatibilityIssue struct {
	Message string `json:"message"`
}

// ConfigurationSnapshot is an immutable, priced copy of a Configuration,
// captured when the configuration enters a cart or an order. It is never
// re-priced, so order totals stay stable when catalog prices change.
type ConfigurationSnapshot struct {
	Config     Configuration   `json:"config"`
	TotalPrice decimal.Decimal `json:"total_price"`
	TakenAt    time.Time       `json:"taken_at"`
}
