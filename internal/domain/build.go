package domain

import "github.com/shopspring/decimal"

// Build is a saved, named configuration. Prebuilt configurations ship with a
// tier label and no owner; user builds belong to the user who saved them.
type Build struct {
	ID          string          `json:"id"`
	OwnerRef    string          `json:"owner_ref,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Public      bool            `json:"public"`
	Tier        string          `json:"tier,omitempty"` // gaming | productivity | budget
	Config      Configuration   `json:"config"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at,omitempty"`
}

// ViewableBy reports whether requester may see the build: public builds are
// visible to everyone, private ones only to their owner.
func (b Build) ViewableBy(requester string) bool {
	return b.Public || (requester != "" && requester == b.OwnerRef)
}
