package domain

import "github.com/shopspring/decimal"

// OwnerType distinguishes authenticated users from anonymous sessions.
type OwnerType string

const (
	OwnerUser    OwnerType = "USER"
	OwnerSession OwnerType = "SESSION"
)

// Owner identifies exactly one cart holder: a user id or an opaque session
// token. Anonymous carts are never merged into a user cart on login.
type Owner struct {
	Type OwnerType
	Ref  string
}

func UserOwner(id string) Owner       { return Owner{Type: OwnerUser, Ref: id} }
func SessionOwner(token string) Owner { return Owner{Type: OwnerSession, Ref: token} }

// Cart holds at most one pending configuration per identity: either a raw
// snapshot or a reference to a saved build, never both.
type Cart struct {
	ID         string                 `json:"id"`
	OwnerType  OwnerType              `json:"owner_type"`
	OwnerRef   string                 `json:"owner_ref"`
	Snapshot   *ConfigurationSnapshot `json:"snapshot,omitempty"`
	BuildID    string                 `json:"build_id,omitempty"`
	Quantity   int                    `json:"quantity"`
	TotalPrice decimal.Decimal        `json:"total_price"`
	UpdatedAt  string                 `json:"updated_at,omitempty"`
}

func (c Cart) Empty() bool {
	return (c.Snapshot == nil && c.BuildID == "") || !c.TotalPrice.IsPositive()
}
