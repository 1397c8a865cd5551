package repos

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"partforge/internal/domain"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

type cartRow struct {
	ID           string         `db:"id"`
	OwnerType    string         `db:"owner_type"`
	OwnerRef     string         `db:"owner_ref"`
	SnapshotJSON sql.NullString `db:"snapshot_json"`
	BuildID      sql.NullString `db:"build_id"`
	Quantity     int            `db:"quantity"`
	TotalPrice   string         `db:"total_price"`
	UpdatedAt    sql.NullString `db:"updated_at"`
}

func (row cartRow) toDomain() (domain.Cart, error) {
	c := domain.Cart{
		ID:        row.ID,
		OwnerType: domain.OwnerType(row.OwnerType),
		OwnerRef:  row.OwnerRef,
		BuildID:   row.BuildID.String,
		Quantity:  row.Quantity,
		UpdatedAt: row.UpdatedAt.String,
	}
	if err := c.TotalPrice.Scan(row.TotalPrice); err != nil {
		return domain.Cart{}, fmt.Errorf("cart %s total: %w", row.ID, err)
	}
	if row.SnapshotJSON.Valid && row.SnapshotJSON.String != "" {
		var snap domain.ConfigurationSnapshot
		if err := json.Unmarshal([]byte(row.SnapshotJSON.String), &snap); err != nil {
			return domain.Cart{}, fmt.Errorf("cart %s snapshot: %w", row.ID, err)
		}
		c.Snapshot = &snap
	}
	return c, nil
}

const cartCols = `id, owner_type, owner_ref, snapshot_json, build_id, quantity,
  CAST(total_price AS TEXT) AS total_price, updated_at`

// GetOrCreate returns the identity's cart, creating an empty one on first
// interaction. Exactly one cart exists per (owner_type, owner_ref).
func (r *CartRepo) GetOrCreate(owner domain.Owner) (domain.Cart, error) {
	var row cartRow
	err := r.db.Get(&row, `SELECT `+cartCols+` FROM carts WHERE owner_type = ? AND owner_ref = ?`,
		string(owner.Type), owner.Ref)
	if err == nil {
		return row.toDomain()
	}
	if err != sql.ErrNoRows {
		return domain.Cart{}, err
	}

	id := uuid.NewString()
	if _, err := r.db.Exec(`
		INSERT INTO carts(id, owner_type, owner_ref, quantity, total_price, updated_at)
		VALUES(?,?,?,0,0,?)
	`, id, string(owner.Type), owner.Ref, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return domain.Cart{}, err
	}
	return domain.Cart{ID: id, OwnerType: owner.Type, OwnerRef: owner.Ref}, nil
}

func (r *CartRepo) Get(cartID string) (domain.Cart, error) {
	var row cartRow
	if err := r.db.Get(&row, `SELECT `+cartCols+` FROM carts WHERE id = ?`, cartID); err != nil {
		return domain.Cart{}, err
	}
	return row.toDomain()
}

// SetSnapshot stores a priced snapshot and clears any saved-build reference
// (at most one of the two is ever set). Quantity resets to 1.
func (r *CartRepo) SetSnapshot(cartID string, snap domain.ConfigurationSnapshot) error {
	buf, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`
		UPDATE carts
		SET snapshot_json = ?, build_id = NULL, quantity = 1, total_price = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(buf), snap.TotalPrice, cartID)
	return err
}

// SetBuild stores a saved-build reference and clears any raw snapshot: the
// cart holds one or the other, never both.
func (r *CartRepo) SetBuild(cartID, buildID string, total decimal.Decimal) error {
	_, err := r.db.Exec(`
		UPDATE carts
		SET build_id = ?, snapshot_json = NULL, quantity = 1, total_price = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, buildID, total, cartID)
	return err
}

func (r *CartRepo) SetQuantity(cartID string, n int) error {
	_, err := r.db.Exec(`
		UPDATE carts SET quantity = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, n, cartID)
	return err
}

// Clear resets the cart to its empty state. Used on explicit removal and on
// confirmed payment; both paths converge here.
func (r *CartRepo) Clear(cartID string) error {
	_, err := r.db.Exec(`
		UPDATE carts
		SET snapshot_json = NULL, build_id = NULL, quantity = 0, total_price = 0,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, cartID)
	return err
}
