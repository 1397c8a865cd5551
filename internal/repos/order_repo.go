package repos

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"partforge/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type orderRow struct {
	ID           string         `db:"id"`
	OrderNumber  string         `db:"order_number"`
	CartID       sql.NullString `db:"cart_id"`
	Status       string         `db:"status"`
	TotalAmount  string         `db:"total_amount"`
	CustomerJSON string         `db:"customer_json"`
	ShippingJSON string         `db:"shipping_json"`
	SnapshotJSON string         `db:"snapshot_json"`
	PaymentRef   sql.NullString `db:"payment_reference"`
	CreatedAt    string         `db:"created_at"`
	UpdatedAt    string         `db:"updated_at"`
}

// toDomain rejects malformed persisted JSON loudly: a corrupt snapshot on an
// existing order is a data-integrity problem for operators, not something to
// silently drop.
func (row orderRow) toDomain() (domain.Order, error) {
	o := domain.Order{
		ID:          row.ID,
		OrderNumber: row.OrderNumber,
		CartID:      row.CartID.String,
		Status:      domain.OrderStatus(row.Status),
		PaymentRef:  row.PaymentRef.String,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if err := o.TotalAmount.Scan(row.TotalAmount); err != nil {
		return domain.Order{}, fmt.Errorf("order %s total: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.CustomerJSON), &o.Customer); err != nil {
		return domain.Order{}, fmt.Errorf("order %s customer corrupt: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.ShippingJSON), &o.Shipping); err != nil {
		return domain.Order{}, fmt.Errorf("order %s shipping corrupt: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.SnapshotJSON), &o.Snapshot); err != nil {
		return domain.Order{}, fmt.Errorf("order %s snapshot corrupt: %w", row.ID, err)
	}
	return o, nil
}

const orderCols = `id, order_number, cart_id, status,
  CAST(total_amount AS TEXT) AS total_amount,
  customer_json, shipping_json, snapshot_json, payment_reference,
  created_at, updated_at`

// Create persists a new order atomically.
func (r *OrderRepo) Create(o domain.Order) error {
	customer, err := json.Marshal(o.Customer)
	if err != nil {
		return err
	}
	shipping, err := json.Marshal(o.Shipping)
	if err != nil {
		return err
	}
	snapshot, err := json.Marshal(o.Snapshot)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`
	  INSERT INTO orders
	    (id, order_number, cart_id, status, total_amount, customer_json, shipping_json, snapshot_json)
	  VALUES (?,?,?,?,?,?,?,?)
	`, o.ID, o.OrderNumber, o.CartID, string(o.Status), o.TotalAmount,
		string(customer), string(shipping), string(snapshot))
	return err
}

func (r *OrderRepo) get(where string, arg any) (domain.Order, error) {
	var row orderRow
	if err := r.db.Get(&row, `SELECT `+orderCols+` FROM orders WHERE `+where, arg); err != nil {
		return domain.Order{}, err
	}
	return row.toDomain()
}

func (r *OrderRepo) Get(id string) (domain.Order, error) { return r.get(`id = ?`, id) }

func (r *OrderRepo) GetByNumber(number string) (domain.Order, error) {
	return r.get(`order_number = ?`, number)
}

func (r *OrderRepo) GetByPaymentRef(ref string) (domain.Order, error) {
	return r.get(`payment_reference = ?`, ref)
}

func (r *OrderRepo) NumberExists(number string) (bool, error) {
	var n int
	if err := r.db.Get(&n, `SELECT COUNT(*) FROM orders WHERE order_number = ?`, number); err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetPaymentRef overwrites the gateway reference. Re-creating an intent for
// a still-pending order orphans the previous one; that is accepted behavior.
func (r *OrderRepo) SetPaymentRef(id, ref string) error {
	_, err := r.db.Exec(`
		UPDATE orders SET payment_reference = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, ref, id)
	return err
}

// CASStatus transitions status only if the current value matches from,
// returning false when another writer got there first. This is the guard
// against double-processing concurrent settlement events.
func (r *OrderRepo) CASStatus(id string, from, to domain.OrderStatus) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, string(to), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UpdateShipping refines customer/shipping details with gateway-confirmed
// data after settlement.
func (r *OrderRepo) UpdateShipping(id string, customer domain.Customer, shipping domain.ShippingAddress) error {
	cbuf, err := json.Marshal(customer)
	if err != nil {
		return err
	}
	sbuf, err := json.Marshal(shipping)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`
		UPDATE orders SET customer_json = ?, shipping_json = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(cbuf), string(sbuf), id)
	return err
}

// SettleOnce records a gateway event id and transitions the order from one
// status to another in a single transaction. The first delivery of an event
// id wins; redeliveries report duplicate=true without touching the order.
// When the status guard fails the event row is rolled back with it, so an
// unapplied settlement never consumes the id and a retry can still land.
func (r *OrderRepo) SettleOnce(eventID, orderID, eventType string, from, to domain.OrderStatus) (applied, duplicate bool, err error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return false, false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		INSERT INTO payment_events(event_id, order_id, event_type)
		VALUES(?,?,?)
		ON CONFLICT(event_id) DO NOTHING
	`, eventID, orderID, eventType)
	if err != nil {
		return false, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, false, err
	}
	if n == 0 {
		return false, true, nil
	}

	res, err = tx.Exec(`
		UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, string(to), orderID, string(from))
	if err != nil {
		return false, false, err
	}
	n, err = res.RowsAffected()
	if err != nil {
		return false, false, err
	}
	if n == 0 {
		return false, false, nil
	}
	return true, false, tx.Commit()
}

type OrderSummary struct {
	ID          string `db:"id"`
	OrderNumber string `db:"order_number"`
	Status      string `db:"status"`
	TotalAmount string `db:"total_amount"`
	CreatedAt   string `db:"created_at"`
}

func (r *OrderRepo) ListLatest(limit int) ([]OrderSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []OrderSummary
	err := r.db.Select(&out, `
		SELECT id, order_number, status, CAST(total_amount AS TEXT) AS total_amount, created_at
		FROM orders
		ORDER BY datetime(created_at) DESC
		LIMIT ?
	`, limit)
	return out, err
}
