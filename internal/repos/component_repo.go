package repos

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"partforge/internal/domain"
)

type ComponentRepo struct{ db *sqlx.DB }

func NewComponentRepo(db *sqlx.DB) *ComponentRepo { return &ComponentRepo{db: db} }

type componentRow struct {
	ID        string `db:"id"`
	Category  string `db:"category"`
	Name      string `db:"name"`
	Price     string `db:"price"`
	AttrsJSON string `db:"attrs_json"`
}

func (row componentRow) toDomain() (domain.Component, error) {
	c := domain.Component{
		ID:       row.ID,
		Category: domain.Category(row.Category),
		Name:     row.Name,
	}
	if err := c.Price.Scan(row.Price); err != nil {
		return domain.Component{}, fmt.Errorf("component %s/%s price: %w", row.Category, row.ID, err)
	}
	if row.AttrsJSON != "" {
		if err := json.Unmarshal([]byte(row.AttrsJSON), &c.Attrs); err != nil {
			return domain.Component{}, fmt.Errorf("component %s/%s attrs: %w", row.Category, row.ID, err)
		}
	}
	return c, nil
}

// Lookup resolves one catalog entry. ok=false means the id is unknown in the
// category, which callers treat as a tolerated stale reference.
func (r *ComponentRepo) Lookup(category domain.Category, id string) (domain.Component, bool, error) {
	var row componentRow
	err := r.db.Get(&row, `
	  SELECT id, category, name, CAST(price AS TEXT) AS price, attrs_json
	  FROM components
	  WHERE category = ? AND id = ? AND active = 1
	`, string(category), id)
	if err == sql.ErrNoRows {
		return domain.Component{}, false, nil
	}
	if err != nil {
		return domain.Component{}, false, err
	}
	c, err := row.toDomain()
	if err != nil {
		return domain.Component{}, false, err
	}
	return c, true, nil
}

func (r *ComponentRepo) List(category domain.Category) ([]domain.Component, error) {
	var rows []componentRow
	if err := r.db.Select(&rows, `
	  SELECT id, category, name, CAST(price AS TEXT) AS price, attrs_json
	  FROM components
	  WHERE category = ? AND active = 1
	  ORDER BY price, id
	`, string(category)); err != nil {
		return nil, err
	}
	out := make([]domain.Component, 0, len(rows))
	for _, row := range rows {
		c, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
