package repos

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"partforge/internal/domain"
)

type BuildRepo struct{ db *sqlx.DB }

func NewBuildRepo(db *sqlx.DB) *BuildRepo { return &BuildRepo{db: db} }

type buildRow struct {
	ID          string         `db:"id"`
	OwnerRef    string         `db:"owner_ref"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	Public      bool           `db:"is_public"`
	Tier        string         `db:"tier"`
	ConfigJSON  string         `db:"config_json"`
	TotalPrice  string         `db:"total_price"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   sql.NullString `db:"updated_at"`
}

func (row buildRow) toDomain() (domain.Build, error) {
	b := domain.Build{
		ID:          row.ID,
		OwnerRef:    row.OwnerRef,
		Name:        row.Name,
		Description: row.Description.String,
		Public:      row.Public,
		Tier:        row.Tier,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt.String,
	}
	if err := b.TotalPrice.Scan(row.TotalPrice); err != nil {
		return domain.Build{}, fmt.Errorf("build %s total: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.ConfigJSON), &b.Config); err != nil {
		return domain.Build{}, fmt.Errorf("build %s config: %w", row.ID, err)
	}
	return b, nil
}

const buildCols = `id, owner_ref, name, description, is_public, tier,
  config_json, CAST(total_price AS TEXT) AS total_price, created_at, updated_at`

func (r *BuildRepo) Create(b domain.Build) error {
	cfg, err := json.Marshal(b.Config)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`
		INSERT INTO builds(id, owner_ref, name, description, is_public, tier, config_json, total_price)
		VALUES(?,?,?,?,?,?,?,?)
	`, b.ID, b.OwnerRef, b.Name, b.Description, b.Public, b.Tier, string(cfg), b.TotalPrice)
	return err
}

func (r *BuildRepo) Get(id string) (domain.Build, error) {
	var row buildRow
	if err := r.db.Get(&row, `SELECT `+buildCols+` FROM builds WHERE id = ?`, id); err != nil {
		return domain.Build{}, err
	}
	return row.toDomain()
}

// ListVisible returns public builds plus the requester's own.
func (r *BuildRepo) ListVisible(ownerRef string) ([]domain.Build, error) {
	var rows []buildRow
	if err := r.db.Select(&rows, `
		SELECT `+buildCols+` FROM builds
		WHERE is_public = 1 OR owner_ref = ?
		ORDER BY datetime(created_at) DESC
	`, ownerRef); err != nil {
		return nil, err
	}
	return rowsToBuilds(rows)
}

// ListPrebuilts returns the seeded tiered configurations, cheapest first.
func (r *BuildRepo) ListPrebuilts() ([]domain.Build, error) {
	var rows []buildRow
	if err := r.db.Select(&rows, `
		SELECT `+buildCols+` FROM builds
		WHERE tier != ''
		ORDER BY total_price
	`); err != nil {
		return nil, err
	}
	return rowsToBuilds(rows)
}

func (r *BuildRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM builds WHERE id = ?`, id)
	return err
}

func rowsToBuilds(rows []buildRow) ([]domain.Build, error) {
	out := make([]domain.Build, 0, len(rows))
	for _, row := range rows {
		b, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
