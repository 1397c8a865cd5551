package repos

import (
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"partforge/internal/domain"
)

// SelectionRepo persists the builder's working configuration per session
// token, so a build in progress survives across requests.
type SelectionRepo struct{ db *sqlx.DB }

func NewSelectionRepo(db *sqlx.DB) *SelectionRepo { return &SelectionRepo{db: db} }

func (r *SelectionRepo) Get(sessionID string) (domain.Configuration, error) {
	var raw string
	err := r.db.Get(&raw, `SELECT config_json FROM selections WHERE session_id = ?`, sessionID)
	if err == sql.ErrNoRows {
		return domain.Configuration{}, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg domain.Configuration
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = domain.Configuration{}
	}
	return cfg, nil
}

func (r *SelectionRepo) Set(sessionID string, cfg domain.Configuration) error {
	buf, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`
		INSERT INTO selections(session_id, config_json, updated_at)
		VALUES(?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id) DO UPDATE
		SET config_json = excluded.config_json, updated_at = CURRENT_TIMESTAMP
	`, sessionID, string(buf))
	return err
}

func (r *SelectionRepo) Clear(sessionID string) error {
	_, err := r.db.Exec(`DELETE FROM selections WHERE session_id = ?`, sessionID)
	return err
}
