package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/esprinter/freight-audit/internal/domain"
)

// MarginConfigRepo persists the single active margin configuration.
type MarginConfigRepo struct {
	db *sql.DB
}

func NewMarginConfigRepo(db *sql.DB) *MarginConfigRepo {
	return &MarginConfigRepo{db: db}
}

// Get returns the stored margin config, or nil when none has been set.
func (r *MarginConfigRepo) Get() (*domain.MarginConfig, error) {
	row := r.db.QueryRow(
		"SELECT type, value, absolute_value, percentage_value, updated_at FROM margin_config WHERE id = 1",
	)

	var cfg domain.MarginConfig
	var mtype, updatedAt string
	err := row.Scan(&mtype, &cfg.Value, &cfg.AbsoluteValue, &cfg.PercentageValue, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	cfg.Type = domain.MarginType(mtype)
	cfg.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &cfg, nil
}

// Upsert replaces the active margin config.
func (r *MarginConfigRepo) Upsert(cfg *domain.MarginConfig) error {
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO margin_config (id, type, value, absolute_value, percentage_value, updated_at)
		VALUES (1,?,?,?,?,?)`,
		string(cfg.Type), cfg.Value, cfg.AbsoluteValue, cfg.PercentageValue,
		cfg.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert margin config: %w", err)
	}
	return nil
}
