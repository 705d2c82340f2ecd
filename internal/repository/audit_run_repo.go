package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/esprinter/freight-audit/internal/domain"
)

type AuditRunRepo struct {
	db *sql.DB
}

func NewAuditRunRepo(db *sql.DB) *AuditRunRepo {
	return &AuditRunRepo{db: db}
}

func (r *AuditRunRepo) Insert(run *domain.AuditRun) error {
	fallback := 0
	if run.ZeroToleranceFallback {
		fallback = 1
	}

	_, err := r.db.Exec(
		`INSERT INTO audit_runs
		(id, started_at, duration_ms, orders_evaluated, sub_audits_skipped,
		 records_failed, divergences_found, zero_tolerance_fallback)
		VALUES (?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Format(time.RFC3339), run.DurationMS,
		run.OrdersEvaluated, run.SubAuditsSkipped, run.RecordsFailed,
		run.DivergencesFound, fallback,
	)
	if err != nil {
		return fmt.Errorf("insert audit run: %w", err)
	}
	return nil
}

// List returns past audit runs, newest first.
func (r *AuditRunRepo) List(limit int) ([]domain.AuditRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, started_at, duration_ms, orders_evaluated, sub_audits_skipped,
			records_failed, divergences_found, zero_tolerance_fallback
		FROM audit_runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.AuditRun
	for rows.Next() {
		var run domain.AuditRun
		var startedAt string
		var fallback int

		err := rows.Scan(&run.ID, &startedAt, &run.DurationMS, &run.OrdersEvaluated,
			&run.SubAuditsSkipped, &run.RecordsFailed, &run.DivergencesFound, &fallback)
		if err != nil {
			return nil, err
		}

		run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		run.ZeroToleranceFallback = fallback == 1
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
