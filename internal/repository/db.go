package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			order_number TEXT PRIMARY KEY,
			recorded_cost REAL,
			declared_weight_sum REAL,
			volume_count INTEGER NOT NULL,
			carrier TEXT NOT NULL,
			sales_channel TEXT NOT NULL,
			channel_order_number TEXT NOT NULL,
			invoice_number TEXT NOT NULL,
			origin_zip TEXT NOT NULL,
			destination_zip TEXT NOT NULL,
			destination_city TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			audited_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_carrier ON orders(carrier)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at)`,

		`CREATE TABLE IF NOT EXISTS ingest_reports (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			file_hash TEXT UNIQUE NOT NULL,
			record_count INTEGER NOT NULL,
			ingested_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS pre_invoices (
			id TEXT PRIMARY KEY,
			report_id TEXT NOT NULL,
			order_number TEXT NOT NULL,
			status TEXT NOT NULL,
			access_key TEXT NOT NULL,
			cte_value REAL,
			tms_value REAL,
			invoice_number TEXT NOT NULL,
			origin_zip TEXT NOT NULL,
			destination_zip TEXT NOT NULL,
			cubed_weight REAL,
			billed_weight REAL,
			volume_count INTEGER NOT NULL,
			dimensions TEXT NOT NULL,
			ingested_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pre_invoices_order ON pre_invoices(order_number)`,
		`CREATE INDEX IF NOT EXISTS idx_pre_invoices_report ON pre_invoices(report_id)`,

		`CREATE TABLE IF NOT EXISTS margin_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			type TEXT NOT NULL,
			value REAL NOT NULL DEFAULT 0,
			absolute_value REAL NOT NULL DEFAULT 0,
			percentage_value REAL NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS divergences (
			id TEXT PRIMARY KEY,
			order_number TEXT NOT NULL,
			field TEXT NOT NULL,
			expected_value REAL NOT NULL,
			actual_value REAL NOT NULL,
			difference REAL NOT NULL,
			status TEXT NOT NULL,
			applied_margin TEXT NOT NULL,
			carrier TEXT NOT NULL,
			access_key TEXT NOT NULL,
			sales_channel TEXT NOT NULL,
			channel_order_number TEXT NOT NULL,
			invoice_number TEXT NOT NULL,
			origin_zip TEXT NOT NULL,
			destination_zip TEXT NOT NULL,
			destination_city TEXT NOT NULL,
			volume_count INTEGER NOT NULL,
			dimensions TEXT NOT NULL,
			detected_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_divergences_order ON divergences(order_number)`,
		`CREATE INDEX IF NOT EXISTS idx_divergences_field ON divergences(field)`,
		`CREATE INDEX IF NOT EXISTS idx_divergences_carrier ON divergences(carrier)`,

		`CREATE TABLE IF NOT EXISTS audit_runs (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			duration_ms INTEGER NOT NULL,
			orders_evaluated INTEGER NOT NULL,
			sub_audits_skipped INTEGER NOT NULL,
			records_failed INTEGER NOT NULL,
			divergences_found INTEGER NOT NULL,
			zero_tolerance_fallback INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_runs_started_at ON audit_runs(started_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}

// --- shared helpers ---

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
