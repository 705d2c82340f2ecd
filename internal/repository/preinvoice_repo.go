package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/esprinter/freight-audit/internal/domain"
)

type PreInvoiceRepo struct {
	db *sql.DB
}

func NewPreInvoiceRepo(db *sql.DB) *PreInvoiceRepo {
	return &PreInvoiceRepo{db: db}
}

const preInvoiceColumns = `id, report_id, order_number, status, access_key,
	cte_value, tms_value, invoice_number, origin_zip, destination_zip,
	cubed_weight, billed_weight, volume_count, dimensions, ingested_at`

// ReportExistsByHash reports whether a file with this content hash has
// already been ingested (any kind).
func (r *PreInvoiceRepo) ReportExistsByHash(hash string) (bool, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM ingest_reports WHERE file_hash = ?", hash,
	).Scan(&count)
	return count > 0, err
}

func (r *PreInvoiceRepo) InsertReport(rep *domain.IngestReport) error {
	_, err := r.db.Exec(
		`INSERT INTO ingest_reports (id, kind, file_hash, record_count, ingested_at)
		VALUES (?,?,?,?,?)`,
		rep.ID, rep.Kind, rep.FileHash, rep.RecordCount,
		rep.IngestedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// BulkUpsert inserts or replaces pre-invoices keyed by the platform id, so
// re-ingesting a corrected export supersedes the previous values.
func (r *PreInvoiceRepo) BulkUpsert(pres []domain.PreInvoice) (int, error) {
	sqlTx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.Prepare(
		`INSERT OR REPLACE INTO pre_invoices (` + preInvoiceColumns + `)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range pres {
		p := &pres[i]
		_, err := stmt.Exec(
			p.ID, p.ReportID, p.OrderNumber, p.Status, p.AccessKey,
			nullableFloat(p.CTEValue), nullableFloat(p.TMSValue),
			p.InvoiceNumber, p.OriginZip, p.DestinationZip,
			nullableFloat(p.CubedWeight), nullableFloat(p.BilledWeight),
			p.VolumeCount, p.Dimensions, p.IngestedAt.Format(time.RFC3339),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert row %d: %w", i, err)
		}
		inserted++
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *PreInvoiceRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM pre_invoices").Scan(&count)
	return count, err
}

// GetByOrderNumber returns the pre-invoice correlated to an order, or nil
// when the platform reported none.
func (r *PreInvoiceRepo) GetByOrderNumber(orderNumber string) (*domain.PreInvoice, error) {
	row := r.db.QueryRow(
		"SELECT "+preInvoiceColumns+" FROM pre_invoices WHERE order_number = ?",
		orderNumber,
	)
	p, err := scanPreInvoiceRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// MapByOrderNumber returns all pre-invoices keyed by order number for the
// audit join. When the platform reports several for one order (re-issued
// invoices), the latest ingested one wins.
func (r *PreInvoiceRepo) MapByOrderNumber() (map[string]domain.PreInvoice, error) {
	rows, err := r.db.Query(
		"SELECT " + preInvoiceColumns + " FROM pre_invoices ORDER BY ingested_at",
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	m := make(map[string]domain.PreInvoice)
	for rows.Next() {
		p, err := scanPreInvoiceRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		m[p.OrderNumber] = *p
	}
	return m, rows.Err()
}

type PreInvoiceFilter struct {
	Status string
	Page   int
	Limit  int
}

func (r *PreInvoiceRepo) List(f PreInvoiceFilter) ([]domain.PreInvoice, int, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM pre_invoices"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	querySQL := "SELECT " + preInvoiceColumns + " FROM pre_invoices" + where +
		" ORDER BY ingested_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(querySQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var pres []domain.PreInvoice
	for rows.Next() {
		p, err := scanPreInvoiceRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		pres = append(pres, *p)
	}
	return pres, total, rows.Err()
}

// --- helpers ---

func scanPreInvoiceRow(row *sql.Row) (*domain.PreInvoice, error) {
	var p domain.PreInvoice
	var cteValue, tmsValue, cubed, billed sql.NullFloat64
	var ingestedAt string

	err := row.Scan(
		&p.ID, &p.ReportID, &p.OrderNumber, &p.Status, &p.AccessKey,
		&cteValue, &tmsValue, &p.InvoiceNumber, &p.OriginZip, &p.DestinationZip,
		&cubed, &billed, &p.VolumeCount, &p.Dimensions, &ingestedAt,
	)
	if err != nil {
		return nil, err
	}

	p.CTEValue = floatPtr(cteValue)
	p.TMSValue = floatPtr(tmsValue)
	p.CubedWeight = floatPtr(cubed)
	p.BilledWeight = floatPtr(billed)
	p.IngestedAt, _ = time.Parse(time.RFC3339, ingestedAt)

	return &p, nil
}

func scanPreInvoiceRows(rows *sql.Rows) (*domain.PreInvoice, error) {
	var p domain.PreInvoice
	var cteValue, tmsValue, cubed, billed sql.NullFloat64
	var ingestedAt string

	err := rows.Scan(
		&p.ID, &p.ReportID, &p.OrderNumber, &p.Status, &p.AccessKey,
		&cteValue, &tmsValue, &p.InvoiceNumber, &p.OriginZip, &p.DestinationZip,
		&cubed, &billed, &p.VolumeCount, &p.Dimensions, &ingestedAt,
	)
	if err != nil {
		return nil, err
	}

	p.CTEValue = floatPtr(cteValue)
	p.TMSValue = floatPtr(tmsValue)
	p.CubedWeight = floatPtr(cubed)
	p.BilledWeight = floatPtr(billed)
	p.IngestedAt, _ = time.Parse(time.RFC3339, ingestedAt)

	return &p, nil
}
