package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/esprinter/freight-audit/internal/domain"
)

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

const orderColumns = `order_number, recorded_cost, declared_weight_sum, volume_count,
	carrier, sales_channel, channel_order_number, invoice_number,
	origin_zip, destination_zip, destination_city, created_at, audited_at`

// BulkUpsert inserts or replaces orders. Re-ingesting the same ledger
// export overwrites rows in place, so the ledger stays the source of truth.
func (r *OrderRepo) BulkUpsert(orders []domain.Order) (int, error) {
	sqlTx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.Prepare(
		`INSERT OR REPLACE INTO orders (` + orderColumns + `)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range orders {
		o := &orders[i]
		_, err := stmt.Exec(
			o.OrderNumber, nullableFloat(o.RecordedCost), nullableFloat(o.DeclaredWeightSum),
			o.VolumeCount, o.Carrier, o.SalesChannel, o.ChannelOrderNumber,
			o.InvoiceNumber, o.OriginZip, o.DestinationZip, o.DestinationCity,
			o.CreatedAt.Format(time.RFC3339), formatNullableTime(o.AuditedAt),
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

func (r *OrderRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM orders").Scan(&count)
	return count, err
}

func (r *OrderRepo) GetByOrderNumber(orderNumber string) (*domain.Order, error) {
	row := r.db.QueryRow(
		"SELECT "+orderColumns+" FROM orders WHERE order_number = ?", orderNumber,
	)
	return scanOrderRow(row)
}

// ListAll returns every ledger order in order-number order, so audit runs
// evaluate a deterministic sequence.
func (r *OrderRepo) ListAll() ([]domain.Order, error) {
	rows, err := r.db.Query(
		"SELECT " + orderColumns + " FROM orders ORDER BY order_number",
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

type OrderFilter struct {
	Carrier      string
	SalesChannel string
	From         *time.Time
	To           *time.Time
	Page         int
	Limit        int
}

func (r *OrderRepo) List(f OrderFilter) ([]domain.Order, int, error) {
	where, args := buildOrderWhere(f)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	querySQL := "SELECT " + orderColumns + " FROM orders" + where +
		" ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(querySQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	return orders, total, err
}

// MarkAudited stamps every listed order with the audit run time.
func (r *OrderRepo) MarkAudited(orderNumbers []string, auditedAt time.Time) error {
	if len(orderNumbers) == 0 {
		return nil
	}

	sqlTx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.Prepare("UPDATE orders SET audited_at = ? WHERE order_number = ?")
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	ts := auditedAt.Format(time.RFC3339)
	for _, num := range orderNumbers {
		if _, err := stmt.Exec(ts, num); err != nil {
			return fmt.Errorf("mark %s: %w", num, err)
		}
	}

	return sqlTx.Commit()
}

// --- helpers ---

func buildOrderWhere(f OrderFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.Carrier != "" {
		clauses = append(clauses, "carrier = ?")
		args = append(args, f.Carrier)
	}
	if f.SalesChannel != "" {
		clauses = append(clauses, "sales_channel = ?")
		args = append(args, f.SalesChannel)
	}
	if f.From != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.From.Format(time.RFC3339))
	}
	if f.To != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, f.To.Format(time.RFC3339))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func scanOrderRow(row *sql.Row) (*domain.Order, error) {
	var o domain.Order
	var recordedCost, declaredWeight sql.NullFloat64
	var createdAt string
	var auditedAt sql.NullString

	err := row.Scan(
		&o.OrderNumber, &recordedCost, &declaredWeight, &o.VolumeCount,
		&o.Carrier, &o.SalesChannel, &o.ChannelOrderNumber, &o.InvoiceNumber,
		&o.OriginZip, &o.DestinationZip, &o.DestinationCity, &createdAt, &auditedAt,
	)
	if err != nil {
		return nil, err
	}

	o.RecordedCost = floatPtr(recordedCost)
	o.DeclaredWeightSum = floatPtr(declaredWeight)
	o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if auditedAt.Valid {
		t, _ := time.Parse(time.RFC3339, auditedAt.String)
		o.AuditedAt = &t
	}

	return &o, nil
}

func scanOrders(rows *sql.Rows) ([]domain.Order, error) {
	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		var recordedCost, declaredWeight sql.NullFloat64
		var createdAt string
		var auditedAt sql.NullString

		err := rows.Scan(
			&o.OrderNumber, &recordedCost, &declaredWeight, &o.VolumeCount,
			&o.Carrier, &o.SalesChannel, &o.ChannelOrderNumber, &o.InvoiceNumber,
			&o.OriginZip, &o.DestinationZip, &o.DestinationCity, &createdAt, &auditedAt,
		)
		if err != nil {
			return nil, err
		}

		o.RecordedCost = floatPtr(recordedCost)
		o.DeclaredWeightSum = floatPtr(declaredWeight)
		o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if auditedAt.Valid {
			t, _ := time.Parse(time.RFC3339, auditedAt.String)
			o.AuditedAt = &t
		}

		orders = append(orders, o)
	}
	return orders, rows.Err()
}
