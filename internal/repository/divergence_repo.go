package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/esprinter/freight-audit/internal/domain"
)

type DivergenceRepo struct {
	db *sql.DB
}

func NewDivergenceRepo(db *sql.DB) *DivergenceRepo {
	return &DivergenceRepo{db: db}
}

const divergenceColumns = `id, order_number, field, expected_value, actual_value,
	difference, status, applied_margin, carrier, access_key, sales_channel,
	channel_order_number, invoice_number, origin_zip, destination_zip,
	destination_city, volume_count, dimensions, detected_at`

// ClearAll removes all divergences (done before re-running an audit so the
// stored set always reflects the latest run).
func (r *DivergenceRepo) ClearAll() error {
	_, err := r.db.Exec("DELETE FROM divergences")
	return err
}

func (r *DivergenceRepo) BulkInsert(divs []domain.Divergence) (int, error) {
	sqlTx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.Prepare(
		`INSERT OR IGNORE INTO divergences (` + divergenceColumns + `)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range divs {
		d := &divs[i]
		res, err := stmt.Exec(
			d.ID, d.OrderNumber, string(d.Field), d.ExpectedValue, d.ActualValue,
			d.Difference, d.Status, d.AppliedMargin, d.Carrier, d.AccessKey,
			d.SalesChannel, d.ChannelOrderNumber, d.InvoiceNumber, d.OriginZip,
			d.DestinationZip, d.DestinationCity, d.VolumeCount, d.Dimensions,
			d.DetectedAt.Format(time.RFC3339),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *DivergenceRepo) GetByOrderNumber(orderNumber string) ([]domain.Divergence, error) {
	rows, err := r.db.Query(
		"SELECT "+divergenceColumns+" FROM divergences WHERE order_number = ? ORDER BY field",
		orderNumber,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDivergences(rows)
}

type DivergenceFilter struct {
	Field   string
	Carrier string
	Page    int
	Limit   int
}

func (r *DivergenceRepo) List(f DivergenceFilter) ([]domain.Divergence, int, error) {
	where, args := buildDivergenceWhere(f)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM divergences"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	q := "SELECT " + divergenceColumns + " FROM divergences" + where +
		" ORDER BY order_number, field LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	divs, err := scanDivergences(rows)
	return divs, total, err
}

// ListAll returns every stored divergence, for CSV export.
func (r *DivergenceRepo) ListAll() ([]domain.Divergence, error) {
	rows, err := r.db.Query(
		"SELECT " + divergenceColumns + " FROM divergences ORDER BY order_number, field",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDivergences(rows)
}

// CarrierSummary buckets cost differences per carrier by sign: a positive
// difference (recorded above invoiced) is an amount the client overpaid, a
// negative one is credit owed by the carrier.
type CarrierSummary struct {
	Carrier           string  `json:"carrier"`
	DivergenceCount   int     `json:"divergence_count"`
	CostCount         int     `json:"cost_count"`
	WeightCount       int     `json:"weight_count"`
	ClientOverpaidBRL float64 `json:"client_overpaid_brl"`
	CarrierCreditBRL  float64 `json:"carrier_credit_brl"`
}

func (r *DivergenceRepo) GetSummaryByCarrier() ([]CarrierSummary, error) {
	rows, err := r.db.Query(`
		SELECT carrier,
			COUNT(*),
			COALESCE(SUM(CASE WHEN field = 'COST' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN field = 'WEIGHT' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN field = 'COST' AND difference > 0 THEN difference ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN field = 'COST' AND difference < 0 THEN -difference ELSE 0 END), 0)
		FROM divergences
		GROUP BY carrier
		ORDER BY carrier
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CarrierSummary
	for rows.Next() {
		var s CarrierSummary
		err := rows.Scan(&s.Carrier, &s.DivergenceCount, &s.CostCount,
			&s.WeightCount, &s.ClientOverpaidBRL, &s.CarrierCreditBRL)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

type DivergenceSummary struct {
	TotalCount     int              `json:"total_count"`
	CostCount      int              `json:"cost_count"`
	WeightCount    int              `json:"weight_count"`
	TotalImpactBRL float64          `json:"total_impact_brl"`
	ByCarrier      []CarrierSummary `json:"by_carrier"`
}

func (r *DivergenceRepo) GetSummary() (*DivergenceSummary, error) {
	s := &DivergenceSummary{}
	err := r.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN field = 'COST' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN field = 'WEIGHT' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN field = 'COST' THEN ABS(difference) ELSE 0 END), 0)
		FROM divergences
	`).Scan(&s.TotalCount, &s.CostCount, &s.WeightCount, &s.TotalImpactBRL)
	if err != nil {
		return nil, err
	}

	byCarrier, err := r.GetSummaryByCarrier()
	if err != nil {
		return nil, err
	}
	s.ByCarrier = byCarrier

	return s, nil
}

// --- helpers ---

func buildDivergenceWhere(f DivergenceFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.Field != "" {
		clauses = append(clauses, "field = ?")
		args = append(args, f.Field)
	}
	if f.Carrier != "" {
		clauses = append(clauses, "carrier = ?")
		args = append(args, f.Carrier)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanDivergences(rows *sql.Rows) ([]domain.Divergence, error) {
	var divs []domain.Divergence
	for rows.Next() {
		var d domain.Divergence
		var field, detectedAt string

		err := rows.Scan(
			&d.ID, &d.OrderNumber, &field, &d.ExpectedValue, &d.ActualValue,
			&d.Difference, &d.Status, &d.AppliedMargin, &d.Carrier, &d.AccessKey,
			&d.SalesChannel, &d.ChannelOrderNumber, &d.InvoiceNumber, &d.OriginZip,
			&d.DestinationZip, &d.DestinationCity, &d.VolumeCount, &d.Dimensions,
			&detectedAt,
		)
		if err != nil {
			return nil, err
		}

		d.Field = domain.DivergenceField(field)
		d.DetectedAt, _ = time.Parse(time.RFC3339, detectedAt)
		divs = append(divs, d)
	}
	return divs, rows.Err()
}
