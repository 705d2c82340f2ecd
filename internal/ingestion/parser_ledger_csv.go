package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/esprinter/freight-audit/internal/domain"
)

// ledgerColumnCount is the expected width of the internal ledger export.
//
// Header:
//
//	order_number,order_date,recorded_cost,carrier,sales_channel,
//	channel_order_number,invoice_number,origin_zip,destination_zip,
//	destination_city,volume_number,declared_weight
const ledgerColumnCount = 12

// ParseLedgerCSV parses the internal ledger export. The export carries one
// row per volume; rows are aggregated per order: declared weights are
// summed, volumes counted, identifying fields taken from the first row.
// An empty recorded_cost or declared_weight stays absent rather than zero,
// so the matching sub-audit is skipped instead of flagging a false
// divergence.
func ParseLedgerCSV(data []byte) ([]domain.Order, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < ledgerColumnCount {
		return nil, fmt.Errorf("expected %d columns, got %d", ledgerColumnCount, len(header))
	}

	type orderAgg struct {
		order         domain.Order
		weightSum     float64
		weightMissing bool
	}

	byNumber := make(map[string]*orderAgg)
	var sequence []string
	lineNum := 1

	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if len(row) < ledgerColumnCount {
			continue
		}

		orderNumber := strings.TrimSpace(row[0])
		if orderNumber == "" {
			return nil, fmt.Errorf("line %d: empty order_number", lineNum)
		}

		agg, ok := byNumber[orderNumber]
		if !ok {
			orderDate, err := parseLedgerDate(strings.TrimSpace(row[1]))
			if err != nil {
				return nil, fmt.Errorf("line %d date: %w", lineNum, err)
			}

			agg = &orderAgg{order: domain.Order{
				OrderNumber:        orderNumber,
				RecordedCost:       parseOptionalFloat(row[2]),
				Carrier:            strings.TrimSpace(row[3]),
				SalesChannel:       strings.TrimSpace(row[4]),
				ChannelOrderNumber: strings.TrimSpace(row[5]),
				InvoiceNumber:      strings.TrimSpace(row[6]),
				OriginZip:          strings.TrimSpace(row[7]),
				DestinationZip:     strings.TrimSpace(row[8]),
				DestinationCity:    strings.TrimSpace(row[9]),
				CreatedAt:          orderDate,
			}}
			byNumber[orderNumber] = agg
			sequence = append(sequence, orderNumber)
		}

		agg.order.VolumeCount++

		if w := parseOptionalFloat(row[11]); w != nil {
			agg.weightSum += *w
		} else {
			agg.weightMissing = true
		}
	}

	orders := make([]domain.Order, 0, len(sequence))
	for _, number := range sequence {
		agg := byNumber[number]
		if !agg.weightMissing {
			sum := agg.weightSum
			agg.order.DeclaredWeightSum = &sum
		}
		orders = append(orders, agg.order)
	}

	return orders, nil
}

func parseLedgerDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, err
		}
	}
	return t, nil
}

// parseOptionalFloat returns nil for an empty or unparseable numeric cell.
func parseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
