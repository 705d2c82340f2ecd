package audit

import (
	"errors"
	"fmt"

	"github.com/esprinter/freight-audit/internal/domain"
)

// RecordError is a hard per-record failure: the order record was too
// malformed to evaluate at all. It carries the offending order number so
// callers can distinguish "no divergence found" from "could not be
// evaluated".
type RecordError struct {
	OrderNumber string
	Reason      string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("order %q: %s", e.OrderNumber, e.Reason)
}

// OrderResult is the outcome of evaluating a single order record.
type OrderResult struct {
	// Divergences holds 0, 1 or 2 records (cost and/or weight), each with
	// the order's context fields attached.
	Divergences []domain.Divergence
	// Skipped lists sub-audits that could not run because an input was
	// missing, e.g. "weight: billed weight: input unavailable".
	Skipped []string
}

// Assemble runs the cost and weight audits for one order record. The two
// sub-audits are isolated: a missing input in one never suppresses the
// other. A record without an order number or recorded cost is a hard
// failure reported as *RecordError.
func Assemble(rec domain.OrderRecord, cfg domain.MarginConfig) (OrderResult, error) {
	var res OrderResult

	if rec.OrderNumber == "" {
		return res, &RecordError{OrderNumber: rec.OrderNumber, Reason: "missing order number"}
	}
	if rec.RecordedCost == nil {
		return res, &RecordError{OrderNumber: rec.OrderNumber, Reason: "missing recorded cost"}
	}

	if d, err := AuditCost(rec, cfg); err != nil {
		if !errors.Is(err, ErrInputUnavailable) {
			return res, &RecordError{OrderNumber: rec.OrderNumber, Reason: err.Error()}
		}
		res.Skipped = append(res.Skipped, "cost: "+err.Error())
	} else if d != nil {
		attachContext(d, rec)
		res.Divergences = append(res.Divergences, *d)
	}

	if d, err := AuditWeight(rec); err != nil {
		if !errors.Is(err, ErrInputUnavailable) {
			return res, &RecordError{OrderNumber: rec.OrderNumber, Reason: err.Error()}
		}
		res.Skipped = append(res.Skipped, "weight: "+err.Error())
	} else if d != nil {
		attachContext(d, rec)
		res.Divergences = append(res.Divergences, *d)
	}

	return res, nil
}

func attachContext(d *domain.Divergence, rec domain.OrderRecord) {
	d.Carrier = rec.Carrier
	d.AccessKey = rec.AccessKey
	d.SalesChannel = rec.SalesChannel
	d.ChannelOrderNumber = rec.ChannelOrderNumber
	d.InvoiceNumber = rec.InvoiceNumber
	d.OriginZip = rec.OriginZip
	d.DestinationZip = rec.DestinationZip
	d.DestinationCity = rec.DestinationCity
	d.VolumeCount = rec.VolumeCount
	d.Dimensions = rec.Dimensions
}
