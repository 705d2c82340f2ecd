package audit

import (
	"errors"
	"fmt"
	"math"

	"github.com/esprinter/freight-audit/internal/domain"
)

// ErrInputUnavailable marks a numeric input that was missing or unparseable
// at ingestion. The affected sub-audit is skipped for that order only; the
// other sub-audit still runs and the batch continues.
var ErrInputUnavailable = errors.New("input unavailable")

// AuditCost compares the recorded shipping cost against the invoiced cost
// using the resolved tolerance. It returns nil when the difference stays
// within the margin: the comparison is strict, a difference exactly equal
// to the tolerance is not a divergence.
func AuditCost(rec domain.OrderRecord, cfg domain.MarginConfig) (*domain.Divergence, error) {
	if rec.RecordedCost == nil {
		return nil, fmt.Errorf("recorded cost: %w", ErrInputUnavailable)
	}
	if rec.ExternalCost == nil {
		return nil, fmt.Errorf("invoiced cost: %w", ErrInputUnavailable)
	}

	diff := round2(*rec.RecordedCost - *rec.ExternalCost)
	tolerance, applied := ResolveTolerance(cfg, rec.ExternalCost)

	if math.Abs(diff) <= tolerance {
		return nil, nil
	}

	status := "recorded cost higher than invoiced"
	if diff < 0 {
		status = "recorded cost lower than invoiced"
	}

	return &domain.Divergence{
		ID:            "DIV-C-" + rec.OrderNumber,
		OrderNumber:   rec.OrderNumber,
		Field:         domain.FieldCost,
		ExpectedValue: *rec.RecordedCost,
		ActualValue:   *rec.ExternalCost,
		Difference:    diff,
		Status:        status,
		AppliedMargin: applied,
	}, nil
}
