package audit

import (
	"fmt"
	"math"

	"github.com/esprinter/freight-audit/internal/domain"
)

// AuditWeight compares the considered weight against the billed weight.
// The considered weight is whichever is larger between the sum of declared
// volume weights and the cubed (volumetric) weight: that is the fair basis
// for billing, so any inequality with the billed weight is a divergence.
// No margin applies; values are compared rounded to 3 decimals.
func AuditWeight(rec domain.OrderRecord) (*domain.Divergence, error) {
	if rec.DeclaredWeightSum == nil {
		return nil, fmt.Errorf("declared weight sum: %w", ErrInputUnavailable)
	}
	if rec.CubedWeight == nil {
		return nil, fmt.Errorf("cubed weight: %w", ErrInputUnavailable)
	}
	if rec.BilledWeight == nil {
		return nil, fmt.Errorf("billed weight: %w", ErrInputUnavailable)
	}

	considered := math.Max(*rec.DeclaredWeightSum, *rec.CubedWeight)
	if round3(considered) == round3(*rec.BilledWeight) {
		return nil, nil
	}

	diff := round3(considered - *rec.BilledWeight)

	var status string
	if diff > 0 {
		status = fmt.Sprintf("considered weight %.3f kg above billed by %.3f kg", round3(considered), diff)
	} else {
		status = fmt.Sprintf("considered weight %.3f kg below billed by %.3f kg", round3(considered), -diff)
	}

	return &domain.Divergence{
		ID:            "DIV-W-" + rec.OrderNumber,
		OrderNumber:   rec.OrderNumber,
		Field:         domain.FieldWeight,
		ExpectedValue: considered,
		ActualValue:   *rec.BilledWeight,
		Difference:    diff,
		Status:        status,
		AppliedMargin: "N/A (direct comparison)",
	}, nil
}
