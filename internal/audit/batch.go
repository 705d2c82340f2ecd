package audit

import (
	"errors"
	"log"

	"github.com/esprinter/freight-audit/internal/domain"
)

// RecordFailure pairs a failed order with the reason it could not be
// evaluated.
type RecordFailure struct {
	OrderNumber string `json:"order_number"`
	Reason      string `json:"reason"`
}

// BatchResult summarises one batch evaluation. The counts reconcile:
// every input record is either evaluated or listed in Failures, so
// discrepancies in totals stay explainable.
type BatchResult struct {
	Divergences           []domain.Divergence
	OrdersEvaluated       int
	SubAuditsSkipped      int
	Failures              []RecordFailure
	ZeroToleranceFallback bool
}

// RunBatch evaluates every order record against the shared margin config.
// Output preserves input order. A malformed record is collected as a
// failure and never aborts the batch.
func RunBatch(records []domain.OrderRecord, cfg domain.MarginConfig) BatchResult {
	res := BatchResult{ZeroToleranceFallback: zeroToleranceFallback(cfg)}

	for i := range records {
		or, err := Assemble(records[i], cfg)
		if err != nil {
			number := records[i].OrderNumber
			reason := err.Error()
			var re *RecordError
			if errors.As(err, &re) {
				number, reason = re.OrderNumber, re.Reason
			}
			res.Failures = append(res.Failures, RecordFailure{OrderNumber: number, Reason: reason})
			log.Printf("[audit] WARNING: order %q could not be evaluated: %s", number, reason)
			continue
		}
		res.OrdersEvaluated++
		res.SubAuditsSkipped += len(or.Skipped)
		res.Divergences = append(res.Divergences, or.Divergences...)
	}

	return res
}

// zeroToleranceFallback reports whether cost audits will run with zero
// tolerance because the margin config is absent or unrecognized.
func zeroToleranceFallback(cfg domain.MarginConfig) bool {
	switch cfg.Type {
	case domain.MarginAbsolute, domain.MarginPercentage,
		domain.MarginSystemDefault, domain.MarginDynamicChoice:
		return false
	}
	return true
}
