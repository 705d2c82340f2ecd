package audit

import (
	"fmt"
	"math"

	"github.com/esprinter/freight-audit/internal/domain"
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// ResolveTolerance computes the absolute cost tolerance in BRL for the given
// margin config, plus a description of how it was derived. reference is the
// invoiced cost used as the percentage base; when nil, percentage-based
// variants cannot be computed and fall back to zero tolerance ("N/A").
//
// An unrecognized or empty config type also resolves to zero tolerance, so
// any nonzero cost difference flags. Callers that care should surface this
// as a warning rather than hide it.
func ResolveTolerance(cfg domain.MarginConfig, reference *float64) (float64, string) {
	switch cfg.Type {
	case domain.MarginAbsolute:
		return cfg.Value, fmt.Sprintf("R$ %.2f fixed", round2(cfg.Value))

	case domain.MarginPercentage:
		if reference == nil {
			return 0, "N/A"
		}
		tol := round2(*reference * cfg.Value / 100)
		return tol, fmt.Sprintf("%.2f%% of invoiced cost (R$ %.2f)", cfg.Value, tol)

	case domain.MarginSystemDefault:
		if reference == nil {
			return 0, "N/A"
		}
		tol := round2(*reference * 0.01)
		return tol, fmt.Sprintf("system default 1%% (R$ %.2f)", tol)

	case domain.MarginDynamicChoice:
		var pctTol float64
		if reference != nil {
			pctTol = round2(*reference * cfg.PercentageValue / 100)
		}
		if cfg.AbsoluteValue >= pctTol {
			return cfg.AbsoluteValue, fmt.Sprintf(
				"greater of R$ %.2f fixed and %.2f%% (R$ %.2f); fixed value binds",
				round2(cfg.AbsoluteValue), cfg.PercentageValue, pctTol,
			)
		}
		return pctTol, fmt.Sprintf(
			"greater of R$ %.2f fixed and %.2f%% (R$ %.2f); percentage binds",
			round2(cfg.AbsoluteValue), cfg.PercentageValue, pctTol,
		)

	default:
		return 0, "N/A"
	}
}
