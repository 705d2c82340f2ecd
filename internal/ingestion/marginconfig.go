package ingestion

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/esprinter/freight-audit/internal/domain"
)

// reconConfigFile is the platform's margin configuration payload.
type reconConfigFile struct {
	ReconConfig *reconConfig `json:"reconConfig"`
}

type reconConfig struct {
	MarginType                 *string `json:"marginType"`
	MarginFixedValue           float64 `json:"marginFixedValue"`
	MarginPercentageValue      float64 `json:"marginPercentageValue"`
	MarginMixedFixedValue      float64 `json:"marginMixedFixedValue"`
	MarginMixedPercentageValue float64 `json:"marginMixedPercentageValue"`
}

// ParseMarginConfig translates the platform's reconConfig payload into a
// MarginConfig variant. A null marginType means the platform applies its
// system default (1%); a type outside the known set maps to the explicit
// UNRECOGNIZED variant rather than a nil config.
func ParseMarginConfig(data []byte) (*domain.MarginConfig, error) {
	var file reconConfigFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if file.ReconConfig == nil {
		return nil, fmt.Errorf("missing reconConfig")
	}

	rc := file.ReconConfig
	cfg := &domain.MarginConfig{UpdatedAt: time.Now()}

	switch {
	case rc.MarginType == nil:
		cfg.Type = domain.MarginSystemDefault
	case *rc.MarginType == "ABSOLUTE":
		cfg.Type = domain.MarginAbsolute
		cfg.Value = rc.MarginFixedValue
	case *rc.MarginType == "PERCENTAGE":
		cfg.Type = domain.MarginPercentage
		cfg.Value = rc.MarginPercentageValue
	case *rc.MarginType == "MIXED_GREATER":
		cfg.Type = domain.MarginDynamicChoice
		cfg.AbsoluteValue = rc.MarginMixedFixedValue
		cfg.PercentageValue = rc.MarginMixedPercentageValue
	default:
		cfg.Type = domain.MarginUnrecognized
	}

	return cfg, nil
}
