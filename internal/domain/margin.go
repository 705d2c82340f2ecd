package domain

import "time"

// MarginType selects the tolerance-computation strategy for cost audits.
type MarginType string

const (
	MarginAbsolute      MarginType = "ABSOLUTE"
	MarginPercentage    MarginType = "PERCENTAGE"
	MarginSystemDefault MarginType = "SYSTEM_DEFAULT"
	MarginDynamicChoice MarginType = "DYNAMIC_CHOICE"

	// MarginUnrecognized is the explicit variant for a config the platform
	// reported in a shape we do not know. Cost audits then run with zero
	// tolerance, flagging any nonzero difference.
	MarginUnrecognized MarginType = "UNRECOGNIZED"
)

// MarginConfig is the tolerance policy fetched from the logistics platform.
// Exactly one variant is active per audit run; the fields required depend
// on Type:
//
//	ABSOLUTE        Value is a fixed amount in BRL
//	PERCENTAGE      Value is a percent of the invoiced cost
//	SYSTEM_DEFAULT  implicit 1% of the invoiced cost
//	DYNAMIC_CHOICE  greater of AbsoluteValue and PercentageValue percent
type MarginConfig struct {
	Type            MarginType `json:"type"`
	Value           float64    `json:"value,omitempty"`
	AbsoluteValue   float64    `json:"absolute_value,omitempty"`
	PercentageValue float64    `json:"percentage_value,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
