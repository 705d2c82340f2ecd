package domain

import "time"

// DivergenceField identifies which audited value diverged.
type DivergenceField string

const (
	FieldCost   DivergenceField = "COST"
	FieldWeight DivergenceField = "WEIGHT"
)

// Divergence is one detected mismatch between an internally recorded value
// and the value reported by the logistics platform.
//
// Difference is always ExpectedValue - ActualValue: positive means the
// internal (recorded or considered) value is higher than the invoiced one.
// Downstream financial bucketing relies on this sign convention.
type Divergence struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"order_number"`
	Field         DivergenceField `json:"field"`
	ExpectedValue float64         `json:"expected_value"`
	ActualValue   float64         `json:"actual_value"`
	Difference    float64         `json:"difference"`
	Status        string          `json:"status"`
	AppliedMargin string          `json:"applied_margin"`

	// Context copied verbatim from the originating order record.
	Carrier            string `json:"carrier"`
	AccessKey          string `json:"access_key"`
	SalesChannel       string `json:"sales_channel"`
	ChannelOrderNumber string `json:"channel_order_number"`
	InvoiceNumber      string `json:"invoice_number"`
	OriginZip          string `json:"origin_zip"`
	DestinationZip     string `json:"destination_zip"`
	DestinationCity    string `json:"destination_city"`
	VolumeCount        int    `json:"volume_count"`
	Dimensions         string `json:"dimensions"`

	DetectedAt time.Time `json:"detected_at"`
}

// AuditRun summarises one completed audit batch.
type AuditRun struct {
	ID                    string    `json:"id"`
	StartedAt             time.Time `json:"started_at"`
	DurationMS            int64     `json:"duration_ms"`
	OrdersEvaluated       int       `json:"orders_evaluated"`
	SubAuditsSkipped      int       `json:"sub_audits_skipped"`
	RecordsFailed         int       `json:"records_failed"`
	DivergencesFound      int       `json:"divergences_found"`
	ZeroToleranceFallback bool      `json:"zero_tolerance_fallback"`
}
