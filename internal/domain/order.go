package domain

import "time"

// Order is one shipment order from the internal ledger, with its per-volume
// declared weights already aggregated (sum + count).
type Order struct {
	OrderNumber        string     `json:"order_number"`
	RecordedCost       *float64   `json:"recorded_cost,omitempty"`
	DeclaredWeightSum  *float64   `json:"declared_weight_sum,omitempty"`
	VolumeCount        int        `json:"volume_count"`
	Carrier            string     `json:"carrier"`
	SalesChannel       string     `json:"sales_channel"`
	ChannelOrderNumber string     `json:"channel_order_number"`
	InvoiceNumber      string     `json:"invoice_number"`
	OriginZip          string     `json:"origin_zip"`
	DestinationZip     string     `json:"destination_zip"`
	DestinationCity    string     `json:"destination_city"`
	CreatedAt          time.Time  `json:"created_at"`
	AuditedAt          *time.Time `json:"audited_at,omitempty"`
}

// OrderRecord is the flattened per-order input to the audit engine: an
// Order joined with the pre-invoice values reported by the logistics
// platform. Optional numerics stay nil when the source value was missing
// or unparseable; the affected sub-audit is then skipped for this order.
type OrderRecord struct {
	OrderNumber        string
	RecordedCost       *float64
	ExternalCost       *float64
	DeclaredWeightSum  *float64
	CubedWeight        *float64
	BilledWeight       *float64
	Carrier            string
	AccessKey          string
	SalesChannel       string
	ChannelOrderNumber string
	InvoiceNumber      string
	OriginZip          string
	DestinationZip     string
	DestinationCity    string
	VolumeCount        int
	Dimensions         string
}
