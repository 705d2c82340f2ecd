package domain

import "time"

// IngestReport records one ingested file (ledger export or pre-invoice
// export) for idempotency by content hash.
type IngestReport struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	FileHash    string    `json:"file_hash"`
	RecordCount int       `json:"record_count"`
	IngestedAt  time.Time `json:"ingested_at"`
}

// PreInvoice is the platform's staging record for one order's projected
// carrier invoice, with its volumes already aggregated: cubed weight and
// billed weight are sums across volumes, dimensions are joined per volume.
type PreInvoice struct {
	ID             string    `json:"id"`
	ReportID       string    `json:"report_id"`
	OrderNumber    string    `json:"order_number"`
	Status         string    `json:"status"`
	AccessKey      string    `json:"access_key"`
	CTEValue       *float64  `json:"cte_value,omitempty"`
	TMSValue       *float64  `json:"tms_value,omitempty"`
	InvoiceNumber  string    `json:"invoice_number"`
	OriginZip      string    `json:"origin_zip"`
	DestinationZip string    `json:"destination_zip"`
	CubedWeight    *float64  `json:"cubed_weight,omitempty"`
	BilledWeight   *float64  `json:"billed_weight,omitempty"`
	VolumeCount    int       `json:"volume_count"`
	Dimensions     string    `json:"dimensions"`
	IngestedAt     time.Time `json:"ingested_at"`
}
