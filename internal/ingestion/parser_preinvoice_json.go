package ingestion

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/esprinter/freight-audit/internal/domain"
)

// preInvoiceFile is the logistics platform's pre-invoice export shape.
type preInvoiceFile struct {
	Items []preInvoiceItem `json:"items"`
}

type preInvoiceItem struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"`
	CTEValue *float64 `json:"cte_value"`
	TMSValue *float64 `json:"tms_value"`
	CTE      struct {
		Key string `json:"key"`
	} `json:"cte"`
	Invoice []struct {
		OrderNumber string `json:"order_number"`
		Number      string `json:"number"`
	} `json:"invoice"`
	OriginZipcode      string             `json:"origin_zipcode"`
	DestinationZipcode string             `json:"destination_zipcode"`
	Volumes            []preInvoiceVolume `json:"volumes"`
}

type preInvoiceVolume struct {
	Weight         *float64 `json:"weight"`
	SquaredWeight  *float64 `json:"squared_weight"`
	SelectedWeight *float64 `json:"selected_weight"`
	Dimensions     struct {
		Length float64 `json:"length"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"dimensions"`
}

// ParsePreInvoiceJSON parses the platform export and aggregates each item's
// volumes into one PreInvoice per order: cubed weight is the sum of
// volumetric (squared) weights, billed weight the sum of selected weights,
// dimensions joined per volume. A volume with a missing weight makes the
// corresponding aggregate absent rather than silently partial. Items
// without an order number cannot be correlated and are skipped with a log
// line.
func ParsePreInvoiceJSON(data []byte, reportID string) ([]domain.PreInvoice, error) {
	var file preInvoiceFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	now := time.Now()
	var pres []domain.PreInvoice

	for i, item := range file.Items {
		if len(item.Invoice) == 0 || item.Invoice[0].OrderNumber == "" {
			log.Printf("[ingestion] skipping pre-invoice %d (%s): no order number to correlate", i, item.ID)
			continue
		}

		id := item.ID
		if id == "" {
			id = fmt.Sprintf("PI-%s-%d", reportID, i)
		}

		cubed, billed, dimensions := aggregateVolumes(item.Volumes)

		pres = append(pres, domain.PreInvoice{
			ID:             id,
			ReportID:       reportID,
			OrderNumber:    item.Invoice[0].OrderNumber,
			Status:         item.Status,
			AccessKey:      item.CTE.Key,
			CTEValue:       item.CTEValue,
			TMSValue:       item.TMSValue,
			InvoiceNumber:  item.Invoice[0].Number,
			OriginZip:      item.OriginZipcode,
			DestinationZip: item.DestinationZipcode,
			CubedWeight:    cubed,
			BilledWeight:   billed,
			VolumeCount:    len(item.Volumes),
			Dimensions:     dimensions,
			IngestedAt:     now,
		})
	}

	return pres, nil
}

func aggregateVolumes(volumes []preInvoiceVolume) (cubed, billed *float64, dimensions string) {
	if len(volumes) == 0 {
		return nil, nil, ""
	}

	var cubedSum, billedSum float64
	cubedOK, billedOK := true, true
	dims := make([]string, 0, len(volumes))

	for _, v := range volumes {
		if v.SquaredWeight != nil {
			cubedSum += *v.SquaredWeight
		} else {
			cubedOK = false
		}
		if v.SelectedWeight != nil {
			billedSum += *v.SelectedWeight
		} else {
			billedOK = false
		}
		dims = append(dims, fmt.Sprintf("%gx%gx%g",
			v.Dimensions.Length, v.Dimensions.Width, v.Dimensions.Height))
	}

	if cubedOK {
		cubed = &cubedSum
	}
	if billedOK {
		billed = &billedSum
	}
	return cubed, billed, strings.Join(dims, " | ")
}
