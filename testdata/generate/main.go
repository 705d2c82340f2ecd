package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/esprinter/freight-audit/internal/domain"
)

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	// Order date range: 2024-03-04 to 2024-03-17.
	startDate := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)
	dayRange := int(endDate.Sub(startDate).Hours() / 24)

	carriers := []string{"Rapidao Log", "TransNorte Express", "Veloz Cargas"}
	channels := []string{"site", "marketplace", "b2b"}
	cities := []struct {
		zip  string
		name string
	}{
		{"30140-071", "Belo Horizonte"},
		{"80010-000", "Curitiba"},
		{"69005-070", "Manaus"},
		{"40020-000", "Salvador"},
		{"90010-150", "Porto Alegre"},
		{"60025-100", "Fortaleza"},
	}

	const orderCount = 60

	var orders []domain.Order
	volumes := make(map[string][]float64)

	for i := 1; i <= orderCount; i++ {
		orderNumber := fmt.Sprintf("SO-%06d", 100000+i)

		day := rng.Intn(dayRange)
		hour := 8 + rng.Intn(10)
		minute := rng.Intn(60)
		createdAt := startDate.AddDate(0, 0, day).Add(
			time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute,
		)

		volumeCount := 1 + rng.Intn(3)
		var weights []float64
		weightSum := 0.0
		for v := 0; v < volumeCount; v++ {
			w := math.Round((0.5+rng.Float64()*14.5)*1000) / 1000
			weights = append(weights, w)
			weightSum = math.Round((weightSum+w)*1000) / 1000
		}
		volumes[orderNumber] = weights

		// Freight cost loosely tied to weight.
		cost := math.Round((12+weightSum*3.1+rng.Float64()*8)*100) / 100
		recordedCost := &cost
		declaredSum := &weightSum

		roll := rng.Float64()
		switch {
		case roll < 0.05:
			// Missing recorded cost: forces the TMS-value fallback.
			recordedCost = nil
		case roll < 0.08:
			// Missing declared weights: weight check gets skipped.
			declaredSum = nil
			volumes[orderNumber] = nil
		}

		channel := channels[rng.Intn(len(channels))]
		city := cities[rng.Intn(len(cities))]

		orders = append(orders, domain.Order{
			OrderNumber:        orderNumber,
			RecordedCost:       recordedCost,
			DeclaredWeightSum:  declaredSum,
			VolumeCount:        volumeCount,
			Carrier:            carriers[rng.Intn(len(carriers))],
			SalesChannel:       channel,
			ChannelOrderNumber: fmt.Sprintf("%s-%05d", strings.ToUpper(channel[:3]), 88000+i),
			InvoiceNumber:      fmt.Sprintf("NF-%05d", 55230+i),
			OriginZip:          "01310-100",
			DestinationZip:     city.zip,
			DestinationCity:    city.name,
			CreatedAt:          createdAt,
		})
	}

	writeJSONFile(filepath.Join(baseDir, "orders.json"), orders)
	fmt.Printf("Generated %d orders -> orders.json\n", len(orders))

	generateLedgerCSV(orders, volumes, baseDir)
	pres := generatePreInvoices(rng, orders, baseDir)
	generatePlatformJSON(orders, pres, volumes, baseDir)

	cfg := domain.MarginConfig{
		Type:            domain.MarginDynamicChoice,
		AbsoluteValue:   2.0,
		PercentageValue: 1.5,
		UpdatedAt:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	writeJSONFile(filepath.Join(baseDir, "margin_config.json"), cfg)
	fmt.Println("Generated margin config -> margin_config.json")

	fmt.Println("Test data generation complete.")
}

// generateLedgerCSV writes the per-volume export format the ledger parser
// reads: one row per volume, order fields repeated on each row.
func generateLedgerCSV(orders []domain.Order, volumes map[string][]float64, baseDir string) {
	filePath := filepath.Join(baseDir, "ledger_report.csv")
	f, err := os.Create(filePath)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{
		"order_number", "order_date", "recorded_cost", "carrier",
		"sales_channel", "channel_order_number", "invoice_number",
		"origin_zip", "destination_zip", "destination_city",
		"volume_number", "declared_weight",
	})

	rows := 0
	for _, o := range orders {
		cost := ""
		if o.RecordedCost != nil {
			cost = fmt.Sprintf("%.2f", *o.RecordedCost)
		}
		weights := volumes[o.OrderNumber]
		for v := 0; v < o.VolumeCount; v++ {
			weight := ""
			if v < len(weights) {
				weight = fmt.Sprintf("%.3f", weights[v])
			}
			w.Write([]string{
				o.OrderNumber,
				o.CreatedAt.Format("2006-01-02"),
				cost,
				o.Carrier,
				o.SalesChannel,
				o.ChannelOrderNumber,
				o.InvoiceNumber,
				o.OriginZip,
				o.DestinationZip,
				o.DestinationCity,
				fmt.Sprintf("%d", v+1),
				weight,
			})
			rows++
		}
	}

	fmt.Printf("Generated %d ledger CSV rows -> ledger_report.csv\n", rows)
}

func generatePreInvoices(rng *rand.Rand, orders []domain.Order, baseDir string) []domain.PreInvoice {
	var pres []domain.PreInvoice
	ingestedAt := time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC)

	for i, o := range orders {
		// A few orders never show up on the platform.
		if i >= len(orders)-2 {
			continue
		}

		baseCost := 30.0
		if o.RecordedCost != nil {
			baseCost = *o.RecordedCost
		}

		cte := baseCost
		tms := baseCost

		declared := 0.0
		if o.DeclaredWeightSum != nil {
			declared = *o.DeclaredWeightSum
		}
		cubed := math.Round(declared*(0.8+rng.Float64()*0.4)*1000) / 1000
		billed := math.Max(declared, cubed)

		roll := rng.Float64()
		switch {
		case roll < 0.10:
			// Cost divergence: platform bills 5-15% off.
			delta := baseCost * (0.05 + rng.Float64()*0.10)
			if rng.Intn(2) == 0 {
				delta = -delta
			}
			cte = math.Round((baseCost+delta)*100) / 100
		case roll < 0.20:
			// Weight divergence: billed weight inflated by 1-4 kg.
			billed = math.Round((billed+1+rng.Float64()*3)*1000) / 1000
		}

		cteValue := &cte
		if roll >= 0.20 && roll < 0.24 {
			// Missing CT-e value: cost check gets skipped.
			cteValue = nil
		}

		pres = append(pres, domain.PreInvoice{
			ID:             fmt.Sprintf("PI-%04d", 9000+i+1),
			ReportID:       "RPT-seed",
			OrderNumber:    o.OrderNumber,
			Status:         "WAITING_FOR_CONCILIATION",
			AccessKey:      fmt.Sprintf("352403123456780001905700100%08d1%08d", 55230+i, 55230+i),
			CTEValue:       cteValue,
			TMSValue:       &tms,
			InvoiceNumber:  o.InvoiceNumber,
			OriginZip:      o.OriginZip,
			DestinationZip: o.DestinationZip,
			CubedWeight:    &cubed,
			BilledWeight:   &billed,
			VolumeCount:    o.VolumeCount,
			Dimensions:     randomDimensions(rng, o.VolumeCount),
			IngestedAt:     ingestedAt,
		})
	}

	writeJSONFile(filepath.Join(baseDir, "preinvoices.json"), pres)
	fmt.Printf("Generated %d pre-invoices -> preinvoices.json\n", len(pres))
	return pres
}

// generatePlatformJSON writes the raw platform payload format the pre-invoice
// parser reads, reconstructed from the canonical pre-invoice fixtures.
func generatePlatformJSON(orders []domain.Order, pres []domain.PreInvoice, volumes map[string][]float64, baseDir string) {
	type dims struct {
		Length float64 `json:"length"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	type volume struct {
		Weight         *float64 `json:"weight"`
		SquaredWeight  *float64 `json:"squared_weight"`
		SelectedWeight *float64 `json:"selected_weight"`
		Dimensions     dims     `json:"dimensions"`
	}
	type invoiceRef struct {
		OrderNumber string `json:"order_number"`
		Number      string `json:"number"`
	}
	type cte struct {
		Key string `json:"key"`
	}
	type item struct {
		ID             string       `json:"id"`
		Status         string       `json:"status"`
		CTEValue       *float64     `json:"cte_value"`
		TMSValue       *float64     `json:"tms_value"`
		CTE            cte          `json:"cte"`
		Invoice        []invoiceRef `json:"invoice"`
		OriginZip      string       `json:"origin_zipcode"`
		DestinationZip string       `json:"destination_zipcode"`
		Volumes        []volume     `json:"volumes"`
	}
	type file struct {
		Items []item `json:"items"`
	}

	byOrder := make(map[string]domain.Order, len(orders))
	for _, o := range orders {
		byOrder[o.OrderNumber] = o
	}

	var items []item
	for _, p := range pres {
		o := byOrder[p.OrderNumber]
		weights := volumes[p.OrderNumber]

		var vols []volume
		for v := 0; v < p.VolumeCount; v++ {
			vol := volume{Dimensions: dims{Length: 30, Width: 20, Height: 15}}
			if v < len(weights) {
				w := weights[v]
				vol.Weight = &w
			}
			if p.CubedWeight != nil {
				sq := math.Round(*p.CubedWeight/float64(p.VolumeCount)*1000) / 1000
				vol.SquaredWeight = &sq
			}
			if p.BilledWeight != nil {
				sel := math.Round(*p.BilledWeight/float64(p.VolumeCount)*1000) / 1000
				vol.SelectedWeight = &sel
			}
			vols = append(vols, vol)
		}

		items = append(items, item{
			ID:             p.ID,
			Status:         p.Status,
			CTEValue:       p.CTEValue,
			TMSValue:       p.TMSValue,
			CTE:            cte{Key: p.AccessKey},
			Invoice:        []invoiceRef{{OrderNumber: p.OrderNumber, Number: o.InvoiceNumber}},
			OriginZip:      p.OriginZip,
			DestinationZip: p.DestinationZip,
			Volumes:        vols,
		})
	}

	writeJSONFile(filepath.Join(baseDir, "preinvoice_platform.json"), file{Items: items})
	fmt.Printf("Generated %d platform items -> preinvoice_platform.json\n", len(items))
}

func randomDimensions(rng *rand.Rand, count int) string {
	var parts []string
	for i := 0; i < count; i++ {
		parts = append(parts, fmt.Sprintf("%dx%dx%d",
			20+rng.Intn(40), 15+rng.Intn(30), 10+rng.Intn(30)))
	}
	return strings.Join(parts, " | ")
}

func writeJSONFile(path string, v any) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		panic(err)
	}
}

func findTestdataDir() string {
	candidates := []string{
		"testdata",
		"./testdata",
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "testdata"
}
