package api

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/esprinter/freight-audit/internal/audit"
	"github.com/esprinter/freight-audit/internal/domain"
	"github.com/esprinter/freight-audit/internal/ingestion"
	"github.com/esprinter/freight-audit/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	orderRepo    *repository.OrderRepo
	preRepo      *repository.PreInvoiceRepo
	marginRepo   *repository.MarginConfigRepo
	divRepo      *repository.DivergenceRepo
	runRepo      *repository.AuditRunRepo
	ingestionSvc *ingestion.Service
	auditSvc     *audit.Service
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

func roundBRL(v float64) float64 {
	return math.Round(v*100) / 100
}

func readUploadedFile(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("file field is required: %w", err)
	}
	defer file.Close()
	return io.ReadAll(file)
}

// --- Ingestion ---

func (h *Handlers) IngestLedger(w http.ResponseWriter, r *http.Request) {
	data, err := readUploadedFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.ingestionSvc.IngestLedger(data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) IngestPreInvoices(w http.ResponseWriter, r *http.Request) {
	data, err := readUploadedFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.ingestionSvc.IngestPreInvoices(data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) ListPreInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.PreInvoiceFilter{
		Status: q.Get("status"),
		Page:   parseIntDefault(q.Get("page"), 1),
		Limit:  parseIntDefault(q.Get("limit"), 50),
	}

	pres, total, err := h.preRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"pre_invoices": pres,
		"total":        total,
		"page":         filter.Page,
		"limit":        filter.Limit,
	})
}

// --- Margin configuration ---

func (h *Handlers) GetMarginConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.marginRepo.Get()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cfg == nil {
		writeError(w, http.StatusNotFound, "no margin configuration stored")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// PutMarginConfig accepts the platform's reconConfig payload and stores the
// translated variant.
func (h *Handlers) PutMarginConfig(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	cfg, err := ingestion.ParseMarginConfig(data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.marginRepo.Upsert(cfg); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// --- Audit runs ---

func (h *Handlers) RunAudit(w http.ResponseWriter, r *http.Request) {
	run, err := h.auditSvc.Run()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *Handlers) ListAuditRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
	runs, err := h.runRepo.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// --- Orders ---

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.OrderFilter{
		Carrier:      q.Get("carrier"),
		SalesChannel: q.Get("sales_channel"),
		From:         parseTime(q.Get("from")),
		To:           parseTime(q.Get("to")),
		Page:         parseIntDefault(q.Get("page"), 1),
		Limit:        parseIntDefault(q.Get("limit"), 50),
	}

	orders, total, err := h.orderRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"total":  total,
		"page":   filter.Page,
		"limit":  filter.Limit,
	})
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil
		}
	}
	return &t
}

func (h *Handlers) GetOrderAuditStatus(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")
	if orderNumber == "" {
		writeError(w, http.StatusBadRequest, "order number is required")
		return
	}

	order, err := h.orderRepo.GetByOrderNumber(orderNumber)
	if err != nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	preInvoice, err := h.preRepo.GetByOrderNumber(orderNumber)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	divergences, err := h.divRepo.GetByOrderNumber(orderNumber)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"order":       order,
		"pre_invoice": preInvoice,
		"divergences": divergences,
	})
}

// --- Divergences ---

func (h *Handlers) ListDivergences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.DivergenceFilter{
		Field:   q.Get("field"),
		Carrier: q.Get("carrier"),
		Page:    parseIntDefault(q.Get("page"), 1),
		Limit:   parseIntDefault(q.Get("limit"), 50),
	}

	divs, total, err := h.divRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Total cost impact for the result set.
	var totalImpact float64
	for _, d := range divs {
		if d.Field == domain.FieldCost {
			totalImpact += math.Abs(d.Difference)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"divergences":      divs,
		"total":            total,
		"page":             filter.Page,
		"limit":            filter.Limit,
		"total_impact_brl": roundBRL(totalImpact),
	})
}

func (h *Handlers) GetDivergenceSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.divRepo.GetSummary()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ExportDivergences streams the stored divergences as a CSV report, the
// columns the finance team's audit spreadsheet uses.
func (h *Handlers) ExportDivergences(w http.ResponseWriter, r *http.Request) {
	divs, err := h.divRepo.ListAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="divergences.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	header := []string{
		"audit_date", "order_number", "carrier", "access_key", "field",
		"recorded_value", "invoiced_value", "difference", "applied_margin",
		"status", "sales_channel", "channel_order_number", "invoice_number",
		"origin_zip", "destination_zip", "destination_city", "volume_count",
		"dimensions",
	}
	if err := cw.Write(header); err != nil {
		log.Printf("[api] csv write error: %v", err)
		return
	}

	for _, d := range divs {
		row := []string{
			d.DetectedAt.Format("2006-01-02 15:04:05"),
			d.OrderNumber,
			d.Carrier,
			d.AccessKey,
			string(d.Field),
			strconv.FormatFloat(d.ExpectedValue, 'f', -1, 64),
			strconv.FormatFloat(d.ActualValue, 'f', -1, 64),
			strconv.FormatFloat(d.Difference, 'f', -1, 64),
			d.AppliedMargin,
			d.Status,
			d.SalesChannel,
			d.ChannelOrderNumber,
			d.InvoiceNumber,
			d.OriginZip,
			d.DestinationZip,
			d.DestinationCity,
			strconv.Itoa(d.VolumeCount),
			d.Dimensions,
		}
		if err := cw.Write(row); err != nil {
			log.Printf("[api] csv write error: %v", err)
			return
		}
	}
	cw.Flush()
}

// --- Dashboard ---

func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	orderCount, err := h.orderRepo.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	preCount, err := h.preRepo.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summary, err := h.divRepo.GetSummary()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	runs, err := h.runRepo.List(1)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dashboard := map[string]any{
		"orders": map[string]int{
			"total": orderCount,
		},
		"pre_invoices": map[string]int{
			"total": preCount,
		},
		"divergences": map[string]any{
			"total":            summary.TotalCount,
			"cost":             summary.CostCount,
			"weight":           summary.WeightCount,
			"total_impact_brl": roundBRL(summary.TotalImpactBRL),
		},
		"by_carrier": summary.ByCarrier,
	}
	if len(runs) > 0 {
		dashboard["last_run"] = runs[0]
	}

	writeJSON(w, http.StatusOK, dashboard)
}
