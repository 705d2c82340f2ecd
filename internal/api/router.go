package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/esprinter/freight-audit/internal/audit"
	"github.com/esprinter/freight-audit/internal/ingestion"
	"github.com/esprinter/freight-audit/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	orderRepo *repository.OrderRepo,
	preRepo *repository.PreInvoiceRepo,
	marginRepo *repository.MarginConfigRepo,
	divRepo *repository.DivergenceRepo,
	runRepo *repository.AuditRunRepo,
	ingestionSvc *ingestion.Service,
	auditSvc *audit.Service,
	corsOrigins []string,
) http.Handler {
	h := &Handlers{
		orderRepo:    orderRepo,
		preRepo:      preRepo,
		marginRepo:   marginRepo,
		divRepo:      divRepo,
		runRepo:      runRepo,
		ingestionSvc: ingestionSvc,
		auditSvc:     auditSvc,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// Ingestion.
		r.Post("/ledger/ingest", h.IngestLedger)
		r.Post("/preinvoices/ingest", h.IngestPreInvoices)
		r.Get("/preinvoices", h.ListPreInvoices)

		// Margin configuration.
		r.Get("/margin-config", h.GetMarginConfig)
		r.Put("/margin-config", h.PutMarginConfig)

		// Audit runs.
		r.Post("/audits/run", h.RunAudit)
		r.Get("/audits", h.ListAuditRuns)

		// Orders.
		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{orderNumber}/audit-status", h.GetOrderAuditStatus)

		// Divergences.
		r.Get("/divergences", h.ListDivergences)
		r.Get("/divergences/summary", h.GetDivergenceSummary)
		r.Get("/divergences/export", h.ExportDivergences)

		// Dashboard.
		r.Get("/dashboard", h.GetDashboard)
	})

	return r
}
