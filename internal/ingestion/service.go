package ingestion

import (
	"crypto/sha256"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/esprinter/freight-audit/internal/audit"
	"github.com/esprinter/freight-audit/internal/domain"
	"github.com/esprinter/freight-audit/internal/repository"
)

// IngestResult is returned from a successful ingestion.
type IngestResult struct {
	ReportID         string `json:"report_id"`
	RecordsIngested  int    `json:"records_ingested"`
	DivergencesFound int    `json:"divergences_found"`
	AlreadyIngested  bool   `json:"already_ingested"`
}

// Service handles ingestion of ledger exports and pre-invoice exports.
type Service struct {
	orderRepo *repository.OrderRepo
	preRepo   *repository.PreInvoiceRepo
	auditSvc  *audit.Service
}

func NewService(
	orderRepo *repository.OrderRepo,
	preRepo *repository.PreInvoiceRepo,
	auditSvc *audit.Service,
) *Service {
	return &Service{
		orderRepo: orderRepo,
		preRepo:   preRepo,
		auditSvc:  auditSvc,
	}
}

// IngestLedger parses and stores an internal ledger CSV export.
func (s *Service) IngestLedger(data []byte) (*IngestResult, error) {
	report, done, err := s.startReport(data, "ledger")
	if err != nil || done != nil {
		return done, err
	}

	orders, err := ParseLedgerCSV(data)
	if err != nil {
		return nil, fmt.Errorf("parse ledger csv: %w", err)
	}

	inserted, err := s.orderRepo.BulkUpsert(orders)
	if err != nil {
		return nil, fmt.Errorf("upsert orders: %w", err)
	}

	report.RecordCount = inserted
	if err := s.preRepo.InsertReport(report); err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	log.Printf("[ingestion] Ingested ledger report %s: %d orders", report.ID, inserted)

	return &IngestResult{ReportID: report.ID, RecordsIngested: inserted}, nil
}

// IngestPreInvoices parses and stores a platform pre-invoice export, then
// triggers a fresh audit run. Ingestion does not fail when the audit does.
func (s *Service) IngestPreInvoices(data []byte) (*IngestResult, error) {
	report, done, err := s.startReport(data, "preinvoice")
	if err != nil || done != nil {
		return done, err
	}

	pres, err := ParsePreInvoiceJSON(data, report.ID)
	if err != nil {
		return nil, fmt.Errorf("parse pre-invoice json: %w", err)
	}

	inserted, err := s.preRepo.BulkUpsert(pres)
	if err != nil {
		return nil, fmt.Errorf("upsert pre-invoices: %w", err)
	}

	report.RecordCount = inserted
	if err := s.preRepo.InsertReport(report); err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	log.Printf("[ingestion] Ingested pre-invoice report %s: %d records", report.ID, inserted)

	divergences := 0
	run, err := s.auditSvc.Run()
	if err != nil {
		log.Printf("[ingestion] WARNING: audit after ingest failed: %v", err)
	} else {
		divergences = run.DivergencesFound
	}

	return &IngestResult{
		ReportID:         report.ID,
		RecordsIngested:  inserted,
		DivergencesFound: divergences,
	}, nil
}

// startReport runs the idempotency check for a file. A file already seen
// returns a non-nil done result and no report.
func (s *Service) startReport(data []byte, kind string) (*domain.IngestReport, *IngestResult, error) {
	hash := fmt.Sprintf("%x", sha256.Sum256(data))

	exists, err := s.preRepo.ReportExistsByHash(hash)
	if err != nil {
		return nil, nil, fmt.Errorf("check hash: %w", err)
	}
	if exists {
		return nil, &IngestResult{ReportID: "already-ingested", AlreadyIngested: true}, nil
	}

	return &domain.IngestReport{
		ID:         fmt.Sprintf("RPT-%s-%s", kind, uuid.NewString()),
		Kind:       kind,
		FileHash:   hash,
		IngestedAt: time.Now(),
	}, nil, nil
}
