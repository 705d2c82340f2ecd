package audit

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/esprinter/freight-audit/internal/domain"
	"github.com/esprinter/freight-audit/internal/repository"
)

// Service joins ledger orders with pre-invoice data and runs the audit
// batch against the stored divergence set.
type Service struct {
	orderRepo  *repository.OrderRepo
	preRepo    *repository.PreInvoiceRepo
	marginRepo *repository.MarginConfigRepo
	divRepo    *repository.DivergenceRepo
	runRepo    *repository.AuditRunRepo
}

func NewService(
	orderRepo *repository.OrderRepo,
	preRepo *repository.PreInvoiceRepo,
	marginRepo *repository.MarginConfigRepo,
	divRepo *repository.DivergenceRepo,
	runRepo *repository.AuditRunRepo,
) *Service {
	return &Service{
		orderRepo:  orderRepo,
		preRepo:    preRepo,
		marginRepo: marginRepo,
		divRepo:    divRepo,
		runRepo:    runRepo,
	}
}

// Run executes a full audit: clears previous divergences, evaluates every
// ledger order that has a matching pre-invoice, and stores the results.
func (s *Service) Run() (*domain.AuditRun, error) {
	start := time.Now()

	cfg := domain.MarginConfig{Type: domain.MarginUnrecognized}
	stored, err := s.marginRepo.Get()
	if err != nil {
		return nil, fmt.Errorf("load margin config: %w", err)
	}
	if stored != nil {
		cfg = *stored
	} else {
		log.Printf("[audit] WARNING: no margin configuration stored; cost audits run with zero tolerance")
	}

	orders, err := s.orderRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	preByOrder, err := s.preRepo.MapByOrderNumber()
	if err != nil {
		return nil, fmt.Errorf("load pre-invoices: %w", err)
	}

	records, unmatched := buildRecords(orders, preByOrder)
	if unmatched > 0 {
		log.Printf("[audit] %d of %d ledger orders have no pre-invoice yet and were not audited",
			unmatched, len(orders))
	}

	result := RunBatch(records, cfg)

	for i := range result.Divergences {
		result.Divergences[i].DetectedAt = start
	}

	if err := s.divRepo.ClearAll(); err != nil {
		return nil, fmt.Errorf("clear divergences: %w", err)
	}
	if _, err := s.divRepo.BulkInsert(result.Divergences); err != nil {
		return nil, fmt.Errorf("insert divergences: %w", err)
	}

	audited := make([]string, 0, len(records))
	for _, rec := range records {
		audited = append(audited, rec.OrderNumber)
	}
	if err := s.orderRepo.MarkAudited(audited, start); err != nil {
		log.Printf("[audit] WARNING: failed to stamp audited orders: %v", err)
	}

	run := &domain.AuditRun{
		ID:                    "RUN-" + uuid.NewString(),
		StartedAt:             start,
		DurationMS:            time.Since(start).Milliseconds(),
		OrdersEvaluated:       result.OrdersEvaluated,
		SubAuditsSkipped:      result.SubAuditsSkipped,
		RecordsFailed:         len(result.Failures),
		DivergencesFound:      len(result.Divergences),
		ZeroToleranceFallback: result.ZeroToleranceFallback,
	}
	if err := s.runRepo.Insert(run); err != nil {
		return nil, fmt.Errorf("insert audit run: %w", err)
	}

	log.Printf("[audit] Run %s: evaluated=%d, skipped_sub_audits=%d, failed=%d, divergences=%d",
		run.ID, run.OrdersEvaluated, run.SubAuditsSkipped, run.RecordsFailed, run.DivergencesFound)

	return run, nil
}

// buildRecords inner-joins ledger orders with their pre-invoice aggregates
// into the flattened records the engine consumes. A ledger cost left empty
// falls back to the platform's projected TMS value, mirroring how the
// finance team fills the gap manually.
func buildRecords(orders []domain.Order, preByOrder map[string]domain.PreInvoice) ([]domain.OrderRecord, int) {
	var records []domain.OrderRecord
	unmatched := 0

	for _, o := range orders {
		p, ok := preByOrder[o.OrderNumber]
		if !ok {
			unmatched++
			continue
		}

		recorded := o.RecordedCost
		if recorded == nil {
			recorded = p.TMSValue
		}

		invoiceNumber := o.InvoiceNumber
		if invoiceNumber == "" {
			invoiceNumber = p.InvoiceNumber
		}

		volumeCount := o.VolumeCount
		if volumeCount == 0 {
			volumeCount = p.VolumeCount
		}

		records = append(records, domain.OrderRecord{
			OrderNumber:        o.OrderNumber,
			RecordedCost:       recorded,
			ExternalCost:       p.CTEValue,
			DeclaredWeightSum:  o.DeclaredWeightSum,
			CubedWeight:        p.CubedWeight,
			BilledWeight:       p.BilledWeight,
			Carrier:            o.Carrier,
			AccessKey:          p.AccessKey,
			SalesChannel:       o.SalesChannel,
			ChannelOrderNumber: o.ChannelOrderNumber,
			InvoiceNumber:      invoiceNumber,
			OriginZip:          o.OriginZip,
			DestinationZip:     o.DestinationZip,
			DestinationCity:    o.DestinationCity,
			VolumeCount:        volumeCount,
			Dimensions:         p.Dimensions,
		})
	}

	return records, unmatched
}
