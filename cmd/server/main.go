package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/esprinter/freight-audit/internal/api"
	"github.com/esprinter/freight-audit/internal/audit"
	"github.com/esprinter/freight-audit/internal/config"
	"github.com/esprinter/freight-audit/internal/domain"
	"github.com/esprinter/freight-audit/internal/ingestion"
	"github.com/esprinter/freight-audit/internal/repository"
	"github.com/esprinter/freight-audit/internal/scheduler"
)

func main() {
	cfg := config.Load()

	log.Printf("Initializing database at %s", cfg.DBPath)
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.Close()

	// Create repositories.
	orderRepo := repository.NewOrderRepo(db)
	preRepo := repository.NewPreInvoiceRepo(db)
	marginRepo := repository.NewMarginConfigRepo(db)
	divRepo := repository.NewDivergenceRepo(db)
	runRepo := repository.NewAuditRunRepo(db)

	// Create services.
	auditSvc := audit.NewService(orderRepo, preRepo, marginRepo, divRepo, runRepo)
	ingestionSvc := ingestion.NewService(orderRepo, preRepo, auditSvc)

	// Seed from testdata if the DB is empty.
	count, err := orderRepo.Count()
	if err != nil {
		log.Fatalf("Failed to count orders: %v", err)
	}
	if count == 0 {
		log.Println("Database is empty, seeding from testdata...")
		if err := seedTestdata(orderRepo, preRepo, marginRepo); err != nil {
			log.Printf("WARNING: Failed to seed testdata: %v", err)
		}
	} else {
		log.Printf("Database already has %d orders, skipping seed", count)
	}

	// Scheduled audits, if configured.
	if cfg.AuditCron != "" {
		sched := scheduler.New(auditSvc)
		if err := sched.Start(cfg.AuditCron); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	// Create router.
	router := api.NewRouter(orderRepo, preRepo, marginRepo, divRepo, runRepo,
		ingestionSvc, auditSvc, cfg.CORSOrigins)

	log.Printf("Freight Cost & Weight Audit Service")
	log.Printf("Listening on http://localhost:%s", cfg.Port)
	log.Printf("API base: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("")
	log.Printf("Endpoints:")
	log.Printf("  POST   /api/v1/ledger/ingest")
	log.Printf("  POST   /api/v1/preinvoices/ingest")
	log.Printf("  GET    /api/v1/preinvoices")
	log.Printf("  GET    /api/v1/margin-config")
	log.Printf("  PUT    /api/v1/margin-config")
	log.Printf("  POST   /api/v1/audits/run")
	log.Printf("  GET    /api/v1/audits")
	log.Printf("  GET    /api/v1/orders")
	log.Printf("  GET    /api/v1/orders/{orderNumber}/audit-status")
	log.Printf("  GET    /api/v1/divergences")
	log.Printf("  GET    /api/v1/divergences/summary")
	log.Printf("  GET    /api/v1/divergences/export")
	log.Printf("  GET    /api/v1/dashboard")

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func seedTestdata(
	orderRepo *repository.OrderRepo,
	preRepo *repository.PreInvoiceRepo,
	marginRepo *repository.MarginConfigRepo,
) error {
	var orders []domain.Order
	if err := loadJSON("orders.json", &orders); err != nil {
		return err
	}
	inserted, err := orderRepo.BulkUpsert(orders)
	if err != nil {
		return fmt.Errorf("seed orders: %w", err)
	}
	log.Printf("Seeded %d orders", inserted)

	var pres []domain.PreInvoice
	if err := loadJSON("preinvoices.json", &pres); err != nil {
		return err
	}
	inserted, err = preRepo.BulkUpsert(pres)
	if err != nil {
		return fmt.Errorf("seed pre-invoices: %w", err)
	}
	log.Printf("Seeded %d pre-invoices", inserted)

	var cfg domain.MarginConfig
	if err := loadJSON("margin_config.json", &cfg); err != nil {
		log.Printf("WARNING: no margin config in testdata: %v", err)
		return nil
	}
	if err := marginRepo.Upsert(&cfg); err != nil {
		return fmt.Errorf("seed margin config: %w", err)
	}
	log.Printf("Seeded margin config (%s)", cfg.Type)

	return nil
}

func loadJSON(name string, v any) error {
	// Try multiple possible locations for testdata.
	candidates := []string{
		filepath.Join("testdata", name),
	}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "testdata", name),
			filepath.Join(dir, "..", "..", "testdata", name),
		)
	}

	var data []byte
	var loadErr error
	for _, path := range candidates {
		data, loadErr = os.ReadFile(path)
		if loadErr == nil {
			log.Printf("Loaded %s from %s", name, path)
			break
		}
	}
	if loadErr != nil {
		return fmt.Errorf("could not find %s in any candidate path: %w", name, loadErr)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return nil
}
