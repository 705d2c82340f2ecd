package scheduler

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/esprinter/freight-audit/internal/audit"
)

// Scheduler triggers periodic audit runs on a cron spec, so divergences
// stay current between manual runs and ingests.
type Scheduler struct {
	cron     *cron.Cron
	auditSvc *audit.Service
}

func New(auditSvc *audit.Service) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		auditSvc: auditSvc,
	}
}

// Start registers the audit job under the given cron spec and starts the
// scheduler.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		run, err := s.auditSvc.Run()
		if err != nil {
			log.Printf("[scheduler] WARNING: scheduled audit failed: %v", err)
			return
		}
		log.Printf("[scheduler] scheduled audit %s found %d divergences", run.ID, run.DivergencesFound)
	})
	if err != nil {
		return fmt.Errorf("add audit job: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] audits scheduled with spec %q", spec)
	return nil
}

// Stop halts the scheduler; a running audit finishes first.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
