package service

import (
	"context"
	"time"

	"go-healthcare-practice/internal/domain/entity"
	"go-healthcare-practice/internal/domain/repository"
	"go-healthcare-practice/pkg/clock"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	overdueSweepBatchSize = 200
	overdueSweepTimeout   = 30 * time.Second
)

// OverdueSweeper moves pending invoices past their due date to overdue.
type OverdueSweeper struct {
	db          *gorm.DB
	log         *logrus.Logger
	billingRepo repository.BillingRepository
	audit       AuditService
	clock       clock.Clock
	batchSize   int
}

func NewOverdueSweeper(db *gorm.DB, log *logrus.Logger, billingRepo repository.BillingRepository, audit AuditService, clk clock.Clock) *OverdueSweeper {
	return &OverdueSweeper{
		db:          db,
		log:         log,
		billingRepo: billingRepo,
		audit:       audit,
		clock:       clk,
		batchSize:   overdueSweepBatchSize,
	}
}

// Sweep marks every eligible invoice and returns how many changed. Each
// update re-checks eligibility, so a payment racing the sweep wins.
func (s *OverdueSweeper) Sweep(ctx context.Context) (int, error) {
	now := s.clock.Now()
	marked := 0

	for {
		candidates, err := s.billingRepo.FindOverdueCandidates(ctx, s.db, now, s.batchSize)
		if err != nil {
			return marked, storeError("find overdue candidates", err)
		}

		batchMarked := 0
		for i := range candidates {
			billing := &candidates[i]
			affected, err := s.billingRepo.MarkOverdue(ctx, s.db, billing.ID, now)
			if err != nil {
				return marked, storeError("mark invoice overdue", err)
			}
			if affected == 0 {
				continue
			}
			batchMarked++
			s.audit.Record(ctx, AuditEntry{
				Action:       entity.AuditActionBillingOverdue,
				ResourceType: entity.AuditResourceBilling,
				ResourceID:   billing.ID.String(),
				Description:  "Invoice " + billing.InvoiceNumber + " is past due",
				Details: map[string]interface{}{
					"invoice_number": billing.InvoiceNumber,
					"due_date":       billing.DueDate,
					"balance":        billing.Balance.StringFixed(moneyPlaces),
				},
			})
		}
		marked += batchMarked

		if len(candidates) < s.batchSize || batchMarked == 0 {
			return marked, nil
		}
	}
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *OverdueSweeper) Run(ctx context.Context, interval time.Duration) {
	s.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Shutdown signal received, stopping overdue sweeper")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *OverdueSweeper) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, overdueSweepTimeout)
	defer cancel()

	start := time.Now()
	marked, err := s.Sweep(runCtx)
	if err != nil {
		s.log.Warnf("Failed to sweep overdue invoices: %+v", err)
		return
	}
	s.log.WithFields(logrus.Fields{
		"marked":   marked,
		"duration": time.Since(start).String(),
	}).Info("Overdue sweep complete")
}
