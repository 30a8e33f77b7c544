package service

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/sinapseerp/engine/internal/domain/enum"
	"github.com/sinapseerp/engine/internal/domain/repository"
)

// goalBatchLimit caps how many unresolved sales one run will consider
const goalBatchLimit = 500

// GoalService is the monthly issuance governor: it compares the month's
// authorized issuance against a target derived from purchase volume and
// emits documents for unresolved sales, oldest first, until the gap closes.
type GoalService struct {
	saleRepo     repository.SaleRepository
	invoiceRepo  repository.InboundInvoiceRepository
	settingsRepo repository.SettingsRepository
	fiscal       *FiscalService
}

// NewGoalService creates a new goal service
func NewGoalService(
	saleRepo repository.SaleRepository,
	invoiceRepo repository.InboundInvoiceRepository,
	settingsRepo repository.SettingsRepository,
	fiscal *FiscalService,
) *GoalService {
	return &GoalService{
		saleRepo:     saleRepo,
		invoiceRepo:  invoiceRepo,
		settingsRepo: settingsRepo,
		fiscal:       fiscal,
	}
}

// GoalRunResult reports one governor pass, decimal currency
type GoalRunResult struct {
	Strategy   enum.GoalStrategy `json:"strategy"`
	Purchased  float64           `json:"purchased"`
	Target     float64           `json:"target"`
	Issued     float64           `json:"issued"`
	Gap        float64           `json:"gap"`
	Emitted    float64           `json:"emitted"`
	Processed  int               `json:"processed"`
	Authorized int               `json:"authorized"`
	Skipped    bool              `json:"skipped"`
}

// Run executes one governor pass. With autopilot enabled emission already
// happens sale by sale, so a scheduled run is a no-op; force bypasses that
// for manual triggers. The loop terminates when the emitted total reaches
// the gap or candidates run out.
func (s *GoalService) Run(ctx context.Context, force bool) (*GoalRunResult, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	result := &GoalRunResult{Strategy: settings.GoalStrategy}
	if !force && settings.Autopilot {
		result.Skipped = true
		return result, nil
	}

	monthStart := startOfMonth(time.Now().UTC())

	purchased, err := s.invoiceRepo.SumIssuedSince(ctx, monthStart)
	if err != nil {
		return nil, err
	}
	issued, err := s.saleRepo.SumAuthorizedSince(ctx, monthStart)
	if err != nil {
		return nil, err
	}

	target := issuanceTarget(settings.GoalStrategy, settings.GoalFactor, purchased)
	result.Purchased = cents(purchased)
	result.Target = cents(target)
	result.Issued = cents(issued)

	gap := target - issued
	if gap <= 0 {
		return result, nil
	}
	result.Gap = cents(gap)

	candidates, err := s.saleRepo.ListUnresolvedFIFO(ctx, goalBatchLimit)
	if err != nil {
		return nil, err
	}

	var emitted int64
	for i := range candidates {
		sale := &candidates[i]
		doc, err := s.fiscal.EmitForSale(ctx, sale.ID)
		if err != nil {
			log.Printf("goal run: emission for sale %s failed: %v", sale.ID, err)
			continue
		}
		result.Processed++
		if doc.Status == enum.FiscalStatusAuthorized {
			result.Authorized++
			emitted += sale.Total
		}
		if emitted >= gap {
			break
		}
	}
	result.Emitted = cents(emitted)
	return result, nil
}

// issuanceTarget derives the month's target from purchase volume.
// Coefficient multiplies purchases by the factor, percentage marks
// purchases up by the factor, fixed value ignores purchases entirely.
func issuanceTarget(strategy enum.GoalStrategy, factor float64, purchased int64) int64 {
	switch strategy {
	case enum.GoalStrategyPercentage:
		return int64(math.Round(float64(purchased) * (1 + factor/100)))
	case enum.GoalStrategyFixedValue:
		return int64(math.Round(factor * 100))
	default:
		return int64(math.Round(float64(purchased) * factor))
	}
}
