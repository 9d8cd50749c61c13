package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/labstock/labstock-backend/internal/inventory/repository"
	"github.com/labstock/labstock-backend/pkg/database"
	"github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/logger"
)

// Stock value groupings accepted by the stock value report.
const (
	GroupByCategory = "category"
	GroupByLocation = "location"
)

// DefaultExpiryWindowDays is the lookahead the dashboard uses when
// counting soon-to-expire lots.
const DefaultExpiryWindowDays = 30

// DashboardConsumptionMonths is how many trailing calendar months of
// withdrawal totals the dashboard shows.
const DashboardConsumptionMonths = 6

// StockValueReport is the remaining purchase value of all stock, optionally
// broken down by group.
type StockValueReport struct {
	TotalValue decimal.Decimal             `json:"total_value"`
	GroupBy    string                      `json:"group_by,omitempty"`
	Groups     []*repository.StockValueRow `json:"groups,omitempty"`
}

// ExpiryExposureReport lists at-risk lots and the value tied up in them.
type ExpiryExposureReport struct {
	AsOf        time.Time               `json:"as_of"`
	WindowDays  int                     `json:"window_days,omitempty"`
	ExpiredOnly bool                    `json:"expired_only,omitempty"`
	TotalAtRisk decimal.Decimal         `json:"total_at_risk"`
	Lots        []*repository.ExpiryRow `json:"lots"`
}

// DashboardSummary is the front-page snapshot of the inventory.
type DashboardSummary struct {
	TotalStockValue     decimal.Decimal             `json:"total_stock_value"`
	LowStockItems       []*repository.ItemWithStock `json:"low_stock_items"`
	ExpiringLots        int                         `json:"expiring_lots"`
	ExpiredLots         int                         `json:"expired_lots"`
	PendingRequisitions int                         `json:"pending_requisitions"`

	MonthlyConsumption []*repository.MonthlyConsumptionRow `json:"monthly_consumption"`
}

// ReportService runs the read-only reporting queries.
type ReportService struct {
	reports *repository.ReportRepository
	items   *repository.ItemRepository
	logger  *logger.Logger
	now     func() time.Time
}

// NewReportService creates a new report service
func NewReportService(db *database.DB, log *logger.Logger) *ReportService {
	return &ReportService{
		reports: repository.NewReportRepository(db),
		items:   repository.NewItemRepository(db),
		logger:  log,
		now:     time.Now,
	}
}

func validateRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return errors.BadRequest("from and to are required")
	}
	if !from.Before(to) {
		return errors.BadRequest("from must be before to")
	}
	return nil
}

// ConsumptionByActor reports withdrawn stock per actor and item over
// [from, to).
func (s *ReportService) ConsumptionByActor(ctx context.Context, from, to time.Time, actorID, itemID *string) ([]*repository.ConsumptionRow, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	return s.reports.ConsumptionByActor(ctx, from, to, actorID, itemID)
}

// WasteLoss reports stock lost to discards and negative adjustments over
// [from, to).
func (s *ReportService) WasteLoss(ctx context.Context, from, to time.Time, itemID *string) ([]*repository.WasteRow, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	return s.reports.WasteLoss(ctx, from, to, itemID)
}

// StockValue reports the purchase value of remaining stock. groupBy may be
// empty for a single total, or one of the supported groupings.
func (s *ReportService) StockValue(ctx context.Context, groupBy string) (*StockValueReport, error) {
	switch groupBy {
	case "", GroupByCategory, GroupByLocation:
	default:
		return nil, errors.BadRequest(fmt.Sprintf("unsupported group_by %q", groupBy))
	}

	total, err := s.reports.TotalStockValue(ctx)
	if err != nil {
		return nil, err
	}

	report := &StockValueReport{TotalValue: total, GroupBy: groupBy}

	switch groupBy {
	case GroupByCategory:
		report.Groups, err = s.reports.StockValueByCategory(ctx)
	case GroupByLocation:
		report.Groups, err = s.reports.StockValueByLocation(ctx)
	}
	if err != nil {
		return nil, err
	}

	return report, nil
}

// ExpiryExposure reports the stock value sitting in at-risk lots. With
// expiredOnly it lists lots already past their expiry date; with a
// positive windowDays it lists lots expiring within that many days; with
// neither it lists every non-expired lot.
func (s *ReportService) ExpiryExposure(ctx context.Context, windowDays int, expiredOnly bool) (*ExpiryExposureReport, error) {
	if windowDays < 0 {
		return nil, errors.BadRequest("window_days cannot be negative")
	}

	asOf := s.now().Truncate(24 * time.Hour)

	var cutoff *time.Time
	if !expiredOnly && windowDays > 0 {
		c := asOf.AddDate(0, 0, windowDays)
		cutoff = &c
	}

	lots, err := s.reports.ExpiryExposure(ctx, asOf, cutoff, expiredOnly)
	if err != nil {
		return nil, err
	}

	totalAtRisk := decimal.Zero
	for _, lot := range lots {
		totalAtRisk = totalAtRisk.Add(lot.ValueAtRisk)
	}

	return &ExpiryExposureReport{
		AsOf:        asOf,
		WindowDays:  windowDays,
		ExpiredOnly: expiredOnly,
		TotalAtRisk: totalAtRisk,
		Lots:        lots,
	}, nil
}

// Dashboard assembles the summary shown on the inventory front page.
func (s *ReportService) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	asOf := s.now().Truncate(24 * time.Hour)
	cutoff := asOf.AddDate(0, 0, DefaultExpiryWindowDays)

	total, err := s.reports.TotalStockValue(ctx)
	if err != nil {
		return nil, err
	}

	lowStock, err := s.items.ListBelowMinimum(ctx)
	if err != nil {
		return nil, err
	}

	expiring, err := s.reports.CountLotsExpiringBefore(ctx, asOf, cutoff)
	if err != nil {
		return nil, err
	}

	expired, err := s.reports.CountExpiredLots(ctx, asOf)
	if err != nil {
		return nil, err
	}

	pending, err := s.reports.CountPendingRequisitions(ctx)
	if err != nil {
		return nil, err
	}

	sixMonthsBack := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(DashboardConsumptionMonths - 1), 0)
	monthly, err := s.reports.MonthlyConsumption(ctx, sixMonthsBack)
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		TotalStockValue:     total,
		LowStockItems:       lowStock,
		ExpiringLots:        expiring,
		ExpiredLots:         expired,
		PendingRequisitions: pending,
		MonthlyConsumption:  monthly,
	}, nil
}
