package reports

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"example.com/backstage/services/ledger/models"
)

// ReportStore runs read-only aggregations over the materialized transaction
// view. Reports only cover payments; refunds are excluded from volume and
// amount figures.
type ReportStore interface {
	CountsByState(ctx context.Context, params PaymentsReportParams) ([]CountByStateResult, error)
	Performance(ctx context.Context, params PaymentsReportParams) (*PerformanceReport, error)
	MonthlyGatewayPerformance(ctx context.Context, params PaymentsReportParams) ([]MonthlyGatewayPerformanceReport, error)
}

// GormReportStore implements ReportStore using GORM
type GormReportStore struct {
	db *gorm.DB
}

// NewGormReportStore creates a new GORM report store
func NewGormReportStore(db *gorm.DB) *GormReportStore {
	return &GormReportStore{db: db}
}

func (s *GormReportStore) paymentsQuery(ctx context.Context, params PaymentsReportParams) *gorm.DB {
	query := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("transaction_type = ?", models.TransactionTypePayment)

	if params.GatewayAccountID != "" {
		query = query.Where("gateway_account_id = ?", params.GatewayAccountID)
	}
	if params.State != "" {
		query = query.Where("state = ?", params.State)
	}
	if params.FromDate != nil {
		query = query.Where("created_date >= ?", *params.FromDate)
	}
	if params.ToDate != nil {
		query = query.Where("created_date < ?", *params.ToDate)
	}
	return query
}

// CountsByState returns payment counts grouped by derived state.
func (s *GormReportStore) CountsByState(ctx context.Context, params PaymentsReportParams) ([]CountByStateResult, error) {
	var results []CountByStateResult
	err := s.paymentsQuery(ctx, params).
		Select("state, COUNT(*) AS count").
		Group("state").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count payments by state: %w", err)
	}
	return results, nil
}

// Performance returns total volume, gross amount and average amount for the
// matching payments.
func (s *GormReportStore) Performance(ctx context.Context, params PaymentsReportParams) (*PerformanceReport, error) {
	var report PerformanceReport
	err := s.paymentsQuery(ctx, params).
		Select("COUNT(*) AS total_volume, COALESCE(SUM(amount), 0) AS total_amount, COALESCE(AVG(amount), 0) AS average_amount").
		Scan(&report).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute performance report: %w", err)
	}
	return &report, nil
}

// MonthlyGatewayPerformance buckets the performance figures by gateway
// account and calendar month of the created date.
func (s *GormReportStore) MonthlyGatewayPerformance(ctx context.Context, params PaymentsReportParams) ([]MonthlyGatewayPerformanceReport, error) {
	var results []MonthlyGatewayPerformanceReport
	err := s.paymentsQuery(ctx, params).
		Select("gateway_account_id, " +
			"EXTRACT(YEAR FROM created_date)::int AS year, " +
			"EXTRACT(MONTH FROM created_date)::int AS month, " +
			"COUNT(*) AS total_volume, " +
			"COALESCE(SUM(amount), 0) AS total_amount, " +
			"COALESCE(AVG(amount), 0) AS average_amount").
		Group("gateway_account_id, year, month").
		Order("gateway_account_id, year, month").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly performance report: %w", err)
	}
	return results, nil
}
