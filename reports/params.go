package reports

import "time"

// PaymentsReportParams filters the report aggregations.
type PaymentsReportParams struct {
	GatewayAccountID string
	State            string
	FromDate         *time.Time
	ToDate           *time.Time
}

// CountByStateResult is one row of the counts-by-state report.
type CountByStateResult struct {
	State string `json:"state"`
	Count int64  `json:"count"`
}

// PerformanceReport aggregates volume and amounts over a set of payments.
// Amounts are in the minor currency unit.
type PerformanceReport struct {
	TotalVolume   int64   `json:"total_volume"`
	TotalAmount   int64   `json:"total_amount"`
	AverageAmount float64 `json:"average_amount"`
}

// MonthlyGatewayPerformanceReport is one (gateway account, month) bucket of
// the monthly performance report.
type MonthlyGatewayPerformanceReport struct {
	GatewayAccountID string  `json:"gateway_account_id"`
	Year             int     `json:"year"`
	Month            int     `json:"month"`
	TotalVolume      int64   `json:"total_volume"`
	TotalAmount      int64   `json:"total_amount"`
	AverageAmount    float64 `json:"average_amount"`
}
