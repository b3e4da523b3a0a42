package model

import "time"

// RevenueRow is one currency bucket of a revenue report.
type RevenueRow struct {
	CurrencyCode string  `json:"currency_code"`
	Total        float64 `json:"total"`
}

type RevenueReport struct {
	Completed []RevenueRow `json:"completed"`
	Held      []RevenueRow `json:"held"`
}

// Statistics carries the dashboard scalar counters. Expense fields are
// pre-formatted with two decimals, matching what the dashboards render.
type Statistics struct {
	TotalOrders       int64  `json:"total_orders"`
	SuccessfulOrders  int64  `json:"successful_orders"`
	HeldOrders        int64  `json:"held_orders"`
	CancelledOrders   int64  `json:"cancelled_orders"`
	ProjectedExpense  string `json:"projected_expense"`
	SuccessfulExpense string `json:"successful_expense"`
	HeldExpense       string `json:"held_expense"`
}

// StatsFilter windows a report by creation time (inclusive) and optionally
// scopes it to one owner.
type StatsFilter struct {
	From   *time.Time
	To     *time.Time
	UserID *int64
}
