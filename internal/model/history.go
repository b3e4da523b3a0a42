package model

// MonthHistory is a per-user per-day aggregate counter, keyed by
// (user, day, month, year). One row per key, upserted on every owned
// order creation or guest-to-user migration.
type MonthHistory struct {
	UserID  int64   `json:"user_id"`
	Day     int     `json:"day"`
	Month   int     `json:"month"`
	Year    int     `json:"year"`
	Orders  int     `json:"orders"`
	Expense float64 `json:"expense"`
}

// YearHistory mirrors MonthHistory at month granularity.
type YearHistory struct {
	UserID  int64   `json:"user_id"`
	Month   int     `json:"month"`
	Year    int     `json:"year"`
	Orders  int     `json:"orders"`
	Expense float64 `json:"expense"`
}

// HistoryDay is one calendar day of a month report; days without activity
// are zero-filled.
type HistoryDay struct {
	Day     int     `json:"day"`
	Orders  int     `json:"orders"`
	Expense float64 `json:"expense"`
}

// HistoryMonth is one calendar month of a year report.
type HistoryMonth struct {
	Month   int     `json:"month"`
	Orders  int     `json:"orders"`
	Expense float64 `json:"expense"`
}
