package scan

import "time"

// Scan is an append-only event: one row per visit to a card's public URL.
// Rows are never updated or deleted by the application.
type Scan struct {
	ID        string    `json:"id"`
	CardID    string    `json:"cardId"`
	ScannedAt time.Time `json:"scannedAt"`
}

// DashboardStats is the aggregate the dashboard screen renders. HasCard
// false is the normal zero-state for users without an assigned card.
type DashboardStats struct {
	HasCard     bool        `json:"hasCard"`
	CardCode    string      `json:"cardCode,omitempty"`
	ScanCount   int64       `json:"scanCount"`
	RecentScans []time.Time `json:"recentScans"`
}
