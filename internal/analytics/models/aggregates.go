package models

import "time"

// EligibilityDistribution counts checker decisions. Restricted decisions are
// reported as conditional and Declined as ineligible.
type EligibilityDistribution struct {
	Eligible    int
	Ineligible  int
	Conditional int
}

// DailyCount is the number of events on one UTC date (YYYY-MM-DD).
type DailyCount struct {
	Date  string
	Count int
}

type ProductCount struct {
	ProductID string
	Count     int
}

// Snapshot is the aggregated view over a range of events.
type Snapshot struct {
	SnapshotAt              time.Time
	EligibilityDistribution EligibilityDistribution
	SubmissionsOverTime     []DailyCount
	AppetiteShare           map[string]int
	RulesByProduct          []ProductCount
}

// GrowthPoint counts records created on one UTC date.
type GrowthPoint struct {
	Date     string
	Users    int
	Rules    int
	Carriers int
}

// Dashboard summarizes the platform for the canvas.
type Dashboard struct {
	SnapshotAt        time.Time
	TotalRules        int
	TotalUsers        int
	TotalCarriers     int
	TotalProducts     int
	RulesByPriority   map[string]int
	UsersByRole       map[string]int
	ProductsByCarrier map[string]int
	RecentUploads     int
	GrowthData        []GrowthPoint
}
