package handler

import (
	"strings"
	"time"

	"appetite/internal/analytics/models"
	dErrors "appetite/pkg/domain-errors"
)

// AddEventRequest is a raw telemetry event. Every field but action is optional.
type AddEventRequest struct {
	EventID   string         `json:"eventId"`
	Timestamp *time.Time     `json:"timestamp"`
	UserID    string         `json:"userId"`
	Action    string         `json:"action"`
	RuleID    string         `json:"ruleId"`
	ProductID string         `json:"productId"`
	Metadata  map[string]any `json:"metadata"`
}

func (r *AddEventRequest) Normalize() {
	r.EventID = strings.TrimSpace(r.EventID)
	r.Action = strings.TrimSpace(r.Action)
	r.UserID = strings.TrimSpace(r.UserID)
}

func (r *AddEventRequest) Validate() error {
	if r.Action == "" {
		return dErrors.New(dErrors.CodeValidation, "action is required")
	}
	return nil
}

func (r *AddEventRequest) toModel() *models.Event {
	e := &models.Event{
		ID:        r.EventID,
		UserID:    r.UserID,
		Action:    r.Action,
		RuleID:    r.RuleID,
		ProductID: r.ProductID,
		Metadata:  r.Metadata,
	}
	if r.Timestamp != nil {
		e.Timestamp = *r.Timestamp
	}
	return e
}

type AddEventResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	EventID string `json:"eventId"`
}

type EligibilityDistribution struct {
	Eligible    int `json:"eligible"`
	Ineligible  int `json:"ineligible"`
	Conditional int `json:"conditional"`
}

type SubmissionOverTime struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type RuleByProduct struct {
	ProductID string `json:"productId"`
	RuleCount int    `json:"ruleCount"`
}

type AnalyticsMetrics struct {
	EligibilityDistribution EligibilityDistribution `json:"eligibilityDistribution"`
	SubmissionsOverTime     []SubmissionOverTime    `json:"submissionsOverTime"`
	AppetiteShare           map[string]int          `json:"appetiteShare"`
	RulesByProduct          []RuleByProduct         `json:"rulesByProduct"`
}

type FetchResponse struct {
	SnapshotAt time.Time        `json:"snapshotAt"`
	Metrics    AnalyticsMetrics `json:"metrics"`
}

type GrowthData struct {
	Date     string `json:"date"`
	Users    int    `json:"users"`
	Rules    int    `json:"rules"`
	Carriers int    `json:"carriers"`
}

type DashboardMetrics struct {
	TotalRules        int            `json:"totalRules"`
	RulesByPriority   map[string]int `json:"rulesByPriority"`
	ProductsByCarrier map[string]int `json:"productsByCarrier"`
	RecentUploads     int            `json:"recentUploads"`
	TotalUsers        int            `json:"totalUsers"`
	TotalCarriers     int            `json:"totalCarriers"`
	TotalProducts     int            `json:"totalProducts"`
	UsersByRole       map[string]int `json:"usersByRole"`
	GrowthData        []GrowthData   `json:"growthData"`
}

type DashboardResponse struct {
	SnapshotAt time.Time        `json:"snapshotAt"`
	Metrics    DashboardMetrics `json:"metrics"`
}

func FromSnapshot(s *models.Snapshot) FetchResponse {
	overTime := make([]SubmissionOverTime, len(s.SubmissionsOverTime))
	for i, d := range s.SubmissionsOverTime {
		overTime[i] = SubmissionOverTime{Date: d.Date, Count: d.Count}
	}
	byProduct := make([]RuleByProduct, len(s.RulesByProduct))
	for i, p := range s.RulesByProduct {
		byProduct[i] = RuleByProduct{ProductID: p.ProductID, RuleCount: p.Count}
	}
	return FetchResponse{
		SnapshotAt: s.SnapshotAt,
		Metrics: AnalyticsMetrics{
			EligibilityDistribution: EligibilityDistribution(s.EligibilityDistribution),
			SubmissionsOverTime:     overTime,
			AppetiteShare:           s.AppetiteShare,
			RulesByProduct:          byProduct,
		},
	}
}

func FromDashboard(d *models.Dashboard) DashboardResponse {
	growth := make([]GrowthData, len(d.GrowthData))
	for i, g := range d.GrowthData {
		growth[i] = GrowthData(g)
	}
	return DashboardResponse{
		SnapshotAt: d.SnapshotAt,
		Metrics: DashboardMetrics{
			TotalRules:        d.TotalRules,
			RulesByPriority:   d.RulesByPriority,
			ProductsByCarrier: d.ProductsByCarrier,
			RecentUploads:     d.RecentUploads,
			TotalUsers:        d.TotalUsers,
			TotalCarriers:     d.TotalCarriers,
			TotalProducts:     d.TotalProducts,
			UsersByRole:       d.UsersByRole,
			GrowthData:        growth,
		},
	}
}
