package seed

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	analyticsmodels "appetite/internal/analytics/models"
	authmodels "appetite/internal/auth/models"
	catalogmodels "appetite/internal/catalog/models"
	checkermodels "appetite/internal/checker/models"
	rulemodels "appetite/internal/rules/models"
	pstrings "appetite/pkg/platform/strings"
)

//go:embed seed.yaml
var defaultData []byte

// Data is the parsed seed file.
type Data struct {
	Password    string       `yaml:"password"`
	Users       []User       `yaml:"users"`
	Carriers    []Carrier    `yaml:"carriers"`
	Products    []Product    `yaml:"products"`
	Rules       []Rule       `yaml:"rules"`
	Events      []Event      `yaml:"events"`
	Submissions []Submission `yaml:"submissions"`
}

// Age places a record relative to the seeding time. An absolute CreatedAt
// wins over AgeDays.
type Age struct {
	CreatedAt *time.Time `yaml:"createdAt"`
	AgeDays   int        `yaml:"ageDays"`
	AgeHours  int        `yaml:"ageHours"`
}

func (a Age) at(now time.Time) time.Time {
	if a.CreatedAt != nil {
		return a.CreatedAt.UTC()
	}
	return now.AddDate(0, 0, -a.AgeDays).Add(-time.Duration(a.AgeHours) * time.Hour)
}

type User struct {
	Age              `yaml:",inline"`
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Email            string   `yaml:"email"`
	Roles            []string `yaml:"roles"`
	OrganizationID   string   `yaml:"organizationId"`
	OrganizationName string   `yaml:"organizationName"`
}

type Carrier struct {
	Age                  `yaml:",inline"`
	ID                   string   `yaml:"id"`
	LegalName            string   `yaml:"legalName"`
	DisplayName          string   `yaml:"displayName"`
	Country              string   `yaml:"country"`
	PrimaryContactName   string   `yaml:"primaryContactName"`
	PrimaryContactEmail  string   `yaml:"primaryContactEmail"`
	ProductsOffered      []string `yaml:"productsOffered"`
	RuleUploadAllowed    bool     `yaml:"ruleUploadAllowed"`
	RuleApprovalRequired bool     `yaml:"ruleApprovalRequired"`
}

type Product struct {
	Age              `yaml:",inline"`
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Description      string   `yaml:"description"`
	ProductType      string   `yaml:"productType"`
	Carrier          string   `yaml:"carrier"`
	PerOccurrence    int64    `yaml:"perOccurrence"`
	Aggregate        int64    `yaml:"aggregate"`
	MinAnnualRevenue int64    `yaml:"minAnnualRevenue"`
	MaxAnnualRevenue int64    `yaml:"maxAnnualRevenue"`
	NaicsAllowed     []string `yaml:"naicsAllowed"`
}

type Rule struct {
	Age            `yaml:",inline"`
	ID             string     `yaml:"id"`
	Title          string     `yaml:"title"`
	Description    string     `yaml:"description"`
	BusinessType   string     `yaml:"businessType"`
	NaicsCodes     []string   `yaml:"naicsCodes"`
	States         []string   `yaml:"states"`
	Carrier        string     `yaml:"carrier"`
	Product        string     `yaml:"product"`
	Restrictions   []string   `yaml:"restrictions"`
	Priority       string     `yaml:"priority"`
	Status         string     `yaml:"status"`
	Outcome        string     `yaml:"outcome"`
	MinRevenue     string     `yaml:"minRevenue"`
	MaxRevenue     string     `yaml:"maxRevenue"`
	UpdatedAt      *time.Time `yaml:"updatedAt"`
	UpdatedAgeDays int        `yaml:"updatedAgeDays"`
}

type Event struct {
	Age       `yaml:",inline"`
	ID        string         `yaml:"id"`
	UserID    string         `yaml:"userId"`
	Action    string         `yaml:"action"`
	RuleID    string         `yaml:"ruleId"`
	ProductID string         `yaml:"productId"`
	Metadata  map[string]any `yaml:"metadata"`
}

type Submission struct {
	Age                 `yaml:",inline"`
	ID                  string  `yaml:"id"`
	BusinessDescription string  `yaml:"businessDescription"`
	NaicsCode           string  `yaml:"naicsCode"`
	State               string  `yaml:"state"`
	PostalCode          string  `yaml:"postalCode"`
	Decision            string  `yaml:"decision"`
	Confidence          float64 `yaml:"confidence"`
	Reason              string  `yaml:"reason"`
	MatchedRule         string  `yaml:"matchedRule"`
}

// Default returns the embedded fixtures.
func Default() (*Data, error) {
	return Parse(defaultData)
}

// Load reads fixtures from path, or the embedded defaults when path is empty.
func Load(path string) (*Data, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for _, s := range d.Submissions {
		if _, err := checkermodels.ParseDecision(s.Decision); err != nil {
			return nil, fmt.Errorf("submission %s: %w", s.ID, err)
		}
	}
	for _, r := range d.Rules {
		if _, err := parseDecimal(r.MinRevenue); err != nil {
			return nil, fmt.Errorf("rule %s minRevenue: %w", r.ID, err)
		}
		if _, err := parseDecimal(r.MaxRevenue); err != nil {
			return nil, fmt.Errorf("rule %s maxRevenue: %w", r.ID, err)
		}
	}
	return &d, nil
}

func parseDecimal(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func (u User) model(now time.Time, hash string) *authmodels.User {
	return &authmodels.User{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		PasswordHash:     hash,
		Roles:            u.Roles,
		OrganizationID:   u.OrganizationID,
		OrganizationName: u.OrganizationName,
		CreatedAt:        u.at(now),
		IsActive:         true,
		AuthProvider:     authmodels.AuthProviderLocal,
	}
}

func (c Carrier) model(now time.Time) *catalogmodels.Carrier {
	created := c.at(now)
	return &catalogmodels.Carrier{
		ID:                   c.ID,
		LegalName:            c.LegalName,
		DisplayName:          c.DisplayName,
		Country:              c.Country,
		PrimaryContactName:   c.PrimaryContactName,
		PrimaryContactEmail:  c.PrimaryContactEmail,
		ProductsOffered:      c.ProductsOffered,
		RuleUploadAllowed:    c.RuleUploadAllowed,
		RuleApprovalRequired: c.RuleApprovalRequired,
		CreatedBy:            "system",
		CreatedAt:            created,
		UpdatedAt:            created,
	}
}

func (p Product) model(now time.Time) *catalogmodels.Product {
	return &catalogmodels.Product{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		ProductType:      p.ProductType,
		Carrier:          p.Carrier,
		PerOccurrence:    p.PerOccurrence,
		Aggregate:        p.Aggregate,
		MinAnnualRevenue: p.MinAnnualRevenue,
		MaxAnnualRevenue: p.MaxAnnualRevenue,
		NaicsAllowed:     p.NaicsAllowed,
		CreatedAt:        p.at(now),
	}
}

func (r Rule) model(now time.Time) *rulemodels.Rule {
	created := r.at(now)
	updated := created
	switch {
	case r.UpdatedAt != nil:
		updated = r.UpdatedAt.UTC()
	case r.UpdatedAgeDays > 0:
		updated = now.AddDate(0, 0, -r.UpdatedAgeDays)
	}
	// Parse already rejected malformed bounds.
	minRevenue, _ := parseDecimal(r.MinRevenue)
	maxRevenue, _ := parseDecimal(r.MaxRevenue)
	status := r.Status
	if status == "" {
		status = rulemodels.StatusActive
	}
	return &rulemodels.Rule{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		BusinessType: r.BusinessType,
		NaicsCodes:   pstrings.DedupeAndTrim(r.NaicsCodes),
		States:       pstrings.DedupeAndTrimUpper(r.States),
		Carrier:      r.Carrier,
		Product:      r.Product,
		Restrictions: r.Restrictions,
		Priority:     r.Priority,
		Status:       status,
		Outcome:      r.Outcome,
		MinRevenue:   minRevenue,
		MaxRevenue:   maxRevenue,
		CreatedBy:    "system",
		CreatedAt:    created,
		UpdatedAt:    updated,
	}
}

func (e Event) model(now time.Time) *analyticsmodels.Event {
	return &analyticsmodels.Event{
		ID:        e.ID,
		Timestamp: e.at(now),
		UserID:    e.UserID,
		Action:    e.Action,
		RuleID:    e.RuleID,
		ProductID: e.ProductID,
		Metadata:  e.Metadata,
	}
}

func (s Submission) model(now time.Time) *checkermodels.Submission {
	// Parse already validated the decision.
	decision, _ := checkermodels.ParseDecision(s.Decision)
	return &checkermodels.Submission{
		ID:                  s.ID,
		BusinessDescription: s.BusinessDescription,
		NaicsCode:           s.NaicsCode,
		Location:            checkermodels.Location{State: s.State, PostalCode: s.PostalCode},
		Decision:            decision,
		Confidence:          s.Confidence,
		Reason:              s.Reason,
		MatchedRule:         s.MatchedRule,
		EvaluatedAt:         s.at(now),
	}
}
