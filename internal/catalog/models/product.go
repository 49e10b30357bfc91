package models

import (
	"slices"
	"time"
)

// Product is an insurance product offered by a carrier.
type Product struct {
	ID               string
	Name             string
	Description      string
	ProductType      string
	Carrier          string
	PerOccurrence    int64
	Aggregate        int64
	MinAnnualRevenue int64
	MaxAnnualRevenue int64
	NaicsAllowed     []string
	CreatedAt        time.Time
}

// AllowsNaics reports whether naics may be written under the product. An
// empty allow-list allows every code.
func (p *Product) AllowsNaics(naics string) bool {
	return len(p.NaicsAllowed) == 0 || slices.Contains(p.NaicsAllowed, naics)
}

func (p *Product) Clone() *Product {
	c := *p
	c.NaicsAllowed = slices.Clone(p.NaicsAllowed)
	return &c
}
