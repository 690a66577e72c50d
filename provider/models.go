package provider

import "github.com/yourorg/agentdesk-api/internal/criteria"

// Property is the canonical listing record every dialect maps onto.
// Mapping is best-effort; zero means the provider did not supply the field.
type Property struct {
	ID          string          `json:"id"`
	Address     string          `json:"address"`
	City        string          `json:"city"`
	State       string          `json:"state"`
	PostalCode  string          `json:"postalCode"`
	Subdivision string          `json:"subdivision,omitempty"`
	ListPrice   float64         `json:"listPrice"`
	ClosePrice  float64         `json:"closePrice,omitempty"`
	Beds        float64         `json:"beds"`
	Baths       float64         `json:"baths"`
	LivingArea  float64         `json:"livingArea"`
	LotSize     float64         `json:"lotSize,omitempty"`
	YearBuilt   int             `json:"yearBuilt,omitempty"`
	Status      criteria.Status `json:"status"`
	Photos      []string        `json:"photos"`
	Lat         *float64        `json:"lat,omitempty"`
	Lon         *float64        `json:"lon,omitempty"`
	Source      string          `json:"source"`
}

// HasCoords reports whether both coordinates are known and non-zero.
func (p Property) HasCoords() bool {
	return p.Lat != nil && p.Lon != nil && (*p.Lat != 0 || *p.Lon != 0)
}

// Result is a normalised search response. Fields a provider does not report
// are left zero.
type Result struct {
	Properties []Property `json:"properties"`
	Total      int        `json:"total"`
	HasMore    bool       `json:"hasMore"`
	Page       int        `json:"page,omitempty"`
	TotalPages int        `json:"totalPages,omitempty"`
	Source     string     `json:"source"`
}

// Page is the caller-supplied pagination appended after criteria encoding.
type Page struct {
	Number int // 1-based
	Limit  int
}

func (p Page) normalized() Page {
	if p.Number <= 0 {
		p.Number = 1
	}
	if p.Limit <= 0 {
		p.Limit = 40
	}
	return p
}

func (p Page) Offset() int {
	n := p.normalized()
	return (n.Number - 1) * n.Limit
}
