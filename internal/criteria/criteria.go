// Package criteria holds the canonical property search criteria shared by
// every provider dialect.
package criteria

import (
	"encoding/json"
	"net/url"
	"strings"
)

// AnySentinel is the form value meaning "no constraint".
const AnySentinel = "any"

// Value is an optional scalar kept in its textual form. JSON numbers and
// strings are both accepted; malformed input is kept as-is so the upstream
// decides whether to reject it.
type Value string

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*v = Value(num.String())
	return nil
}

// Get reports the trimmed value and whether it constrains anything.
func (v Value) Get() (string, bool) {
	s := strings.TrimSpace(string(v))
	if s == "" || strings.EqualFold(s, AnySentinel) {
		return "", false
	}
	return s, true
}

type Field string

const (
	MinPrice         Field = "minPrice"
	MaxPrice         Field = "maxPrice"
	MinBeds          Field = "minBeds"
	MaxBeds          Field = "maxBeds"
	MinBaths         Field = "minBaths"
	MinSqft          Field = "minSqft"
	MaxSqft          Field = "maxSqft"
	MinLotSize       Field = "minLotSize"
	MaxLotSize       Field = "maxLotSize"
	MinYearBuilt     Field = "minYearBuilt"
	MaxYearBuilt     Field = "maxYearBuilt"
	MinGarage        Field = "minGarage"
	ClosedWithinDays Field = "closedWithinDays"
	PropertyType     Field = "propertyType"

	Cities       Field = "cities"
	Subdivisions Field = "subdivisions"
	PostalCodes  Field = "postalCodes"
	Schools      Field = "schools"

	Pool       Field = "pool"
	Waterfront Field = "waterfront"
)

// Criteria is the canonical filter state. Every field is optional.
type Criteria struct {
	Statuses []Status `json:"statuses,omitempty"`

	MinPrice         Value `json:"minPrice,omitempty"`
	MaxPrice         Value `json:"maxPrice,omitempty"`
	MinBeds          Value `json:"minBeds,omitempty"`
	MaxBeds          Value `json:"maxBeds,omitempty"`
	MinBaths         Value `json:"minBaths,omitempty"`
	MinSqft          Value `json:"minSqft,omitempty"`
	MaxSqft          Value `json:"maxSqft,omitempty"`
	MinLotSize       Value `json:"minLotSize,omitempty"`
	MaxLotSize       Value `json:"maxLotSize,omitempty"`
	MinYearBuilt     Value `json:"minYearBuilt,omitempty"`
	MaxYearBuilt     Value `json:"maxYearBuilt,omitempty"`
	MinGarage        Value `json:"minGarage,omitempty"`
	ClosedWithinDays Value `json:"closedWithinDays,omitempty"`
	PropertyType     Value `json:"propertyType,omitempty"`

	// Comma-separated lists, split at encode time.
	Cities       Value `json:"cities,omitempty"`
	Subdivisions Value `json:"subdivisions,omitempty"`
	PostalCodes  Value `json:"postalCodes,omitempty"`
	Schools      Value `json:"schools,omitempty"`

	Pool       *bool `json:"pool,omitempty"`
	Waterfront *bool `json:"waterfront,omitempty"`
}

// UnmarshalJSON accepts the statusActive/statusUnderContract/statusClosed
// flags alongside the statuses list, folding both into Statuses the same
// way FromQuery does.
func (c *Criteria) UnmarshalJSON(b []byte) error {
	type plain Criteria
	var aux struct {
		plain
		StatusActive        json.RawMessage `json:"statusActive"`
		StatusUnderContract json.RawMessage `json:"statusUnderContract"`
		StatusClosed        json.RawMessage `json:"statusClosed"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*c = Criteria(aux.plain)
	flags := map[Status]json.RawMessage{
		StatusActive:        aux.StatusActive,
		StatusUnderContract: aux.StatusUnderContract,
		StatusClosed:        aux.StatusClosed,
	}
	for _, s := range AllStatuses {
		if f := parseFlag(strings.Trim(string(flags[s]), `"`)); f != nil && *f {
			c.Statuses = append(c.Statuses, s)
		}
	}
	c.Statuses = c.StatusSet()
	return nil
}

// Constraint is one present scalar constraint.
type Constraint struct {
	Field Field
	Value string
}

// ListConstraint is one present multi-value constraint.
type ListConstraint struct {
	Field  Field
	Values []string
}

// FlagConstraint is one present boolean feature constraint.
type FlagConstraint struct {
	Field Field
	Value bool
}

func (c *Criteria) scalars() []struct {
	f Field
	v Value
} {
	return []struct {
		f Field
		v Value
	}{
		{MinPrice, c.MinPrice},
		{MaxPrice, c.MaxPrice},
		{MinBeds, c.MinBeds},
		{MaxBeds, c.MaxBeds},
		{MinBaths, c.MinBaths},
		{MinSqft, c.MinSqft},
		{MaxSqft, c.MaxSqft},
		{MinLotSize, c.MinLotSize},
		{MaxLotSize, c.MaxLotSize},
		{MinYearBuilt, c.MinYearBuilt},
		{MaxYearBuilt, c.MaxYearBuilt},
		{MinGarage, c.MinGarage},
		{ClosedWithinDays, c.ClosedWithinDays},
		{PropertyType, c.PropertyType},
	}
}

// Scalars returns the present scalar constraints in canonical field order.
func (c Criteria) Scalars() []Constraint {
	var out []Constraint
	for _, s := range c.scalars() {
		if v, ok := s.v.Get(); ok {
			out = append(out, Constraint{Field: s.f, Value: v})
		}
	}
	return out
}

// Lists returns the present multi-value constraints, each split and trimmed.
func (c Criteria) Lists() []ListConstraint {
	var out []ListConstraint
	for _, l := range []struct {
		f Field
		v Value
	}{
		{Cities, c.Cities},
		{Subdivisions, c.Subdivisions},
		{PostalCodes, c.PostalCodes},
		{Schools, c.Schools},
	} {
		if vals := Split(string(l.v)); len(vals) > 0 {
			out = append(out, ListConstraint{Field: l.f, Values: vals})
		}
	}
	return out
}

func (c Criteria) Flags() []FlagConstraint {
	var out []FlagConstraint
	if c.Pool != nil {
		out = append(out, FlagConstraint{Field: Pool, Value: *c.Pool})
	}
	if c.Waterfront != nil {
		out = append(out, FlagConstraint{Field: Waterfront, Value: *c.Waterfront})
	}
	return out
}

// Empty reports whether no constraint is present.
func (c Criteria) Empty() bool {
	return len(c.StatusSet()) == 0 && len(c.Scalars()) == 0 && len(c.Lists()) == 0 && len(c.Flags()) == 0
}

// Clear resets every field.
func (c *Criteria) Clear() { *c = Criteria{} }

// Split splits a comma-separated value, trimming segments and dropping
// empty ones. Order is preserved; "any" segments are dropped.
func Split(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || strings.EqualFold(p, AnySentinel) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FromQuery reads criteria from form or query values. Statuses come from
// either a "statuses" list or statusActive/statusUnderContract/statusClosed
// flags. Repeated list parameters are joined.
func FromQuery(q url.Values) Criteria {
	var c Criteria
	get := func(k string) Value { return Value(strings.TrimSpace(q.Get(k))) }
	list := func(k string) Value {
		vals := q[k]
		if len(vals) == 0 {
			return ""
		}
		return Value(strings.Join(vals, ","))
	}

	c.MinPrice = get(string(MinPrice))
	c.MaxPrice = get(string(MaxPrice))
	c.MinBeds = get(string(MinBeds))
	c.MaxBeds = get(string(MaxBeds))
	c.MinBaths = get(string(MinBaths))
	c.MinSqft = get(string(MinSqft))
	c.MaxSqft = get(string(MaxSqft))
	c.MinLotSize = get(string(MinLotSize))
	c.MaxLotSize = get(string(MaxLotSize))
	c.MinYearBuilt = get(string(MinYearBuilt))
	c.MaxYearBuilt = get(string(MaxYearBuilt))
	c.MinGarage = get(string(MinGarage))
	c.ClosedWithinDays = get(string(ClosedWithinDays))
	c.PropertyType = get(string(PropertyType))

	c.Cities = list(string(Cities))
	c.Subdivisions = list(string(Subdivisions))
	c.PostalCodes = list(string(PostalCodes))
	c.Schools = list(string(Schools))

	c.Pool = parseFlag(q.Get(string(Pool)))
	c.Waterfront = parseFlag(q.Get(string(Waterfront)))

	for _, raw := range Split(strings.Join(q["statuses"], ",")) {
		if s, ok := ParseStatus(raw); ok {
			c.Statuses = append(c.Statuses, s)
		}
	}
	for _, s := range AllStatuses {
		if f := parseFlag(q.Get("status" + string(s))); f != nil && *f {
			c.Statuses = append(c.Statuses, s)
		}
	}
	c.Statuses = c.StatusSet()
	return c
}

func parseFlag(v string) *bool {
	var b bool
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		b = true
	case "0", "false", "no", "off":
		b = false
	default:
		return nil
	}
	return &b
}
