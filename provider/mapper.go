package provider

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/yourorg/agentdesk-api/internal/criteria"
)

// stringNumber accepts string or number JSON and stores it as a string.
type stringNumber string

func (s *stringNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = stringNumber(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = stringNumber(num.String())
	return nil
}

// Float parses the value leniently: "$1,250", "1500-1999" (lower bound) and
// "" (zero) are all accepted.
func (s stringNumber) Float() float64 {
	v := strings.TrimSpace(string(s))
	v = strings.NewReplacer(",", "", "$", "").Replace(v)
	if i := strings.IndexAny(v, "-–"); i > 0 {
		v = strings.TrimSpace(v[:i])
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func (s stringNumber) Int() int { return int(s.Float()) }

// Coord returns nil for missing or zero coordinates.
func (s stringNumber) Coord() *float64 {
	f := s.Float()
	if f == 0 {
		return nil
	}
	return &f
}

func mapStatus(raw string) criteria.Status {
	if st, ok := criteria.ParseStatus(raw); ok {
		return st
	}
	return criteria.Status(strings.TrimSpace(raw))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func nonEmptyStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// DecodeSuggestions accepts either a bare JSON array or {"suggestions": [...]}.
// Entries may be strings or objects carrying value, label or name.
func DecodeSuggestions(raw []byte) ([]string, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		var env struct {
			Suggestions []json.RawMessage `json:"suggestions"`
		}
		if err2 := json.Unmarshal(raw, &env); err2 != nil {
			return nil, err
		}
		items = env.Suggestions
	}
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		var s string
		if json.Unmarshal(it, &s) != nil {
			var obj struct {
				Value string `json:"value"`
				Label string `json:"label"`
				Name  string `json:"name"`
			}
			if json.Unmarshal(it, &obj) != nil {
				continue
			}
			s = firstNonEmpty(obj.Value, obj.Label, obj.Name)
		}
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}
