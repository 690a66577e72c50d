package criteria

import (
	"encoding/json"
	"strings"
)

// Status is the canonical listing status vocabulary.
type Status string

const (
	StatusActive        Status = "Active"
	StatusUnderContract Status = "UnderContract"
	StatusClosed        Status = "Closed"
)

// AllStatuses lists statuses in canonical order.
var AllStatuses = []Status{StatusActive, StatusUnderContract, StatusClosed}

var statusLabels = map[Status]string{
	StatusActive:        "Active",
	StatusUnderContract: "Under Contract",
	StatusClosed:        "Closed",
}

// Label is the human-readable form used in generated names.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseStatus maps the spellings seen across providers onto the canonical
// vocabulary.
func ParseStatus(raw string) (Status, bool) {
	k := strings.ToLower(strings.TrimSpace(raw))
	k = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(k)
	switch k {
	case "active", "a", "forsale", "new", "comingsoon":
		return StatusActive, true
	case "undercontract", "u", "pending", "activeundercontract", "contingent", "backupoffers":
		return StatusUnderContract, true
	case "closed", "sold", "s", "sld":
		return StatusClosed, true
	}
	return "", false
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if st, ok := ParseStatus(raw); ok {
		*s = st
		return nil
	}
	*s = Status(raw)
	return nil
}

// StatusSet returns the selected known statuses de-duplicated in canonical
// order.
func (c Criteria) StatusSet() []Status {
	if len(c.Statuses) == 0 {
		return nil
	}
	seen := make(map[Status]bool, len(c.Statuses))
	for _, s := range c.Statuses {
		seen[s] = true
	}
	var out []Status
	for _, s := range AllStatuses {
		if seen[s] {
			out = append(out, s)
		}
	}
	return out
}

func (c Criteria) HasStatus(s Status) bool {
	for _, x := range c.StatusSet() {
		if x == s {
			return true
		}
	}
	return false
}
