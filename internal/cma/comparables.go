package cma

import "github.com/yourorg/agentdesk-api/provider"

// Limits configures the comparable set; the cap differs between page
// variants.
type Limits struct {
	MaxComparables int
	// SubjectInComparables allows the subject to be listed as a comparable.
	SubjectInComparables bool
}

// DefaultLimits matches the original CMA builder: five comparables, subject
// kept apart.
var DefaultLimits = Limits{MaxComparables: 5}

// Comparables is an ordered, capped, duplicate-free set of properties with
// an optional subject.
type Comparables struct {
	Subject *provider.Property  `json:"subject,omitempty"`
	Items   []provider.Property `json:"comparables"`
}

func (c *Comparables) Contains(id string) bool {
	return c.index(id) >= 0
}

func (c *Comparables) index(id string) int {
	for i, p := range c.Items {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Add appends p unless it is already present, has no id, is the subject when
// that is disallowed, or the set is full. It reports whether p was added.
func (c *Comparables) Add(p provider.Property, lim Limits) bool {
	if p.ID == "" || c.Contains(p.ID) {
		return false
	}
	if lim.MaxComparables > 0 && len(c.Items) >= lim.MaxComparables {
		return false
	}
	if !lim.SubjectInComparables && c.Subject != nil && c.Subject.ID == p.ID {
		return false
	}
	c.Items = append(c.Items, p)
	return true
}

// Remove drops the comparable with the given id, keeping order. It reports
// whether anything was removed.
func (c *Comparables) Remove(id string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i:i], c.Items[i+1:]...)
	return true
}

// SetSubject replaces the subject. When the subject may not double as a
// comparable, a matching comparable is removed.
func (c *Comparables) SetSubject(p provider.Property, lim Limits) {
	c.Subject = &p
	if !lim.SubjectInComparables {
		c.Remove(p.ID)
	}
}

func (c *Comparables) ClearSubject() { c.Subject = nil }

func (c *Comparables) Summary() (Summary, bool) { return Summarize(c.Items) }
