package cma

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yourorg/agentdesk-api/internal/criteria"
)

// NameMode tracks who owns a CMA's name. The only transition is
// NameAuto -> NameManual, taken on the first user edit.
type NameMode int

const (
	NameAuto NameMode = iota
	NameManual
)

func (m NameMode) String() string {
	if m == NameManual {
		return "manual"
	}
	return "auto"
}

func (m NameMode) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

func (m *NameMode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return m.Scan(s)
}

// Scan accepts the textual form stored in the database.
func (m *NameMode) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
	default:
		return fmt.Errorf("cma: cannot scan %T into NameMode", src)
	}
	switch strings.ToLower(s) {
	case "manual":
		*m = NameManual
	default:
		*m = NameAuto
	}
	return nil
}

const (
	nameDateLayout  = "Jan 2, 2006 3:04 PM"
	defaultNameArea = "Custom Search"
)

// Namer generates default CMA names.
type Namer struct {
	Now func() time.Time
	Loc *time.Location
}

func (n Namer) now() time.Time {
	t := time.Now()
	if n.Now != nil {
		t = n.Now()
	}
	if n.Loc != nil {
		t = t.In(n.Loc)
	}
	return t
}

// Generate builds "<area> CMA - <statuses> - <date>", where area is the
// first subdivision, else the first city, else a generic label. The status
// part is omitted when no status is selected.
func (n Namer) Generate(c criteria.Criteria) string {
	area := defaultNameArea
	if subs := criteria.Split(string(c.Subdivisions)); len(subs) > 0 {
		area = subs[0]
	} else if cities := criteria.Split(string(c.Cities)); len(cities) > 0 {
		area = cities[0]
	}
	parts := []string{area + " CMA"}
	if st := c.StatusSet(); len(st) > 0 {
		labels := make([]string, len(st))
		for i, s := range st {
			labels[i] = s.Label()
		}
		parts = append(parts, strings.Join(labels, ", "))
	}
	parts = append(parts, n.now().Format(nameDateLayout))
	return strings.Join(parts, " - ")
}
