// Package calendar buckets CRM events and tasks into day, week and month
// views.
package calendar

import (
	"strings"
	"time"
)

type Kind string

const (
	KindEvent Kind = "event"
	KindTask  Kind = "task"
)

// Item is an event or a task. Start is nil when the CRM gave no usable
// timestamp.
type Item struct {
	Kind       Kind       `json:"kind"`
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Start      *time.Time `json:"start,omitempty"`
	End        *time.Time `json:"end,omitempty"`
	AllDay     bool       `json:"allDay"`
	AssigneeID int        `json:"assigneeId,omitempty"`
	Assignee   string     `json:"assignee,omitempty"`
	ContactID  int        `json:"contactId,omitempty"`
	Contact    string     `json:"contact,omitempty"`
	Location   string     `json:"location,omitempty"`
	Completed  bool       `json:"completed,omitempty"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTime reads the timestamp formats FUB emits. Date-only values are
// midnight in loc and reported as allDay. Unparseable input yields nil.
func ParseTime(s string, loc *time.Location) (t *time.Time, allDay bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timeLayouts {
		if v, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &v, false
		}
	}
	if v, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return &v, true
	}
	return nil, false
}

// DayKey formats the calendar day of t in loc as YYYY-MM-DD.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("2006-01-02")
}
