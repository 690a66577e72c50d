package fub

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/agentdesk-api/internal/calendar"
)

type Metadata struct {
	Collection string `json:"collection"`
	Offset     int    `json:"offset"`
	Limit      int    `json:"limit"`
	Total      int    `json:"total"`
}

type Invitee struct {
	UserID   int    `json:"userId"`
	PersonID int    `json:"personId"`
	Name     string `json:"name"`
}

type Appointment struct {
	ID       int       `json:"id"`
	Title    string    `json:"title"`
	Start    string    `json:"start"`
	End      string    `json:"end"`
	AllDay   flexBool  `json:"allDay"`
	Location string    `json:"location"`
	Invitees []Invitee `json:"invitees"`
}

type Task struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	DueDate        string   `json:"dueDate"`
	DueDateTime    string   `json:"dueDateTime"`
	IsCompleted    flexBool `json:"isCompleted"`
	AssignedUserID int      `json:"assignedUserId"`
	AssignedTo     string   `json:"assignedTo"`
	PersonID       int      `json:"personId"`
	PersonName     string   `json:"personName"`
}

type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Identity struct {
	Account struct {
		ID     int    `json:"id"`
		Domain string `json:"domain"`
		Owner  struct {
			Name string `json:"name"`
		} `json:"owner"`
	} `json:"account"`
	User User `json:"user"`
}

// flexBool tolerates true/false, 0/1 and "0"/"1".
type flexBool bool

func (b *flexBool) UnmarshalJSON(raw []byte) error {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		*b = true
	default:
		*b = false
	}
	return nil
}

var _ json.Unmarshaler = (*flexBool)(nil)

// Item converts an appointment into a calendar event. Users invited are
// reported as assignee, people as contact.
func (a Appointment) Item(loc *time.Location) calendar.Item {
	start, dateOnly := calendar.ParseTime(a.Start, loc)
	end, _ := calendar.ParseTime(a.End, loc)
	it := calendar.Item{
		Kind:     calendar.KindEvent,
		ID:       "appointment-" + strconv.Itoa(a.ID),
		Title:    a.Title,
		Start:    start,
		End:      end,
		AllDay:   bool(a.AllDay) || dateOnly,
		Location: a.Location,
	}
	for _, inv := range a.Invitees {
		switch {
		case inv.UserID > 0 && it.AssigneeID == 0:
			it.AssigneeID, it.Assignee = inv.UserID, inv.Name
		case inv.PersonID > 0 && it.ContactID == 0:
			it.ContactID, it.Contact = inv.PersonID, inv.Name
		}
	}
	return it
}

// Item converts a task into a calendar task. A due time wins over a due
// date; a date-only task is all-day.
func (t Task) Item(loc *time.Location) calendar.Item {
	start, _ := calendar.ParseTime(t.DueDateTime, loc)
	allDay := false
	if start == nil {
		start, allDay = calendar.ParseTime(t.DueDate, loc)
	}
	title := t.Name
	if title == "" {
		title = t.Type
	}
	return calendar.Item{
		Kind:       calendar.KindTask,
		ID:         "task-" + strconv.Itoa(t.ID),
		Title:      title,
		Start:      start,
		AllDay:     allDay,
		AssigneeID: t.AssignedUserID,
		Assignee:   t.AssignedTo,
		ContactID:  t.PersonID,
		Contact:    t.PersonName,
		Completed:  bool(t.IsCompleted),
	}
}

// Calendar fetches appointments and tasks for [start, end) and returns them
// as calendar items.
func (c *Client) Calendar(ctx context.Context, start, end time.Time, userID int, loc *time.Location) ([]calendar.Item, error) {
	appts, err := c.Appointments(ctx, start, end, userID)
	if err != nil {
		return nil, err
	}
	tasks, err := c.Tasks(ctx, start, end, userID)
	if err != nil {
		return nil, err
	}
	items := make([]calendar.Item, 0, len(appts)+len(tasks))
	for _, a := range appts {
		items = append(items, a.Item(loc))
	}
	for _, t := range tasks {
		items = append(items, t.Item(loc))
	}
	return items, nil
}
