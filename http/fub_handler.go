package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/agentdesk-api/fub"
	"github.com/yourorg/agentdesk-api/internal/calendar"
	"github.com/yourorg/agentdesk-api/provider"
)

type CalendarSource interface {
	Configured() bool
	Calendar(ctx context.Context, start, end time.Time, userID int, loc *time.Location) ([]calendar.Item, error)
	Users(ctx context.Context) ([]fub.User, error)
	Identity(ctx context.Context) (fub.Identity, error)
}

type FUBDeps struct {
	Client   CalendarSource
	Location *time.Location
	Now      func() time.Time
}

// listDays is the default list window in calendar days.
const listDays = 30

func RegisterFUB(r chi.Router, d FUBDeps) {
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	r.Route("/fub", func(r chi.Router) {
		r.Get("/calendar", d.calendar)
		r.Get("/users", d.users)
		r.Get("/status", d.status)
	})
}

func (d FUBDeps) upstreamError(w http.ResponseWriter, req *http.Request, err error) {
	if errors.Is(err, fub.ErrNotConfigured) {
		fail(w, req, http.StatusServiceUnavailable, "fub_not_configured", err.Error())
		return
	}
	detail := err.Error()
	var ue *provider.UpstreamError
	if errors.As(err, &ue) && ue.Message() != "" {
		detail = ue.Message()
	}
	logrus.WithError(err).Warn("follow up boss request failed")
	render.Status(req, http.StatusBadGateway)
	render.JSON(w, req, map[string]any{"error": "upstream_error", "detail": detail, "hint": fub.PermissionHint})
}

func (d FUBDeps) parseDate(v string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "2006-01", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, v, d.Location); err == nil {
			return t.In(d.Location), true
		}
	}
	return time.Time{}, false
}

// calendar serves three views over the same items: list (days between start
// and end), month (6x7 grid) and week (7 days). The anchor for month and week
// is ?date, defaulting to today.
func (d FUBDeps) calendar(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	mode, err := calendar.ParseSortMode(q.Get("sort"))
	if err != nil {
		fail(w, req, http.StatusBadRequest, "invalid_sort", err.Error())
		return
	}
	userID := queryInt(req, "userId", 0)
	view := strings.ToLower(q.Get("view"))
	if view == "" {
		view = "list"
	}

	anchor := d.Now().In(d.Location)
	if v := q.Get("date"); v != "" {
		t, ok := d.parseDate(v)
		if !ok {
			fail(w, req, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		anchor = t
	}

	var start, end time.Time
	switch view {
	case "month":
		start, end = calendar.MonthRange(anchor.Year(), anchor.Month(), d.Location)
	case "week":
		start, end = calendar.WeekRange(anchor, d.Location)
	case "list":
		start = time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, d.Location)
		end = start.AddDate(0, 0, listDays)
		if v := q.Get("start"); v != "" {
			t, ok := d.parseDate(v)
			if !ok {
				fail(w, req, http.StatusBadRequest, "invalid_date", "start must be YYYY-MM-DD")
				return
			}
			start, end = t, t.AddDate(0, 0, listDays)
		}
		if v := q.Get("end"); v != "" {
			t, ok := d.parseDate(v)
			if !ok || !t.After(start) {
				fail(w, req, http.StatusBadRequest, "invalid_date", "end must be a date after start")
				return
			}
			end = t
		}
	default:
		fail(w, req, http.StatusBadRequest, "invalid_view", "view must be list, month or week")
		return
	}

	items, err := d.Client.Calendar(req.Context(), start, end, userID, d.Location)
	if err != nil {
		d.upstreamError(w, req, err)
		return
	}

	body := map[string]any{
		"ok":    true,
		"view":  view,
		"sort":  mode,
		"start": start.Format("2006-01-02"),
		"end":   end.Format("2006-01-02"),
		"count": len(items),
	}
	switch view {
	case "month":
		body["weeks"] = calendar.MonthGrid(anchor.Year(), anchor.Month(), items, d.Location)
		body["month"] = anchor.Format("2006-01")
	case "week":
		body["days"] = calendar.WeekGrid(anchor, items, d.Location)
	default:
		days := calendar.GroupByDay(items, d.Location)
		for i := range days {
			days[i].Items = calendar.Sort(days[i].Items, mode)
		}
		if mode == calendar.SortStartDesc {
			for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
				days[i], days[j] = days[j], days[i]
			}
		}
		if days == nil {
			days = []calendar.Day{}
		}
		undated := calendar.Sort(calendar.Undated(items), calendar.SortTitle)
		if undated == nil {
			undated = []calendar.Item{}
		}
		body["days"] = days
		body["undated"] = undated
		body["items"] = calendar.Sort(items, mode)
	}
	render.JSON(w, req, body)
}

func (d FUBDeps) users(w http.ResponseWriter, req *http.Request) {
	users, err := d.Client.Users(req.Context())
	if err != nil {
		d.upstreamError(w, req, err)
		return
	}
	if users == nil {
		users = []fub.User{}
	}
	render.JSON(w, req, map[string]any{"ok": true, "count": len(users), "users": users})
}

func (d FUBDeps) status(w http.ResponseWriter, req *http.Request) {
	if !d.Client.Configured() {
		render.JSON(w, req, map[string]any{"ok": false, "configured": false})
		return
	}
	id, err := d.Client.Identity(req.Context())
	if err != nil {
		detail := err.Error()
		var ue *provider.UpstreamError
		if errors.As(err, &ue) && ue.Message() != "" {
			detail = ue.Message()
		}
		render.JSON(w, req, map[string]any{"ok": false, "configured": true, "detail": detail, "hint": fub.PermissionHint})
		return
	}
	render.JSON(w, req, map[string]any{"ok": true, "configured": true, "identity": id})
}
