package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func at(t *testing.T, s string) *time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return &v
}

func TestGroupByDayUsesLocalCalendarDay(t *testing.T) {
	chicago := mustLoc(t, "America/Chicago")
	items := []Item{
		// 03:30 UTC on the 16th is still the 15th in Chicago.
		{ID: "late", Title: "Late showing", Start: at(t, "2026-10-16T03:30:00Z")},
		{ID: "morning", Title: "Listing appt", Start: at(t, "2026-10-15T14:00:00Z")},
		{ID: "next", Title: "Closing", Start: at(t, "2026-10-16T16:00:00Z")},
		{ID: "nodate", Title: "Call back"},
	}
	days := GroupByDay(items, chicago)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-10-15", days[0].Date)
	require.Len(t, days[0].Items, 2)
	assert.Equal(t, "morning", days[0].Items[0].ID)
	assert.Equal(t, "late", days[0].Items[1].ID)
	assert.Equal(t, "2026-10-16", days[1].Date)

	counts := map[string]int{}
	for _, d := range days {
		for _, it := range d.Items {
			counts[it.ID]++
		}
	}
	assert.Equal(t, map[string]int{"late": 1, "morning": 1, "next": 1}, counts)
	assert.Equal(t, []Item{items[3]}, Undated(items))
}

func TestSortModes(t *testing.T) {
	items := []Item{
		{ID: "1", Title: "beta", Start: at(t, "2026-10-02T10:00:00Z")},
		{ID: "2", Title: "Zulu"},
		{ID: "3", Title: "alpha", Start: at(t, "2026-10-03T10:00:00Z")},
		{ID: "4", Title: "Echo"},
		{ID: "5", Title: "Gamma", Start: at(t, "2026-10-01T10:00:00Z")},
	}
	ids := func(in []Item) []string {
		out := make([]string, len(in))
		for i, it := range in {
			out[i] = it.ID
		}
		return out
	}
	assert.Equal(t, []string{"5", "1", "3", "4", "2"}, ids(Sort(items, SortStartAsc)))
	assert.Equal(t, []string{"3", "1", "5", "4", "2"}, ids(Sort(items, SortStartDesc)))
	assert.Equal(t, []string{"3", "1", "5", "4", "2"}, ids(Sort(items, SortTitle)))
	assert.Equal(t, "1", items[0].ID, "input is not reordered")
}

func TestParseSortMode(t *testing.T) {
	m, err := ParseSortMode("")
	require.NoError(t, err)
	assert.Equal(t, SortStartAsc, m)
	m, err = ParseSortMode("TITLE")
	require.NoError(t, err)
	assert.Equal(t, SortTitle, m)
	_, err = ParseSortMode("priority")
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	loc := mustLoc(t, "America/Chicago")
	ts, allDay := ParseTime("2026-10-15T09:00:00-05:00", loc)
	require.NotNil(t, ts)
	assert.False(t, allDay)

	ts, allDay = ParseTime("2026-10-15", loc)
	require.NotNil(t, ts)
	assert.True(t, allDay)
	assert.Equal(t, "2026-10-15", DayKey(*ts, loc))

	ts, _ = ParseTime("soon", loc)
	assert.Nil(t, ts)
	ts, _ = ParseTime("", loc)
	assert.Nil(t, ts)
}

func TestMonthGrid(t *testing.T) {
	loc := time.UTC
	items := []Item{
		{ID: "a", Title: "Open house", Start: at(t, "2026-11-26T15:00:00Z")},
		{ID: "b", Title: "Undated"},
	}
	weeks := MonthGrid(2026, time.November, items, loc)
	require.Len(t, weeks, 6)
	for _, w := range weeks {
		require.Len(t, w, 7)
	}
	// Nov 1 2026 is a Sunday.
	assert.Equal(t, "2026-11-01", weeks[0][0].Date)
	assert.True(t, weeks[0][0].InRange)
	assert.False(t, weeks[5][6].InRange)

	var found bool
	for _, w := range weeks {
		for _, d := range w {
			if d.Date == "2026-11-26" {
				found = true
				assert.Contains(t, d.Holiday, "Thanksgiving")
				require.Len(t, d.Items, 1)
				assert.Equal(t, "a", d.Items[0].ID)
			}
		}
	}
	assert.True(t, found)
}

func TestWeekRange(t *testing.T) {
	loc := time.UTC
	start, end := WeekRange(time.Date(2026, 10, 15, 13, 0, 0, 0, loc), loc)
	assert.Equal(t, time.Date(2026, 10, 11, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, loc), end)

	week := WeekGrid(time.Date(2026, 10, 15, 13, 0, 0, 0, loc), nil, loc)
	require.Len(t, week, 7)
	assert.Equal(t, "2026-10-11", week[0].Date)
	assert.Equal(t, "2026-10-12", week[1].Date)
	assert.NotEmpty(t, week[1].Holiday)
}
