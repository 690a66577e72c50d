package calendar

import (
	"time"

	cal "github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

var usFed = cal.NewBusinessCalendar()

func init() {
	usFed.AddHoliday(
		us.NewYear,
		us.MlkDay,
		us.PresidentsDay,
		us.MemorialDay,
		us.Juneteenth,
		us.IndependenceDay,
		us.LaborDay,
		us.ColumbusDay,
		us.VeteransDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	)
}

// HolidayName returns the US federal holiday falling on t, if any.
func HolidayName(t time.Time) string {
	actual, observed, h := usFed.IsHoliday(t)
	if (actual || observed) && h != nil {
		return h.Name
	}
	return ""
}

// GridDay is one cell of a week or month view.
type GridDay struct {
	Date    string `json:"date"`
	Day     int    `json:"day"`
	InRange bool   `json:"inRange"`
	Holiday string `json:"holiday,omitempty"`
	Items   []Item `json:"items"`
}

func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// WeekRange returns the Sunday-start week containing t as [start, end).
func WeekRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	start := midnight(t, loc)
	start = start.AddDate(0, 0, -int(start.Weekday()))
	return start, start.AddDate(0, 0, 7)
}

// MonthRange returns the visible span of the month grid as [start, end):
// six full Sunday-start weeks beginning with the week of the 1st.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	start, _ := WeekRange(time.Date(year, month, 1, 0, 0, 0, 0, loc), loc)
	return start, start.AddDate(0, 0, 42)
}

// MonthGrid lays items onto a 6x7 grid. Cells outside the month have
// InRange false but still carry their items.
func MonthGrid(year int, month time.Month, items []Item, loc *time.Location) [][]GridDay {
	if loc == nil {
		loc = time.Local
	}
	start, _ := MonthRange(year, month, loc)
	cells := fill(start, 42, items, loc, func(d time.Time) bool { return d.Month() == month && d.Year() == year })
	weeks := make([][]GridDay, 6)
	for w := range weeks {
		weeks[w] = cells[w*7 : (w+1)*7]
	}
	return weeks
}

// WeekGrid lays items onto the seven days of t's week.
func WeekGrid(t time.Time, items []Item, loc *time.Location) []GridDay {
	if loc == nil {
		loc = time.Local
	}
	start, _ := WeekRange(t, loc)
	return fill(start, 7, items, loc, func(time.Time) bool { return true })
}

func fill(start time.Time, n int, items []Item, loc *time.Location, inRange func(time.Time) bool) []GridDay {
	byDay := map[string][]Item{}
	for _, d := range GroupByDay(items, loc) {
		byDay[d.Date] = d.Items
	}
	cells := make([]GridDay, n)
	for i := range cells {
		d := start.AddDate(0, 0, i)
		key := d.Format("2006-01-02")
		cells[i] = GridDay{
			Date:    key,
			Day:     d.Day(),
			InRange: inRange(d),
			Holiday: HolidayName(d),
			Items:   byDay[key],
		}
	}
	return cells
}
