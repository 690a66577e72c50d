package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Day is one date bucket.
type Day struct {
	Date  string `json:"date"`
	Items []Item `json:"items"`
}

// GroupByDay puts every dated item into the bucket of its local start day.
// Undated items are left out. Buckets are returned in date order with items
// in start order.
func GroupByDay(items []Item, loc *time.Location) []Day {
	idx := map[string]int{}
	var days []Day
	for _, it := range Sort(items, SortStartAsc) {
		if it.Start == nil {
			continue
		}
		key := DayKey(*it.Start, loc)
		i, ok := idx[key]
		if !ok {
			i = len(days)
			idx[key] = i
			days = append(days, Day{Date: key})
		}
		days[i].Items = append(days[i].Items, it)
	}
	sort.Slice(days, func(a, b int) bool { return days[a].Date < days[b].Date })
	return days
}

// Undated returns the items that no bucket can hold.
func Undated(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if it.Start == nil {
			out = append(out, it)
		}
	}
	return out
}

type SortMode string

const (
	SortStartAsc  SortMode = "start_asc"
	SortStartDesc SortMode = "start_desc"
	SortTitle     SortMode = "title"
)

func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortStartAsc, "asc", "start":
		return SortStartAsc, nil
	case SortStartDesc, "desc":
		return SortStartDesc, nil
	case SortTitle, "alpha", "alphabetical":
		return SortTitle, nil
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// Sort returns a sorted copy. Undated items always follow dated ones; in
// title mode both groups are ordered case-insensitively by title.
func Sort(items []Item, mode SortMode) []Item {
	out := append([]Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.Start == nil) != (b.Start == nil) {
			return a.Start != nil
		}
		if mode == SortTitle || a.Start == nil {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
		if mode == SortStartDesc {
			return a.Start.After(*b.Start)
		}
		return a.Start.Before(*b.Start)
	})
	return out
}
