package booking

import (
	"sort"
	"time"
)

// DateLayout is the wire format of every calendar date the engine accepts
// or returns.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar date at UTC midnight.  All ledger keys
// and date comparisons go through Day so that values coming from MySQL
// (parseTime, loc=UTC) and from JSON requests compare equal.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a Day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// AddMonths moves t by n calendar months.  A day that does not exist in
// the target month becomes that month's last day, so 31 December plus two
// months is 28 February and not 3 March.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := Day(t).Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// eachDay calls fn for every date in the half-open range [start, end).
func eachDay(start, end time.Time, fn func(time.Time)) {
	stop := Day(end)
	for d := Day(start); d.Before(stop); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// DateSet is a set of calendar dates.
type DateSet map[time.Time]struct{}

// Add inserts a date.
func (s DateSet) Add(t time.Time) { s[Day(t)] = struct{}{} }

// Has reports whether the date is in the set.
func (s DateSet) Has(t time.Time) bool {
	_, ok := s[Day(t)]
	return ok
}

// Sorted returns the dates in ascending order.
func (s DateSet) Sorted() []time.Time {
	out := make([]time.Time, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// FormatDates renders dates with DateLayout.
func FormatDates(days []time.Time) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.Format(DateLayout))
	}
	return out
}

// Days lists the boarding days of a stay, that is every date in
// [start, end).
func Days(start, end time.Time) []time.Time {
	var out []time.Time
	eachDay(start, end, func(d time.Time) { out = append(out, d) })
	return out
}
