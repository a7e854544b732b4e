// Package billing computes the date window that stands for a "month" when a user's
// budget cycle does not start on the 1st.
package billing

import (
	"time"

	"github.com/dvloznov/finflow/internal/domain"
)

// Range is an inclusive calendar-date window rendered as YYYY-MM-DD strings.
type Range struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Contains reports whether date (YYYY-MM-DD) falls inside the range.
// String comparison is valid because both sides share the same fixed layout.
func (r Range) Contains(date string) bool {
	return date >= r.From && date <= r.To
}

// Days returns the number of calendar days covered by the range.
func (r Range) Days() int {
	from, err := time.Parse(domain.DateLayout, r.From)
	if err != nil {
		return 0
	}
	to, err := time.Parse(domain.DateLayout, r.To)
	if err != nil {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}

// CycleRange returns the window for month (0-11) of year given the cycle start day.
//
// With startDay 1 the window is the calendar month. With a later start day the window
// runs from startDay of the month up to the day before startDay of the next month, so
// "month M" is always the period that starts in M. Day overflow (e.g. the 31st of a
// 30-day month) rolls forward the same way on both ends, which keeps the window length
// equal to the number of days in M.
func CycleRange(month, year, startDay int) Range {
	if startDay < 1 {
		startDay = 1
	}
	if startDay > 31 {
		startDay = 31
	}

	m := time.Month(month + 1)
	from := time.Date(year, m, startDay, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, m+1, startDay, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	return Range{
		From: from.Format(domain.DateLayout),
		To:   to.Format(domain.DateLayout),
	}
}

// CurrentCycle returns the window that contains today, which may be the one that
// started in the previous calendar month.
func CurrentCycle(today time.Time, startDay int) Range {
	month, year := int(today.Month())-1, today.Year()
	r := CycleRange(month, year, startDay)
	if domain.FormatDate(today) < r.From {
		if month == 0 {
			month, year = 11, year-1
		} else {
			month--
		}
		r = CycleRange(month, year, startDay)
	}
	return r
}

// DaysInMonth returns the number of days in month (0-11) of year.
func DaysInMonth(month, year int) int {
	return time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.UTC).Day()
}
