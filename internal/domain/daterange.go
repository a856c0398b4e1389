package domain

import (
	"errors"
	"time"
)

// DateRange is a named history selection passed to the location service.
type DateRange string

const (
	Today         DateRange = "today"
	Yesterday     DateRange = "yesterday"
	ThisWeek      DateRange = "this_week"
	PreviousWeek  DateRange = "previous_week"
	ThisMonth     DateRange = "this_month"
	PreviousMonth DateRange = "previous_month"
)

// ErrUnknownDateRange is returned when a token is not one of the known ranges.
var ErrUnknownDateRange = errors.New("unknown date range")

// DateRanges lists the selector options in display order.
var DateRanges = []DateRange{Today, Yesterday, ThisWeek, PreviousWeek, ThisMonth, PreviousMonth}

var dateRangeLabels = map[DateRange]string{
	Today:         "Today",
	Yesterday:     "Yesterday",
	ThisWeek:      "This Week",
	PreviousWeek:  "Previous Week",
	ThisMonth:     "This Month",
	PreviousMonth: "Previous Month",
}

// Label returns the human readable option text.
func (d DateRange) Label() string {
	if l, ok := dateRangeLabels[d]; ok {
		return l
	}
	return string(d)
}

// Valid reports whether d is a known token
func (d DateRange) Valid() bool {
	_, ok := dateRangeLabels[d]
	return ok
}

// Window resolves the range to a half-open [from, to) interval in now's
// location. Weeks start on Monday.
func (d DateRange) Window(now time.Time) (from, to time.Time, err error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// Monday = 0
	offset := (int(day.Weekday()) + 6) % 7
	week := day.AddDate(0, 0, -offset)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	switch d {
	case Today:
		return day, day.AddDate(0, 0, 1), nil
	case Yesterday:
		return day.AddDate(0, 0, -1), day, nil
	case ThisWeek:
		return week, week.AddDate(0, 0, 7), nil
	case PreviousWeek:
		return week.AddDate(0, 0, -7), week, nil
	case ThisMonth:
		return month, month.AddDate(0, 1, 0), nil
	case PreviousMonth:
		return month.AddDate(0, -1, 0), month, nil
	default:
		return time.Time{}, time.Time{}, ErrUnknownDateRange
	}
}
