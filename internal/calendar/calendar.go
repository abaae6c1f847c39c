// Package calendar holds the date arithmetic of the leave engine. Calendar
// dates are represented as time.Time values at midnight UTC.
package calendar

import (
	"fmt"
	"time"
)

func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Normalize drops the clock part of t, keeping the calendar date of t in its own location.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// DaysInRange is the number of calendar dates in [start, end]; 0 when end < start.
func DaysInRange(start, end time.Time) int {
	start, end = Normalize(start), Normalize(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// BusinessDayCount counts the Monday–Friday dates in [start, end].
// Public holidays are not subtracted.
func BusinessDayCount(start, end time.Time) int {
	total := DaysInRange(start, end)
	if total == 0 {
		return 0
	}

	count := (total / 7) * 5
	day := Normalize(start).AddDate(0, 0, (total/7)*7)
	for i := 0; i < total%7; i++ {
		if !IsWeekend(day) {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

// EachDay calls fn for every date in [start, end] until fn returns false.
func EachDay(start, end time.Time, fn func(time.Time) bool) {
	end = Normalize(end)
	for d := Normalize(start); !d.After(end); d = d.AddDate(0, 0, 1) {
		if !fn(d) {
			return
		}
	}
}

// Counter turns a date range into requested days. With ExcludeHolidays set,
// public holidays falling on weekdays are not counted either.
type Counter struct {
	Holidays        *HolidayCalendar
	ExcludeHolidays bool
}

func NewCounter(holidays *HolidayCalendar, excludeHolidays bool) *Counter {
	if holidays == nil {
		holidays = NewHolidayCalendar()
	}
	return &Counter{Holidays: holidays, ExcludeHolidays: excludeHolidays}
}

func (c *Counter) Count(start, end time.Time) int {
	if c.ExcludeHolidays {
		return c.Holidays.WorkingDayCount(start, end)
	}
	return BusinessDayCount(start, end)
}

func (c *Counter) IsHolidayOnlyRange(start, end time.Time) bool {
	return c.Holidays.IsHolidayOnlyRange(start, end)
}
