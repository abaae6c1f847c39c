package calendar

import (
	"sort"
	"time"
)

type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

type fixedHoliday struct {
	month time.Month
	day   int
	name  string
}

// Fixed-date national holidays, including the Christmas and New Year period.
var fixedHolidays = []fixedHoliday{
	{time.January, 1, "New Year's Day"},
	{time.May, 1, "Labour Day"},
	{time.October, 3, "German Unity Day"},
	{time.December, 24, "Christmas Eve"},
	{time.December, 25, "Christmas Day"},
	{time.December, 26, "Boxing Day"},
	{time.December, 31, "New Year's Eve"},
}

// Holidays tied to Easter Sunday, as day offsets.
var easterHolidays = []struct {
	offset int
	name   string
}{
	{-2, "Good Friday"},
	{1, "Easter Monday"},
	{39, "Ascension Day"},
	{50, "Whit Monday"},
}

// HolidayCalendar is the static public-holiday table plus operator-configured dates.
type HolidayCalendar struct {
	extra map[time.Time]string
}

func NewHolidayCalendar(extra ...Holiday) *HolidayCalendar {
	c := &HolidayCalendar{extra: make(map[time.Time]string, len(extra))}
	for _, h := range extra {
		name := h.Name
		if name == "" {
			name = "Public Holiday"
		}
		c.extra[Normalize(h.Date)] = name
	}
	return c
}

// YearlyHolidays returns the holidays of year keyed by date.
func (c *HolidayCalendar) YearlyHolidays(year int) map[time.Time]string {
	out := make(map[time.Time]string, len(fixedHolidays)+len(easterHolidays))
	for _, h := range fixedHolidays {
		out[Date(year, h.month, h.day)] = h.name
	}
	easter := EasterSunday(year)
	for _, h := range easterHolidays {
		out[easter.AddDate(0, 0, h.offset)] = h.name
	}
	for d, name := range c.extra {
		if d.Year() == year {
			out[d] = name
		}
	}
	return out
}

// List is YearlyHolidays sorted by date.
func (c *HolidayCalendar) List(year int) []Holiday {
	m := c.YearlyHolidays(year)
	out := make([]Holiday, 0, len(m))
	for d, name := range m {
		out = append(out, Holiday{Date: d, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (c *HolidayCalendar) IsHoliday(t time.Time) bool {
	d := Normalize(t)
	_, ok := c.YearlyHolidays(d.Year())[d]
	return ok
}

// IsHolidayOnlyRange is true when every date of [start, end] is a public holiday.
func (c *HolidayCalendar) IsHolidayOnlyRange(start, end time.Time) bool {
	if DaysInRange(start, end) == 0 {
		return false
	}
	byYear := map[int]map[time.Time]string{}
	all := true
	EachDay(start, end, func(d time.Time) bool {
		hs, ok := byYear[d.Year()]
		if !ok {
			hs = c.YearlyHolidays(d.Year())
			byYear[d.Year()] = hs
		}
		if _, ok := hs[d]; !ok {
			all = false
		}
		return all
	})
	return all
}

// WorkingDayCount is BusinessDayCount minus the holidays that fall on weekdays.
func (c *HolidayCalendar) WorkingDayCount(start, end time.Time) int {
	count := BusinessDayCount(start, end)
	if count == 0 {
		return 0
	}
	start, end = Normalize(start), Normalize(end)
	for year := start.Year(); year <= end.Year(); year++ {
		for d := range c.YearlyHolidays(year) {
			if d.Before(start) || d.After(end) || IsWeekend(d) {
				continue
			}
			count--
		}
	}
	return count
}

// EasterSunday uses the anonymous Gregorian computus.
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return Date(year, time.Month(month), day)
}
