package calendar_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/leave-management/internal/calendar"
)

func TestCalendar(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Calendar Suite")
}

var _ = Describe("BusinessDayCount", func() {
	DescribeTable("counts Monday to Friday dates inclusively",
		func(start, end string, expected int) {
			s, err := calendar.ParseDate(start)
			Expect(err).NotTo(HaveOccurred())
			e, err := calendar.ParseDate(end)
			Expect(err).NotTo(HaveOccurred())
			Expect(calendar.BusinessDayCount(s, e)).To(Equal(expected))
		},
		Entry("single weekday", "2026-10-19", "2026-10-19", 1),
		Entry("full working week", "2026-10-19", "2026-10-23", 5),
		Entry("weekend only", "2026-10-17", "2026-10-18", 0),
		Entry("friday to monday", "2026-10-23", "2026-10-26", 2),
		Entry("two calendar weeks", "2026-10-19", "2026-11-01", 10),
		Entry("end before start", "2026-10-23", "2026-10-19", 0),
		Entry("holidays are still counted", "2026-12-21", "2026-12-25", 5),
	)

	It("never exceeds the number of calendar dates in the range", func() {
		start := calendar.Date(2026, time.January, 1)
		for offset := 0; offset < 21; offset++ {
			for length := 0; length < 40; length++ {
				s := start.AddDate(0, 0, offset)
				e := s.AddDate(0, 0, length)
				count := calendar.BusinessDayCount(s, e)
				Expect(count).To(BeNumerically("<=", calendar.DaysInRange(s, e)))
				Expect(count).To(BeNumerically(">=", 0))
			}
		}
	})

	It("matches a day-by-day walk", func() {
		start := calendar.Date(2026, time.March, 4)
		for length := 0; length < 60; length++ {
			end := start.AddDate(0, 0, length)
			walked := 0
			calendar.EachDay(start, end, func(d time.Time) bool {
				if !calendar.IsWeekend(d) {
					walked++
				}
				return true
			})
			Expect(calendar.BusinessDayCount(start, end)).To(Equal(walked))
		}
	})

	It("ignores the clock part of the given times", func() {
		s := time.Date(2026, time.October, 19, 17, 45, 0, 0, time.UTC)
		e := time.Date(2026, time.October, 20, 3, 0, 0, 0, time.UTC)
		Expect(calendar.BusinessDayCount(s, e)).To(Equal(2))
	})
})

var _ = Describe("HolidayCalendar", func() {
	var holidays *calendar.HolidayCalendar

	BeforeEach(func() {
		holidays = calendar.NewHolidayCalendar()
	})

	It("computes Easter Sunday", func() {
		Expect(calendar.EasterSunday(2026)).To(Equal(calendar.Date(2026, time.April, 5)))
		Expect(calendar.EasterSunday(2027)).To(Equal(calendar.Date(2027, time.March, 28)))
	})

	It("lists the fixed and movable holidays of a year", func() {
		hs := holidays.YearlyHolidays(2026)
		Expect(hs).To(HaveKeyWithValue(calendar.Date(2026, time.January, 1), "New Year's Day"))
		Expect(hs).To(HaveKeyWithValue(calendar.Date(2026, time.April, 3), "Good Friday"))
		Expect(hs).To(HaveKeyWithValue(calendar.Date(2026, time.April, 6), "Easter Monday"))
		Expect(hs).To(HaveKeyWithValue(calendar.Date(2026, time.December, 25), "Christmas Day"))
		Expect(hs).To(HaveLen(11))
	})

	It("returns the list sorted by date", func() {
		list := holidays.List(2026)
		for i := 1; i < len(list); i++ {
			Expect(list[i-1].Date.Before(list[i].Date)).To(BeTrue())
		}
	})

	It("includes configured extra dates only in their own year", func() {
		extra := calendar.NewHolidayCalendar(calendar.Holiday{Date: calendar.Date(2026, time.June, 4), Name: "Corpus Christi"})
		Expect(extra.YearlyHolidays(2026)).To(HaveKeyWithValue(calendar.Date(2026, time.June, 4), "Corpus Christi"))
		Expect(extra.YearlyHolidays(2027)).NotTo(HaveKey(calendar.Date(2026, time.June, 4)))
	})

	Describe("IsHolidayOnlyRange", func() {
		It("is true when every date is a holiday", func() {
			Expect(holidays.IsHolidayOnlyRange(calendar.Date(2026, time.December, 24), calendar.Date(2026, time.December, 26))).To(BeTrue())
			Expect(holidays.IsHolidayOnlyRange(calendar.Date(2027, time.December, 25), calendar.Date(2027, time.December, 26))).To(BeTrue())
		})

		It("spans the year boundary", func() {
			Expect(holidays.IsHolidayOnlyRange(calendar.Date(2026, time.December, 31), calendar.Date(2027, time.January, 1))).To(BeTrue())
		})

		It("is false as soon as one date is an ordinary day", func() {
			Expect(holidays.IsHolidayOnlyRange(calendar.Date(2026, time.December, 23), calendar.Date(2026, time.December, 24))).To(BeFalse())
			Expect(holidays.IsHolidayOnlyRange(calendar.Date(2026, time.October, 17), calendar.Date(2026, time.October, 18))).To(BeFalse())
		})

		It("is false for an inverted range", func() {
			Expect(holidays.IsHolidayOnlyRange(calendar.Date(2026, time.December, 26), calendar.Date(2026, time.December, 25))).To(BeFalse())
		})
	})

	It("subtracts weekday holidays in WorkingDayCount", func() {
		Expect(holidays.WorkingDayCount(calendar.Date(2026, time.December, 21), calendar.Date(2026, time.December, 25))).To(Equal(3))
		// October 3rd 2026 is a Saturday and changes nothing.
		Expect(holidays.WorkingDayCount(calendar.Date(2026, time.September, 28), calendar.Date(2026, time.October, 4))).To(Equal(5))
	})
})

var _ = Describe("Counter", func() {
	It("keeps holidays in the count by default", func() {
		c := calendar.NewCounter(nil, false)
		Expect(c.Count(calendar.Date(2026, time.December, 21), calendar.Date(2026, time.December, 25))).To(Equal(5))
	})

	It("drops weekday holidays when configured to", func() {
		c := calendar.NewCounter(nil, true)
		Expect(c.Count(calendar.Date(2026, time.December, 21), calendar.Date(2026, time.December, 25))).To(Equal(3))
		Expect(c.Count(calendar.Date(2026, time.December, 24), calendar.Date(2026, time.December, 25))).To(Equal(0))
		Expect(c.IsHolidayOnlyRange(calendar.Date(2026, time.December, 24), calendar.Date(2026, time.December, 25))).To(BeTrue())
	})
})

var _ = Describe("Today", func() {
	It("takes the calendar date in the given location", func() {
		clock := calendar.FixedClock{T: time.Date(2026, time.October, 15, 23, 30, 0, 0, time.UTC)}
		Expect(calendar.Today(clock, time.UTC)).To(Equal(calendar.Date(2026, time.October, 15)))
		Expect(calendar.Today(clock, time.FixedZone("CEST", 2*60*60))).To(Equal(calendar.Date(2026, time.October, 16)))
	})
})
