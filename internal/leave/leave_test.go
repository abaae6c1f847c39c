package leave_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/frahmantamala/leave-management/internal/leave"
)

var _ = Describe("Leave", func() {
	DescribeTable("status transitions",
		func(from, to leave.Status, allowed bool) {
			Expect(from.CanTransitionTo(to)).To(Equal(allowed))
		},
		Entry("pending to approved", leave.StatusPending, leave.StatusApproved, true),
		Entry("pending to rejected", leave.StatusPending, leave.StatusRejected, true),
		Entry("pending to cancelled", leave.StatusPending, leave.StatusCancelled, false),
		Entry("approved to cancelled", leave.StatusApproved, leave.StatusCancelled, true),
		Entry("approved to rejected", leave.StatusApproved, leave.StatusRejected, false),
		Entry("rejected to approved", leave.StatusRejected, leave.StatusApproved, false),
		Entry("cancelled to approved", leave.StatusCancelled, leave.StatusApproved, false),
		Entry("approved to approved", leave.StatusApproved, leave.StatusApproved, false),
	)

	It("marks rejected and cancelled as terminal", func() {
		Expect(leave.StatusRejected.IsTerminal()).To(BeTrue())
		Expect(leave.StatusCancelled.IsTerminal()).To(BeTrue())
		Expect(leave.StatusPending.IsTerminal()).To(BeFalse())
		Expect(leave.StatusApproved.IsTerminal()).To(BeFalse())
	})

	It("charges only vacation against the balance", func() {
		for _, c := range leave.Categories {
			Expect(c.CountsAgainstBalance()).To(Equal(c == leave.CategoryVacation))
		}
	})

	It("detects inclusive overlaps", func() {
		l := &leave.Leave{StartDate: calendar.Date(2026, 10, 19), EndDate: calendar.Date(2026, 10, 23)}
		Expect(l.Overlaps(calendar.Date(2026, 10, 23), calendar.Date(2026, 10, 27))).To(BeTrue())
		Expect(l.Overlaps(calendar.Date(2026, 10, 12), calendar.Date(2026, 10, 19))).To(BeTrue())
		Expect(l.Overlaps(calendar.Date(2026, 10, 20), calendar.Date(2026, 10, 21))).To(BeTrue())
		Expect(l.Overlaps(calendar.Date(2026, 10, 1), calendar.Date(2026, 10, 31))).To(BeTrue())
		Expect(l.Overlaps(calendar.Date(2026, 10, 24), calendar.Date(2026, 10, 25))).To(BeFalse())
	})

	It("renders dates without a clock part", func() {
		l := &leave.Leave{ID: 1, StartDate: calendar.Date(2026, 10, 19), EndDate: calendar.Date(2026, 10, 23), Status: leave.StatusPending}
		b, err := json.Marshal(l)
		Expect(err).NotTo(HaveOccurred())

		var out map[string]interface{}
		Expect(json.Unmarshal(b, &out)).To(Succeed())
		Expect(out).To(HaveKeyWithValue("start_date", "2026-10-19"))
		Expect(out).To(HaveKeyWithValue("end_date", "2026-10-23"))
		Expect(out).To(HaveKeyWithValue("status", "pending"))
	})
})
