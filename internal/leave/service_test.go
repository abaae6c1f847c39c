package leave_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/events"
	coreuser "github.com/frahmantamala/leave-management/internal/core/user"
	"github.com/frahmantamala/leave-management/internal/leave"
)

var _ = Describe("LeaveService", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture(false)
	})

	AfterEach(func() {
		closeDB(f.db)
	})

	Describe("balance", func() {
		It("equals the allowance when the user has no leaves", func() {
			remaining, err := f.service.Remaining(ctx, f.carl, 2026)
			Expect(err).NotTo(HaveOccurred())
			Expect(remaining).To(Equal(20))
		})

		It("reserves pending days and releases rejected ones", func() {
			l, err := f.service.Submit(ctx, f.anna, submit("vacation", "2026-10-19", "2026-10-23"))
			Expect(err).NotTo(HaveOccurred())

			b, err := f.service.Balance(ctx, f.anna, f.anna.ID, 2026)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Pending).To(Equal(5))
			Expect(b.Remaining).To(Equal(20))

			_, err = f.service.Reject(ctx, f.head, l.ID, "staffing")
			Expect(err).NotTo(HaveOccurred())

			b, err = f.service.Balance(ctx, f.head, f.anna.ID, 2026)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Remaining).To(Equal(25))
		})

		It("ignores categories other than vacation", func() {
			_, err := f.service.Submit(ctx, f.anna, submit("sick_self_certified", "2026-10-19", "2026-10-20"))
			Expect(err).NotTo(HaveOccurred())

			remaining, err := f.service.Remaining(ctx, f.anna, 2026)
			Expect(err).NotTo(HaveOccurred())
			Expect(remaining).To(Equal(25))
		})

		It("hides other users' balances from teachers", func() {
			_, err := f.service.Balance(ctx, f.carl, f.anna.ID, 2026)
			Expect(err).To(MatchError(internal.ErrForbidden))
		})
	})

	Describe("Submit", func() {
		It("creates a pending leave and notifies through the submitted event", func() {
			l, err := f.service.Submit(ctx, f.anna, submit("vacation", "2026-10-19", "2026-10-23"))
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Status).To(Equal(leave.StatusPending))
			Expect(l.DaysRequested).To(Equal(5))
			Expect(l.ReviewerID).To(BeNil())
			Expect(l.CreatedBy).To(Equal(f.anna.ID))

			evt := f.publisher.last()
			Expect(evt).NotTo(BeNil())
			Expect(evt.EventType()).To(Equal(events.EventTypeLeaveSubmitted))
			Expect(evt.OnBehalf).To(BeFalse())
			Expect(evt.OwnerManagerID).To(HaveValue(Equal(f.head.ID)))
		})

		It("fails with InsufficientBalance and stores nothing", func() {
			dora := createUser(f.db, &coreuser.User{Email: "dora@school.test", Name: "Dora", Role: coreuser.RoleTeacher, TotalLeaveDays: 3, ManagerID: &f.head.ID})

			_, err := f.service.Submit(ctx, dora, submit("vacation", "2026-10-19", "2026-10-23"))
			Expect(internal.CodeOf(err)).To(Equal(internal.ErrCodeInsufficientBalance))
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Details).To(HaveKeyWithValue("remaining", 3))
			Expect(appErr.Details).To(HaveKeyWithValue("requested", 5))
			Expect(countLeaves(f.db)).To(BeZero())
		})

		It("blocks an overlapping request until the first is rejected", func() {
			first, err := f.service.Submit(ctx, f.anna, submit("vacation", "2026-10-19", "2026-10-23"))
			Expect(err).NotTo(HaveOccurred())

			_, err = f.service.Submit(ctx, f.anna, submit("vacation", "2026-10-23", "2026-10-27"))
			Expect(internal.CodeOf(err)).To(Equal(internal.ErrCodeOverlappingRequest))
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Details).To(HaveKeyWithValue("leave_id", first.ID))

			stored, err := f.service.GetByID(ctx, f.anna, first.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(leave.StatusPending))

			_, err = f.service.Reject(ctx, f.head, first.ID, "clashes with exams")
			Expect(err).NotTo(HaveOccurred())

			second, err := f.service.Submit(ctx, f.anna, submit("vacation", "2026-10-23", "2026-10-27"))
			Expect(err).NotTo(HaveOccurred())
			Expect(second.DaysRequested).To(Equal(3))
		})

		It("allows overlaps across categories", func() {
			_, err := f.service.Submit(ctx, f.anna, submit("vacation", "2026-10-19", "2026-10-23"))
			Expect(err).NotTo(HaveOccurred())
			_, err = f.service.Submit(ctx, f.anna, submit("sick_certified", "2026-10-21", "2026-10-21"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("treats a contained range as overlapping", func() {
			_, err := f.service.Submit(ctx, f.anna, submit("vacation", "2026-10-19", "2026-10-30"))
			Expect(err).NotTo(HaveOccurred())
			_, err = f.service.Submit(ctx, f.anna, submit("vacation", "2026-10-21", "2026-10-22"))
			Expect(internal.CodeOf(err)).To(Equal(internal.ErrCodeOverlappingRequest))
		})

		It("rejects a weekend-only range", func() {
			_, err := f.service.Submit(ctx, f.anna, submit("vacation", "2026-10-24", "2026-10-25"))
			Expect(internal.CodeOf(err)).To(Equal(internal.ErrCodeEmptyRange))
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Details).To(HaveKeyWithValue("reason", internal.EmptyRangeWeekendOnly))
			Expect(countLeaves(f.db)).To(BeZero())
		})

		It("rejects an inverted range", func() {
			_, err := f.service.Submit(ctx, f.anna, submit("vacation", "2026-10-23", "2026-10-19"))
			Expect(err).To(MatchError(internal.ErrInvalidDateRange))
		})

		It("rejects a self-submitted start date in the past", func() {
			_, err := f.service.Submit(ctx, f.anna, submit("vacation", "2026-10-14", "2026-10-16"))
			Expect(internal.CodeOf(err)).To(Equal(internal.ErrCodeInvalidDateRange))
		})

		It("accepts a start date of today", func() {
			l, err := f.service.Submit(ctx, f.anna, submit("vacation", "2026-10-15", "2026-10-16"))
			Expect(err).NotTo(HaveOccurred())
			Expect(l.DaysRequested).To(Equal(2))
		})

		It("forbids self-service other_absence", func() {
			_, err := f.service.Submit(ctx, f.anna, submit("other_absence", "2026-10-19", "2026-10-19"))
			Expect(err).To(MatchError(internal.ErrForbidden))
		})

		It("rejects unknown categories", func() {
			_, err := f.service.Submit(ctx, f.anna, submit("sabbatical", "2026-10-19", "2026-10-19"))
			Expect(err).To(MatchError(internal.ErrInvalidCategory))
		})

		It("rejects malformed dates before touching the store", func() {
			_, err := f.service.Submit(ctx, f.anna, submit("vacation", "19/10/2026", "2026-10-19"))
			Expect(internal.CodeOf(err)).To(Equal(internal.ErrCodeValidationFailed))
		})
	})

	Describe("acting on behalf", func() {
		It("auto-approves an admin's past other_absence without touching the balance", func() {
			dto := submit("other_absence", "2026-09-14", "2026-09-18")
			dto.UserID = f.carl.ID

			l, err := f.service.Submit(ctx, f.admin, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Status).To(Equal(leave.StatusApproved))
			Expect(l.ReviewerID).To(HaveValue(Equal(f.admin.ID)))
			Expect(l.ReviewedAt).NotTo(BeNil())
			Expect(l.UserID).To(Equal(f.carl.ID))

			remaining, err := f.service.Remaining(ctx, f.carl, 2026)
			Expect(err).NotTo(HaveOccurred())
			Expect(remaining).To(Equal(20))

			history, err := f.service.History(ctx, f.admin, l.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(1))
			Expect(history[0].Action).To(Equal(leave.ActionCreatedForUser))
			Expect(history[0].PreviousStatus).To(BeNil())

			Expect(f.publisher.last().OnBehalf).To(BeTrue())
		})

		It("lets managers act for their own teachers only", func() {
			dto := submit("vacation", "2026-10-19", "2026-10-20")
			dto.UserID = f.anna.ID
			l, err := f.service.Submit(ctx, f.head, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Status).To(Equal(leave.StatusApproved))

			dto.UserID = f.carl.ID
			_, err = f.service.Submit(ctx, f.head, dto)
			Expect(err).To(MatchError(internal.ErrForbidden))
		})

		It("forbids teachers from acting for others", func() {
			dto := submit("vacation", "2026-10-19", "2026-10-20")
			dto.UserID = f.carl.ID
			_, err := f.service.Submit(ctx, f.anna, dto)
			Expect(err).To(MatchError(internal.ErrForbidden))
		})

		It("still checks the balance of the target", func() {
			dto := submit("vacation", "2026-09-01", "2026-10-30")
			dto.UserID = f.carl.ID
			_, err := f.service.Submit(ctx, f.admin, dto)
			Expect(internal.CodeOf(err)).To(Equal(internal.ErrCodeInsufficientBalance))
		})

		It("reports unknown targets", func() {
			dto := submit("vacation", "2026-10-19", "2026-10-20")
			dto.UserID = 9999
			_, err := f.service.Submit(ctx, f.admin, dto)
			Expect(err).To(MatchError(internal.ErrUserNotFound))
		})
	})

	Describe("review transitions", func() {
		var pending *leave.Leave

		BeforeEach(func() {
			var err error
			pending, err = f.service.Submit(ctx, f.anna, submit("vacation", "2026-10-19", "2026-10-23"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("approves once and refuses a second approval without new history", func() {
			approved, err := f.service.Approve(ctx, f.head, pending.ID, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(approved.Status).To(Equal(leave.StatusApproved))
			Expect(approved.ReviewerID).To(HaveValue(Equal(f.head.ID)))
			Expect(approved.ReviewedAt).To(HaveValue(BeTemporally("==", now)))

			_, err = f.service.Approve(ctx, f.head, pending.ID, "")
			Expect(err).To(MatchError(internal.ErrInvalidState))

			history, err := f.service.History(ctx, f.anna, pending.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(2))
			Expect(history[0].Action).To(Equal(leave.ActionSubmitted))
			Expect(history[1].Action).To(Equal(leave.ActionApproved))
			Expect(history[1].PreviousStatus).To(HaveValue(Equal(leave.StatusPending)))
		})

		It("notifies the owner on approval", func() {
			_, err := f.service.Approve(ctx, f.head, pending.ID, "enjoy")
			Expect(err).NotTo(HaveOccurred())

			evt := f.publisher.last()
			Expect(evt.EventType()).To(Equal(events.EventTypeLeaveApproved))
			Expect(evt.OwnerID).To(Equal(f.anna.ID))
			Expect(evt.ActorID).To(Equal(f.head.ID))
			Expect(evt.Notes).To(Equal("enjoy"))
		})

		It("only cancels approved leaves", func() {
			_, err := f.service.Cancel(ctx, f.head, pending.ID, "plans changed")
			Expect(err).To(MatchError(internal.ErrInvalidState))

			_, err = f.service.Approve(ctx, f.head, pending.ID, "")
			Expect(err).NotTo(HaveOccurred())

			cancelled, err := f.service.Cancel(ctx, f.head, pending.ID, "plans changed")
			Expect(err).NotTo(HaveOccurred())
			Expect(cancelled.Status).To(Equal(leave.StatusCancelled))
			Expect(cancelled.ReviewNotes).To(HaveValue(Equal("plans changed")))

			_, err = f.service.Approve(ctx, f.head, pending.ID, "")
			Expect(err).To(MatchError(internal.ErrInvalidState))
		})

		It("refuses to cancel a rejected leave", func() {
			_, err := f.service.Reject(ctx, f.admin, pending.ID, "no cover")
			Expect(err).NotTo(HaveOccurred())

			_, err = f.service.Cancel(ctx, f.admin, pending.ID, "again")
			Expect(err).To(MatchError(internal.ErrInvalidState))
		})

		It("requires notes to reject or cancel", func() {
			_, err := f.service.Reject(ctx, f.head, pending.ID, "   ")
			Expect(err).To(MatchError(internal.ErrNotesRequired))
			_, err = f.service.Cancel(ctx, f.head, pending.ID, "")
			Expect(err).To(MatchError(internal.ErrNotesRequired))
		})

		It("checks authorization before state", func() {
			_, err := f.service.Approve(ctx, f.otherHead, pending.ID, "")
			Expect(err).To(MatchError(internal.ErrForbidden))

			_, err = f.service.Approve(ctx, f.anna, pending.ID, "")
			Expect(err).To(MatchError(internal.ErrForbidden))

			_, err = f.service.Reject(ctx, f.head, pending.ID, "no")
			Expect(err).NotTo(HaveOccurred())
			_, err = f.service.Approve(ctx, f.otherHead, pending.ID, "")
			Expect(err).To(MatchError(internal.ErrForbidden))
		})

		It("reports missing leaves", func() {
			_, err := f.service.Approve(ctx, f.admin, 9999, "")
			Expect(err).To(MatchError(internal.ErrLeaveNotFound))
		})
	})

	Describe("visibility", func() {
		BeforeEach(func() {
			_, err := f.service.Submit(ctx, f.anna, submit("vacation", "2026-10-19", "2026-10-20"))
			Expect(err).NotTo(HaveOccurred())
			_, err = f.service.Submit(ctx, f.carl, submit("vacation", "2026-10-19", "2026-10-20"))
			Expect(err).NotTo(HaveOccurred())
			_, err = f.service.Submit(ctx, f.head, submit("vacation", "2026-11-02", "2026-11-03"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("scopes listings by role", func() {
			_, total, err := f.service.List(ctx, f.admin, leave.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(3)))

			leaves, total, err := f.service.List(ctx, f.head, leave.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(leaves[0].UserID).To(Equal(f.anna.ID))

			leaves, _, err = f.service.List(ctx, f.head, leave.ListFilter{Mine: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(leaves).To(HaveLen(1))
			Expect(leaves[0].UserID).To(Equal(f.head.ID))

			leaves, _, err = f.service.List(ctx, f.carl, leave.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(leaves).To(HaveLen(1))
			Expect(leaves[0].UserID).To(Equal(f.carl.ID))
		})

		It("hides leaves outside the actor's scope", func() {
			leaves, _, err := f.service.List(ctx, f.carl, leave.ListFilter{})
			Expect(err).NotTo(HaveOccurred())

			_, err = f.service.GetByID(ctx, f.anna, leaves[0].ID)
			Expect(err).To(MatchError(internal.ErrForbidden))
			_, err = f.service.GetByID(ctx, f.head, leaves[0].ID)
			Expect(err).To(MatchError(internal.ErrForbidden))
			_, err = f.service.GetByID(ctx, f.otherHead, leaves[0].ID)
			Expect(err).NotTo(HaveOccurred())
		})
	})
})

var _ = Describe("LeaveService with holiday exclusion", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture(true)
	})

	AfterEach(func() {
		closeDB(f.db)
	})

	It("reports a holiday-only range", func() {
		_, err := f.service.Submit(ctx, f.anna, submit("vacation", "2026-12-24", "2026-12-26"))
		Expect(internal.CodeOf(err)).To(Equal(internal.ErrCodeEmptyRange))
		appErr, _ := internal.IsAppError(err)
		Expect(appErr.Details).To(HaveKeyWithValue("reason", internal.EmptyRangeHolidayOnly))
	})

	It("does not charge weekday holidays", func() {
		l, err := f.service.Submit(ctx, f.anna, submit("vacation", "2026-12-21", "2026-12-25"))
		Expect(err).NotTo(HaveOccurred())
		Expect(l.DaysRequested).To(Equal(3))
	})
})

var _ = Describe("LeaveService with failing side effects", func() {
	var (
		f         *fixture
		ctx       context.Context
		publisher *failingPublisher
		service   *leave.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture(false)
		publisher = &failingPublisher{}
		service = f.serviceWith(publisher)
	})

	AfterEach(func() {
		closeDB(f.db)
	})

	It("keeps submissions and approvals committed", func() {
		created, err := service.Submit(ctx, f.anna, submit("vacation", "2026-10-19", "2026-10-23"))
		Expect(err).NotTo(HaveOccurred())
		Expect(created.Status).To(Equal(leave.StatusPending))

		approved, err := service.Approve(ctx, f.head, created.ID, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(approved.Status).To(Equal(leave.StatusApproved))
		Expect(publisher.calls).To(Equal(2))

		stored, err := f.repo.GetByID(ctx, created.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Status).To(Equal(leave.StatusApproved))
		Expect(stored.ReviewerID).To(HaveValue(Equal(f.head.ID)))

		history, err := f.repo.ListHistory(ctx, created.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(history).To(HaveLen(2))
		Expect(history[1].Action).To(Equal(leave.ActionApproved))

		balance, err := service.Balance(ctx, f.anna, f.anna.ID, 2026)
		Expect(err).NotTo(HaveOccurred())
		Expect(balance.Remaining).To(Equal(20))
	})
})
