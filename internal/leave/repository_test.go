package leave_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/leave"
)

var _ = Describe("LeaveRepository", func() {
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

	Describe("UpdateReview", func() {
		var stored *leave.Leave

		BeforeEach(func() {
			created, err := f.service.Submit(ctx, f.anna, submit("vacation", "2026-10-19", "2026-10-23"))
			Expect(err).NotTo(HaveOccurred())
			stored, err = f.repo.GetByID(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("applies the review when the status is still the expected one", func() {
			reviewer := f.head.ID
			stored.Status = leave.StatusApproved
			stored.ReviewerID = &reviewer
			stored.ReviewedAt = &now

			Expect(f.repo.UpdateReview(ctx, stored, leave.StatusPending)).To(Succeed())

			reloaded, err := f.repo.GetByID(ctx, stored.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Status).To(Equal(leave.StatusApproved))
			Expect(reloaded.ReviewerID).To(HaveValue(Equal(f.head.ID)))
		})

		It("refuses a stale expected status and leaves the row alone", func() {
			reviewer := f.head.ID
			notes := "too late"
			reviewedAt := now.Add(time.Hour)
			stored.Status = leave.StatusCancelled
			stored.ReviewerID = &reviewer
			stored.ReviewedAt = &reviewedAt
			stored.ReviewNotes = &notes

			err := f.repo.UpdateReview(ctx, stored, leave.StatusApproved)
			Expect(err).To(MatchError(internal.ErrInvalidState))

			reloaded, err := f.repo.GetByID(ctx, stored.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Status).To(Equal(leave.StatusPending))
			Expect(reloaded.ReviewerID).To(BeNil())
			Expect(reloaded.ReviewedAt).To(BeNil())
			Expect(reloaded.ReviewNotes).To(BeNil())
		})
	})
})
