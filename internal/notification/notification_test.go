package notification_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/leave-management/internal"
	notificationDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/leave-management/internal/core/events"
	coreuser "github.com/frahmantamala/leave-management/internal/core/user"
	"github.com/frahmantamala/leave-management/internal/notification"
	"github.com/frahmantamala/leave-management/internal/notification/postgres"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

func TestNotification(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Notification Suite")
}

type recordingDeliverer struct {
	queued []*notification.Notification
	accept bool
}

func (d *recordingDeliverer) Enqueue(n *notification.Notification) bool {
	d.queued = append(d.queued, n)
	return d.accept
}

func int64Ptr(v int64) *int64 { return &v }

var _ = Describe("Service", func() {
	var (
		ctx       context.Context
		db        *gorm.DB
		deliverer *recordingDeliverer
		service   *notification.Service
		anna, ben *coreuser.User
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&notificationDatamodel.Notification{})).To(Succeed())

		deliverer = &recordingDeliverer{accept: true}
		service = notification.NewService(postgres.NewNotificationRepository(db), deliverer, logger.Discard())
		anna = &coreuser.User{ID: 1, Name: "Anna", Role: coreuser.RoleTeacher, IsActive: true}
		ben = &coreuser.User{ID: 2, Name: "Ben", Role: coreuser.RoleManager, IsActive: true}
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("stores the notification and hands it to the deliverer", func() {
		n, err := service.Notify(ctx, anna.ID, notification.TypeLeaveApproved, "Leave request approved", "ok", int64Ptr(9))
		Expect(err).NotTo(HaveOccurred())
		Expect(n.ID).To(BeNumerically(">", 0))
		Expect(deliverer.queued).To(ConsistOf(n))

		items, total, err := service.List(ctx, anna, notification.ListFilter{})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(int64(1)))
		Expect(items[0].LeaveID).To(HaveValue(Equal(int64(9))))
	})

	It("keeps the stored row when delivery is refused", func() {
		deliverer.accept = false

		_, err := service.Notify(ctx, anna.ID, notification.TypeLeaveRejected, "Leave request rejected", "no", nil)
		Expect(err).NotTo(HaveOccurred())

		count, err := service.UnreadCount(ctx, anna)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(int64(1)))
	})

	It("marks only the owner's notifications as read", func() {
		n, err := service.Notify(ctx, anna.ID, notification.TypeLeaveApproved, "t", "m", nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(service.MarkRead(ctx, ben, n.ID)).To(MatchError(internal.ErrNotificationNotFound))
		Expect(service.MarkRead(ctx, anna, n.ID)).To(Succeed())
		Expect(service.MarkRead(ctx, anna, n.ID)).To(Succeed())

		unread, _, err := service.List(ctx, anna, notification.ListFilter{UnreadOnly: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(unread).To(BeEmpty())
	})
})

type recordingNotifier struct {
	sent []sent
	err  error
}

type sent struct {
	userID int64
	typ    notification.Type
	msg    string
}

func (r *recordingNotifier) Notify(_ context.Context, userID int64, t notification.Type, _, message string, _ *int64) (*notification.Notification, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.sent = append(r.sent, sent{userID: userID, typ: t, msg: message})
	return &notification.Notification{UserID: userID, Type: t}, nil
}

var _ = Describe("EventHandler", func() {
	var (
		notifier *recordingNotifier
		handler  *notification.EventHandler
		payload  events.LeavePayload
	)

	BeforeEach(func() {
		notifier = &recordingNotifier{}
		handler = notification.NewEventHandler(notifier, logger.Discard())
		payload = events.LeavePayload{
			LeaveID:        5,
			OwnerID:        10,
			OwnerName:      "Anna",
			OwnerManagerID: int64Ptr(20),
			ActorID:        10,
			ActorName:      "Anna",
			Category:       "vacation",
			StartDate:      time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
			EndDate:        time.Date(2026, 10, 23, 0, 0, 0, 0, time.UTC),
			Days:           5,
		}
	})

	It("notifies the manager of a self-submitted request", func() {
		Expect(handler.HandleLeaveSubmitted(context.Background(), events.NewLeaveEvent(events.EventTypeLeaveSubmitted, payload))).To(Succeed())

		Expect(notifier.sent).To(HaveLen(1))
		Expect(notifier.sent[0].userID).To(Equal(int64(20)))
		Expect(notifier.sent[0].typ).To(Equal(notification.TypeLeaveSubmitted))
		Expect(notifier.sent[0].msg).To(ContainSubstring("Mon 19 Oct 2026"))
	})

	It("stays silent for requests created on behalf of the owner", func() {
		payload.OnBehalf = true
		Expect(handler.HandleLeaveSubmitted(context.Background(), events.NewLeaveEvent(events.EventTypeLeaveSubmitted, payload))).To(Succeed())
		Expect(notifier.sent).To(BeEmpty())
	})

	It("stays silent when the owner has no manager", func() {
		payload.OwnerManagerID = nil
		Expect(handler.HandleLeaveSubmitted(context.Background(), events.NewLeaveEvent(events.EventTypeLeaveSubmitted, payload))).To(Succeed())
		Expect(notifier.sent).To(BeEmpty())
	})

	DescribeTable("notifies the owner of a review",
		func(eventType string, want notification.Type) {
			payload.ActorID, payload.ActorName, payload.Notes = 20, "Head", "enjoy"
			Expect(handler.HandleLeaveReviewed(context.Background(), events.NewLeaveEvent(eventType, payload))).To(Succeed())

			Expect(notifier.sent).To(HaveLen(1))
			Expect(notifier.sent[0].userID).To(Equal(int64(10)))
			Expect(notifier.sent[0].typ).To(Equal(want))
			Expect(notifier.sent[0].msg).To(ContainSubstring("by Head"))
			Expect(notifier.sent[0].msg).To(ContainSubstring("Notes: enjoy"))
		},
		Entry("approved", events.EventTypeLeaveApproved, notification.TypeLeaveApproved),
		Entry("rejected", events.EventTypeLeaveRejected, notification.TypeLeaveRejected),
		Entry("cancelled", events.EventTypeLeaveCancelled, notification.TypeLeaveCancelled),
	)

	It("reports sink failures to the bus", func() {
		notifier.err = errors.New("db down")
		err := handler.HandleLeaveReviewed(context.Background(), events.NewLeaveEvent(events.EventTypeLeaveApproved, payload))
		Expect(err).To(MatchError("db down"))
	})

	It("rejects foreign events", func() {
		evt := events.NewUserEvent(events.EventTypeUserCreated, 1, "a@b.c", 2)
		Expect(handler.HandleLeaveSubmitted(context.Background(), evt)).NotTo(Succeed())
	})
})
