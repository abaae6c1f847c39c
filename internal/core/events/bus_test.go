package events_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var bus *events.EventBus

	BeforeEach(func() {
		bus = events.NewEventBus(logger.Discard())
	})

	It("keeps running handlers after one fails and reports the failure", func() {
		var calls int32
		bus.Subscribe(events.EventTypeLeaveApproved, func(ctx context.Context, e events.Event) error {
			atomic.AddInt32(&calls, 1)
			return errors.New("sink down")
		})
		bus.Subscribe(events.EventTypeLeaveApproved, func(ctx context.Context, e events.Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})

		err := bus.PublishSync(context.Background(), events.NewLeaveEvent(events.EventTypeLeaveApproved, events.LeavePayload{LeaveID: 7}))
		Expect(err).To(MatchError(ContainSubstring("sink down")))
		Expect(atomic.LoadInt32(&calls)).To(Equal(int32(2)))
	})

	It("ignores events without subscribers", func() {
		Expect(bus.PublishSync(context.Background(), events.NewUserEvent(events.EventTypeUserCreated, 1, "a@b.c", 1))).To(Succeed())
	})

	It("delivers asynchronously with a context that outlives the caller", func() {
		var seen int32
		bus.Subscribe(events.EventTypeLeaveSubmitted, func(ctx context.Context, e events.Event) error {
			evt, ok := e.(*events.LeaveEvent)
			if ok && evt.LeaveID == 3 && ctx.Err() == nil {
				atomic.AddInt32(&seen, 1)
			}
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		Expect(bus.Publish(ctx, events.NewLeaveEvent(events.EventTypeLeaveSubmitted, events.LeavePayload{LeaveID: 3}))).To(Succeed())
		cancel()
		bus.Wait()
		Expect(atomic.LoadInt32(&seen)).To(Equal(int32(1)))
	})
})
