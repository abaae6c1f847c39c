package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/leave-management/internal/core/events"
)

type Notifier interface {
	Notify(ctx context.Context, userID int64, t Type, title, message string, leaveID *int64) (*Notification, error)
}

// EventHandler turns leave transitions into inbox entries.
type EventHandler struct {
	notifier Notifier
	logger   *slog.Logger
}

func NewEventHandler(notifier Notifier, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		notifier: notifier,
		logger:   logger,
	}
}

// HandleLeaveSubmitted tells the owner's manager about a self-submitted request.
// Requests created on someone's behalf are already approved and notify nobody.
func (h *EventHandler) HandleLeaveSubmitted(ctx context.Context, event events.Event) error {
	e, err := leaveEvent(event)
	if err != nil {
		return err
	}
	if e.OnBehalf || e.OwnerManagerID == nil {
		return nil
	}

	title := "New leave request"
	message := fmt.Sprintf("%s requested %s from %s to %s (%d day(s)).",
		e.OwnerName, e.Category, day(e.StartDate), day(e.EndDate), e.Days)

	_, err = h.notifier.Notify(ctx, *e.OwnerManagerID, TypeLeaveSubmitted, title, message, &e.LeaveID)
	return err
}

// HandleLeaveReviewed notifies the owner of an approval, rejection or cancellation.
func (h *EventHandler) HandleLeaveReviewed(ctx context.Context, event events.Event) error {
	e, err := leaveEvent(event)
	if err != nil {
		return err
	}

	var (
		t    Type
		verb string
	)
	switch event.EventType() {
	case events.EventTypeLeaveApproved:
		t, verb = TypeLeaveApproved, "approved"
	case events.EventTypeLeaveRejected:
		t, verb = TypeLeaveRejected, "rejected"
	case events.EventTypeLeaveCancelled:
		t, verb = TypeLeaveCancelled, "cancelled"
	default:
		return fmt.Errorf("unexpected event type %s", event.EventType())
	}

	title := fmt.Sprintf("Leave request %s", verb)
	message := fmt.Sprintf("Your %s leave from %s to %s was %s by %s.",
		e.Category, day(e.StartDate), day(e.EndDate), verb, e.ActorName)
	if e.Notes != "" {
		message += " Notes: " + e.Notes
	}

	_, err = h.notifier.Notify(ctx, e.OwnerID, t, title, message, &e.LeaveID)
	return err
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeLeaveSubmitted, h.HandleLeaveSubmitted)
	eventBus.Subscribe(events.EventTypeLeaveApproved, h.HandleLeaveReviewed)
	eventBus.Subscribe(events.EventTypeLeaveRejected, h.HandleLeaveReviewed)
	eventBus.Subscribe(events.EventTypeLeaveCancelled, h.HandleLeaveReviewed)

	h.logger.Info("notification event handlers registered", "handlers", events.LeaveEventTypes)
}

func leaveEvent(event events.Event) (*events.LeaveEvent, error) {
	e, ok := event.(*events.LeaveEvent)
	if !ok {
		return nil, fmt.Errorf("expected LeaveEvent, got %T", event)
	}
	return e, nil
}

func day(t time.Time) string {
	return t.Format("Mon 2 Jan 2006")
}
