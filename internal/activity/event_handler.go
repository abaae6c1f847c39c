package activity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/leave-management/internal/core/events"
)

type Logger interface {
	LogActivity(ctx context.Context, action, description string, target Target, actorID int64, ownerID *int64) error
}

type EventHandler struct {
	sink   Logger
	logger *slog.Logger
}

func NewEventHandler(sink Logger, logger *slog.Logger) *EventHandler {
	return &EventHandler{sink: sink, logger: logger}
}

func (h *EventHandler) HandleLeaveEvent(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.LeaveEvent)
	if !ok {
		return fmt.Errorf("expected LeaveEvent, got %T", event)
	}

	var description string
	switch event.EventType() {
	case events.EventTypeLeaveSubmitted:
		if e.OnBehalf {
			description = fmt.Sprintf("%s recorded %d day(s) of %s for %s", e.ActorName, e.Days, e.Category, e.OwnerName)
		} else {
			description = fmt.Sprintf("%s requested %d day(s) of %s", e.OwnerName, e.Days, e.Category)
		}
	default:
		description = fmt.Sprintf("%s %s %s's %s leave", e.ActorName, e.Status, e.OwnerName, e.Category)
	}

	owner := e.OwnerID
	return h.sink.LogActivity(ctx, event.EventType(), description, LeaveTarget(e.LeaveID), e.ActorID, &owner)
}

func (h *EventHandler) HandleUserEvent(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.UserEvent)
	if !ok {
		return fmt.Errorf("expected UserEvent, got %T", event)
	}

	description := fmt.Sprintf("%s: %s", strings.TrimPrefix(event.EventType(), "user."), e.Email)
	if len(e.Changes) > 0 {
		description += " (" + strings.Join(e.Changes, ", ") + ")"
	}

	owner := e.UserID
	return h.sink.LogActivity(ctx, event.EventType(), description, UserTarget(e.UserID), e.ActorID, &owner)
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	for _, t := range events.LeaveEventTypes {
		eventBus.Subscribe(t, h.HandleLeaveEvent)
	}
	userTypes := []string{events.EventTypeUserCreated, events.EventTypeUserUpdated, events.EventTypeUserDeactivated}
	for _, t := range userTypes {
		eventBus.Subscribe(t, h.HandleUserEvent)
	}

	h.logger.Info("activity event handlers registered",
		"handlers", append(append([]string{}, events.LeaveEventTypes...), userTypes...))
}
