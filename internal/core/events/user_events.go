package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserCreated     = "user.created"
	EventTypeUserUpdated     = "user.updated"
	EventTypeUserDeactivated = "user.deactivated"
)

type UserEvent struct {
	BaseEvent
	UserID  int64    `json:"user_id"`
	Email   string   `json:"email"`
	ActorID int64    `json:"actor_id"`
	Changes []string `json:"changes,omitempty"`
}

func NewUserEvent(eventType string, userID int64, email string, actorID int64, changes ...string) *UserEvent {
	return &UserEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":  userID,
				"email":    email,
				"actor_id": actorID,
				"changes":  changes,
			},
		},
		UserID:  userID,
		Email:   email,
		ActorID: actorID,
		Changes: changes,
	}
}
