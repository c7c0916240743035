package models

import "time"

// EventType represents the type of domain event.
type EventType string

const (
	EventUserCreated           EventType = "user.created"
	EventPermissionUserRelated EventType = "permission.user_related"
)

// UserPayload is the event payload shared by both event types. It carries
// every field a projection needs, so a redelivered or reordered event can be
// applied without a lookup against the command store.
type UserPayload struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Email                 string    `json:"email"`
	Description           string    `json:"description"`
	Permission            string    `json:"permission,omitempty"`
	PermissionDescription string    `json:"permission_description,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// View converts the payload into the user read model snapshot.
func (p UserPayload) View() UserView {
	return UserView{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		Description: p.Description,
		Permission:  p.Permission,
		CreatedAt:   p.CreatedAt,
	}
}

// UserEvent is the envelope published after a committed write.
type UserEvent struct {
	EventID       string      `json:"event_id"`
	CorrelationID string      `json:"correlation_id"`
	EventType     EventType   `json:"event_type"`
	Timestamp     time.Time   `json:"timestamp"`
	Data          UserPayload `json:"data"`
}
