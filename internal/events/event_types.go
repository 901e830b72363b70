package events

import (
	"time"

	"github.com/wardline-health/staff-access-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccessRequestCreated       EventType = "access_request.created"
	EventAccessRequestReviewed      EventType = "access_request.reviewed"
	EventOverrideUpdated            EventType = "override.updated"
	EventManagersUpdated            EventType = "managers.updated"
	EventPersonalPermissionsUpdated EventType = "personal_permissions.updated"
)

// Actor identifies the staff member whose action produced the event.
type Actor struct {
	Email domain.Email `json:"email"`
	Role  domain.Role  `json:"role"`
}

// ActorFrom builds an Actor from a caller identity.
func ActorFrom(identity domain.Identity) Actor {
	return Actor{Email: identity.Email, Role: identity.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AccessRequestCreatedPayload payload.
type AccessRequestCreatedPayload struct {
	RequesterEmail domain.Email   `json:"requester_email"`
	Module         domain.Module  `json:"module"`
	Feature        domain.Feature `json:"feature"`
}

// AccessRequestReviewedPayload payload. Consumers that want approval to lift
// the restriction act on this event; the review itself leaves overrides alone.
type AccessRequestReviewedPayload struct {
	RequesterEmail domain.Email               `json:"requester_email"`
	Module         domain.Module              `json:"module"`
	Feature        domain.Feature             `json:"feature"`
	Status         domain.AccessRequestStatus `json:"status"`
	Comment        *string                    `json:"comment,omitempty"`
}

// OverrideUpdatedPayload payload. Cleared is true when the module override was removed.
type OverrideUpdatedPayload struct {
	Email   domain.Email  `json:"email"`
	Module  domain.Module `json:"module"`
	Cleared bool          `json:"cleared"`
}

// ManagersUpdatedPayload payload.
type ManagersUpdatedPayload struct {
	Email   *domain.Email `json:"email,omitempty"`
	Role    *domain.Role  `json:"role,omitempty"`
	Removed bool          `json:"removed"`
}

// PersonalPermissionsUpdatedPayload payload.
type PersonalPermissionsUpdatedPayload struct {
	Owner   domain.Email            `json:"owner"`
	Modules []domain.PersonalModule `json:"modules"`
}
