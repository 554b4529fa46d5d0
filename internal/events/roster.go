// Package events defines the roster event payloads shared by the API and the audit consumer.
package events

import "time"

// Roster event types.
const (
	TypeParticipantSignedUp = "participant.signed_up"
	TypeParticipantRemoved  = "participant.removed"
)

// RosterChanged is emitted whenever a participant joins or leaves an activity.
type RosterChanged struct {
	EventID          string    `json:"event_id"`
	EventType        string    `json:"event_type"`
	Activity         string    `json:"activity"`
	Email            string    `json:"email"`
	ParticipantCount int       `json:"participant_count"`
	OccurredAt       time.Time `json:"occurred_at"`
}
