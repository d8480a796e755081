// Package queue defines the audit event payloads exchanged over the message
// broker and the background consumer that records them.
package queue

// AuditQueueName is the durable queue all account/moderation audit events
// are published to.
const AuditQueueName = "account.audit"

// Audit event kinds.
const (
	KindAccountMigrated      = "account.migrated"
	KindTestimonialModerated = "testimonial.moderated"
)

// AuditEvent is the envelope published for every auditable state change.
// Only the fields relevant to the Kind are populated; the rest are omitted
// from the JSON payload.
type AuditEvent struct {
	Kind          string `json:"kind"`
	UserID        uint64 `json:"user_id"`
	ActorID       uint64 `json:"actor_id,omitempty"`
	Email         string `json:"email,omitempty"`
	FromProvider  string `json:"from_provider,omitempty"`
	ToProvider    string `json:"to_provider,omitempty"`
	TestimonialID uint64 `json:"testimonial_id,omitempty"`
	Approved      *bool  `json:"approved,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
