package domain

import "time"

// LeadEventType names what happened to a lead. Used as the routing key.
type LeadEventType string

const (
	LeadCaptured      LeadEventType = "lead.captured"
	LeadStatusChanged LeadEventType = "lead.status_changed"
	LeadUpdated       LeadEventType = "lead.updated"
	LeadDeleted       LeadEventType = "lead.deleted"
)

// LeadEvent is published to the message broker after a successful mutation.
type LeadEvent struct {
	Type       LeadEventType `json:"type"`
	LeadIDs    []string      `json:"lead_ids"`
	Lead       *Lead         `json:"lead,omitempty"`
	Actor      string        `json:"actor,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}
