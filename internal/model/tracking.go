package model

import "time"

// Status is the lifecycle state of a tracking record.
type Status string

const (
	StatusPending Status = "pending"
	// StatusProcessing marks a record claimed by an in-flight send so an
	// overlapping sweep pass cannot pick it up a second time. It is never a
	// resting state: processing always transitions back to pending or on to
	// a terminal status before the claim holder returns.
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether a record in this status is done for good.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFailed || s == StatusCancelled
}

// Metadata carries the schedule-time context a send needs: the customer as
// they looked when the trigger fired, the trigger's event payload, and a
// priority hint.
type Metadata struct {
	Customer CustomerSnapshot `json:"customer"`
	Event    map[string]any   `json:"event,omitempty"`
	Priority string           `json:"priority,omitempty"`
}

// TrackingRecord is the persistent intent behind one scheduled email: created
// when an automation is scheduled, mutated only while being processed, and
// terminal once sent, failed, or cancelled.
type TrackingRecord struct {
	ID            string         `json:"id"`
	CustomerEmail string         `json:"customer_email"`
	Type          AutomationType `json:"automation_type"`
	ScheduledAt   time.Time      `json:"scheduled_at"`
	SentAt        *time.Time     `json:"sent_at,omitempty"`
	Status        Status         `json:"status"`
	Attempts      int            `json:"attempts"`
	LastError     string         `json:"last_error,omitempty"`
	Metadata      Metadata       `json:"metadata"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Clone returns a deep-enough copy so store callers can mutate freely.
func (r *TrackingRecord) Clone() *TrackingRecord {
	c := *r
	if r.SentAt != nil {
		t := *r.SentAt
		c.SentAt = &t
	}
	if r.Metadata.Event != nil {
		ev := make(map[string]any, len(r.Metadata.Event))
		for k, v := range r.Metadata.Event {
			ev[k] = v
		}
		c.Metadata.Event = ev
	}
	c.Metadata.Customer.PreferredCategories = append([]string(nil), r.Metadata.Customer.PreferredCategories...)
	return &c
}
