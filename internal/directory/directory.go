// Package directory defines the best-effort collaborators around a send:
// the contact directory (CRM) and the event tracking sink. Failures from
// either are logged and swallowed; they never affect a tracking record.
package directory

import (
	"context"

	"github.com/bloomhaus/mailflow/internal/logger"
)

// ContactDirectory syncs customer attributes and list membership to the CRM.
type ContactDirectory interface {
	Upsert(ctx context.Context, email string, attrs map[string]string, lists []string) error
}

// EventSink records analytics events, fire-and-forget.
type EventSink interface {
	Record(ctx context.Context, event string, email string, props map[string]any) error
}

// LogDirectory is the default ContactDirectory: it only logs. Deployments
// wire a real CRM client in its place.
type LogDirectory struct {
	log *logger.Logger
}

// NewLogDirectory creates a LogDirectory.
func NewLogDirectory(log *logger.Logger) *LogDirectory {
	return &LogDirectory{log: log.WithComponent("contact_directory")}
}

func (d *LogDirectory) Upsert(ctx context.Context, email string, attrs map[string]string, lists []string) error {
	d.log.Debug().
		Str("email", email).
		Strs("lists", lists).
		Interface("attrs", attrs).
		Msg("contact upsert")
	return nil
}

// LogSink is the default EventSink: it only logs.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log.WithComponent("event_sink")}
}

func (s *LogSink) Record(ctx context.Context, event string, email string, props map[string]any) error {
	s.log.Debug().
		Str("event", event).
		Str("email", email).
		Interface("props", props).
		Msg("event recorded")
	return nil
}
