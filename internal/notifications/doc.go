// Package notifications publishes batch events to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers publish unconditionally. Each Event has a fixed title, tag set, and
// message format built from a loosely typed Payload.
package notifications
