// Package catalog registers the per-event-type schemas that drive
// deduplication and notification lifecycle.
//
// A Schema declares defaults for an event type plus the payload fields that
// make an emission idempotent; an optional Lifecycle declares how successive
// events fold into a single notification row (create, update, resolve) and
// which field changes are meaningful enough to resurface a seen item.
//
// The catalog is populated once at startup from the declarative set in
// builtin.go. Registering the same event type twice is a configuration
// error and fails fast. Unknown event types are legal at runtime; they
// simply bypass schema-driven processing. Add new event families here
// rather than in pipeline code.
package catalog
