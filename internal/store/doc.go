// Package store persists the notification projection in SQLite.
//
// The Store owns the single notifications table: creation by the projector
// cartridge, status transitions driven by humans and agents, resolution, and
// the filtered, paginated queries the API serves. Rows are never hard
// deleted; resolution is a terminal marker, not removal.
//
// Writes commit individually and immediately. The unique constraint on
// idempotency_key is the safety net under concurrent or duplicate
// submission: when two processor instances race the same event, the loser
// fails loudly instead of double-creating a row. Group-key lookups reach
// into the stored payload document with json_extract rather than a
// denormalized column, trading query-plan quality for catalog-declared
// flexibility.
//
// Schema changes bump schemaVersion in schema.go; a mismatched database
// refuses to open.
package store
