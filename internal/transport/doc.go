// Package transport carries event envelopes over a Redis stream.
//
// The stream is a bounded append-only log: producers XADD wire records and
// rely on approximate MAXLEN trimming to cap retention; consumers read
// through a named consumer group, which gives herald its durable cursor,
// per-consumer pending lists, and crash recovery without any bookkeeping of
// its own. Any transport offering a capped append log plus a named
// consumer-group cursor could substitute; only this package would change.
package transport
