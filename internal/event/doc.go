// Package event defines the canonical envelope carried through the
// notification pipeline and its flat wire encoding.
//
// An Envelope is the in-memory record of one application event: a
// dot-namespaced type, origin metadata, a severity level, and an opaque
// payload document. ToWire flattens an envelope into a string-keyed,
// string-valued record suitable for an append-only transport entry;
// FromWire is its exact inverse and tolerates []byte values handed back
// by transport clients.
//
// The payload is deliberately untyped. Schema declarations in the catalog
// package are the only typed contract over it, so new event shapes can be
// added without touching this package.
package event
