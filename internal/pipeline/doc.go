// Package pipeline runs consumed envelopes through an ordered chain of
// cartridges.
//
// A cartridge is one pluggable processing stage: it receives an envelope
// and either passes it (possibly transformed) to the next stage, drops it
// by returning nil, or fails. The two built-in cartridges implement the
// consumer-side semantics of the catalog: Dedup stamps and vets idempotency
// keys, Projector folds events into notification rows and fans out to the
// registered push callbacks.
//
// Errors propagate out of Execute uncaught; isolating per-event failures is
// the processor's job. Push callbacks are the exception: each one is
// recovered individually so a broken delivery channel cannot fail the
// owning event or starve the other channels.
package pipeline
