// Package processor drives the notification pipeline from the transport
// stream.
//
// The run sequence is: ensure the consumer group exists, re-process this
// consumer's own unacknowledged entries left from a prior crash, then loop
// on blocking reads until cancelled. Every entry is acknowledged after
// processing whether it succeeded or not; a poison event that always fails
// must not wedge the stream, so failures are logged with the entry id for
// manual triage instead of retried forever.
//
// Cancellation is cooperative and checked once per iteration, so shutdown
// latency is bounded by the configured block timeout and the in-flight
// batch always completes.
package processor
