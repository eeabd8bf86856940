// Package daemon wires the herald services together and enforces
// single-instance execution.
//
// The Daemon owns the processor goroutine, the HTTP API server, and a
// file lock that prevents two daemons from sharing one notifications
// database. On startup it announces itself by emitting
// system.daemon.restarted through the regular pipeline, which doubles as
// an end-to-end smoke signal: if that notification never appears, the
// transport or store is misconfigured.
package daemon
