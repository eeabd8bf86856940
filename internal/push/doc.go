// Package push holds the delivery adapters that fan notification changes
// out to external channels.
//
// Adapters implement the pipeline.Callback contract. All filtering, such
// as minimum level or created-only, lives here on the adapter side; the
// pipeline makes no channel decisions. The built-in adapters are
// an ntfy HTTP publisher and a structured-log publisher. Delivery is
// best-effort: a failed or slow adapter is logged by the pipeline and
// never affects the persisted row or the other adapters.
package push
