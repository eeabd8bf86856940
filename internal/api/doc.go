// Package api exposes the notification query and mutation surface in a
// transport-friendly form.
//
// NotificationService wraps the store behind the operations external
// consumers get: filtered listing, fetch by id, human/agent status
// transitions, and resolution. View types carry camelCase JSON shared by
// the daemon's HTTP server and the CLI, so both render the same records.
package api
