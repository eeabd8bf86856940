// Package config loads and validates herald's TOML configuration.
//
// Configuration lives at ~/.config/herald/config.toml by default, with a
// project-local herald.toml fallback for development. Load applies
// repository defaults, decodes the file when present, expands home-relative
// paths, and validates the result, so the rest of the daemon can trust
// every field.
//
// Sections by subsystem: Paths (data/log directories, API bind/token),
// Transport (the Redis stream carrying events), Processor (consumer group
// and read timing), Push (ntfy delivery adapter), Logging.
package config
