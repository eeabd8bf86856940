package config

import (
	"errors"
	"fmt"
	"strings"

	"herald/internal/event"
)

// Validate checks all configuration values the daemon depends on.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir is required")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir is required")
	}
	if c.Transport.Addr == "" {
		problems = append(problems, "transport.addr is required")
	}
	if c.Transport.Stream == "" {
		problems = append(problems, "transport.stream is required")
	}
	if c.Transport.MaxLen <= 0 {
		problems = append(problems, "transport.max_len must be positive")
	}
	if c.Processor.Group == "" {
		problems = append(problems, "processor.group is required")
	}
	if c.Processor.BlockSeconds <= 0 {
		problems = append(problems, "processor.block_seconds must be positive")
	}
	if c.Processor.ReadCount <= 0 {
		problems = append(problems, "processor.read_count must be positive")
	}
	if c.Processor.ErrorRetrySeconds <= 0 {
		problems = append(problems, "processor.error_retry_seconds must be positive")
	}
	if c.Push.NtfyTopic != "" {
		if c.Push.RequestTimeout <= 0 {
			problems = append(problems, "push.request_timeout must be positive")
		}
		if c.Push.MinLevel != "" {
			if _, err := event.ParseLevel(c.Push.MinLevel); err != nil {
				problems = append(problems, fmt.Sprintf("push.min_level: %v", err))
			}
		}
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: unsupported value %q", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
