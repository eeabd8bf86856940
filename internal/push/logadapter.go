package push

import (
	"context"
	"log/slog"

	"herald/internal/logging"
	"herald/internal/pipeline"
)

// LogAdapter writes every notification change to the structured log. It is
// always registered so operators can tail deliveries even with no external
// channel configured.
func LogAdapter(logger *slog.Logger) pipeline.Callback {
	if logger == nil {
		logger = logging.NewNop()
	}
	return func(ctx context.Context, change pipeline.Change) error {
		logger.Info("notification changed",
			logging.Int64("notification_id", change.NotificationID),
			logging.String("event_type", change.EventType),
			logging.Bool("created", change.WasCreated),
			logging.Bool("meaningful", change.WasMeaningful),
		)
		return nil
	}
}
