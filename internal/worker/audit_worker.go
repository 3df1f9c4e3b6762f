package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/task-platform/internal/events"
)

// StartAuditWorker subscribes a structured-log audit trail to every task
// lifecycle event. Handlers run synchronously on the publishing goroutine.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}
	audit := logger.Named("audit")
	handler := func(_ context.Context, event events.Event) error {
		audit.Info("task event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Int64("task_id", event.TaskID),
			zap.Int64("user_id", event.UserID),
			zap.Time("timestamp", event.Timestamp),
			zap.Any("payload", event.Payload))
		return nil
	}
	for _, eventType := range []events.EventType{
		events.EventTaskCreated,
		events.EventTaskUpdated,
		events.EventTaskStatusChanged,
		events.EventTaskDeleted,
	} {
		dispatcher.Subscribe(eventType, handler)
	}
}
