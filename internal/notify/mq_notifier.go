package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"projecthub/pkg/outbox"
)

// Parker stores a notification that could not be published so the outbox dispatcher can retry it.
type Parker interface {
	Insert(ctx context.Context, event *outbox.Event) error
}

// MQNotifier publishes notification requests to the broker for the worker to deliver.
type MQNotifier struct {
	publisher outbox.Publisher
	parker    Parker
	timeout   time.Duration
	logger    *zap.Logger
}

// NewMQNotifier builds a notifier. parker may be nil, in which case publish failures are only reported.
func NewMQNotifier(publisher outbox.Publisher, parker Parker, logger *zap.Logger) *MQNotifier {
	return &MQNotifier{
		publisher: publisher,
		parker:    parker,
		timeout:   3 * time.Second,
		logger:    logger,
	}
}

func (n *MQNotifier) Notify(ctx context.Context, msg Message) Outcome {
	pubCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	err := n.publisher.PublishWithContext(pubCtx, RoutingKey, msg)
	if err == nil {
		n.logger.Debug("Notification queued",
			zap.String("message_id", msg.ID),
			zap.String("template", msg.Template),
		)
		return Outcome{Status: StatusQueued}
	}

	n.logger.Warn("Failed to publish notification",
		zap.String("message_id", msg.ID),
		zap.String("template", msg.Template),
		zap.Error(err),
	)
	if n.parker == nil {
		return Outcome{Status: StatusFailed, Error: err.Error()}
	}

	event, evErr := outbox.NewEvent("notification", nil, RoutingKey, msg)
	if evErr == nil {
		evErr = n.parker.Insert(ctx, event)
	}
	if evErr != nil {
		n.logger.Error("Failed to park notification in outbox",
			zap.String("message_id", msg.ID),
			zap.Error(evErr),
		)
		return Outcome{Status: StatusFailed, Error: evErr.Error()}
	}

	n.logger.Info("Notification parked in outbox",
		zap.String("message_id", msg.ID),
		zap.Int64("event_id", event.ID),
	)
	return Outcome{Status: StatusParked, Error: err.Error()}
}
