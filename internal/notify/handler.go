package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"projecthub/pkg/logger"
	"projecthub/pkg/metrics"
	"projecthub/pkg/mq"
	"projecthub/pkg/util"
)

const handlerName = "notification"

// Deduper claims a message id once.
type Deduper interface {
	AcquireOnce(ctx context.Context, handler, messageID string) bool
	Release(ctx context.Context, handler, messageID string)
}

// Handler consumes notification requests in the worker.
type Handler struct {
	sender  Sender
	deduper Deduper
	logger  *zap.Logger
}

func NewHandler(sender Sender, deduper Deduper, logger *zap.Logger) *Handler {
	return &Handler{sender: sender, deduper: deduper, logger: logger}
}

// Handle matches mq.MessageHandler.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) error {
	log := logger.WithTrace(ctx, h.logger)

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Error("Failed to decode notification request", zap.Error(err))
		return mq.Permanent(fmt.Errorf("decode notification: %w", err))
	}
	if msg.ID == "" || !IsEmail(msg.To) {
		log.Warn("Dropping malformed notification request",
			zap.String("message_id", msg.ID),
			zap.String("to", msg.To),
		)
		return mq.Permanent(fmt.Errorf("notification %q has no deliverable recipient", msg.ID))
	}

	if h.deduper != nil && !h.deduper.AcquireOnce(ctx, handlerName, msg.ID) {
		return nil
	}

	if err := h.sender.Send(ctx, msg); err != nil {
		retryable, label := util.IsRetryableError(err)
		metrics.IncrementNotification(msg.Template, "send_"+label)
		log.Error("Failed to send notification",
			zap.String("message_id", msg.ID),
			zap.String("template", msg.Template),
			zap.Bool("retryable", retryable),
			zap.Error(err),
		)
		if !retryable {
			return mq.Permanent(err)
		}
		if h.deduper != nil {
			h.deduper.Release(ctx, handlerName, msg.ID)
		}
		return err
	}

	metrics.IncrementNotification(msg.Template, "sent")
	log.Info("Notification sent",
		zap.String("message_id", msg.ID),
		zap.String("template", msg.Template),
	)
	return nil
}
