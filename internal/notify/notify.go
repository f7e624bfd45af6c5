// Package notify delivers best-effort e-mail notifications about board, register and change request events.
// A failed notification never fails the mutation that triggered it.
package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"projecthub/pkg/metrics"
	"projecthub/pkg/trace"
)

// RoutingKey is the MQ topic notification requests are published on.
const RoutingKey = "notification.requested"

const (
	TemplateTaskAssigned  = "task_assigned"
	TemplateRiskEscalated = "risk_escalated"
	TemplatePCRResolved   = "pcr_resolved"
)

const (
	StatusSkipped = "skipped"
	StatusQueued  = "queued"
	StatusParked  = "parked"
	StatusFailed  = "failed"
)

// Message is one rendered e-mail.
type Message struct {
	ID          string    `json:"id"`
	Template    string    `json:"template"`
	To          string    `json:"to"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	TraceID     string    `json:"trace_id,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// Outcome reports what happened to a notification, separately from the mutation result.
type Outcome struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) Outcome
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// IsEmail reports whether addr looks like a deliverable e-mail address.
func IsEmail(addr string) bool {
	validateOnce.Do(func() { validate = validator.New() })
	addr = strings.TrimSpace(addr)
	return addr != "" && validate.Var(addr, "required,email") == nil
}

// Send fills in delivery metadata and hands msg to n. Recipients that are not
// e-mail addresses, or a nil notifier, are skipped.
func Send(ctx context.Context, n Notifier, msg Message) Outcome {
	if n == nil || !IsEmail(msg.To) {
		return Outcome{Status: StatusSkipped}
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.RequestedAt.IsZero() {
		msg.RequestedAt = time.Now().UTC()
	}
	if msg.TraceID == "" {
		msg.TraceID = trace.FromContext(ctx)
	}
	out := n.Notify(ctx, msg)
	metrics.IncrementNotification(msg.Template, out.Status)
	return out
}

// LogNotifier only logs. Used when no broker is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, msg Message) Outcome {
	n.logger.Info("Notification not delivered, no broker configured",
		zap.String("message_id", msg.ID),
		zap.String("template", msg.Template),
		zap.String("to", msg.To),
	)
	return Outcome{Status: StatusSkipped, Error: "no broker configured"}
}
