package otel

import (
	"context"

	"github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HeaderCarrier adapts AMQP headers to the propagation.TextMapCarrier interface.
type HeaderCarrier amqp091.Table

func (c HeaderCarrier) Get(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

func (c HeaderCarrier) Set(key, value string) {
	c[key] = value
}

func (c HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// MQPublishSpan starts a producer span and injects its context into headers.
func MQPublishSpan(ctx context.Context, exchange, routingKey string, headers amqp091.Table) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, "mq.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination", exchange),
			attribute.String("messaging.rabbitmq.routing_key", routingKey),
		),
	)
	GetTextMapPropagator().Inject(ctx, HeaderCarrier(headers))
	return ctx, span
}

// MQConsumeSpan continues the producer's trace from headers and starts a consumer span.
func MQConsumeSpan(ctx context.Context, queue, routingKey string, headers amqp091.Table) (context.Context, trace.Span) {
	if headers != nil {
		ctx = GetTextMapPropagator().Extract(ctx, HeaderCarrier(headers))
	}
	return Tracer().Start(ctx, "mq.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.source", queue),
			attribute.String("messaging.rabbitmq.routing_key", routingKey),
		),
	)
}
