package otel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(Config{Enabled: false}, zap.NewNop())
	assert.NoError(t, err)
	assert.NotNil(t, shutdown)
	shutdown()
}

func TestStartSpanWithoutInit(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "unit")
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("boom"))
}

func TestHeaderCarrier(t *testing.T) {
	headers := amqp091.Table{"trace_id": "abc", "retries": int32(2)}
	carrier := HeaderCarrier(headers)

	assert.Equal(t, "abc", carrier.Get("trace_id"))
	assert.Equal(t, "", carrier.Get("retries"))

	carrier.Set("traceparent", "00-x")
	assert.Equal(t, "00-x", headers["traceparent"])
	assert.ElementsMatch(t, []string{"trace_id", "retries", "traceparent"}, carrier.Keys())
}

func TestGinMiddlewarePassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}
