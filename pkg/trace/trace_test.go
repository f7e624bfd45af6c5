package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceIDRoundTripThroughContext(t *testing.T) {
	id := GenerateTraceID()
	assert.Len(t, id, 32)
	assert.NotEqual(t, id, GenerateTraceID())

	ctx := WithContext(context.Background(), id)
	assert.Equal(t, id, FromContext(ctx))
	assert.Empty(t, FromContext(context.Background()))
}

func TestFromHeader(t *testing.T) {
	assert.Equal(t, "t1", FromHeader("t1", "r1"))
	assert.Equal(t, "r1", FromHeader("", "r1"))
	assert.Empty(t, FromHeader("", ""))
}
