package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesKindSentinel(t *testing.T) {
	err := NotFound("task", "move", 7)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "task move: task 7 does not exist", err.Error())
}

func TestWrap(t *testing.T) {
	t.Run("keeps typed errors", func(t *testing.T) {
		orig := IllegalState("change_request", "resolve", "already approved")
		assert.Same(t, orig, Wrap("change_request", "resolve", 1, orig))
	})

	t.Run("promotes store not found", func(t *testing.T) {
		err := Wrap("risk", "update", 3, fmt.Errorf("scan: %w", ErrNotFound))
		assert.Equal(t, KindNotFound, KindOf(err))
		assert.Contains(t, err.Error(), "risk 3 does not exist")
	})

	t.Run("unknown errors become internal", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap("project", "get", 1, cause)
		assert.Equal(t, KindInternal, KindOf(err))
		assert.ErrorIs(t, err, cause)
		assert.ErrorIs(t, err, ErrInternal)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap("project", "get", 1, nil))
	})
}
