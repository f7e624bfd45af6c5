package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(ChangeRequestResolutionCount.WithLabelValues("approved"))
	IncrementChangeRequestResolution("approved")
	assert.Equal(t, before+1, testutil.ToFloat64(ChangeRequestResolutionCount.WithLabelValues("approved")))

	beforeMove := testutil.ToFloat64(TaskMoveCount.WithLabelValues("backlog", "done"))
	IncrementTaskMove("backlog", "done")
	IncrementTaskMove("backlog", "done")
	assert.Equal(t, beforeMove+2, testutil.ToFloat64(TaskMoveCount.WithLabelValues("backlog", "done")))
}
