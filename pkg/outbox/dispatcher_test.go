package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"projecthub/pkg/trace"
)

type fakeStore struct {
	events []*Event
	sent   []int64
	failed []int64
}

func (s *fakeStore) GetPendingEvents(_ context.Context, limit int) ([]*Event, error) {
	if len(s.events) > limit {
		return s.events[:limit], nil
	}
	return s.events, nil
}

func (s *fakeStore) MarkAsSent(_ context.Context, id int64) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeStore) MarkAsFailed(_ context.Context, id int64, _ int) error {
	s.failed = append(s.failed, id)
	return nil
}

type fakePublisher struct {
	failKey  string
	traceIDs []string
	keys     []string
}

func (p *fakePublisher) PublishWithContext(ctx context.Context, routingKey string, _ any) error {
	if routingKey == p.failKey {
		return errors.New("channel closed")
	}
	p.keys = append(p.keys, routingKey)
	p.traceIDs = append(p.traceIDs, trace.FromContext(ctx))
	return nil
}

func TestDispatcherProcessPending(t *testing.T) {
	ok, err := NewEvent("notification", nil, "notification.requested", map[string]string{"trace_id": "t-1"})
	require.NoError(t, err)
	ok.ID = 1
	bad, err := NewEvent("notification", nil, "broken.key", map[string]string{})
	require.NoError(t, err)
	bad.ID = 2

	store := &fakeStore{events: []*Event{ok, bad}}
	pub := &fakePublisher{failKey: "broken.key"}
	d := NewDispatcher(store, pub, zap.NewNop()).WithBatchSize(10)

	sent := d.ProcessPending(context.Background())

	assert.Equal(t, 1, sent)
	assert.Equal(t, []int64{1}, store.sent)
	assert.Equal(t, []int64{2}, store.failed)
	assert.Equal(t, []string{"t-1"}, pub.traceIDs)
}

func TestNextAttempt(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	status, next := NextAttempt(1, 5, now)
	assert.Equal(t, StatusPending, status)
	require.NotNil(t, next)
	assert.Equal(t, now.Add(5*time.Second), *next)

	status, next = NextAttempt(3, 5, now)
	assert.Equal(t, StatusPending, status)
	assert.Equal(t, now.Add(15*time.Second), *next)

	status, next = NextAttempt(5, 5, now)
	assert.Equal(t, StatusFailed, status)
	assert.Nil(t, next)
}
