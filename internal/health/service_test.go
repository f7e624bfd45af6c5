package health

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"projecthub/internal/apperr"
	"projecthub/internal/model"
	"projecthub/internal/repository"
	"projecthub/internal/repository/memory"
)

type mapCache struct {
	mu      sync.Mutex
	reports map[int]Report
}

func newMapCache() *mapCache {
	return &mapCache{reports: map[int]Report{}}
}

func (c *mapCache) Get(_ context.Context, id int) (*Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.reports[id]
	return &r, ok
}

func (c *mapCache) Set(_ context.Context, r *Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[r.ProjectID] = *r
}

func (c *mapCache) Delete(_ context.Context, id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.reports, id)
}

func seed(t *testing.T, repos repository.Repositories, statuses ...model.TaskStatus) int {
	t.Helper()
	ctx := context.Background()
	pid, err := repos.Projects.Insert(ctx, &model.Project{Name: "Apollo", Status: model.ProjectActive})
	require.NoError(t, err)
	for i, st := range statuses {
		_, err := repos.Tasks.Insert(ctx, &model.Task{ProjectID: pid, Title: "t", Status: st, Priority: model.PriorityMedium, Position: i})
		require.NoError(t, err)
	}
	return pid
}

func TestComputeProjectHealthStoresCompletionAndCache(t *testing.T) {
	repos := memory.NewStore().Repositories()
	pid := seed(t, repos, model.TaskDone, model.TaskInProgress, model.TaskBlocked, model.TaskBacklog)
	cache := newMapCache()
	svc := NewService(repos, cache, zap.NewNop())

	r, err := svc.ComputeProjectHealth(context.Background(), pid)
	require.NoError(t, err)

	assert.Equal(t, 44, r.CompletionPercentage)
	assert.Equal(t, model.RAGRed, r.RAG)

	p, err := repos.Projects.GetByID(context.Background(), pid)
	require.NoError(t, err)
	assert.Equal(t, 44, p.CompletionPercentage)

	cached, ok := svc.CachedHealth(context.Background(), pid)
	require.True(t, ok)
	assert.Equal(t, model.RAGRed, cached.RAG)
}

func TestComputeProjectHealthEmptyProject(t *testing.T) {
	repos := memory.NewStore().Repositories()
	pid := seed(t, repos)
	svc := NewService(repos, nil, zap.NewNop())

	r, err := svc.ComputeProjectHealth(context.Background(), pid)
	require.NoError(t, err)
	assert.Equal(t, 0, r.CompletionPercentage)
	assert.Equal(t, model.RAGGreen, r.RAG)
}

func TestComputeProjectHealthCountsRegister(t *testing.T) {
	repos := memory.NewStore().Repositories()
	pid := seed(t, repos, model.TaskInProgress)
	ctx := context.Background()
	for _, typ := range []model.EntryType{model.EntryRisk, model.EntryIssue} {
		_, err := repos.Risks.Insert(ctx, &model.RiskEntry{
			ProjectID: pid, Type: typ, Sequence: 1, Reference: model.FormatReference(typ.Prefix(), 1),
			Title: "x", RAG: model.RAGRed, Probability: model.LevelHigh, Impact: model.LevelHigh, Status: model.EntryOpen,
		})
		require.NoError(t, err)
	}
	svc := NewService(repos, nil, zap.NewNop())

	r, err := svc.ComputeProjectHealth(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 2, r.OpenRedEntries)
	assert.Equal(t, model.RAGRed, r.RAG)
}

func TestComputeProjectHealthUnknownProject(t *testing.T) {
	svc := NewService(memory.NewStore().Repositories(), nil, zap.NewNop())

	_, err := svc.ComputeProjectHealth(context.Background(), 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRefreshCompletionDropsCache(t *testing.T) {
	repos := memory.NewStore().Repositories()
	pid := seed(t, repos, model.TaskDone, model.TaskBacklog)
	cache := newMapCache()
	svc := NewService(repos, cache, zap.NewNop())

	_, err := svc.ComputeProjectHealth(context.Background(), pid)
	require.NoError(t, err)

	require.NoError(t, svc.RefreshCompletion(context.Background(), pid))
	_, ok := svc.CachedHealth(context.Background(), pid)
	assert.False(t, ok)

	p, err := repos.Projects.GetByID(context.Background(), pid)
	require.NoError(t, err)
	assert.Equal(t, 50, p.CompletionPercentage)
}

func TestConcurrentComputationsAgree(t *testing.T) {
	repos := memory.NewStore().Repositories()
	pid := seed(t, repos, model.TaskReview, model.TaskDone)
	svc := NewService(repos, nil, zap.NewNop())

	var wg sync.WaitGroup
	results := make([]*Report, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := svc.ComputeProjectHealth(context.Background(), pid)
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, 90, r.CompletionPercentage)
	}
}

// gatedTasks holds ListByProject until release is closed.
type gatedTasks struct {
	repository.TaskRepository
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedTasks) ListByProject(ctx context.Context, projectID int) ([]model.Task, error) {
	g.once.Do(func() { close(g.started) })
	<-g.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.TaskRepository.ListByProject(ctx, projectID)
}

func TestCancelledCallerDoesNotFailSharedComputation(t *testing.T) {
	repos := memory.NewStore().Repositories()
	pid := seed(t, repos, model.TaskDone, model.TaskBacklog)
	gate := &gatedTasks{TaskRepository: repos.Tasks, started: make(chan struct{}), release: make(chan struct{})}
	repos.Tasks = gate
	svc := NewService(repos, nil, zap.NewNop())

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.ComputeProjectHealth(first, pid)
		firstErr <- err
	}()
	<-gate.started

	type result struct {
		report *Report
		err    error
	}
	second := make(chan result, 1)
	go func() {
		r, err := svc.ComputeProjectHealth(context.Background(), pid)
		second <- result{r, err}
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	close(gate.release)

	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, 50, got.report.CompletionPercentage)
	assert.Equal(t, model.RAGGreen, got.report.RAG)
}
