package health

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"projecthub/internal/apperr"
	"projecthub/internal/model"
	"projecthub/internal/repository"
	"projecthub/pkg/logger"
	"projecthub/pkg/metrics"
	"projecthub/pkg/otel"
)

const entity = "project"

type Service struct {
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
	risks    repository.RiskRepository
	cache    Cache
	group    singleflight.Group
	now      func() time.Time
	logger   *zap.Logger
}

func NewService(repos repository.Repositories, cache Cache, logger *zap.Logger) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{
		projects: repos.Projects,
		tasks:    repos.Tasks,
		risks:    repos.Risks,
		cache:    cache,
		now:      time.Now,
		logger:   logger,
	}
}

// ComputeProjectHealth always recomputes from the stores. Concurrent calls for one project share a computation.
func (s *Service) ComputeProjectHealth(ctx context.Context, projectID int) (*Report, error) {
	// The shared flight ignores cancellation so one caller leaving does not fail the others.
	ch := s.group.DoChan(strconv.Itoa(projectID), func() (interface{}, error) {
		return s.compute(context.WithoutCancel(ctx), projectID)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	r := *res.Val.(*Report)
	r.Reasons = append([]string(nil), r.Reasons...)
	if res.Shared {
		s.logger.Debug("Health computation shared", zap.Int("project_id", projectID))
	}
	return &r, nil
}

func (s *Service) compute(ctx context.Context, projectID int) (report *Report, err error) {
	ctx, span := otel.StartSpan(ctx, "health.compute")
	span.SetAttributes(attribute.Int("project.id", projectID))
	defer func() { otel.EndSpan(span, err) }()

	log := logger.WithTrace(ctx, s.logger).With(zap.Int("project_id", projectID))
	log.Debug("Computing project health")

	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, apperr.Wrap(entity, "health", projectID, err)
	}
	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		log.Error("Failed to load tasks for health", zap.Error(err))
		return nil, apperr.Internal(entity, "health", err)
	}
	entries, err := s.risks.List(ctx, projectID, model.RiskFilter{})
	if err != nil {
		log.Error("Failed to load register for health", zap.Error(err))
		return nil, apperr.Internal(entity, "health", err)
	}

	r := Compute(tasks, entries, s.now())
	r.ProjectID = projectID

	if err := s.projects.SetCompletion(ctx, projectID, r.CompletionPercentage); err != nil {
		log.Warn("Failed to store cached completion", zap.Error(err))
	}
	s.cache.Set(ctx, &r)
	metrics.IncrementHealthEvaluation(string(r.RAG))
	span.SetAttributes(attribute.String("health.rag", string(r.RAG)))

	log.Info("Project health computed",
		zap.String("rag", string(r.RAG)),
		zap.Int("completion", r.CompletionPercentage),
		zap.Int("blocked", r.BlockedTasks),
		zap.Int("overdue", r.OverdueTasks),
		zap.Int("open_red", r.OpenRedEntries),
	)
	return &r, nil
}

// RefreshCompletion recomputes and stores the cached completion percentage and drops the display cache.
func (s *Service) RefreshCompletion(ctx context.Context, projectID int) error {
	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}
	pct := Completion(tasks)
	if err := s.projects.SetCompletion(ctx, projectID, pct); err != nil {
		return err
	}
	s.cache.Delete(ctx, projectID)
	s.logger.Debug("Completion refreshed", zap.Int("project_id", projectID), zap.Int("completion", pct))
	return nil
}

// Invalidate drops the display cache entry for a project.
func (s *Service) Invalidate(ctx context.Context, projectID int) {
	s.cache.Delete(ctx, projectID)
}

// CachedHealth returns the last computed report, if any. For list views only.
func (s *Service) CachedHealth(ctx context.Context, projectID int) (*Report, bool) {
	return s.cache.Get(ctx, projectID)
}
