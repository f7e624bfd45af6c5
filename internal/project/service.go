// Package project manages project records. Status and end date only change through explicit updates
// or an approved change request.
package project

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"projecthub/internal/apperr"
	"projecthub/internal/health"
	"projecthub/internal/model"
	"projecthub/internal/repository"
	"projecthub/pkg/logger"
)

const entity = "project"

// HealthReader returns the last displayed health of a project, if cached.
type HealthReader interface {
	CachedHealth(ctx context.Context, projectID int) (*health.Report, bool)
}

type Service struct {
	projects repository.ProjectRepository
	health   HealthReader
	logger   *zap.Logger
}

func NewService(repos repository.Repositories, health HealthReader, logger *zap.Logger) *Service {
	return &Service{projects: repos.Projects, health: health, logger: logger}
}

type NewProject struct {
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	Color       string
}

// Summary is a project with its cached health for list views.
type Summary struct {
	model.Project
	Health *health.Report `json:"health,omitempty"`
}

func (s *Service) Create(ctx context.Context, ownerID int, in NewProject) (*model.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation(entity, "create", "name is required")
	}
	if in.StartDate != nil && in.EndDate != nil && model.DateOnly(*in.EndDate).Before(model.DateOnly(*in.StartDate)) {
		return nil, apperr.Validation(entity, "create", "end date is before start date")
	}
	color := in.Color
	if color == "" {
		color = "#3b82f6"
	}

	p := &model.Project{
		Name:        name,
		Description: in.Description,
		OwnerID:     ownerID,
		Status:      model.ProjectActive,
		Color:       color,
	}
	p.Apply(model.ProjectPatch{StartDate: in.StartDate, EndDate: in.EndDate})

	if _, err := s.projects.Insert(ctx, p); err != nil {
		logger.WithTrace(ctx, s.logger).Error("Failed to insert project", zap.Error(err))
		return nil, apperr.Internal(entity, "create", err)
	}
	logger.WithTrace(ctx, s.logger).Info("Project created", zap.Int("project_id", p.ID), zap.Int("owner_id", ownerID))
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int) (*model.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(entity, "get", id, err)
	}
	return p, nil
}

// List returns projects with whatever health is cached. ownerID 0 lists all.
func (s *Service) List(ctx context.Context, ownerID int) ([]Summary, error) {
	projects, err := s.projects.List(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal(entity, "list", err)
	}
	out := make([]Summary, 0, len(projects))
	for _, p := range projects {
		sum := Summary{Project: p}
		if s.health != nil {
			if r, ok := s.health.CachedHealth(ctx, p.ID); ok {
				sum.Health = r
			}
		}
		out = append(out, sum)
	}
	return out, nil
}

// Update applies an explicit edit, including manual end date and status changes.
func (s *Service) Update(ctx context.Context, id int, patch model.ProjectPatch) (*model.Project, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.Validation(entity, "update", "name cannot be empty")
		}
		patch.Name = &name
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apperr.Validation(entity, "update", "unknown status %q", *patch.Status)
	}

	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(entity, "update", id, err)
	}
	p.Apply(patch)
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return nil, apperr.Validation(entity, "update", "end date is before start date")
	}
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, apperr.Wrap(entity, "update", id, err)
	}
	logger.WithTrace(ctx, s.logger).Info("Project updated", zap.Int("project_id", id))
	return p, nil
}
