// Package board implements the task board: columns per status, ordered by position.
package board

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"projecthub/internal/apperr"
	"projecthub/internal/model"
	"projecthub/internal/notify"
	"projecthub/internal/repository"
	"projecthub/pkg/logger"
	"projecthub/pkg/metrics"
)

const entity = "task"

// ProgressRefresher recomputes a project's cached completion after the board changes.
type ProgressRefresher interface {
	RefreshCompletion(ctx context.Context, projectID int) error
}

type Service struct {
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
	progress ProgressRefresher
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewService(repos repository.Repositories, progress ProgressRefresher, notifier notify.Notifier, logger *zap.Logger) *Service {
	return &Service{
		projects: repos.Projects,
		tasks:    repos.Tasks,
		progress: progress,
		notifier: notifier,
		logger:   logger,
	}
}

type NewTask struct {
	Title       string
	Description string
	Status      model.TaskStatus
	Priority    model.Priority
	Assignee    *string
	StartDate   *time.Time
	DueDate     *time.Time
	EndDate     *time.Time
	Tags        []string
}

// MoveRequest carries the caller's view of where the task was. A stale view is tolerated.
type MoveRequest struct {
	TaskID     int
	FromStatus model.TaskStatus
	FromIndex  int
	ToStatus   model.TaskStatus
	ToIndex    int
}

// MoveResult holds both affected columns so the caller can reconcile its local state.
type MoveResult struct {
	Task        model.Task   `json:"task"`
	Source      model.Column `json:"source"`
	Destination model.Column `json:"destination"`
}

// CreateTask appends a task to the end of its column.
func (s *Service) CreateTask(ctx context.Context, projectID int, in NewTask) (*model.Task, notify.Outcome, error) {
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("project_id", projectID))
	log.Debug("CreateTask called")

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, notify.Outcome{}, apperr.Validation(entity, "create", "title is required")
	}
	if in.Status == "" {
		in.Status = model.TaskBacklog
	}
	if !in.Status.Valid() {
		return nil, notify.Outcome{}, apperr.Validation(entity, "create", "unknown status %q", in.Status)
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, notify.Outcome{}, apperr.Validation(entity, "create", "unknown priority %q", in.Priority)
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, notify.Outcome{}, apperr.Wrap("project", "create task", projectID, err)
	}

	pos, err := s.tasks.CountByStatus(ctx, projectID, in.Status)
	if err != nil {
		log.Error("Failed to count column", zap.Error(err))
		return nil, notify.Outcome{}, apperr.Internal(entity, "create", err)
	}

	t := &model.Task{
		ProjectID:   projectID,
		Title:       title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Tags:        append([]string{}, in.Tags...),
		Position:    pos,
	}
	t.Apply(model.TaskPatch{Assignee: in.Assignee, StartDate: in.StartDate, DueDate: in.DueDate, EndDate: in.EndDate})

	if _, err := s.tasks.Insert(ctx, t); err != nil {
		log.Error("Failed to insert task", zap.Error(err))
		return nil, notify.Outcome{}, apperr.Wrap("project", "create task", projectID, err)
	}

	s.refresh(ctx, projectID)
	log.Info("Task created", zap.Int("task_id", t.ID), zap.String("status", string(t.Status)), zap.Int("position", t.Position))

	outcome := notify.Outcome{Status: notify.StatusSkipped}
	if t.Assignee != nil {
		outcome = notify.Send(ctx, s.notifier, notify.TaskAssigned(*t, project.Name))
	}
	return t, outcome, nil
}

// MoveTask relocates a task and renumbers both affected columns. Any status may move to any status.
func (s *Service) MoveTask(ctx context.Context, req MoveRequest) (*MoveResult, error) {
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("task_id", req.TaskID))
	log.Debug("MoveTask called",
		zap.String("to_status", string(req.ToStatus)),
		zap.Int("to_index", req.ToIndex),
	)

	if !req.ToStatus.Valid() {
		return nil, apperr.Validation(entity, "move", "unknown status %q", req.ToStatus)
	}
	if req.FromStatus != "" && !req.FromStatus.Valid() {
		return nil, apperr.Validation(entity, "move", "unknown status %q", req.FromStatus)
	}

	task, err := s.tasks.GetByID(ctx, req.TaskID)
	if err != nil {
		return nil, apperr.Wrap(entity, "move", req.TaskID, err)
	}
	if req.FromStatus != "" && (req.FromStatus != task.Status || req.FromIndex != task.Position) {
		log.Warn("Move request carried a stale source, using stored placement",
			zap.String("claimed_status", string(req.FromStatus)),
			zap.Int("claimed_index", req.FromIndex),
			zap.String("status", string(task.Status)),
			zap.Int("position", task.Position),
		)
	}

	source, err := s.tasks.ListByStatus(ctx, task.ProjectID, task.Status)
	if err != nil {
		return nil, apperr.Internal(entity, "move", err)
	}
	dest := source
	if req.ToStatus != task.Status {
		if dest, err = s.tasks.ListByStatus(ctx, task.ProjectID, req.ToStatus); err != nil {
			return nil, apperr.Internal(entity, "move", err)
		}
	}

	before := make(map[int]model.Task, len(source)+len(dest))
	for _, t := range source {
		before[t.ID] = t
	}
	for _, t := range dest {
		before[t.ID] = t
	}

	newSource, newDest := Move(*task, source, dest, req.ToStatus, req.ToIndex)
	if changes := placements(before, newSource, newDest); len(changes) > 0 {
		if err := s.tasks.UpdatePlacements(ctx, changes); err != nil {
			log.Error("Failed to write placements", zap.Error(err))
			return nil, apperr.Wrap(entity, "move", req.TaskID, err)
		}
	}

	var moved model.Task
	for _, t := range newDest {
		if t.ID == task.ID {
			moved = t
		}
	}

	metrics.IncrementTaskMove(string(task.Status), string(req.ToStatus))
	s.refresh(ctx, task.ProjectID)
	log.Info("Task moved",
		zap.String("from", string(task.Status)),
		zap.String("to", string(moved.Status)),
		zap.Int("position", moved.Position),
	)

	return &MoveResult{
		Task:        moved,
		Source:      model.Column{Status: task.Status, Tasks: newSource},
		Destination: model.Column{Status: req.ToStatus, Tasks: newDest},
	}, nil
}

// UpdateTaskFields applies a partial update. Status and position are never touched.
func (s *Service) UpdateTaskFields(ctx context.Context, taskID int, patch model.TaskPatch) (*model.Task, notify.Outcome, error) {
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("task_id", taskID))
	log.Debug("UpdateTaskFields called")

	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if trimmed == "" {
			return nil, notify.Outcome{}, apperr.Validation(entity, "update", "title cannot be empty")
		}
		patch.Title = &trimmed
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, notify.Outcome{}, apperr.Validation(entity, "update", "unknown priority %q", *patch.Priority)
	}

	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, notify.Outcome{}, apperr.Wrap(entity, "update", taskID, err)
	}
	if patch.Empty() {
		return t, notify.Outcome{Status: notify.StatusSkipped}, nil
	}

	prevAssignee := ""
	if t.Assignee != nil {
		prevAssignee = *t.Assignee
	}
	t.Apply(patch)
	if err := s.tasks.Update(ctx, t); err != nil {
		log.Error("Failed to update task", zap.Error(err))
		return nil, notify.Outcome{}, apperr.Wrap(entity, "update", taskID, err)
	}
	s.refresh(ctx, t.ProjectID)
	log.Info("Task updated")

	outcome := notify.Outcome{Status: notify.StatusSkipped}
	if t.Assignee != nil && *t.Assignee != prevAssignee {
		name := ""
		if p, err := s.projects.GetByID(ctx, t.ProjectID); err == nil {
			name = p.Name
		}
		outcome = notify.Send(ctx, s.notifier, notify.TaskAssigned(*t, name))
	}
	return t, outcome, nil
}

// DeleteTask removes a task and closes the gap in its column.
func (s *Service) DeleteTask(ctx context.Context, taskID int) error {
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("task_id", taskID))
	log.Debug("DeleteTask called")

	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return apperr.Wrap(entity, "delete", taskID, err)
	}
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return apperr.Wrap(entity, "delete", taskID, err)
	}

	col, err := s.tasks.ListByStatus(ctx, t.ProjectID, t.Status)
	if err != nil {
		return apperr.Internal(entity, "delete", err)
	}
	before := make(map[int]model.Task, len(col))
	for _, c := range col {
		before[c.ID] = c
	}
	renumber(col)
	if changes := placements(before, col); len(changes) > 0 {
		if err := s.tasks.UpdatePlacements(ctx, changes); err != nil {
			log.Error("Failed to compact column", zap.Error(err))
			return apperr.Internal(entity, "delete", err)
		}
	}

	s.refresh(ctx, t.ProjectID)
	log.Info("Task deleted", zap.Int("project_id", t.ProjectID))
	return nil
}

// ListBoard returns the five columns in lifecycle order.
func (s *Service) ListBoard(ctx context.Context, projectID int) ([]model.Column, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, apperr.Wrap("project", "board", projectID, err)
	}
	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, apperr.Internal("project", "board", err)
	}
	return Columns(tasks), nil
}

func (s *Service) GetTask(ctx context.Context, taskID int) (*model.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, apperr.Wrap(entity, "get", taskID, err)
	}
	return t, nil
}

func (s *Service) refresh(ctx context.Context, projectID int) {
	if s.progress == nil {
		return
	}
	if err := s.progress.RefreshCompletion(ctx, projectID); err != nil {
		logger.WithTrace(ctx, s.logger).Warn("Failed to refresh project completion",
			zap.Int("project_id", projectID),
			zap.Error(err),
		)
	}
}
