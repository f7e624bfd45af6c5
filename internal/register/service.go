// Package register maintains a project's numbered risks and issues.
package register

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"projecthub/internal/apperr"
	"projecthub/internal/model"
	"projecthub/internal/notify"
	"projecthub/internal/repository"
	"projecthub/internal/sequence"
	"projecthub/pkg/logger"
	"projecthub/pkg/metrics"
)

const entity = "risk"

// HealthInvalidator drops a project's cached health after the register changes.
type HealthInvalidator interface {
	Invalidate(ctx context.Context, projectID int)
}

type Service struct {
	projects repository.ProjectRepository
	risks    repository.RiskRepository
	seq      sequence.Allocator
	health   HealthInvalidator
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewService(repos repository.Repositories, seq sequence.Allocator, health HealthInvalidator, notifier notify.Notifier, logger *zap.Logger) *Service {
	if seq == nil {
		seq = sequence.CountAllocator{}
	}
	return &Service{
		projects: repos.Projects,
		risks:    repos.Risks,
		seq:      seq,
		health:   health,
		notifier: notifier,
		logger:   logger,
	}
}

type NewEntry struct {
	Type           model.EntryType
	Title          string
	Description    string
	MitigationPlan string
	RAG            model.RAG
	Probability    model.Level
	Impact         model.Level
	Owner          *string
	Status         model.EntryStatus
}

func (in *NewEntry) normalize() error {
	if !in.Type.Valid() {
		return apperr.Validation(entity, "add", "type must be risk or issue, got %q", in.Type)
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return apperr.Validation(entity, "add", "title is required")
	}
	if in.RAG == "" {
		in.RAG = model.RAGGreen
	}
	if in.Probability == "" {
		in.Probability = model.LevelMedium
	}
	if in.Impact == "" {
		in.Impact = model.LevelMedium
	}
	if in.Status == "" {
		in.Status = model.EntryOpen
	}
	switch {
	case !in.RAG.Valid():
		return apperr.Validation(entity, "add", "unknown rag status %q", in.RAG)
	case !in.Probability.Valid():
		return apperr.Validation(entity, "add", "unknown probability %q", in.Probability)
	case !in.Impact.Valid():
		return apperr.Validation(entity, "add", "unknown impact %q", in.Impact)
	case !in.Status.Valid():
		return apperr.Validation(entity, "add", "unknown status %q", in.Status)
	}
	return nil
}

// AddEntry numbers the entry within its project and type and stores it.
func (s *Service) AddEntry(ctx context.Context, projectID int, in NewEntry) (*model.RiskEntry, notify.Outcome, error) {
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("project_id", projectID))
	log.Debug("AddEntry called", zap.String("type", string(in.Type)))

	if err := in.normalize(); err != nil {
		return nil, notify.Outcome{}, err
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, notify.Outcome{}, apperr.Wrap("project", "add risk", projectID, err)
	}

	seq, err := s.seq.Next(ctx, sequence.RiskScope(projectID, string(in.Type)), sequence.Source{
		Count: func(ctx context.Context) (int, error) { return s.risks.CountByType(ctx, projectID, in.Type) },
		Max:   func(ctx context.Context) (int, error) { return s.risks.MaxSequence(ctx, projectID, in.Type) },
	})
	if err != nil {
		log.Error("Failed to allocate register number", zap.Error(err))
		return nil, notify.Outcome{}, apperr.Internal(entity, "add", err)
	}

	e := &model.RiskEntry{
		ProjectID:      projectID,
		Type:           in.Type,
		Sequence:       seq,
		Reference:      model.FormatReference(in.Type.Prefix(), seq),
		Title:          in.Title,
		Description:    in.Description,
		MitigationPlan: in.MitigationPlan,
		RAG:            in.RAG,
		Probability:    in.Probability,
		Impact:         in.Impact,
		Status:         in.Status,
	}
	e.Apply(model.RiskPatch{Owner: in.Owner})

	if _, err := s.risks.Insert(ctx, e); err != nil {
		log.Error("Failed to insert register entry", zap.Error(err))
		return nil, notify.Outcome{}, apperr.Wrap("project", "add risk", projectID, err)
	}

	metrics.IncrementRegisterEntry(string(e.Type), string(e.RAG))
	s.invalidate(ctx, projectID)
	log.Info("Register entry added", zap.String("reference", e.Reference), zap.String("rag", string(e.RAG)))

	outcome := notify.Outcome{Status: notify.StatusSkipped}
	if e.RAG == model.RAGRed && e.Owner != nil {
		outcome = notify.Send(ctx, s.notifier, notify.RiskEscalated(*e, project.Name))
	}
	return e, outcome, nil
}

// UpdateEntry applies a partial update. The entry type can never change.
func (s *Service) UpdateEntry(ctx context.Context, id int, patch model.RiskPatch) (*model.RiskEntry, notify.Outcome, error) {
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("risk_id", id))
	log.Debug("UpdateEntry called")

	if err := validatePatch(patch); err != nil {
		return nil, notify.Outcome{}, err
	}

	e, err := s.risks.GetByID(ctx, id)
	if err != nil {
		return nil, notify.Outcome{}, apperr.Wrap(entity, "update", id, err)
	}
	if patch.Type != nil && *patch.Type != e.Type {
		return nil, notify.Outcome{}, apperr.Validation(entity, "update", "type of %s cannot change", e.Reference)
	}

	wasRed := e.RAG == model.RAGRed
	e.Apply(patch)
	if err := s.risks.Update(ctx, e); err != nil {
		log.Error("Failed to update register entry", zap.Error(err))
		return nil, notify.Outcome{}, apperr.Wrap(entity, "update", id, err)
	}
	s.invalidate(ctx, e.ProjectID)
	log.Info("Register entry updated", zap.String("reference", e.Reference))

	outcome := notify.Outcome{Status: notify.StatusSkipped}
	if !wasRed && e.RAG == model.RAGRed && e.Owner != nil {
		name := ""
		if p, err := s.projects.GetByID(ctx, e.ProjectID); err == nil {
			name = p.Name
		}
		outcome = notify.Send(ctx, s.notifier, notify.RiskEscalated(*e, name))
	}
	return e, outcome, nil
}

func validatePatch(p model.RiskPatch) error {
	if p.Type != nil && !p.Type.Valid() {
		return apperr.Validation(entity, "update", "unknown type %q", *p.Type)
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return apperr.Validation(entity, "update", "title cannot be empty")
	}
	if p.RAG != nil && !p.RAG.Valid() {
		return apperr.Validation(entity, "update", "unknown rag status %q", *p.RAG)
	}
	if p.Probability != nil && !p.Probability.Valid() {
		return apperr.Validation(entity, "update", "unknown probability %q", *p.Probability)
	}
	if p.Impact != nil && !p.Impact.Valid() {
		return apperr.Validation(entity, "update", "unknown impact %q", *p.Impact)
	}
	if p.Status != nil && !p.Status.Valid() {
		return apperr.Validation(entity, "update", "unknown status %q", *p.Status)
	}
	return nil
}

func (s *Service) DeleteEntry(ctx context.Context, id int) error {
	e, err := s.risks.GetByID(ctx, id)
	if err != nil {
		return apperr.Wrap(entity, "delete", id, err)
	}
	if err := s.risks.Delete(ctx, id); err != nil {
		return apperr.Wrap(entity, "delete", id, err)
	}
	s.invalidate(ctx, e.ProjectID)
	logger.WithTrace(ctx, s.logger).Info("Register entry deleted",
		zap.Int("risk_id", id),
		zap.String("reference", e.Reference),
	)
	return nil
}

func (s *Service) GetEntry(ctx context.Context, id int) (*model.RiskEntry, error) {
	e, err := s.risks.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(entity, "get", id, err)
	}
	return e, nil
}

func (s *Service) ListEntries(ctx context.Context, projectID int, filter model.RiskFilter) ([]model.RiskEntry, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, apperr.Validation(entity, "list", "unknown type %q", filter.Type)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Validation(entity, "list", "unknown status %q", filter.Status)
	}
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, apperr.Wrap("project", "list risks", projectID, err)
	}
	entries, err := s.risks.List(ctx, projectID, filter)
	if err != nil {
		return nil, apperr.Internal(entity, "list", err)
	}
	return entries, nil
}

// CountByRag counts entries per RAG. With no statuses given only open entries count.
func (s *Service) CountByRag(ctx context.Context, projectID int, statuses ...model.EntryStatus) (model.RAGCounts, error) {
	if len(statuses) == 0 {
		statuses = []model.EntryStatus{model.EntryOpen}
	}
	for _, st := range statuses {
		if !st.Valid() {
			return model.RAGCounts{}, apperr.Validation(entity, "count", "unknown status %q", st)
		}
	}

	entries, err := s.ListEntries(ctx, projectID, model.RiskFilter{})
	if err != nil {
		return model.RAGCounts{}, err
	}

	var counts model.RAGCounts
	for _, e := range entries {
		for _, st := range statuses {
			if e.Status == st {
				counts.Add(e.RAG)
				break
			}
		}
	}
	return counts, nil
}

func (s *Service) invalidate(ctx context.Context, projectID int) {
	if s.health != nil {
		s.health.Invalidate(ctx, projectID)
	}
}
