// Package changerequest runs the project change request (PCR) approval workflow.
package changerequest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"projecthub/internal/apperr"
	"projecthub/internal/model"
	"projecthub/internal/notify"
	"projecthub/internal/repository"
	"projecthub/internal/sequence"
	"projecthub/internal/textgen"
	"projecthub/pkg/logger"
	"projecthub/pkg/metrics"
	"projecthub/pkg/otel"
)

const entity = "change_request"

// Writer produces a narrative document and never fails.
type Writer interface {
	Generate(ctx context.Context, p textgen.Prompt) textgen.Result
}

type Service struct {
	projects repository.ProjectRepository
	pcrs     repository.ChangeRequestRepository
	seq      sequence.Allocator
	writer   Writer
	notifier notify.Notifier
	now      func() time.Time
	logger   *zap.Logger
}

func NewService(repos repository.Repositories, seq sequence.Allocator, writer Writer, notifier notify.Notifier, logger *zap.Logger) *Service {
	if seq == nil {
		seq = sequence.CountAllocator{}
	}
	return &Service{
		projects: repos.Projects,
		pcrs:     repos.ChangeRequests,
		seq:      seq,
		writer:   writer,
		notifier: notifier,
		now:      time.Now,
		logger:   logger,
	}
}

type NewChangeRequest struct {
	Title            string
	Reason           string
	Impact           string
	ProposedEndDate  *time.Time
	RequestedBy      string
	GenerateDocument bool
}

// Create records a pending request, snapshotting the project's current end date.
func (s *Service) Create(ctx context.Context, projectID int, in NewChangeRequest) (*model.ChangeRequest, error) {
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("project_id", projectID))
	log.Debug("Create change request called")

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, apperr.Validation(entity, "create", "reason is required")
	}
	if in.ProposedEndDate == nil || in.ProposedEndDate.IsZero() {
		return nil, apperr.Validation(entity, "create", "proposed end date is required")
	}
	proposed := model.DateOnly(*in.ProposedEndDate)

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, apperr.Wrap("project", "create change request", projectID, err)
	}

	seq, err := s.seq.Next(ctx, sequence.ChangeRequestScope(projectID), sequence.Source{
		Count: func(ctx context.Context) (int, error) { return s.pcrs.CountByProject(ctx, projectID) },
		Max:   func(ctx context.Context) (int, error) { return s.pcrs.MaxSequence(ctx, projectID) },
	})
	if err != nil {
		log.Error("Failed to allocate change request number", zap.Error(err))
		return nil, apperr.Internal(entity, "create", err)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = fmt.Sprintf("Move end date to %s", proposed.Format("2006-01-02"))
	}

	cr := &model.ChangeRequest{
		ProjectID:       projectID,
		Sequence:        seq,
		Reference:       model.FormatReference("PCR", seq),
		Title:           title,
		Reason:          reason,
		Impact:          in.Impact,
		ProposedEndDate: proposed,
		RequestedBy:     strings.TrimSpace(in.RequestedBy),
		Status:          model.PCRPending,
	}
	if project.EndDate != nil {
		orig := *project.EndDate
		cr.OriginalEndDate = &orig
	}

	// The document is stored with the row so a failed write never leaves an orphan request.
	if in.GenerateDocument {
		res := s.document(ctx, project, cr)
		cr.Document = res.Text
		cr.DocumentDegraded = res.Degraded
	}

	if _, err := s.pcrs.Insert(ctx, cr); err != nil {
		log.Error("Failed to insert change request", zap.Error(err))
		return nil, apperr.Wrap("project", "create change request", projectID, err)
	}
	log.Info("Change request created",
		zap.Int("pcr_id", cr.ID),
		zap.String("reference", cr.Reference),
		zap.Bool("with_document", in.GenerateDocument),
	)
	return cr, nil
}

// Resolve moves a pending request to a terminal state. Approvals then commit the proposed end date
// to the project. The status is written first; ReapplyApproval repairs a missing second write.
func (s *Service) Resolve(ctx context.Context, pcrID int, outcome model.PCRStatus, notes string, approverID int) (cr *model.ChangeRequest, out notify.Outcome, err error) {
	ctx, span := otel.StartSpan(ctx, "changerequest.resolve")
	span.SetAttributes(attribute.Int("pcr.id", pcrID), attribute.String("pcr.outcome", string(outcome)))
	defer func() { otel.EndSpan(span, err) }()

	log := logger.WithTrace(ctx, s.logger).With(zap.Int("pcr_id", pcrID))
	log.Debug("Resolve called", zap.String("outcome", string(outcome)))

	if !outcome.Terminal() {
		return nil, notify.Outcome{}, apperr.Validation(entity, "resolve",
			"outcome must be approved, approved_with_conditions or rejected, got %q", outcome)
	}

	cr, err = s.pcrs.GetByID(ctx, pcrID)
	if err != nil {
		return nil, notify.Outcome{}, apperr.Wrap(entity, "resolve", pcrID, err)
	}
	if cr.Status != model.PCRPending {
		return nil, notify.Outcome{}, apperr.IllegalState(entity, "resolve", "%s is already %s", cr.Reference, cr.Status)
	}

	res := model.Resolution{Status: outcome, Notes: notes, ResolvedAt: s.now().UTC()}
	if approverID != 0 {
		id := approverID
		res.ApprovedBy = &id
	}
	if err := s.pcrs.Resolve(ctx, pcrID, res); err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			log.Warn("Change request resolved concurrently")
			return nil, notify.Outcome{}, apperr.IllegalState(entity, "resolve", "%s is no longer pending", cr.Reference)
		}
		log.Error("Failed to resolve change request", zap.Error(err))
		return nil, notify.Outcome{}, apperr.Wrap(entity, "resolve", pcrID, err)
	}
	cr.Status = res.Status
	cr.ApproverNotes = res.Notes
	cr.ApprovedBy = res.ApprovedBy
	cr.ResolvedAt = &res.ResolvedAt

	if outcome.CommitsSchedule() {
		end := cr.ProposedEndDate
		if err := s.projects.SetEndDate(ctx, cr.ProjectID, &end); err != nil {
			log.Error("Change request approved but project end date not applied", zap.Error(err))
			return cr, notify.Outcome{}, &apperr.Error{
				Kind:    apperr.KindInternal,
				Entity:  entity,
				Op:      "resolve",
				Message: fmt.Sprintf("%s approved but project end date not applied; reapply the approval", cr.Reference),
				Err:     err,
			}
		}
	}

	metrics.IncrementChangeRequestResolution(string(outcome))
	log.Info("Change request resolved",
		zap.String("reference", cr.Reference),
		zap.String("outcome", string(outcome)),
	)

	name := ""
	if p, err := s.projects.GetByID(ctx, cr.ProjectID); err == nil {
		name = p.Name
	}
	return cr, notify.Send(ctx, s.notifier, notify.PCRResolved(*cr, name)), nil
}

// ReapplyApproval writes an approved request's end date to its project again.
func (s *Service) ReapplyApproval(ctx context.Context, pcrID int) (*model.Project, error) {
	log := logger.WithTrace(ctx, s.logger).With(zap.Int("pcr_id", pcrID))

	cr, err := s.pcrs.GetByID(ctx, pcrID)
	if err != nil {
		return nil, apperr.Wrap(entity, "reapply", pcrID, err)
	}
	if !cr.Status.CommitsSchedule() {
		return nil, apperr.IllegalState(entity, "reapply", "%s is %s, not approved", cr.Reference, cr.Status)
	}

	end := cr.ProposedEndDate
	if err := s.projects.SetEndDate(ctx, cr.ProjectID, &end); err != nil {
		log.Error("Failed to reapply approval", zap.Error(err))
		return nil, apperr.Wrap("project", "reapply", cr.ProjectID, err)
	}
	p, err := s.projects.GetByID(ctx, cr.ProjectID)
	if err != nil {
		return nil, apperr.Wrap("project", "reapply", cr.ProjectID, err)
	}
	log.Info("Approval reapplied", zap.String("reference", cr.Reference), zap.Int("project_id", p.ID))
	return p, nil
}

// UpdateNotes replaces the approver notes. Allowed in every state.
func (s *Service) UpdateNotes(ctx context.Context, pcrID int, notes string) (*model.ChangeRequest, error) {
	if err := s.pcrs.UpdateNotes(ctx, pcrID, notes); err != nil {
		return nil, apperr.Wrap(entity, "update notes", pcrID, err)
	}
	return s.Get(ctx, pcrID)
}

// GenerateDocument asks the text generator for a narrative. Generator failure stores a placeholder.
func (s *Service) GenerateDocument(ctx context.Context, pcrID int) (*model.ChangeRequest, error) {
	cr, err := s.pcrs.GetByID(ctx, pcrID)
	if err != nil {
		return nil, apperr.Wrap(entity, "generate document", pcrID, err)
	}
	project, err := s.projects.GetByID(ctx, cr.ProjectID)
	if err != nil {
		return nil, apperr.Wrap("project", "generate document", cr.ProjectID, err)
	}
	return s.writeDocument(ctx, project, cr)
}

func (s *Service) document(ctx context.Context, project *model.Project, cr *model.ChangeRequest) textgen.Result {
	if s.writer == nil {
		return textgen.Result{Text: Placeholder(project, cr), Degraded: true, Reason: "disabled"}
	}
	return s.writer.Generate(ctx, BuildPrompt(project, cr))
}

func (s *Service) writeDocument(ctx context.Context, project *model.Project, cr *model.ChangeRequest) (*model.ChangeRequest, error) {
	res := s.document(ctx, project, cr)
	if err := s.pcrs.SetDocument(ctx, cr.ID, res.Text, res.Degraded); err != nil {
		return nil, apperr.Wrap(entity, "generate document", cr.ID, err)
	}
	cr.Document = res.Text
	cr.DocumentDegraded = res.Degraded
	logger.WithTrace(ctx, s.logger).Info("Change request document stored",
		zap.Int("pcr_id", cr.ID),
		zap.Bool("degraded", res.Degraded),
		zap.String("reason", res.Reason),
	)
	return cr, nil
}

func (s *Service) Get(ctx context.Context, pcrID int) (*model.ChangeRequest, error) {
	cr, err := s.pcrs.GetByID(ctx, pcrID)
	if err != nil {
		return nil, apperr.Wrap(entity, "get", pcrID, err)
	}
	return cr, nil
}

func (s *Service) List(ctx context.Context, projectID int) ([]model.ChangeRequest, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, apperr.Wrap("project", "list change requests", projectID, err)
	}
	out, err := s.pcrs.ListByProject(ctx, projectID)
	if err != nil {
		return nil, apperr.Internal(entity, "list", err)
	}
	return out, nil
}
