package changerequest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"projecthub/internal/apperr"
	"projecthub/internal/model"
	"projecthub/internal/notify"
	"projecthub/internal/repository"
	"projecthub/internal/repository/memory"
	"projecthub/internal/textgen"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recordingNotifier) Notify(_ context.Context, msg notify.Message) notify.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return notify.Outcome{Status: notify.StatusQueued}
}

type stubWriter struct {
	prompts []textgen.Prompt
	result  *textgen.Result
}

func (w *stubWriter) Generate(_ context.Context, p textgen.Prompt) textgen.Result {
	w.prompts = append(w.prompts, p)
	if w.result != nil {
		return *w.result
	}
	return textgen.Result{Text: "generated narrative"}
}

// flakyProjects fails SetEndDate while broken is set.
type flakyProjects struct {
	repository.ProjectRepository
	broken bool
}

func (f *flakyProjects) SetEndDate(ctx context.Context, id int, end *time.Time) error {
	if f.broken {
		return errors.New("connection reset")
	}
	return f.ProjectRepository.SetEndDate(ctx, id, end)
}

// failingDocuments rejects every SetDocument call.
type failingDocuments struct {
	repository.ChangeRequestRepository
}

func (failingDocuments) SetDocument(context.Context, int, string, bool) error {
	return errors.New("connection reset")
}

type fixture struct {
	svc      *Service
	repos    repository.Repositories
	projects *flakyProjects
	writer   *stubWriter
	notifier *recordingNotifier
	pid      int
}

func newFixture(t *testing.T, endDate *time.Time) *fixture {
	t.Helper()
	repos := memory.NewStore().Repositories()
	pid, err := repos.Projects.Insert(context.Background(), &model.Project{Name: "Apollo", Status: model.ProjectActive, EndDate: endDate})
	require.NoError(t, err)

	f := &fixture{repos: repos, writer: &stubWriter{}, notifier: &recordingNotifier{}, pid: pid}
	f.projects = &flakyProjects{ProjectRepository: repos.Projects}
	repos.Projects = f.projects
	f.svc = NewService(repos, nil, f.writer, f.notifier, zap.NewNop())
	return f
}

func (f *fixture) create(t *testing.T, proposed time.Time) *model.ChangeRequest {
	t.Helper()
	cr, err := f.svc.Create(context.Background(), f.pid, NewChangeRequest{
		Title: "Vendor delay", Reason: "Supplier slipped", Impact: "One month", ProposedEndDate: &proposed,
		RequestedBy: "pm@example.com",
	})
	require.NoError(t, err)
	return cr
}

func (f *fixture) endDate(t *testing.T) *time.Time {
	t.Helper()
	p, err := f.repos.Projects.GetByID(context.Background(), f.pid)
	require.NoError(t, err)
	return p.EndDate
}

func TestApprovalCommitsEndDate(t *testing.T) {
	orig := date(2025, 6, 1)
	f := newFixture(t, &orig)
	cr := f.create(t, date(2025, 7, 1))

	require.NotNil(t, cr.OriginalEndDate)
	assert.Equal(t, orig, *cr.OriginalEndDate)
	assert.Equal(t, model.PCRPending, cr.Status)

	resolved, out, err := f.svc.Resolve(context.Background(), cr.ID, model.PCRApprovedWithConditions, "Only if QA signs off", 7)
	require.NoError(t, err)

	assert.Equal(t, model.PCRApprovedWithConditions, resolved.Status)
	assert.Equal(t, "Only if QA signs off", resolved.ApproverNotes)
	require.NotNil(t, resolved.ApprovedBy)
	assert.Equal(t, 7, *resolved.ApprovedBy)
	assert.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, date(2025, 7, 1), *f.endDate(t))
	assert.Equal(t, notify.StatusQueued, out.Status)

	stored, err := f.svc.Get(context.Background(), cr.ID)
	require.NoError(t, err)
	assert.Equal(t, orig, *stored.OriginalEndDate)
}

func TestResolveTwiceIsIllegalState(t *testing.T) {
	orig := date(2025, 6, 1)
	f := newFixture(t, &orig)
	cr := f.create(t, date(2025, 7, 1))

	_, _, err := f.svc.Resolve(context.Background(), cr.ID, model.PCRApproved, "", 1)
	require.NoError(t, err)

	_, _, err = f.svc.Resolve(context.Background(), cr.ID, model.PCRRejected, "", 1)
	assert.ErrorIs(t, err, apperr.ErrIllegalState)
	assert.Equal(t, date(2025, 7, 1), *f.endDate(t))
}

func TestRejectionNeverMutatesProject(t *testing.T) {
	orig := date(2025, 6, 1)
	f := newFixture(t, &orig)
	cr := f.create(t, date(2025, 9, 1))

	resolved, _, err := f.svc.Resolve(context.Background(), cr.ID, model.PCRRejected, "No budget", 2)
	require.NoError(t, err)

	assert.Equal(t, model.PCRRejected, resolved.Status)
	assert.Equal(t, orig, *f.endDate(t))
}

func TestResolveValidation(t *testing.T) {
	f := newFixture(t, nil)
	cr := f.create(t, date(2025, 7, 1))

	_, _, err := f.svc.Resolve(context.Background(), cr.ID, model.PCRPending, "", 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = f.svc.Resolve(context.Background(), cr.ID, "maybe", "", 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = f.svc.Resolve(context.Background(), 999, model.PCRApproved, "", 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentResolveAppliesOnce(t *testing.T) {
	f := newFixture(t, nil)
	cr := f.create(t, date(2025, 7, 1))

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = f.svc.Resolve(context.Background(), cr.ID, model.PCRApproved, "", i+1)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrIllegalState)
	}
	assert.Equal(t, 1, ok)
}

func TestCreateValidationAndNumbering(t *testing.T) {
	f := newFixture(t, nil)
	proposed := date(2025, 7, 1)

	_, err := f.svc.Create(context.Background(), f.pid, NewChangeRequest{Reason: " ", ProposedEndDate: &proposed})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.Create(context.Background(), f.pid, NewChangeRequest{Reason: "slip"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.Create(context.Background(), 404, NewChangeRequest{Reason: "slip", ProposedEndDate: &proposed})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	first := f.create(t, proposed)
	second, err := f.svc.Create(context.Background(), f.pid, NewChangeRequest{Reason: "slip", ProposedEndDate: &proposed})
	require.NoError(t, err)

	assert.Equal(t, "PCR-001", first.Reference)
	assert.Equal(t, "PCR-002", second.Reference)
	assert.Equal(t, "Move end date to 2025-07-01", second.Title)
	assert.Nil(t, second.OriginalEndDate)
}

func TestReapplyAfterPartialApproval(t *testing.T) {
	orig := date(2025, 6, 1)
	f := newFixture(t, &orig)
	cr := f.create(t, date(2025, 7, 1))

	f.projects.broken = true
	_, _, err := f.svc.Resolve(context.Background(), cr.ID, model.PCRApproved, "", 3)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	stored, err := f.svc.Get(context.Background(), cr.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PCRApproved, stored.Status)
	assert.Equal(t, orig, *f.endDate(t))

	f.projects.broken = false
	p, err := f.svc.ReapplyApproval(context.Background(), cr.ID)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 7, 1), *p.EndDate)
}

func TestReapplyRequiresApproval(t *testing.T) {
	f := newFixture(t, nil)
	cr := f.create(t, date(2025, 7, 1))

	_, err := f.svc.ReapplyApproval(context.Background(), cr.ID)
	assert.ErrorIs(t, err, apperr.ErrIllegalState)

	_, _, err = f.svc.Resolve(context.Background(), cr.ID, model.PCRRejected, "", 1)
	require.NoError(t, err)
	_, err = f.svc.ReapplyApproval(context.Background(), cr.ID)
	assert.ErrorIs(t, err, apperr.ErrIllegalState)
}

func TestUpdateNotesAfterResolution(t *testing.T) {
	f := newFixture(t, nil)
	cr := f.create(t, date(2025, 7, 1))
	_, _, err := f.svc.Resolve(context.Background(), cr.ID, model.PCRApproved, "ok", 1)
	require.NoError(t, err)

	updated, err := f.svc.UpdateNotes(context.Background(), cr.ID, "ok, reviewed at steering")
	require.NoError(t, err)
	assert.Equal(t, "ok, reviewed at steering", updated.ApproverNotes)
	assert.Equal(t, model.PCRApproved, updated.Status)

	_, err = f.svc.UpdateNotes(context.Background(), 404, "x")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGenerateDocument(t *testing.T) {
	orig := date(2025, 6, 1)
	f := newFixture(t, &orig)
	cr := f.create(t, date(2025, 7, 1))

	doc, err := f.svc.GenerateDocument(context.Background(), cr.ID)
	require.NoError(t, err)
	assert.Equal(t, "generated narrative", doc.Document)
	assert.False(t, doc.DocumentDegraded)

	require.Len(t, f.writer.prompts, 1)
	assert.Contains(t, f.writer.prompts[0].User, "Current end date: 2025-06-01")
	assert.Contains(t, f.writer.prompts[0].User, "Proposed end date: 2025-07-01")
	assert.Contains(t, f.writer.prompts[0].Fallback, "PCR-001")
}

func TestGenerateDocumentDegraded(t *testing.T) {
	f := newFixture(t, nil)
	f.writer.result = &textgen.Result{Text: "placeholder text", Degraded: true, Reason: "circuit_open"}
	proposed := date(2025, 7, 1)

	cr, err := f.svc.Create(context.Background(), f.pid, NewChangeRequest{Reason: "slip", ProposedEndDate: &proposed, GenerateDocument: true})
	require.NoError(t, err)
	assert.True(t, cr.DocumentDegraded)
	assert.Equal(t, "placeholder text", cr.Document)

	stored, err := f.svc.Get(context.Background(), cr.ID)
	require.NoError(t, err)
	assert.True(t, stored.DocumentDegraded)
}

func TestGenerateDocumentWithoutWriter(t *testing.T) {
	f := newFixture(t, nil)
	f.svc.writer = nil
	cr := f.create(t, date(2025, 7, 1))

	doc, err := f.svc.GenerateDocument(context.Background(), cr.ID)
	require.NoError(t, err)
	assert.True(t, doc.DocumentDegraded)
	assert.Contains(t, doc.Document, "Automatically generated narrative unavailable")
}

func TestList(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, date(2025, 7, 1))
	f.create(t, date(2025, 8, 1))

	list, err := f.svc.List(context.Background(), f.pid)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.svc.List(context.Background(), 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateStoresDocumentWithRequest(t *testing.T) {
	f := newFixture(t, nil)
	f.repos.ChangeRequests = failingDocuments{ChangeRequestRepository: f.repos.ChangeRequests}
	f.svc = NewService(f.repos, nil, f.writer, f.notifier, zap.NewNop())
	proposed := date(2025, 7, 1)
	in := NewChangeRequest{Reason: "slip", ProposedEndDate: &proposed, GenerateDocument: true}

	cr, err := f.svc.Create(context.Background(), f.pid, in)
	require.NoError(t, err)
	assert.Equal(t, "PCR-001", cr.Reference)
	assert.Equal(t, "generated narrative", cr.Document)

	stored, err := f.svc.Get(context.Background(), cr.ID)
	require.NoError(t, err)
	assert.Equal(t, "generated narrative", stored.Document)

	list, err := f.svc.List(context.Background(), f.pid)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
