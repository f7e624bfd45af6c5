package memory

import (
	"context"
	"sort"

	"projecthub/internal/model"
	"projecthub/internal/repository"
)

type ChangeRequestRepository struct {
	s *Store
}

func clonePCR(cr model.ChangeRequest) model.ChangeRequest {
	cr.OriginalEndDate = copyTime(cr.OriginalEndDate)
	cr.ResolvedAt = copyTime(cr.ResolvedAt)
	if cr.ApprovedBy != nil {
		v := *cr.ApprovedBy
		cr.ApprovedBy = &v
	}
	return cr
}

func (r *ChangeRequestRepository) Insert(_ context.Context, cr *model.ChangeRequest) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projs[cr.ProjectID]; !ok {
		return 0, repository.ErrNotFound
	}
	cr.ID = r.s.nextID("project_change_requests")
	cr.CreatedAt = r.s.now()
	cr.UpdatedAt = cr.CreatedAt
	r.s.pcrs[cr.ID] = clonePCR(*cr)
	return cr.ID, nil
}

func (r *ChangeRequestRepository) GetByID(_ context.Context, id int) (*model.ChangeRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cr, ok := r.s.pcrs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := clonePCR(cr)
	return &c, nil
}

func (r *ChangeRequestRepository) ListByProject(_ context.Context, projectID int) ([]model.ChangeRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []model.ChangeRequest{}
	for _, cr := range r.s.pcrs {
		if cr.ProjectID == projectID {
			out = append(out, clonePCR(cr))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ChangeRequestRepository) CountByProject(_ context.Context, projectID int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, cr := range r.s.pcrs {
		if cr.ProjectID == projectID {
			n++
		}
	}
	return n, nil
}

func (r *ChangeRequestRepository) MaxSequence(_ context.Context, projectID int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	max := 0
	for _, cr := range r.s.pcrs {
		if cr.ProjectID == projectID && cr.Sequence > max {
			max = cr.Sequence
		}
	}
	return max, nil
}

func (r *ChangeRequestRepository) Resolve(_ context.Context, id int, res model.Resolution) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cr, ok := r.s.pcrs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if cr.Status != model.PCRPending {
		return repository.ErrNotPending
	}
	at := res.ResolvedAt
	cr.Status = res.Status
	cr.ApproverNotes = res.Notes
	cr.ApprovedBy = res.ApprovedBy
	cr.ResolvedAt = &at
	cr.UpdatedAt = r.s.now()
	r.s.pcrs[id] = clonePCR(cr)
	return nil
}

func (r *ChangeRequestRepository) UpdateNotes(_ context.Context, id int, notes string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cr, ok := r.s.pcrs[id]
	if !ok {
		return repository.ErrNotFound
	}
	cr.ApproverNotes = notes
	cr.UpdatedAt = r.s.now()
	r.s.pcrs[id] = cr
	return nil
}

func (r *ChangeRequestRepository) SetDocument(_ context.Context, id int, doc string, degraded bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cr, ok := r.s.pcrs[id]
	if !ok {
		return repository.ErrNotFound
	}
	cr.Document = doc
	cr.DocumentDegraded = degraded
	cr.UpdatedAt = r.s.now()
	r.s.pcrs[id] = cr
	return nil
}
