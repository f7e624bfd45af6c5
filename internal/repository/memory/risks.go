package memory

import (
	"context"
	"sort"

	"projecthub/internal/model"
	"projecthub/internal/repository"
)

type RiskRepository struct {
	s *Store
}

func cloneRisk(e model.RiskEntry) model.RiskEntry {
	e.Owner = copyString(e.Owner)
	return e
}

func (r *RiskRepository) Insert(_ context.Context, e *model.RiskEntry) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projs[e.ProjectID]; !ok {
		return 0, repository.ErrNotFound
	}
	e.ID = r.s.nextID("risk_register")
	e.CreatedAt = r.s.now()
	e.UpdatedAt = e.CreatedAt
	r.s.risks[e.ID] = cloneRisk(*e)
	return e.ID, nil
}

func (r *RiskRepository) GetByID(_ context.Context, id int) (*model.RiskEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.risks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := cloneRisk(e)
	return &c, nil
}

func (r *RiskRepository) List(_ context.Context, projectID int, filter model.RiskFilter) ([]model.RiskEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []model.RiskEntry{}
	for _, e := range r.s.risks {
		if e.ProjectID == projectID && filter.Match(e) {
			out = append(out, cloneRisk(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type > out[j].Type // risks before issues
		}
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *RiskRepository) CountByType(_ context.Context, projectID int, t model.EntryType) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, e := range r.s.risks {
		if e.ProjectID == projectID && e.Type == t {
			n++
		}
	}
	return n, nil
}

func (r *RiskRepository) MaxSequence(_ context.Context, projectID int, t model.EntryType) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	max := 0
	for _, e := range r.s.risks {
		if e.ProjectID == projectID && e.Type == t && e.Sequence > max {
			max = e.Sequence
		}
	}
	return max, nil
}

func (r *RiskRepository) Update(_ context.Context, e *model.RiskEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.risks[e.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := cloneRisk(*e)
	next.ProjectID = cur.ProjectID
	next.Type = cur.Type
	next.Sequence = cur.Sequence
	next.Reference = cur.Reference
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.s.now()
	r.s.risks[e.ID] = next
	e.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *RiskRepository) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.risks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.risks, id)
	return nil
}
