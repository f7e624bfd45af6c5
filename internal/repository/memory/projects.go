package memory

import (
	"context"
	"sort"
	"time"

	"projecthub/internal/model"
	"projecthub/internal/repository"
)

type ProjectRepository struct {
	s *Store
}

func cloneProject(p model.Project) model.Project {
	p.StartDate = copyTime(p.StartDate)
	p.EndDate = copyTime(p.EndDate)
	return p
}

func (r *ProjectRepository) Insert(_ context.Context, p *model.Project) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p.ID = r.s.nextID("projects")
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	r.s.projs[p.ID] = cloneProject(*p)
	return p.ID, nil
}

func (r *ProjectRepository) GetByID(_ context.Context, id int) (*model.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := cloneProject(p)
	return &c, nil
}

func (r *ProjectRepository) List(_ context.Context, ownerID int) ([]model.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []model.Project{}
	for _, p := range r.s.projs {
		if ownerID != 0 && p.OwnerID != ownerID {
			continue
		}
		out = append(out, cloneProject(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ProjectRepository) Update(_ context.Context, p *model.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.projs[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := cloneProject(*p)
	next.CreatedAt = cur.CreatedAt
	next.CompletionPercentage = cur.CompletionPercentage
	next.UpdatedAt = r.s.now()
	r.s.projs[p.ID] = next
	p.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *ProjectRepository) SetEndDate(_ context.Context, id int, endDate *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projs[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.EndDate = copyTime(endDate)
	p.UpdatedAt = r.s.now()
	r.s.projs[id] = p
	return nil
}

func (r *ProjectRepository) SetCompletion(_ context.Context, id int, pct int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projs[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.CompletionPercentage = pct
	r.s.projs[id] = p
	return nil
}
