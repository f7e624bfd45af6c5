package memory

import (
	"context"
	"sort"

	"projecthub/internal/model"
	"projecthub/internal/repository"
)

type TaskRepository struct {
	s *Store
}

func cloneTask(t model.Task) model.Task {
	t.Assignee = copyString(t.Assignee)
	t.StartDate = copyTime(t.StartDate)
	t.DueDate = copyTime(t.DueDate)
	t.EndDate = copyTime(t.EndDate)
	t.Tags = append([]string(nil), t.Tags...)
	return t
}

func statusRank(s model.TaskStatus) int {
	for i, st := range model.TaskStatuses {
		if st == s {
			return i
		}
	}
	return len(model.TaskStatuses)
}

func sortTasks(ts []model.Task) {
	sort.Slice(ts, func(i, j int) bool {
		a, b := ts[i], ts[j]
		if a.Status != b.Status {
			return statusRank(a.Status) < statusRank(b.Status)
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.ID < b.ID
	})
}

func (r *TaskRepository) Insert(_ context.Context, t *model.Task) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projs[t.ProjectID]; !ok {
		return 0, repository.ErrNotFound
	}
	t.ID = r.s.nextID("tasks")
	t.CreatedAt = r.s.now()
	t.UpdatedAt = t.CreatedAt
	r.s.tasks[t.ID] = cloneTask(*t)
	return t.ID, nil
}

func (r *TaskRepository) GetByID(_ context.Context, id int) (*model.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := cloneTask(t)
	return &c, nil
}

func (r *TaskRepository) ListByProject(_ context.Context, projectID int) ([]model.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []model.Task{}
	for _, t := range r.s.tasks {
		if t.ProjectID == projectID {
			out = append(out, cloneTask(t))
		}
	}
	sortTasks(out)
	return out, nil
}

func (r *TaskRepository) ListByStatus(_ context.Context, projectID int, status model.TaskStatus) ([]model.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []model.Task{}
	for _, t := range r.s.tasks {
		if t.ProjectID == projectID && t.Status == status {
			out = append(out, cloneTask(t))
		}
	}
	sortTasks(out)
	return out, nil
}

func (r *TaskRepository) CountByStatus(_ context.Context, projectID int, status model.TaskStatus) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, t := range r.s.tasks {
		if t.ProjectID == projectID && t.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *TaskRepository) Update(_ context.Context, t *model.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.tasks[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := cloneTask(*t)
	// status and position belong to placements
	next.Status = cur.Status
	next.Position = cur.Position
	next.ProjectID = cur.ProjectID
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.s.now()
	r.s.tasks[t.ID] = next
	t.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *TaskRepository) UpdatePlacements(_ context.Context, placements []repository.Placement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range placements {
		if _, ok := r.s.tasks[p.TaskID]; !ok {
			return repository.ErrNotFound
		}
	}
	now := r.s.now()
	for _, p := range placements {
		t := r.s.tasks[p.TaskID]
		t.Status = p.Status
		t.Position = p.Position
		t.UpdatedAt = now
		r.s.tasks[p.TaskID] = t
	}
	return nil
}

func (r *TaskRepository) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.tasks, id)
	return nil
}
