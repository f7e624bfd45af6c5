// Package memory is an in-process implementation of the repository contracts,
// used by tests and by the "memory" storage driver for local runs.
package memory

import (
	"context"
	"sync"
	"time"

	"projecthub/internal/model"
	"projecthub/internal/repository"
)

// Store holds every table behind one mutex. Each call is atomic on its own; nothing spans calls.
type Store struct {
	mu    sync.Mutex
	now   func() time.Time
	seq   map[string]int
	projs map[int]model.Project
	tasks map[int]model.Task
	risks map[int]model.RiskEntry
	pcrs  map[int]model.ChangeRequest
	users map[int]model.User
}

func NewStore() *Store {
	return &Store{
		now:   time.Now,
		seq:   make(map[string]int),
		projs: make(map[int]model.Project),
		tasks: make(map[int]model.Task),
		risks: make(map[int]model.RiskEntry),
		pcrs:  make(map[int]model.ChangeRequest),
		users: make(map[int]model.User),
	}
}

func (s *Store) nextID(table string) int {
	s.seq[table]++
	return s.seq[table]
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Projects:       &ProjectRepository{s: s},
		Tasks:          &TaskRepository{s: s},
		Risks:          &RiskRepository{s: s},
		ChangeRequests: &ChangeRequestRepository{s: s},
		Users:          &UserRepository{s: s},
		Ping:           func(context.Context) error { return nil },
		Close:          func() {},
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
