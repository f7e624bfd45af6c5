// Package repository declares the persistence contracts used by the workflow services.
package repository

import (
	"context"
	"errors"
	"time"

	"projecthub/internal/apperr"
	"projecthub/internal/model"
)

var (
	// ErrNotFound is returned when a keyed record is missing.
	ErrNotFound = apperr.ErrNotFound
	// ErrNotPending is returned when a change request resolution loses the pending guard.
	ErrNotPending = errors.New("change request is not pending")
	// ErrDuplicate is returned on unique key violations.
	ErrDuplicate = errors.New("duplicate record")
)

// Placement is the (status, position) pair a move writes for one task.
type Placement struct {
	TaskID   int
	Status   model.TaskStatus
	Position int
}

type ProjectRepository interface {
	Insert(ctx context.Context, p *model.Project) (int, error)
	GetByID(ctx context.Context, id int) (*model.Project, error)
	// List returns all projects when ownerID is 0.
	List(ctx context.Context, ownerID int) ([]model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	SetEndDate(ctx context.Context, id int, endDate *time.Time) error
	SetCompletion(ctx context.Context, id int, pct int) error
}

type TaskRepository interface {
	Insert(ctx context.Context, t *model.Task) (int, error)
	GetByID(ctx context.Context, id int) (*model.Task, error)
	// ListByProject orders by status then position.
	ListByProject(ctx context.Context, projectID int) ([]model.Task, error)
	// ListByStatus returns one column ordered by position.
	ListByStatus(ctx context.Context, projectID int, status model.TaskStatus) ([]model.Task, error)
	CountByStatus(ctx context.Context, projectID int, status model.TaskStatus) (int, error)
	Update(ctx context.Context, t *model.Task) error
	UpdatePlacements(ctx context.Context, placements []Placement) error
	Delete(ctx context.Context, id int) error
}

type RiskRepository interface {
	Insert(ctx context.Context, e *model.RiskEntry) (int, error)
	GetByID(ctx context.Context, id int) (*model.RiskEntry, error)
	List(ctx context.Context, projectID int, filter model.RiskFilter) ([]model.RiskEntry, error)
	CountByType(ctx context.Context, projectID int, t model.EntryType) (int, error)
	MaxSequence(ctx context.Context, projectID int, t model.EntryType) (int, error)
	Update(ctx context.Context, e *model.RiskEntry) error
	Delete(ctx context.Context, id int) error
}

type ChangeRequestRepository interface {
	Insert(ctx context.Context, cr *model.ChangeRequest) (int, error)
	GetByID(ctx context.Context, id int) (*model.ChangeRequest, error)
	ListByProject(ctx context.Context, projectID int) ([]model.ChangeRequest, error)
	CountByProject(ctx context.Context, projectID int) (int, error)
	MaxSequence(ctx context.Context, projectID int) (int, error)
	// Resolve applies res only while the request is still pending and returns ErrNotPending otherwise.
	Resolve(ctx context.Context, id int, res model.Resolution) error
	UpdateNotes(ctx context.Context, id int, notes string) error
	SetDocument(ctx context.Context, id int, doc string, degraded bool) error
}

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// Repositories bundles the stores a process wires together.
type Repositories struct {
	Projects       ProjectRepository
	Tasks          TaskRepository
	Risks          RiskRepository
	ChangeRequests ChangeRequestRepository
	Users          UserRepository
	Ping           func(ctx context.Context) error
	Close          func()
}
