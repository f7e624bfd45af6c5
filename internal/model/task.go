package model

import "time"

type Task struct {
	ID          int        `json:"id"`
	ProjectID   int        `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	Assignee    *string    `json:"assignee,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Tags        []string   `json:"tags"`
	Position    int        `json:"position"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskPatch never carries status or position; those only change through a move.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *Priority
	Assignee    *string
	StartDate   *time.Time
	DueDate     *time.Time
	EndDate     *time.Time
	Tags        []string
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Assignee == nil &&
		p.StartDate == nil && p.DueDate == nil && p.EndDate == nil && p.Tags == nil
}

func (t *Task) Apply(p TaskPatch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Assignee != nil {
		if *p.Assignee == "" {
			t.Assignee = nil
		} else {
			a := *p.Assignee
			t.Assignee = &a
		}
	}
	if p.StartDate != nil {
		d := DateOnly(*p.StartDate)
		t.StartDate = &d
	}
	if p.DueDate != nil {
		d := DateOnly(*p.DueDate)
		t.DueDate = &d
	}
	if p.EndDate != nil {
		d := DateOnly(*p.EndDate)
		t.EndDate = &d
	}
	if p.Tags != nil {
		t.Tags = append([]string(nil), p.Tags...)
	}
}

// Column is the ordered set of tasks sharing one status.
type Column struct {
	Status TaskStatus `json:"status"`
	Tasks  []Task     `json:"tasks"`
}
