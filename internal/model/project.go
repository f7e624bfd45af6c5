package model

import "time"

type Project struct {
	ID                   int           `json:"id"`
	Name                 string        `json:"name"`
	Description          string        `json:"description"`
	OwnerID              int           `json:"owner_id"`
	StartDate            *time.Time    `json:"start_date,omitempty"`
	EndDate              *time.Time    `json:"end_date,omitempty"`
	Status               ProjectStatus `json:"status"`
	CompletionPercentage int           `json:"completion_percentage"` // cached for display
	Color                string        `json:"color"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// ProjectPatch carries a partial update. Nil fields are left alone.
type ProjectPatch struct {
	Name         *string
	Description  *string
	StartDate    *time.Time
	EndDate      *time.Time
	ClearEndDate bool
	Status       *ProjectStatus
	Color        *string
}

func (p *Project) Apply(patch ProjectPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.StartDate != nil {
		d := DateOnly(*patch.StartDate)
		p.StartDate = &d
	}
	if patch.ClearEndDate {
		p.EndDate = nil
	} else if patch.EndDate != nil {
		d := DateOnly(*patch.EndDate)
		p.EndDate = &d
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Color != nil {
		p.Color = *patch.Color
	}
}

// DateOnly drops the time of day, keeping the calendar date in t's location as UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate compares two optional dates by calendar day.
func SameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return DateOnly(*a).Equal(DateOnly(*b))
}
