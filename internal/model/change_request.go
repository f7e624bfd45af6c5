package model

import "time"

// ChangeRequest is a formal proposal to move a project's end date.
type ChangeRequest struct {
	ID               int        `json:"id"`
	ProjectID        int        `json:"project_id"`
	Sequence         int        `json:"sequence"`
	Reference        string     `json:"reference"`
	Title            string     `json:"title"`
	Reason           string     `json:"reason"`
	Impact           string     `json:"impact"`
	ProposedEndDate  time.Time  `json:"proposed_end_date"`
	OriginalEndDate  *time.Time `json:"original_end_date,omitempty"` // snapshot taken at creation
	RequestedBy      string     `json:"requested_by"`
	Status           PCRStatus  `json:"status"`
	ApproverNotes    string     `json:"approver_notes"`
	ApprovedBy       *int       `json:"approved_by,omitempty"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	Document         string     `json:"document,omitempty"`
	DocumentDegraded bool       `json:"document_degraded"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Resolution is the terminal transition applied to a pending change request.
type Resolution struct {
	Status     PCRStatus
	Notes      string
	ApprovedBy *int
	ResolvedAt time.Time
}
