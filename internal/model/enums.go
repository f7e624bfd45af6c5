package model

import "fmt"

// TaskStatus is the board column a task sits in.
type TaskStatus string

const (
	TaskBacklog    TaskStatus = "backlog"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskBlocked    TaskStatus = "blocked"
	TaskDone       TaskStatus = "done"
)

// TaskStatuses lists the board columns in display order.
var TaskStatuses = []TaskStatus{TaskBacklog, TaskInProgress, TaskReview, TaskBlocked, TaskDone}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskBacklog, TaskInProgress, TaskReview, TaskBlocked, TaskDone:
		return true
	}
	return false
}

// ParseTaskStatus converts raw input into a TaskStatus.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown task status %q", raw)
	}
	return s, nil
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

func ParsePriority(raw string) (Priority, error) {
	p := Priority(raw)
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", raw)
	}
	return p, nil
}

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCancelled ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectOnHold, ProjectCancelled:
		return true
	}
	return false
}

func ParseProjectStatus(raw string) (ProjectStatus, error) {
	s := ProjectStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown project status %q", raw)
	}
	return s, nil
}

// RAG is the red/amber/green traffic light used for entries and project health.
type RAG string

const (
	RAGRed   RAG = "red"
	RAGAmber RAG = "amber"
	RAGGreen RAG = "green"
)

func (r RAG) Valid() bool {
	switch r {
	case RAGRed, RAGAmber, RAGGreen:
		return true
	}
	return false
}

func ParseRAG(raw string) (RAG, error) {
	r := RAG(raw)
	if !r.Valid() {
		return "", fmt.Errorf("unknown rag status %q", raw)
	}
	return r, nil
}

// Level is used for probability and impact.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

func ParseLevel(raw string) (Level, error) {
	l := Level(raw)
	if !l.Valid() {
		return "", fmt.Errorf("unknown level %q", raw)
	}
	return l, nil
}

// EntryType separates risks from issues in the register. It never changes after creation.
type EntryType string

const (
	EntryRisk  EntryType = "risk"
	EntryIssue EntryType = "issue"
)

func (t EntryType) Valid() bool {
	switch t {
	case EntryRisk, EntryIssue:
		return true
	}
	return false
}

func ParseEntryType(raw string) (EntryType, error) {
	t := EntryType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("unknown entry type %q", raw)
	}
	return t, nil
}

// Prefix returns the reference prefix, e.g. RISK.
func (t EntryType) Prefix() string {
	switch t {
	case EntryRisk:
		return "RISK"
	case EntryIssue:
		return "ISSUE"
	}
	return "ENTRY"
}

type EntryStatus string

const (
	EntryOpen      EntryStatus = "open"
	EntryMitigated EntryStatus = "mitigated"
	EntryResolved  EntryStatus = "resolved"
	EntryClosed    EntryStatus = "closed"
)

func (s EntryStatus) Valid() bool {
	switch s {
	case EntryOpen, EntryMitigated, EntryResolved, EntryClosed:
		return true
	}
	return false
}

func ParseEntryStatus(raw string) (EntryStatus, error) {
	s := EntryStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown entry status %q", raw)
	}
	return s, nil
}

// PCRStatus is the change request state. Everything except pending is terminal.
type PCRStatus string

const (
	PCRPending                PCRStatus = "pending"
	PCRApproved               PCRStatus = "approved"
	PCRApprovedWithConditions PCRStatus = "approved_with_conditions"
	PCRRejected               PCRStatus = "rejected"
)

func (s PCRStatus) Valid() bool {
	switch s {
	case PCRPending, PCRApproved, PCRApprovedWithConditions, PCRRejected:
		return true
	}
	return false
}

func (s PCRStatus) Terminal() bool {
	return s.Valid() && s != PCRPending
}

// CommitsSchedule reports whether resolving with s moves the project end date.
func (s PCRStatus) CommitsSchedule() bool {
	switch s {
	case PCRApproved, PCRApprovedWithConditions:
		return true
	case PCRPending, PCRRejected:
		return false
	}
	return false
}

func ParsePCRStatus(raw string) (PCRStatus, error) {
	s := PCRStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown change request status %q", raw)
	}
	return s, nil
}

type Role string

const (
	RoleMember   Role = "member"
	RoleApprover Role = "approver"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleApprover, RoleAdmin:
		return true
	}
	return false
}
