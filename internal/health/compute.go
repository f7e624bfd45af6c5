// Package health derives a project's RAG status and completion percentage from its tasks and register.
package health

import (
	"fmt"
	"math"
	"time"

	"projecthub/internal/model"
)

// Weight is the completion credit a task earns in each column.
func Weight(s model.TaskStatus) int {
	switch s {
	case model.TaskDone:
		return 100
	case model.TaskReview:
		return 80
	case model.TaskInProgress:
		return 50
	case model.TaskBlocked:
		return 25
	case model.TaskBacklog:
		return 0
	}
	return 0
}

// Report is the derived health of one project plus the counts that drove it.
type Report struct {
	ProjectID            int       `json:"project_id"`
	RAG                  model.RAG `json:"rag_status"`
	CompletionPercentage int       `json:"completion_percentage"`
	TaskCount            int       `json:"task_count"`
	BlockedTasks         int       `json:"blocked_tasks"`
	OverdueTasks         int       `json:"overdue_tasks"`
	OpenRedEntries       int       `json:"open_red_entries"`
	Reasons              []string  `json:"reasons"`
	ComputedAt           time.Time `json:"computed_at"`
}

// Completion averages the task weights, rounding half away from zero. No tasks is 0%.
func Completion(tasks []model.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	sum := 0
	for _, t := range tasks {
		sum += Weight(t.Status)
	}
	return int(math.Round(float64(sum) / float64(len(tasks))))
}

// Overdue reports whether t's due date is before today and t is not done.
func Overdue(t model.Task, today time.Time) bool {
	if t.DueDate == nil || t.Status == model.TaskDone {
		return false
	}
	return model.DateOnly(*t.DueDate).Before(model.DateOnly(today))
}

// Compute is pure: the same tasks, entries and day always give the same report.
func Compute(tasks []model.Task, entries []model.RiskEntry, today time.Time) Report {
	r := Report{
		RAG:                  model.RAGGreen,
		CompletionPercentage: Completion(tasks),
		TaskCount:            len(tasks),
		Reasons:              []string{},
		ComputedAt:           today,
	}

	for _, t := range tasks {
		if t.Status == model.TaskBlocked {
			r.BlockedTasks++
		}
		if Overdue(t, today) {
			r.OverdueTasks++
		}
	}
	for _, e := range entries {
		if e.IsOpen() && e.RAG == model.RAGRed {
			r.OpenRedEntries++
		}
	}

	switch {
	case r.BlockedTasks > 0 || r.OverdueTasks > 2 || r.OpenRedEntries > 1:
		r.RAG = model.RAGRed
		if r.BlockedTasks > 0 {
			r.Reasons = append(r.Reasons, fmt.Sprintf("%d blocked task(s)", r.BlockedTasks))
		}
		if r.OverdueTasks > 2 {
			r.Reasons = append(r.Reasons, fmt.Sprintf("%d overdue tasks", r.OverdueTasks))
		}
		if r.OpenRedEntries > 1 {
			r.Reasons = append(r.Reasons, fmt.Sprintf("%d open red risks/issues", r.OpenRedEntries))
		}
	case r.OverdueTasks >= 1 || r.OpenRedEntries >= 1:
		r.RAG = model.RAGAmber
		if r.OverdueTasks >= 1 {
			r.Reasons = append(r.Reasons, fmt.Sprintf("%d overdue task(s)", r.OverdueTasks))
		}
		if r.OpenRedEntries >= 1 {
			r.Reasons = append(r.Reasons, "1 open red risk/issue")
		}
	}
	return r
}
