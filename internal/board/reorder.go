package board

import (
	"sort"

	"projecthub/internal/model"
	"projecthub/internal/repository"
)

// Move takes task out of source and inserts it into dest at toIndex, clamped into [0, len(dest)].
// When source and dest are the same column pass the same slice for both.
// It returns the resulting columns with positions re-derived from their index.
func Move(task model.Task, source, dest []model.Task, toStatus model.TaskStatus, toIndex int) (newSource, newDest []model.Task) {
	sameColumn := task.Status == toStatus

	remaining := make([]model.Task, 0, len(source))
	for _, t := range source {
		if t.ID != task.ID {
			remaining = append(remaining, t)
		}
	}

	target := remaining
	if !sameColumn {
		target = make([]model.Task, 0, len(dest)+1)
		for _, t := range dest {
			if t.ID != task.ID {
				target = append(target, t)
			}
		}
	}

	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex > len(target) {
		toIndex = len(target)
	}

	moved := task
	moved.Status = toStatus
	out := make([]model.Task, 0, len(target)+1)
	out = append(out, target[:toIndex]...)
	out = append(out, moved)
	out = append(out, target[toIndex:]...)
	renumber(out)

	if sameColumn {
		return out, out
	}
	renumber(remaining)
	return remaining, out
}

func renumber(col []model.Task) {
	for i := range col {
		col[i].Position = i
	}
}

// placements lists every task whose status or position differs from before.
func placements(before map[int]model.Task, cols ...[]model.Task) []repository.Placement {
	seen := map[int]bool{}
	var out []repository.Placement
	for _, col := range cols {
		for _, t := range col {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			if old, ok := before[t.ID]; ok && old.Status == t.Status && old.Position == t.Position {
				continue
			}
			out = append(out, repository.Placement{TaskID: t.ID, Status: t.Status, Position: t.Position})
		}
	}
	return out
}

// Columns groups tasks into the board columns in lifecycle order, each ordered by position.
func Columns(tasks []model.Task) []model.Column {
	byStatus := make(map[model.TaskStatus][]model.Task, len(model.TaskStatuses))
	for _, t := range tasks {
		byStatus[t.Status] = append(byStatus[t.Status], t)
	}
	cols := make([]model.Column, 0, len(model.TaskStatuses))
	for _, st := range model.TaskStatuses {
		ts := byStatus[st]
		if ts == nil {
			ts = []model.Task{}
		}
		sort.SliceStable(ts, func(i, j int) bool {
			if ts[i].Position != ts[j].Position {
				return ts[i].Position < ts[j].Position
			}
			return ts[i].ID < ts[j].ID
		})
		cols = append(cols, model.Column{Status: st, Tasks: ts})
	}
	return cols
}
