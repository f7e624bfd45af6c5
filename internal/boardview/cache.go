// Package boardview keeps a client's local copy of one project board. Local moves are applied
// optimistically and every server response replaces the columns it covers.
package boardview

import (
	"fmt"
	"sync"

	"projecthub/internal/board"
	"projecthub/internal/model"
)

// Intent is the move the server is asked to perform, including where the client believed the task was.
type Intent struct {
	TaskID     int              `json:"-"`
	FromStatus model.TaskStatus `json:"from_status"`
	FromIndex  int              `json:"from_index"`
	ToStatus   model.TaskStatus `json:"to_status"`
	ToIndex    int              `json:"to_index"`
}

// Cache is keyed by task id. Positions held here are never trusted on their own; after a
// conflict the caller reloads the board and the cache takes the server's layout wholesale.
type Cache struct {
	mu        sync.RWMutex
	projectID int
	tasks     map[int]model.Task
	dirty     map[int]bool
	loaded    bool
}

func New(projectID int) *Cache {
	return &Cache{
		projectID: projectID,
		tasks:     make(map[int]model.Task),
		dirty:     make(map[int]bool),
	}
}

func (c *Cache) ProjectID() int {
	return c.projectID
}

// Load replaces everything with an authoritative board read.
func (c *Cache) Load(columns []model.Column) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tasks = make(map[int]model.Task)
	c.dirty = make(map[int]bool)
	for _, col := range columns {
		for _, t := range col.Tasks {
			c.tasks[t.ID] = t
		}
	}
	c.loaded = true
}

// Loaded reports whether an authoritative read has been applied.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Cache) Task(id int) (model.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tasks[id]
	return t, ok
}

// Pending reports whether id has a local move the server has not confirmed.
func (c *Cache) Pending(id int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty[id]
}

// Columns derives the five columns from the cached tasks.
func (c *Cache) Columns() []model.Column {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return board.Columns(c.all())
}

func (c *Cache) all() []model.Task {
	out := make([]model.Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		out = append(out, t)
	}
	return out
}

func (c *Cache) column(status model.TaskStatus) []model.Task {
	for _, col := range board.Columns(c.all()) {
		if col.Status == status {
			return col.Tasks
		}
	}
	return nil
}

// MoveLocal applies a move to the local copy and returns the request to send.
func (c *Cache) MoveLocal(taskID int, toStatus model.TaskStatus, toIndex int) (Intent, error) {
	if !toStatus.Valid() {
		return Intent{}, fmt.Errorf("unknown status %q", toStatus)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	task, ok := c.tasks[taskID]
	if !ok {
		return Intent{}, fmt.Errorf("task %d is not on the local board", taskID)
	}
	intent := Intent{
		TaskID:     taskID,
		FromStatus: task.Status,
		FromIndex:  task.Position,
		ToStatus:   toStatus,
		ToIndex:    toIndex,
	}

	source := c.column(task.Status)
	dest := source
	if toStatus != task.Status {
		dest = c.column(toStatus)
	}
	newSource, newDest := board.Move(task, source, dest, toStatus, toIndex)
	for _, t := range newSource {
		c.tasks[t.ID] = t
	}
	for _, t := range newDest {
		c.tasks[t.ID] = t
	}
	c.dirty[taskID] = true
	return intent, nil
}

// Reconcile replaces both columns of a confirmed move with the server's copy.
func (c *Cache) Reconcile(res *board.MoveResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.replaceColumn(res.Source)
	if res.Destination.Status != res.Source.Status {
		c.replaceColumn(res.Destination)
	}
	delete(c.dirty, res.Task.ID)
}

func (c *Cache) replaceColumn(col model.Column) {
	for id, t := range c.tasks {
		if t.Status == col.Status {
			delete(c.tasks, id)
		}
	}
	for _, t := range col.Tasks {
		c.tasks[t.ID] = t
	}
}

// Forget drops a task, e.g. after the server reported it gone.
func (c *Cache) Forget(taskID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tasks, taskID)
	delete(c.dirty, taskID)
}
