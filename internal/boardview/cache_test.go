package boardview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projecthub/internal/board"
	"projecthub/internal/model"
)

func ids(tasks []model.Task) []int {
	out := make([]int, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func positions(tasks []model.Task) []int {
	out := make([]int, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Position)
	}
	return out
}

func seeded() *Cache {
	c := New(1)
	c.Load([]model.Column{
		{Status: model.TaskBacklog, Tasks: []model.Task{
			{ID: 1, Status: model.TaskBacklog, Position: 0},
			{ID: 2, Status: model.TaskBacklog, Position: 1},
			{ID: 3, Status: model.TaskBacklog, Position: 2},
		}},
		{Status: model.TaskDone, Tasks: []model.Task{
			{ID: 4, Status: model.TaskDone, Position: 0},
		}},
	})
	return c
}

func TestMoveLocalIsOptimistic(t *testing.T) {
	c := seeded()

	intent, err := c.MoveLocal(2, model.TaskDone, 0)
	require.NoError(t, err)
	assert.Equal(t, Intent{TaskID: 2, FromStatus: model.TaskBacklog, FromIndex: 1, ToStatus: model.TaskDone, ToIndex: 0}, intent)
	assert.True(t, c.Pending(2))

	cols := c.Columns()
	assert.Equal(t, []int{1, 3}, ids(cols[0].Tasks))
	assert.Equal(t, []int{0, 1}, positions(cols[0].Tasks))
	assert.Equal(t, []int{2, 4}, ids(cols[4].Tasks))
	assert.Equal(t, []int{0, 1}, positions(cols[4].Tasks))
}

func TestMoveLocalWithinColumn(t *testing.T) {
	c := seeded()

	_, err := c.MoveLocal(1, model.TaskBacklog, 99)
	require.NoError(t, err)
	cols := c.Columns()
	assert.Equal(t, []int{2, 3, 1}, ids(cols[0].Tasks))
	assert.Equal(t, []int{0, 1, 2}, positions(cols[0].Tasks))
}

func TestMoveLocalRejectsUnknown(t *testing.T) {
	c := seeded()

	_, err := c.MoveLocal(42, model.TaskDone, 0)
	assert.Error(t, err)

	_, err = c.MoveLocal(1, model.TaskStatus("archived"), 0)
	assert.Error(t, err)
}

func TestReconcileTakesServerLayout(t *testing.T) {
	c := seeded()
	_, err := c.MoveLocal(2, model.TaskDone, 0)
	require.NoError(t, err)

	// Another client appended task 5 to done meanwhile; the server placed 2 after it.
	c.Reconcile(&board.MoveResult{
		Task: model.Task{ID: 2, Status: model.TaskDone, Position: 2},
		Source: model.Column{Status: model.TaskBacklog, Tasks: []model.Task{
			{ID: 1, Status: model.TaskBacklog, Position: 0},
			{ID: 3, Status: model.TaskBacklog, Position: 1},
		}},
		Destination: model.Column{Status: model.TaskDone, Tasks: []model.Task{
			{ID: 4, Status: model.TaskDone, Position: 0},
			{ID: 5, Status: model.TaskDone, Position: 1},
			{ID: 2, Status: model.TaskDone, Position: 2},
		}},
	})

	assert.False(t, c.Pending(2))
	cols := c.Columns()
	assert.Equal(t, []int{1, 3}, ids(cols[0].Tasks))
	assert.Equal(t, []int{4, 5, 2}, ids(cols[4].Tasks))
	assert.Equal(t, []int{0, 1, 2}, positions(cols[4].Tasks))
}

func TestLoadReplacesEverything(t *testing.T) {
	c := seeded()
	_, err := c.MoveLocal(1, model.TaskReview, 0)
	require.NoError(t, err)

	c.Load([]model.Column{{Status: model.TaskBacklog, Tasks: []model.Task{{ID: 1, Status: model.TaskBacklog}}}})

	assert.False(t, c.Pending(1))
	_, ok := c.Task(4)
	assert.False(t, ok)
	task, ok := c.Task(1)
	require.True(t, ok)
	assert.Equal(t, model.TaskBacklog, task.Status)
}

func TestForget(t *testing.T) {
	c := seeded()
	c.Forget(3)

	_, ok := c.Task(3)
	assert.False(t, ok)
	assert.Equal(t, []int{1, 2}, ids(c.Columns()[0].Tasks))
}
