package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"projecthub/internal/model"
	"projecthub/internal/repository"
)

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

const taskColumns = `id, project_id, title, description, status, priority, assignee,
        start_date, due_date, end_date, tags, position, created_at, updated_at`

// statusOrder sorts columns in lifecycle order rather than alphabetically.
const statusOrder = `array_position(ARRAY['backlog','in_progress','review','blocked','done'], status)`

func scanTask(row scanner) (*model.Task, error) {
	var t model.Task
	var status, priority string
	if err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.Title,
		&t.Description,
		&status,
		&priority,
		&t.Assignee,
		&t.StartDate,
		&t.DueDate,
		&t.EndDate,
		&t.Tags,
		&t.Position,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Status = model.TaskStatus(status)
	t.Priority = model.Priority(priority)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return &t, nil
}

func (r *TaskRepository) collect(rows pgx.Rows) ([]model.Task, error) {
	defer rows.Close()
	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			r.logger.Error("Failed to scan task row", zap.Error(err))
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) (int, error) {
	r.logger.Debug("Inserting task",
		zap.Int("project_id", t.ProjectID),
		zap.String("title", t.Title),
		zap.String("status", string(t.Status)),
	)
	query := `
        INSERT INTO tasks (project_id, title, description, status, priority, assignee,
                           start_date, due_date, end_date, tags, position)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		t.ProjectID,
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		t.Assignee,
		t.StartDate,
		t.DueDate,
		t.EndDate,
		t.Tags,
		t.Position,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert task", zap.Error(err), zap.Int("project_id", t.ProjectID))
		return 0, mapErr(err)
	}
	r.logger.Info("Task inserted successfully",
		zap.Int("task_id", t.ID),
		zap.Int("project_id", t.ProjectID),
	)
	return t.ID, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID int) ([]model.Task, error) {
	query := `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE project_id = $1
        ORDER BY ` + statusOrder + `, position, id
    `
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to query tasks", zap.Error(err), zap.Int("project_id", projectID))
		return nil, mapErr(err)
	}
	return r.collect(rows)
}

func (r *TaskRepository) ListByStatus(ctx context.Context, projectID int, status model.TaskStatus) ([]model.Task, error) {
	query := `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE project_id = $1 AND status = $2
        ORDER BY position, id
    `
	rows, err := r.db.Query(ctx, query, projectID, string(status))
	if err != nil {
		r.logger.Error("Failed to query column",
			zap.Error(err),
			zap.Int("project_id", projectID),
			zap.String("status", string(status)),
		)
		return nil, mapErr(err)
	}
	return r.collect(rows)
}

func (r *TaskRepository) CountByStatus(ctx context.Context, projectID int, status model.TaskStatus) (int, error) {
	return countQuery(ctx, r.db,
		`SELECT COUNT(*) FROM tasks WHERE project_id = $1 AND status = $2`, projectID, string(status))
}

func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	query := `
        UPDATE tasks
        SET title = $2, description = $3, priority = $4, assignee = $5,
            start_date = $6, due_date = $7, end_date = $8, tags = $9, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at
    `
	err := r.db.QueryRow(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		string(t.Priority),
		t.Assignee,
		t.StartDate,
		t.DueDate,
		t.EndDate,
		t.Tags,
	).Scan(&t.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update task", zap.Error(err), zap.Int("task_id", t.ID))
		return mapErr(err)
	}
	return nil
}

// UpdatePlacements writes all placements in one transaction so a move lands as a unit.
func (r *TaskRepository) UpdatePlacements(ctx context.Context, placements []repository.Placement) error {
	if len(placements) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, p := range placements {
		batch.Queue(`
            UPDATE tasks SET status = $2, position = $3, updated_at = NOW() WHERE id = $1
        `, p.TaskID, string(p.Status), p.Position)
	}
	br := tx.SendBatch(ctx, batch)
	for _, p := range placements {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			r.logger.Error("Failed to update task placement", zap.Error(err), zap.Int("task_id", p.TaskID))
			return mapErr(err)
		}
		if tag.RowsAffected() == 0 {
			br.Close()
			return repository.ErrNotFound
		}
	}
	if err := br.Close(); err != nil {
		return mapErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit placements: %w", err)
	}
	r.logger.Debug("Task placements updated", zap.Int("count", len(placements)))
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete task", zap.Error(err), zap.Int("task_id", id))
		return mapErr(err)
	}
	return expectOne(tag)
}
