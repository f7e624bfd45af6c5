package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"projecthub/internal/model"
)

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{db: db, logger: logger}
}

const projectColumns = `id, name, description, owner_id, start_date, end_date, status,
        completion_percentage, color, created_at, updated_at`

func scanProject(row scanner) (*model.Project, error) {
	var p model.Project
	var status string
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.OwnerID,
		&p.StartDate,
		&p.EndDate,
		&status,
		&p.CompletionPercentage,
		&p.Color,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = model.ProjectStatus(status)
	return &p, nil
}

func (r *ProjectRepository) Insert(ctx context.Context, p *model.Project) (int, error) {
	r.logger.Debug("Inserting project",
		zap.Int("owner_id", p.OwnerID),
		zap.String("name", p.Name),
	)
	query := `
        INSERT INTO projects (name, description, owner_id, start_date, end_date, status, color)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		p.Name,
		p.Description,
		p.OwnerID,
		p.StartDate,
		p.EndDate,
		string(p.Status),
		p.Color,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err), zap.Int("owner_id", p.OwnerID))
		return 0, mapErr(err)
	}
	r.logger.Info("Project inserted successfully", zap.Int("project_id", p.ID))
	return p.ID, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	p, err := scanProject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (r *ProjectRepository) List(ctx context.Context, ownerID int) ([]model.Project, error) {
	query := `
        SELECT ` + projectColumns + `
        FROM projects
        WHERE ($1 = 0 OR owner_id = $1)
        ORDER BY id
    `
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("Failed to query projects", zap.Error(err), zap.Int("owner_id", ownerID))
		return nil, mapErr(err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			r.logger.Error("Failed to scan project row", zap.Error(err))
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	query := `
        UPDATE projects
        SET name = $2, description = $3, start_date = $4, end_date = $5,
            status = $6, color = $7, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at
    `
	err := r.db.QueryRow(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.StartDate,
		p.EndDate,
		string(p.Status),
		p.Color,
	).Scan(&p.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update project", zap.Error(err), zap.Int("project_id", p.ID))
		return mapErr(err)
	}
	return nil
}

func (r *ProjectRepository) SetEndDate(ctx context.Context, id int, endDate *time.Time) error {
	r.logger.Debug("Setting project end date", zap.Int("project_id", id))
	tag, err := r.db.Exec(ctx, `
        UPDATE projects SET end_date = $2, updated_at = NOW() WHERE id = $1
    `, id, endDate)
	if err != nil {
		r.logger.Error("Failed to set project end date", zap.Error(err), zap.Int("project_id", id))
		return mapErr(err)
	}
	return expectOne(tag)
}

func (r *ProjectRepository) SetCompletion(ctx context.Context, id int, pct int) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE projects SET completion_percentage = $2 WHERE id = $1
    `, id, pct)
	if err != nil {
		return mapErr(err)
	}
	return expectOne(tag)
}
