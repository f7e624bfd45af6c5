package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"projecthub/internal/model"
)

type RiskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewRiskRepository(db *pgxpool.Pool, logger *zap.Logger) *RiskRepository {
	return &RiskRepository{db: db, logger: logger}
}

const riskColumns = `id, project_id, type, sequence, reference, title, description, mitigation_plan,
        rag_status, probability, impact, owner, status, created_at, updated_at`

func scanRisk(row scanner) (*model.RiskEntry, error) {
	var e model.RiskEntry
	var typ, rag, prob, impact, status string
	if err := row.Scan(
		&e.ID,
		&e.ProjectID,
		&typ,
		&e.Sequence,
		&e.Reference,
		&e.Title,
		&e.Description,
		&e.MitigationPlan,
		&rag,
		&prob,
		&impact,
		&e.Owner,
		&status,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Type = model.EntryType(typ)
	e.RAG = model.RAG(rag)
	e.Probability = model.Level(prob)
	e.Impact = model.Level(impact)
	e.Status = model.EntryStatus(status)
	return &e, nil
}

func (r *RiskRepository) Insert(ctx context.Context, e *model.RiskEntry) (int, error) {
	r.logger.Debug("Inserting register entry",
		zap.Int("project_id", e.ProjectID),
		zap.String("type", string(e.Type)),
		zap.String("reference", e.Reference),
	)
	query := `
        INSERT INTO risk_register (project_id, type, sequence, reference, title, description,
                                   mitigation_plan, rag_status, probability, impact, owner, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		e.ProjectID,
		string(e.Type),
		e.Sequence,
		e.Reference,
		e.Title,
		e.Description,
		e.MitigationPlan,
		string(e.RAG),
		string(e.Probability),
		string(e.Impact),
		e.Owner,
		string(e.Status),
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert register entry", zap.Error(err), zap.Int("project_id", e.ProjectID))
		return 0, mapErr(err)
	}
	r.logger.Info("Register entry inserted successfully",
		zap.Int("entry_id", e.ID),
		zap.String("reference", e.Reference),
	)
	return e.ID, nil
}

func (r *RiskRepository) GetByID(ctx context.Context, id int) (*model.RiskEntry, error) {
	e, err := scanRisk(r.db.QueryRow(ctx, `SELECT `+riskColumns+` FROM risk_register WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return e, nil
}

func (r *RiskRepository) List(ctx context.Context, projectID int, filter model.RiskFilter) ([]model.RiskEntry, error) {
	query := `
        SELECT ` + riskColumns + `
        FROM risk_register
        WHERE project_id = $1
          AND ($2 = '' OR type = $2)
          AND ($3 = '' OR status = $3)
        ORDER BY type DESC, sequence, id
    `
	rows, err := r.db.Query(ctx, query, projectID, string(filter.Type), string(filter.Status))
	if err != nil {
		r.logger.Error("Failed to query register", zap.Error(err), zap.Int("project_id", projectID))
		return nil, mapErr(err)
	}
	defer rows.Close()

	entries := []model.RiskEntry{}
	for rows.Next() {
		e, err := scanRisk(rows)
		if err != nil {
			r.logger.Error("Failed to scan register row", zap.Error(err))
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (r *RiskRepository) CountByType(ctx context.Context, projectID int, t model.EntryType) (int, error) {
	return countQuery(ctx, r.db,
		`SELECT COUNT(*) FROM risk_register WHERE project_id = $1 AND type = $2`, projectID, string(t))
}

func (r *RiskRepository) MaxSequence(ctx context.Context, projectID int, t model.EntryType) (int, error) {
	return countQuery(ctx, r.db,
		`SELECT COALESCE(MAX(sequence), 0) FROM risk_register WHERE project_id = $1 AND type = $2`,
		projectID, string(t))
}

func (r *RiskRepository) Update(ctx context.Context, e *model.RiskEntry) error {
	query := `
        UPDATE risk_register
        SET title = $2, description = $3, mitigation_plan = $4, rag_status = $5,
            probability = $6, impact = $7, owner = $8, status = $9, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at
    `
	err := r.db.QueryRow(ctx, query,
		e.ID,
		e.Title,
		e.Description,
		e.MitigationPlan,
		string(e.RAG),
		string(e.Probability),
		string(e.Impact),
		e.Owner,
		string(e.Status),
	).Scan(&e.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update register entry", zap.Error(err), zap.Int("entry_id", e.ID))
		return mapErr(err)
	}
	return nil
}

func (r *RiskRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM risk_register WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete register entry", zap.Error(err), zap.Int("entry_id", id))
		return mapErr(err)
	}
	return expectOne(tag)
}
