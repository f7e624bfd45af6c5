package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"projecthub/internal/model"
	"projecthub/internal/repository"
)

type ChangeRequestRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewChangeRequestRepository(db *pgxpool.Pool, logger *zap.Logger) *ChangeRequestRepository {
	return &ChangeRequestRepository{db: db, logger: logger}
}

const pcrColumns = `id, project_id, sequence, reference, title, reason, impact, proposed_end_date,
        original_end_date, requested_by, status, approver_notes, approved_by, resolved_at,
        document, document_degraded, created_at, updated_at`

func scanPCR(row scanner) (*model.ChangeRequest, error) {
	var cr model.ChangeRequest
	var status string
	if err := row.Scan(
		&cr.ID,
		&cr.ProjectID,
		&cr.Sequence,
		&cr.Reference,
		&cr.Title,
		&cr.Reason,
		&cr.Impact,
		&cr.ProposedEndDate,
		&cr.OriginalEndDate,
		&cr.RequestedBy,
		&status,
		&cr.ApproverNotes,
		&cr.ApprovedBy,
		&cr.ResolvedAt,
		&cr.Document,
		&cr.DocumentDegraded,
		&cr.CreatedAt,
		&cr.UpdatedAt,
	); err != nil {
		return nil, err
	}
	cr.Status = model.PCRStatus(status)
	return &cr, nil
}

func (r *ChangeRequestRepository) Insert(ctx context.Context, cr *model.ChangeRequest) (int, error) {
	r.logger.Debug("Inserting change request",
		zap.Int("project_id", cr.ProjectID),
		zap.String("reference", cr.Reference),
	)
	query := `
        INSERT INTO project_change_requests (project_id, sequence, reference, title, reason, impact,
            proposed_end_date, original_end_date, requested_by, status, document, document_degraded)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		cr.ProjectID,
		cr.Sequence,
		cr.Reference,
		cr.Title,
		cr.Reason,
		cr.Impact,
		cr.ProposedEndDate,
		cr.OriginalEndDate,
		cr.RequestedBy,
		string(cr.Status),
		cr.Document,
		cr.DocumentDegraded,
	).Scan(&cr.ID, &cr.CreatedAt, &cr.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert change request", zap.Error(err), zap.Int("project_id", cr.ProjectID))
		return 0, mapErr(err)
	}
	r.logger.Info("Change request inserted successfully",
		zap.Int("change_request_id", cr.ID),
		zap.String("reference", cr.Reference),
	)
	return cr.ID, nil
}

func (r *ChangeRequestRepository) GetByID(ctx context.Context, id int) (*model.ChangeRequest, error) {
	cr, err := scanPCR(r.db.QueryRow(ctx,
		`SELECT `+pcrColumns+` FROM project_change_requests WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return cr, nil
}

func (r *ChangeRequestRepository) ListByProject(ctx context.Context, projectID int) ([]model.ChangeRequest, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+pcrColumns+`
        FROM project_change_requests
        WHERE project_id = $1
        ORDER BY id
    `, projectID)
	if err != nil {
		r.logger.Error("Failed to query change requests", zap.Error(err), zap.Int("project_id", projectID))
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []model.ChangeRequest{}
	for rows.Next() {
		cr, err := scanPCR(rows)
		if err != nil {
			r.logger.Error("Failed to scan change request row", zap.Error(err))
			return nil, err
		}
		out = append(out, *cr)
	}
	return out, rows.Err()
}

func (r *ChangeRequestRepository) CountByProject(ctx context.Context, projectID int) (int, error) {
	return countQuery(ctx, r.db,
		`SELECT COUNT(*) FROM project_change_requests WHERE project_id = $1`, projectID)
}

func (r *ChangeRequestRepository) MaxSequence(ctx context.Context, projectID int) (int, error) {
	return countQuery(ctx, r.db,
		`SELECT COALESCE(MAX(sequence), 0) FROM project_change_requests WHERE project_id = $1`, projectID)
}

// Resolve only touches rows still pending; a zero row count is told apart from a missing row.
func (r *ChangeRequestRepository) Resolve(ctx context.Context, id int, res model.Resolution) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE project_change_requests
        SET status = $2, approver_notes = $3, approved_by = $4, resolved_at = $5, updated_at = NOW()
        WHERE id = $1 AND status = 'pending'
    `, id, string(res.Status), res.Notes, res.ApprovedBy, res.ResolvedAt)
	if err != nil {
		r.logger.Error("Failed to resolve change request", zap.Error(err), zap.Int("change_request_id", id))
		return mapErr(err)
	}
	if tag.RowsAffected() == 1 {
		r.logger.Info("Change request resolved",
			zap.Int("change_request_id", id),
			zap.String("status", string(res.Status)),
		)
		return nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM project_change_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return mapErr(err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrNotPending
}

func (r *ChangeRequestRepository) UpdateNotes(ctx context.Context, id int, notes string) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE project_change_requests SET approver_notes = $2, updated_at = NOW() WHERE id = $1
    `, id, notes)
	if err != nil {
		return mapErr(err)
	}
	return expectOne(tag)
}

func (r *ChangeRequestRepository) SetDocument(ctx context.Context, id int, doc string, degraded bool) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE project_change_requests
        SET document = $2, document_degraded = $3, updated_at = NOW()
        WHERE id = $1
    `, id, doc, degraded)
	if err != nil {
		r.logger.Error("Failed to store change request document", zap.Error(err), zap.Int("change_request_id", id))
		return mapErr(err)
	}
	return expectOne(tag)
}
