// Package pg implements the repository contracts on PostgreSQL through pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"projecthub/internal/repository"
)

// New wires every repository onto one pool.
func New(db *pgxpool.Pool, logger *zap.Logger) repository.Repositories {
	return repository.Repositories{
		Projects:       NewProjectRepository(db, logger),
		Tasks:          NewTaskRepository(db, logger),
		Risks:          NewRiskRepository(db, logger),
		ChangeRequests: NewChangeRequestRepository(db, logger),
		Users:          NewUserRepository(db, logger),
		Ping:           db.Ping,
		Close:          db.Close,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

// mapErr turns driver errors into repository sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", repository.ErrDuplicate, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", repository.ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

func expectOne(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func countQuery(ctx context.Context, db *pgxpool.Pool, query string, args ...any) (int, error) {
	var n int
	if err := db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}
