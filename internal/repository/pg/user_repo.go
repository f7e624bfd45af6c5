package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"projecthub/internal/model"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	query := `
        INSERT INTO users (email, password_hash, role, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING id, created_at
    `
	if err := r.db.QueryRow(ctx, query, u.Email, u.PasswordHash, string(u.Role)).Scan(&u.ID, &u.CreatedAt); err != nil {
		r.logger.Error("Failed to create user", zap.Error(err))
		return mapErr(err)
	}
	return nil
}

// FindByEmail returns user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
        SELECT id, email, password_hash, role, created_at
        FROM users
        WHERE lower(email) = lower($1)
    `
	var u model.User
	var role string
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &role, &u.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	u.Role = model.Role(role)
	return &u, nil
}
