// Package auth_repo provides the PostgreSQL repository for user accounts.
package auth_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"hidesync/internal/core/apperror"
	"hidesync/internal/domain/auth"
	"hidesync/internal/infrastructure/storage/postgres"
)

// UserRepo implements auth.Repository.
type UserRepo struct {
	*postgres.BaseRepo[*auth.User]
}

var _ auth.Repository = (*UserRepo)(nil)

// NewUserRepo creates a user repository.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{
		BaseRepo: postgres.NewBaseRepo(
			txm,
			"users",
			postgres.ExtractDBColumns[auth.User](),
			func() *auth.User { return &auth.User{} },
		),
	}
}

// GetByEmail retrieves a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	q := r.BaseSelect().
		Where(squirrel.Eq{"email": email}).
		Limit(1)
	u, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("user", email)
		}
		return nil, err
	}
	return u, nil
}

// RecordLogin persists the last login timestamp without touching the version.
func (r *UserRepo) RecordLogin(ctx context.Context, u *auth.User) error {
	sql, args, err := r.Builder().
		Update("users").
		Set("last_login_at", u.LastLoginAt).
		Where(squirrel.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", u.ID.String())
	}
	return nil
}
