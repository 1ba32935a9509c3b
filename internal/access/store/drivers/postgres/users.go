package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/domain"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
)

var userColumns = []string{"id", "email", "role", "organization_id", "position", "created_at", "updated_at"}

type usersRepo struct {
	sb sq.StatementBuilderType
}

func (r *usersRepo) getOne(ctx context.Context, where sq.Sqlizer) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := r.sb.
		Select(userColumns...).
		From("users").
		Where(where).
		QueryRowContext(ctx).
		Scan(&u.ID, &u.Email, &role, &u.OrganizationID, &u.Position, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Role = rbac.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, sq.Eq{"email": email})
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.sb.
		Insert("users").
		Columns(userColumns...).
		Values(u.ID, u.Email, string(u.Role), u.OrganizationID, u.Position, u.CreatedAt.UTC(), u.UpdatedAt.UTC()).
		ExecContext(ctx)
	return mapConstraint(err)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	err := r.sb.
		Select("EXISTS (SELECT 1 FROM users)").
		QueryRowContext(ctx).
		Scan(&exists)
	if err != nil {
		return false, err
	}
	return !exists, nil
}
