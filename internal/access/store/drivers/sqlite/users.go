package sqlite

import (
	"context"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/domain"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
)

type usersRepo struct {
	q *queries
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.q.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	err := r.q.CreateUser(ctx, userRow{
		ID:             u.ID,
		Email:          u.Email,
		Role:           string(u.Role),
		OrganizationID: u.OrganizationID,
		Position:       u.Position,
		CreatedAt:      toMillis(u.CreatedAt),
		UpdatedAt:      toMillis(u.UpdatedAt),
	})
	return mapConstraint(err)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	n, err := r.q.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func mapUser(row userRow) domain.User {
	return domain.User{
		ID:             row.ID,
		Email:          row.Email,
		Role:           rbac.Role(row.Role),
		OrganizationID: row.OrganizationID,
		Position:       row.Position,
		CreatedAt:      fromMillis(row.CreatedAt),
		UpdatedAt:      fromMillis(row.UpdatedAt),
	}
}
