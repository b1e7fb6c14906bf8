package queries

import (
	"context"

	"gearbook/internal/infra"
	"gearbook/internal/pkg/errs"
	"gearbook/internal/usecase/shared"

	"github.com/google/uuid"
)

var ErrUserNotFound = errs.New("user not found")

type UserQueries interface {
	// GetByID is visible to the user themselves and to admins.
	GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*UserView, error)
	List(ctx context.Context, actor shared.Actor) ([]*UserView, error)
}

type UserViewRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*UserView, error)
	FindAll(ctx context.Context) ([]*UserView, error)
}

type userQueriesImpl struct {
	repo UserViewRepo
}

func NewUserQueries(repo UserViewRepo) UserQueries {
	return &userQueriesImpl{repo: repo}
}

func (q *userQueriesImpl) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*UserView, error) {
	if !actor.IsAdmin() && actor.ID != id {
		return nil, ErrAccessDenied
	}
	view, err := q.repo.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return view, nil
}

func (q *userQueriesImpl) List(ctx context.Context, actor shared.Actor) ([]*UserView, error) {
	if !actor.IsAdmin() {
		return nil, ErrAccessDenied
	}
	return q.repo.FindAll(ctx)
}
