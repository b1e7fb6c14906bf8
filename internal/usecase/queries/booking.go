package queries

import (
	"context"

	"gearbook/internal/domain/booking"
	"gearbook/internal/infra"
	"gearbook/internal/pkg/errs"
	"gearbook/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound = errs.New("booking not found")
	ErrAccessDenied    = errs.New("access denied")
	ErrInvalidStatus   = errs.New("invalid status filter")
)

// BookingFilter narrows the admin overview. InventoryNumber matches a
// claimed unit of the booking, case-insensitively.
type BookingFilter struct {
	Status          *string
	InventoryNumber *string
}

type BookingQueries interface {
	// GetByID returns the full booking; visible to its owner and to admins.
	GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*BookingView, error)
	ListMine(ctx context.Context, actor shared.Actor) ([]*BookingListItem, error)
	// ListAll is the admin overview, optionally filtered by status or by a
	// claimed unit's inventory number.
	ListAll(ctx context.Context, actor shared.Actor, filter BookingFilter) ([]*BookingListItem, error)
	ListByUser(ctx context.Context, actor shared.Actor, userID uuid.UUID) ([]*BookingListItem, error)
}

type BookingViewRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*BookingListItem, error)
	FindAll(ctx context.Context, filter BookingFilter) ([]*BookingListItem, error)
}

type bookingQueriesImpl struct {
	repo BookingViewRepo
}

func NewBookingQueries(repo BookingViewRepo) BookingQueries {
	return &bookingQueriesImpl{repo: repo}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*BookingView, error) {
	view, err := q.repo.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !actor.IsAdmin() && view.UserID != actor.ID {
		return nil, ErrAccessDenied
	}
	return view, nil
}

func (q *bookingQueriesImpl) ListMine(ctx context.Context, actor shared.Actor) ([]*BookingListItem, error) {
	return q.repo.FindByUserID(ctx, actor.ID)
}

func (q *bookingQueriesImpl) ListAll(ctx context.Context, actor shared.Actor, filter BookingFilter) ([]*BookingListItem, error) {
	if !actor.IsAdmin() {
		return nil, ErrAccessDenied
	}
	if filter.Status != nil {
		if _, err := booking.NewStatus(*filter.Status); err != nil {
			return nil, errs.Mark(err, ErrInvalidStatus)
		}
	}
	return q.repo.FindAll(ctx, filter)
}

func (q *bookingQueriesImpl) ListByUser(ctx context.Context, actor shared.Actor, userID uuid.UUID) ([]*BookingListItem, error) {
	if !actor.IsAdmin() && actor.ID != userID {
		return nil, ErrAccessDenied
	}
	return q.repo.FindByUserID(ctx, userID)
}
