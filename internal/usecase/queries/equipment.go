package queries

import (
	"context"
	"time"

	"gearbook/internal/domain/booking"
	"gearbook/internal/domain/equipment"
	"gearbook/internal/infra"
	"gearbook/internal/pkg/errs"
	"gearbook/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrModelNotFound = errs.New("equipment model not found")
	ErrItemNotFound  = errs.New("equipment item not found")
)

// ModelFilter narrows catalog listings. Name matches a fragment of the
// model name, case-insensitively.
type ModelFilter struct {
	Category *string
	Name     *string
}

type EquipmentQueries interface {
	ListModels(ctx context.Context, filter ModelFilter) ([]*ModelView, error)
	// ListBookableModels filters the catalog down to models the actor's role
	// may book.
	ListBookableModels(ctx context.Context, actor shared.Actor, filter ModelFilter) ([]*ModelView, error)
	GetModel(ctx context.Context, id uuid.UUID) (*ModelView, error)
	GetModelWithItems(ctx context.Context, id uuid.UUID) (*ModelWithItemsView, error)
	ListItemsByModel(ctx context.Context, modelID uuid.UUID) ([]*ItemView, error)
	GetItem(ctx context.Context, id uuid.UUID) (*ItemView, error)
	// CountAvailable reports how many units of the model are free for the
	// window. The window is validated the same way booking creation does.
	CountAvailable(ctx context.Context, modelID uuid.UUID, start, end time.Time) (int64, error)
}

type EquipmentViewRepo interface {
	FindModels(ctx context.Context, filter ModelFilter) ([]*ModelView, error)
	FindModelByID(ctx context.Context, id uuid.UUID) (*ModelView, error)
	FindItemsByModelID(ctx context.Context, modelID uuid.UUID) ([]*ItemView, error)
	FindItemByID(ctx context.Context, id uuid.UUID) (*ItemView, error)
	CountAvailableForWindow(ctx context.Context, modelID uuid.UUID, window booking.Window) (int64, error)
}

type equipmentQueriesImpl struct {
	repo EquipmentViewRepo
}

func NewEquipmentQueries(repo EquipmentViewRepo) EquipmentQueries {
	return &equipmentQueriesImpl{repo: repo}
}

func (q *equipmentQueriesImpl) ListModels(ctx context.Context, filter ModelFilter) ([]*ModelView, error) {
	if err := validateModelFilter(filter); err != nil {
		return nil, err
	}
	return q.repo.FindModels(ctx, filter)
}

func (q *equipmentQueriesImpl) ListBookableModels(ctx context.Context, actor shared.Actor, filter ModelFilter) ([]*ModelView, error) {
	if err := validateModelFilter(filter); err != nil {
		return nil, err
	}
	models, err := q.repo.FindModels(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]*ModelView, 0, len(models))
	for _, m := range models {
		tier, tierErr := equipment.NewAccessTier(m.Access)
		if tierErr != nil {
			continue
		}
		if actor.Role.Satisfies(tier) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (q *equipmentQueriesImpl) GetModel(ctx context.Context, id uuid.UUID) (*ModelView, error) {
	return q.findModel(ctx, id)
}

func (q *equipmentQueriesImpl) GetModelWithItems(ctx context.Context, id uuid.UUID) (*ModelWithItemsView, error) {
	model, err := q.findModel(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := q.repo.FindItemsByModelID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ModelWithItemsView{ModelView: *model, Items: items}, nil
}

func (q *equipmentQueriesImpl) ListItemsByModel(ctx context.Context, modelID uuid.UUID) ([]*ItemView, error) {
	if _, err := q.findModel(ctx, modelID); err != nil {
		return nil, err
	}
	return q.repo.FindItemsByModelID(ctx, modelID)
}

func (q *equipmentQueriesImpl) GetItem(ctx context.Context, id uuid.UUID) (*ItemView, error) {
	view, err := q.repo.FindItemByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return view, nil
}

func (q *equipmentQueriesImpl) CountAvailable(ctx context.Context, modelID uuid.UUID, start, end time.Time) (int64, error) {
	window, err := booking.NewWindow(start, end)
	if err != nil {
		return 0, err
	}
	if _, err := q.findModel(ctx, modelID); err != nil {
		return 0, err
	}
	return q.repo.CountAvailableForWindow(ctx, modelID, window)
}

func validateModelFilter(filter ModelFilter) error {
	if filter.Category != nil {
		if _, err := equipment.NewCategory(*filter.Category); err != nil {
			return err
		}
	}
	return nil
}

func (q *equipmentQueriesImpl) findModel(ctx context.Context, id uuid.UUID) (*ModelView, error) {
	view, err := q.repo.FindModelByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrModelNotFound
		}
		return nil, err
	}
	return view, nil
}
