package commands

import (
	"context"
	"time"

	"gearbook/internal/domain/equipment"
	"gearbook/internal/infra"
	"gearbook/internal/pkg/errs"
	"gearbook/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrModelAlreadyExists = errs.New("equipment model already exists")
	ErrModelHasItems      = errs.New("equipment model still has items")
	ErrItemNotFound       = errs.New("equipment item not found")
	ErrItemCreationFailed = errs.New("failed to assign an inventory number")
)

const (
	inventoryNumberAttempts = 5
	inventoryRetryBaseDelay = 100 * time.Millisecond
)

type ModelParams struct {
	Name        string
	Description string
	Category    string
	OsnovaOnly  bool
	Attributes  map[string]any
}

type EquipmentCommands interface {
	CreateModel(ctx context.Context, actor shared.Actor, p ModelParams) (uuid.UUID, error)
	UpdateModel(ctx context.Context, actor shared.Actor, modelID uuid.UUID, p ModelParams) error
	DeleteModel(ctx context.Context, actor shared.Actor, modelID uuid.UUID) error
	// CreateItem mints the next inventory number for the model and registers
	// the unit. Returns the new item id and its inventory number.
	CreateItem(ctx context.Context, actor shared.Actor, modelID uuid.UUID) (uuid.UUID, string, error)
	DeleteItem(ctx context.Context, actor shared.Actor, itemID uuid.UUID) error
	SetItemAvailability(ctx context.Context, actor shared.Actor, itemID uuid.UUID, available bool) error
}

type equipmentCommandsImpl struct {
	uow shared.UnitOfWork
}

func NewEquipmentCommands(uow shared.UnitOfWork) EquipmentCommands {
	return &equipmentCommandsImpl{uow: uow}
}

func (c *equipmentCommandsImpl) CreateModel(ctx context.Context, actor shared.Actor, p ModelParams) (uuid.UUID, error) {
	if !actor.IsAdmin() {
		return uuid.Nil, ErrForbidden
	}

	category, err := equipment.NewCategory(p.Category)
	if err != nil {
		return uuid.Nil, err
	}
	m, err := equipment.NewModel(p.Name, p.Description, category, p.OsnovaOnly, p.Attributes)
	if err != nil {
		return uuid.Nil, err
	}

	var modelID uuid.UUID
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		id, createErr := tx.Equipment().CreateModel(ctx, m)
		if createErr != nil {
			if infra.IsKind(createErr, infra.KindDuplicateKey) {
				return errs.Mark(createErr, ErrModelAlreadyExists)
			}
			return createErr
		}
		modelID = id
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return modelID, nil
}

func (c *equipmentCommandsImpl) UpdateModel(ctx context.Context, actor shared.Actor, modelID uuid.UUID, p ModelParams) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	category, err := equipment.NewCategory(p.Category)
	if err != nil {
		return err
	}

	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		snap, readErr := tx.Reads().ModelByID(ctx, modelID)
		if readErr != nil {
			if infra.IsKind(readErr, infra.KindNotFound) {
				return ErrModelNotFound
			}
			return readErr
		}

		m := equipment.ReconstructModel(
			snap.ID, snap.Code, snap.Name, "", snap.Category, snap.Access,
			nil, time.Time{}, time.Time{},
		)
		if updErr := m.Update(p.Name, p.Description, category, p.OsnovaOnly, p.Attributes); updErr != nil {
			return updErr
		}

		if updErr := tx.Equipment().UpdateModel(ctx, m); updErr != nil {
			if infra.IsKind(updErr, infra.KindDuplicateKey) {
				return errs.Mark(updErr, ErrModelAlreadyExists)
			}
			return updErr
		}
		return nil
	})
}

func (c *equipmentCommandsImpl) DeleteModel(ctx context.Context, actor shared.Actor, modelID uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if _, readErr := tx.Reads().ModelByID(ctx, modelID); readErr != nil {
			if infra.IsKind(readErr, infra.KindNotFound) {
				return ErrModelNotFound
			}
			return readErr
		}

		if delErr := tx.Equipment().DeleteModel(ctx, modelID); delErr != nil {
			if infra.IsKind(delErr, infra.KindForeignKeyViolated) {
				return errs.Mark(delErr, ErrModelHasItems)
			}
			return delErr
		}
		return nil
	})
}

// CreateItem derives the next sequence from the current unit count. Two admins
// racing for the same model collide on the inventory number unique index; the
// loser re-reads the count and retries with a short backoff.
func (c *equipmentCommandsImpl) CreateItem(ctx context.Context, actor shared.Actor, modelID uuid.UUID) (uuid.UUID, string, error) {
	if !actor.IsAdmin() {
		return uuid.Nil, "", ErrForbidden
	}

	var (
		itemID uuid.UUID
		invNum string
	)
	for attempt := 1; attempt <= inventoryNumberAttempts; attempt++ {
		err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			model, readErr := tx.Reads().ModelByID(ctx, modelID)
			if readErr != nil {
				if infra.IsKind(readErr, infra.KindNotFound) {
					return ErrModelNotFound
				}
				return readErr
			}

			count, countErr := tx.Equipment().CountItemsByModel(ctx, modelID)
			if countErr != nil {
				return countErr
			}

			num := equipment.FormatInventoryNumber(model.Category, model.Code, int(count)+1)
			item, itemErr := equipment.NewItem(modelID, num)
			if itemErr != nil {
				return itemErr
			}

			id, createErr := tx.Equipment().CreateItem(ctx, item)
			if createErr != nil {
				return createErr
			}
			itemID = id
			invNum = num
			return nil
		})
		if err == nil {
			return itemID, invNum, nil
		}
		if !infra.IsKind(err, infra.KindDuplicateKey) {
			return uuid.Nil, "", err
		}

		select {
		case <-ctx.Done():
			return uuid.Nil, "", ctx.Err()
		case <-time.After(inventoryRetryBaseDelay * time.Duration(attempt)):
		}
	}

	return uuid.Nil, "", ErrItemCreationFailed
}

func (c *equipmentCommandsImpl) DeleteItem(ctx context.Context, actor shared.Actor, itemID uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if _, readErr := tx.Reads().ItemByID(ctx, itemID); readErr != nil {
			if infra.IsKind(readErr, infra.KindNotFound) {
				return ErrItemNotFound
			}
			return readErr
		}
		return tx.Equipment().DeleteItem(ctx, itemID)
	})
}

func (c *equipmentCommandsImpl) SetItemAvailability(ctx context.Context, actor shared.Actor, itemID uuid.UUID, available bool) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if _, readErr := tx.Reads().ItemByID(ctx, itemID); readErr != nil {
			if infra.IsKind(readErr, infra.KindNotFound) {
				return ErrItemNotFound
			}
			return readErr
		}
		return tx.Equipment().SetItemAvailability(ctx, itemID, available)
	})
}
