package repository

import (
	"context"
	"encoding/json"

	"gearbook/internal/domain/booking"
	"gearbook/internal/domain/equipment"
	"gearbook/internal/infra"
	"gearbook/internal/infra/db"
	"gearbook/internal/usecase/shared"

	"github.com/google/uuid"
)

type EquipmentRepository struct {
	db db.DBTX
}

func NewEquipmentRepository(dbtx db.DBTX) shared.EquipmentRepository {
	return &EquipmentRepository{db: dbtx}
}

// LockModelsForAllocation takes one advisory transaction lock per model so
// concurrent allocations of the same model serialize. The locks release on
// commit or rollback.
func (r *EquipmentRepository) LockModelsForAllocation(ctx context.Context, modelIDs []uuid.UUID) error {
	const query = `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`
	for _, id := range modelIDs {
		if _, err := r.db.Exec(ctx, query, id); err != nil {
			return infra.WrapRepoErr("failed to take model allocation lock", err)
		}
	}
	return nil
}

// FindAvailableItems returns units of the model that are in service and have
// no active booking overlapping the half-open window.
func (r *EquipmentRepository) FindAvailableItems(ctx context.Context, modelID uuid.UUID, window booking.Window, limit int32) ([]shared.ItemSnapshot, error) {
	const query = `
		SELECT i.id, i.model_id, i.inventory_number, i.available
		FROM equipment_items i
		WHERE i.model_id = $1
		  AND i.available
		  AND NOT EXISTS (
			SELECT 1
			FROM booking_items bi
			JOIN bookings b ON b.id = bi.booking_id
			WHERE bi.equipment_item_id = i.id
			  AND b.status IN ('pending', 'approved')
			  AND b.start_time < $3
			  AND b.end_time > $2
		  )
		ORDER BY i.inventory_number
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, modelID, window.Start(), window.End(), limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find available items", err)
	}
	defer rows.Close()

	var items []shared.ItemSnapshot
	for rows.Next() {
		var item shared.ItemSnapshot
		if err := rows.Scan(&item.ID, &item.ModelID, &item.InventoryNumber, &item.Available); err != nil {
			return nil, infra.WrapRepoErr("failed to scan available item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate available items", err)
	}
	return items, nil
}

func (r *EquipmentRepository) CreateModel(ctx context.Context, m *equipment.Model) (uuid.UUID, error) {
	attributes, err := json.Marshal(m.Attributes())
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to marshal model attributes", err)
	}

	const query = `
		INSERT INTO equipment_models (id, name, description, category, access, attributes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.Exec(ctx, query,
		m.ID(), m.Name(), m.Description(), m.Category().String(), m.Access().String(), attributes,
	)
	if err != nil {
		return uuid.Nil, wrapWriteErr("failed to create equipment model", err)
	}
	return m.ID(), nil
}

func (r *EquipmentRepository) UpdateModel(ctx context.Context, m *equipment.Model) error {
	attributes, err := json.Marshal(m.Attributes())
	if err != nil {
		return infra.WrapRepoErr("failed to marshal model attributes", err)
	}

	const query = `
		UPDATE equipment_models
		SET name = $2, description = $3, category = $4, access = $5, attributes = $6, updated_at = now()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		m.ID(), m.Name(), m.Description(), m.Category().String(), m.Access().String(), attributes,
	)
	if err != nil {
		return wrapWriteErr("failed to update equipment model", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("equipment model not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *EquipmentRepository) DeleteModel(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM equipment_models WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return wrapWriteErr("failed to delete equipment model", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("equipment model not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *EquipmentRepository) CreateItem(ctx context.Context, item *equipment.Item) (uuid.UUID, error) {
	const query = `
		INSERT INTO equipment_items (id, model_id, inventory_number, available)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, item.ID(), item.ModelID(), item.InventoryNumber(), item.Available())
	if err != nil {
		return uuid.Nil, wrapWriteErr("failed to create equipment item", err)
	}
	return item.ID(), nil
}

func (r *EquipmentRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM equipment_items WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return wrapWriteErr("failed to delete equipment item", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("equipment item not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *EquipmentRepository) SetItemAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	const query = `UPDATE equipment_items SET available = $2 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, available)
	if err != nil {
		return wrapWriteErr("failed to update equipment item availability", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("equipment item not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *EquipmentRepository) CountItemsByModel(ctx context.Context, modelID uuid.UUID) (int64, error) {
	const query = `SELECT count(*) FROM equipment_items WHERE model_id = $1`
	var count int64
	if err := r.db.QueryRow(ctx, query, modelID).Scan(&count); err != nil {
		return 0, infra.WrapRepoErr("failed to count equipment items", err)
	}
	return count, nil
}
