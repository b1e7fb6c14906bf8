package readstore

import (
	"context"
	"encoding/json"
	"errors"

	"gearbook/internal/domain/booking"
	"gearbook/internal/infra"
	"gearbook/internal/infra/db"
	"gearbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type EquipmentReadStore struct {
	db db.DBTX
}

func NewEquipmentReadStore(dbtx db.DBTX) *EquipmentReadStore {
	return &EquipmentReadStore{db: dbtx}
}

const modelColumns = `
	m.id, m.code, m.name, m.description, m.category, m.access, m.attributes,
	(SELECT count(*) FROM equipment_items i WHERE i.model_id = m.id),
	m.created_at, m.updated_at
`

func (s *EquipmentReadStore) FindModels(ctx context.Context, filter queries.ModelFilter) ([]*queries.ModelView, error) {
	const query = `
		SELECT ` + modelColumns + `
		FROM equipment_models m
		WHERE ($1::text IS NULL OR m.category = $1::text)
		  AND ($2::text IS NULL OR m.name ILIKE '%' || $2::text || '%')
		ORDER BY m.name
	`
	rows, err := s.db.Query(ctx, query, filter.Category, filter.Name)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list equipment models", err)
	}
	defer rows.Close()

	var views []*queries.ModelView
	for rows.Next() {
		view, scanErr := scanModelView(rows)
		if scanErr != nil {
			return nil, infra.WrapRepoErr("failed to scan equipment model row", scanErr)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate equipment model rows", err)
	}
	return views, nil
}

func (s *EquipmentReadStore) FindModelByID(ctx context.Context, id uuid.UUID) (*queries.ModelView, error) {
	const query = `SELECT ` + modelColumns + ` FROM equipment_models m WHERE m.id = $1`
	view, err := scanModelView(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("equipment model not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find equipment model by ID", err)
	}
	return view, nil
}

func (s *EquipmentReadStore) FindModelByName(ctx context.Context, name string) (*queries.ModelView, error) {
	const query = `SELECT ` + modelColumns + ` FROM equipment_models m WHERE lower(m.name) = lower($1)`
	view, err := scanModelView(s.db.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("equipment model not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find equipment model by name", err)
	}
	return view, nil
}

func scanModelView(row pgx.Row) (*queries.ModelView, error) {
	var (
		v          queries.ModelView
		attributes []byte
	)
	err := row.Scan(&v.ID, &v.Code, &v.Name, &v.Description, &v.Category, &v.Access,
		&attributes, &v.ItemCount, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(attributes) > 0 {
		if err := json.Unmarshal(attributes, &v.Attributes); err != nil {
			return nil, err
		}
	}
	return &v, nil
}

const itemColumns = `i.id, i.model_id, m.name, i.inventory_number, i.available`

func (s *EquipmentReadStore) FindItemsByModelID(ctx context.Context, modelID uuid.UUID) ([]*queries.ItemView, error) {
	const query = `
		SELECT ` + itemColumns + `
		FROM equipment_items i
		JOIN equipment_models m ON m.id = i.model_id
		WHERE i.model_id = $1
		ORDER BY i.inventory_number
	`
	rows, err := s.db.Query(ctx, query, modelID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list equipment items", err)
	}
	defer rows.Close()

	var views []*queries.ItemView
	for rows.Next() {
		var v queries.ItemView
		if scanErr := rows.Scan(&v.ID, &v.ModelID, &v.ModelName, &v.InventoryNumber, &v.Available); scanErr != nil {
			return nil, infra.WrapRepoErr("failed to scan equipment item row", scanErr)
		}
		views = append(views, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate equipment item rows", err)
	}
	return views, nil
}

func (s *EquipmentReadStore) FindItemByID(ctx context.Context, id uuid.UUID) (*queries.ItemView, error) {
	const query = `
		SELECT ` + itemColumns + `
		FROM equipment_items i
		JOIN equipment_models m ON m.id = i.model_id
		WHERE i.id = $1
	`
	var v queries.ItemView
	err := s.db.QueryRow(ctx, query, id).Scan(&v.ID, &v.ModelID, &v.ModelName, &v.InventoryNumber, &v.Available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("equipment item not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find equipment item by ID", err)
	}
	return &v, nil
}

func (s *EquipmentReadStore) CountAvailableForWindow(ctx context.Context, modelID uuid.UUID, window booking.Window) (int64, error) {
	const query = `
		SELECT count(*)
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
	`
	var count int64
	if err := s.db.QueryRow(ctx, query, modelID, window.Start(), window.End()).Scan(&count); err != nil {
		return 0, infra.WrapRepoErr("failed to count available items", err)
	}
	return count, nil
}
