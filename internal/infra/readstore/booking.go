package readstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gearbook/internal/infra"
	"gearbook/internal/infra/db"
	"gearbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BookingStatusRow is the command-side projection for lifecycle transitions.
type BookingStatusRow struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Reason       string
	Status       string
	StartTime    time.Time
	EndTime      time.Time
	AdminComment *string
	CreatedAt    time.Time
}

// BookingItemRow is the command-side projection of one claimed unit.
type BookingItemRow struct {
	ID              uuid.UUID
	BookingID       uuid.UUID
	EquipmentItemID uuid.UUID
	Returned        bool
}

type BookingReadStore struct {
	db db.DBTX
}

func NewBookingReadStore(dbtx db.DBTX) *BookingReadStore {
	return &BookingReadStore{db: dbtx}
}

func (s *BookingReadStore) FindStatusRowByID(ctx context.Context, id uuid.UUID) (*BookingStatusRow, error) {
	const query = `
		SELECT id, user_id, reason, status, start_time, end_time, admin_comment, created_at
		FROM bookings
		WHERE id = $1
	`
	var r BookingStatusRow
	err := s.db.QueryRow(ctx, query, id).Scan(&r.ID, &r.UserID, &r.Reason, &r.Status, &r.StartTime, &r.EndTime, &r.AdminComment, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking by ID", err)
	}
	return &r, nil
}

func (s *BookingReadStore) FindItemRowByID(ctx context.Context, id uuid.UUID) (*BookingItemRow, error) {
	const query = `
		SELECT id, booking_id, equipment_item_id, returned
		FROM booking_items
		WHERE id = $1
	`
	var r BookingItemRow
	err := s.db.QueryRow(ctx, query, id).Scan(&r.ID, &r.BookingID, &r.EquipmentItemID, &r.Returned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("booking item not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking item by ID", err)
	}
	return &r, nil
}

func (s *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	const query = `
		SELECT b.id, b.user_id, u.name, b.reason, b.start_time, b.end_time,
		       b.status, b.comment, b.admin_comment, b.warnings, b.created_at
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		WHERE b.id = $1
	`
	var (
		v        queries.BookingView
		warnings []byte
	)
	err := s.db.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.UserID, &v.UserName, &v.Reason, &v.StartTime, &v.EndTime,
		&v.Status, &v.Comment, &v.AdminComment, &warnings, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking by ID", err)
	}
	if len(warnings) > 0 {
		if err := json.Unmarshal(warnings, &v.Warnings); err != nil {
			return nil, infra.WrapRepoErr("failed to unmarshal booking warnings", err)
		}
	}

	items, err := s.findItemViews(ctx, id)
	if err != nil {
		return nil, err
	}
	v.Items = items
	return &v, nil
}

func (s *BookingReadStore) findItemViews(ctx context.Context, bookingID uuid.UUID) ([]*queries.BookingItemView, error) {
	const query = `
		SELECT bi.id, bi.equipment_item_id, m.name, i.inventory_number, bi.returned
		FROM booking_items bi
		JOIN equipment_items i ON i.id = bi.equipment_item_id
		JOIN equipment_models m ON m.id = i.model_id
		WHERE bi.booking_id = $1
		ORDER BY i.inventory_number
	`
	rows, err := s.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list booking items", err)
	}
	defer rows.Close()

	var views []*queries.BookingItemView
	for rows.Next() {
		var v queries.BookingItemView
		if scanErr := rows.Scan(&v.ID, &v.EquipmentItemID, &v.ModelName, &v.InventoryNumber, &v.Returned); scanErr != nil {
			return nil, infra.WrapRepoErr("failed to scan booking item row", scanErr)
		}
		views = append(views, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate booking item rows", err)
	}
	return views, nil
}

const bookingListQuery = `
	SELECT b.id, b.user_id, u.name, b.reason, b.start_time, b.end_time, b.status,
	       (SELECT count(*) FROM booking_items bi WHERE bi.booking_id = b.id),
	       b.created_at
	FROM bookings b
	JOIN users u ON u.id = b.user_id
`

func (s *BookingReadStore) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*queries.BookingListItem, error) {
	const query = bookingListQuery + ` WHERE b.user_id = $1 ORDER BY b.created_at DESC`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings by user", err)
	}
	return s.collectListItems(rows)
}

func (s *BookingReadStore) FindAll(ctx context.Context, filter queries.BookingFilter) ([]*queries.BookingListItem, error) {
	const query = bookingListQuery + `
		WHERE ($1::text IS NULL OR b.status = $1::text)
		  AND ($2::text IS NULL OR EXISTS (
			SELECT 1
			FROM booking_items bi
			JOIN equipment_items i ON i.id = bi.equipment_item_id
			WHERE bi.booking_id = b.id
			  AND lower(i.inventory_number) = lower($2::text)
		  ))
		ORDER BY b.created_at DESC
	`
	rows, err := s.db.Query(ctx, query, filter.Status, filter.InventoryNumber)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings", err)
	}
	return s.collectListItems(rows)
}

func (s *BookingReadStore) collectListItems(rows pgx.Rows) ([]*queries.BookingListItem, error) {
	defer rows.Close()

	var views []*queries.BookingListItem
	for rows.Next() {
		var v queries.BookingListItem
		err := rows.Scan(&v.ID, &v.UserID, &v.UserName, &v.Reason, &v.StartTime,
			&v.EndTime, &v.Status, &v.ItemCount, &v.CreatedAt)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking row", err)
		}
		views = append(views, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate booking rows", err)
	}
	return views, nil
}
