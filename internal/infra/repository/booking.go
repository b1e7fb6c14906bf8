package repository

import (
	"context"
	"encoding/json"

	"gearbook/internal/domain/booking"
	"gearbook/internal/infra"
	"gearbook/internal/infra/db"
	"gearbook/internal/usecase/shared"

	"github.com/google/uuid"
)

type BookingRepository struct {
	db db.DBTX
}

func NewBookingRepository(dbtx db.DBTX) shared.BookingRepository {
	return &BookingRepository{db: dbtx}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) (uuid.UUID, error) {
	warnings, err := json.Marshal(b.Warnings())
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to marshal booking warnings", err)
	}

	const insertBooking = `
		INSERT INTO bookings (id, user_id, reason, start_time, end_time, status, comment, admin_comment, warnings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	window := b.Window()
	_, err = r.db.Exec(ctx, insertBooking,
		b.ID(), b.UserID(), b.Reason(), window.Start(), window.End(),
		b.Status().String(), b.Comment(), b.AdminComment(), warnings, b.CreatedAt(),
	)
	if err != nil {
		return uuid.Nil, wrapWriteErr("failed to create booking", err)
	}

	const insertItem = `
		INSERT INTO booking_items (id, booking_id, equipment_item_id, returned)
		VALUES ($1, $2, $3, $4)
	`
	for _, item := range b.Items() {
		_, err = r.db.Exec(ctx, insertItem, item.ID(), b.ID(), item.EquipmentItemID(), item.Returned())
		if err != nil {
			return uuid.Nil, wrapWriteErr("failed to create booking item", err)
		}
	}

	return b.ID(), nil
}

// The status guard makes the transition a compare-and-set: a concurrent
// transition that committed between the caller's read and this write leaves
// zero rows matching, and the stale write is refused instead of overwriting
// the newer state.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, status booking.Status, adminComment *string) error {
	const query = `
		UPDATE bookings
		SET status = $3, admin_comment = COALESCE($4, admin_comment), updated_at = now()
		WHERE id = $1 AND status = $2
	`
	tag, err := r.db.Exec(ctx, query, id, expected.String(), status.String(), adminComment)
	if err != nil {
		return wrapWriteErr("failed to update booking status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking missing or no longer in expected status", nil, infra.KindConflict)
	}
	return nil
}

func (r *BookingRepository) SetItemReturned(ctx context.Context, bookingItemID uuid.UUID, returned bool) error {
	const query = `UPDATE booking_items SET returned = $2 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, bookingItemID, returned)
	if err != nil {
		return wrapWriteErr("failed to update booking item returned flag", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking item not found", nil, infra.KindNotFound)
	}
	return nil
}
