//go:build unit || e2e

package builder

import (
	"time"

	"gearbook/internal/domain/booking"
	"gearbook/internal/usecase/queries"
	"gearbook/internal/usecase/shared"

	"github.com/google/uuid"
)

type BookingBuilder struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Reason    string
	StartTime time.Time
	EndTime   time.Time
	Status    string
	Comment   *string
	Now       time.Time
	ItemIDs   []uuid.UUID
}

func NewBookingBuilder() *BookingBuilder {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &BookingBuilder{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Reason:    "studio shoot",
		StartTime: now.Add(72 * time.Hour),
		EndTime:   now.Add(96 * time.Hour),
		Status:    "pending",
		Now:       now,
		ItemIDs:   []uuid.UUID{uuid.New()},
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) BuildDomain() (*booking.Booking, error) {
	window, err := booking.NewWindow(b.StartTime, b.EndTime)
	if err != nil {
		return nil, err
	}
	return booking.NewBooking(b.Now, b.UserID, b.Reason, window, b.Comment, b.ItemIDs)
}

func (b *BookingBuilder) BuildSnapshot() *shared.BookingSnapshot {
	return &shared.BookingSnapshot{
		ID:        b.ID,
		UserID:    b.UserID,
		Reason:    b.Reason,
		Status:    booking.Status(b.Status),
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		CreatedAt: b.Now,
	}
}

func (b *BookingBuilder) BuildView() *queries.BookingView {
	return &queries.BookingView{
		ID:        b.ID,
		UserID:    b.UserID,
		UserName:  "Test User",
		Reason:    b.Reason,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Status:    b.Status,
		Comment:   b.Comment,
		Items:     []*queries.BookingItemView{},
		CreatedAt: b.Now,
	}
}

func (b *BookingBuilder) BuildListItem() *queries.BookingListItem {
	return &queries.BookingListItem{
		ID:        b.ID,
		UserID:    b.UserID,
		UserName:  "Test User",
		Reason:    b.Reason,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Status:    b.Status,
		ItemCount: int64(len(b.ItemIDs)),
		CreatedAt: b.Now,
	}
}

func (b *BookingBuilder) WithUserID(id uuid.UUID) *BookingBuilder {
	b.UserID = id
	return b
}

func (b *BookingBuilder) WithReason(reason string) *BookingBuilder {
	b.Reason = reason
	return b
}

func (b *BookingBuilder) WithWindow(start, end time.Time) *BookingBuilder {
	b.StartTime = start
	b.EndTime = end
	return b
}

func (b *BookingBuilder) WithStatus(status string) *BookingBuilder {
	b.Status = status
	return b
}

func (b *BookingBuilder) WithItemIDs(ids ...uuid.UUID) *BookingBuilder {
	b.ItemIDs = ids
	return b
}
