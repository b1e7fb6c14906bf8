package booking

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus          = errors.New("invalid booking status")
	ErrEmptyReason            = errors.New("booking reason cannot be empty")
	ErrNoItems                = errors.New("booking must claim at least one item")
	ErrInvalidStateTransition = errors.New("invalid booking state transition")
	ErrAlreadyCancelled       = errors.New("booking is already cancelled")
)

// Item is a claim on one physical equipment unit for the booking's window.
// The returned flag tracks physical hand-back and is orthogonal to the
// booking status.
type Item struct {
	id              uuid.UUID
	equipmentItemID uuid.UUID
	window          Window
	returned        bool
}

func NewItem(equipmentItemID uuid.UUID, window Window) Item {
	return Item{
		id:              uuid.New(),
		equipmentItemID: equipmentItemID,
		window:          window,
	}
}

func ReconstructItem(id, equipmentItemID uuid.UUID, window Window, returned bool) Item {
	return Item{
		id:              id,
		equipmentItemID: equipmentItemID,
		window:          window,
		returned:        returned,
	}
}

func (i Item) ID() uuid.UUID              { return i.id }
func (i Item) EquipmentItemID() uuid.UUID { return i.equipmentItemID }
func (i Item) Window() Window             { return i.window }
func (i Item) Returned() bool             { return i.returned }

// Booking is the reservation aggregate: one user, one window, one or more
// claimed items. Creation is all-or-nothing; a booking without items never
// exists.
type Booking struct {
	id           uuid.UUID
	userID       uuid.UUID
	reason       string
	window       Window
	status       Status
	comment      *string
	adminComment *string
	warnings     Warnings
	items        []Item
	createdAt    time.Time
}

func NewBooking(now time.Time, userID uuid.UUID, reason string, window Window, comment *string, equipmentItemIDs []uuid.UUID) (*Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}
	if len(equipmentItemIDs) == 0 {
		return nil, ErrNoItems
	}

	items := make([]Item, 0, len(equipmentItemIDs))
	for _, itemID := range equipmentItemIDs {
		items = append(items, NewItem(itemID, window))
	}

	return &Booking{
		id:        uuid.New(),
		userID:    userID,
		reason:    reason,
		window:    window,
		status:    StatusPending,
		comment:   comment,
		warnings:  ComputeWarnings(now, window),
		items:     items,
		createdAt: now,
	}, nil
}

func ReconstructBooking(
	id, userID uuid.UUID,
	reason string,
	window Window,
	status Status,
	comment, adminComment *string,
	warnings Warnings,
	items []Item,
	createdAt time.Time,
) *Booking {
	return &Booking{
		id:           id,
		userID:       userID,
		reason:       reason,
		window:       window,
		status:       status,
		comment:      comment,
		adminComment: adminComment,
		warnings:     warnings,
		items:        items,
		createdAt:    createdAt,
	}
}

func (b *Booking) ID() uuid.UUID         { return b.id }
func (b *Booking) UserID() uuid.UUID     { return b.userID }
func (b *Booking) Reason() string        { return b.reason }
func (b *Booking) Window() Window        { return b.window }
func (b *Booking) Status() Status        { return b.status }
func (b *Booking) Comment() *string      { return b.comment }
func (b *Booking) AdminComment() *string { return b.adminComment }
func (b *Booking) Warnings() Warnings    { return b.warnings.Clone() }
func (b *Booking) Items() []Item         { return b.items }
func (b *Booking) CreatedAt() time.Time  { return b.createdAt }

func (b *Booking) OwnedBy(userID uuid.UUID) bool {
	return b.userID == userID
}

// Approve moves Pending to Approved. Only administrators approve; the caller
// enforces the actor.
func (b *Booking) Approve(adminComment *string) error {
	if b.status != StatusPending {
		return ErrInvalidStateTransition
	}
	b.status = StatusApproved
	if adminComment != nil {
		b.adminComment = adminComment
	}
	return nil
}

// Cancel moves Pending or Approved to Cancelled. A second cancellation is a
// distinct error so callers never double-apply side effects.
func (b *Booking) Cancel(adminComment *string) error {
	if b.status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	if b.status.IsTerminal() {
		return ErrInvalidStateTransition
	}
	b.status = StatusCancelled
	if adminComment != nil {
		b.adminComment = adminComment
	}
	return nil
}

// Complete moves Approved to Completed. It does not touch the per-item
// returned flags.
func (b *Booking) Complete() error {
	if b.status != StatusApproved {
		return ErrInvalidStateTransition
	}
	b.status = StatusCompleted
	return nil
}
