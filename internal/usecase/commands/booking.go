package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"gearbook/internal/domain/booking"
	"gearbook/internal/infra"
	"gearbook/internal/pkg/clock"
	"gearbook/internal/pkg/errs"
	"gearbook/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound             = errs.New("user not found")
	ErrInvalidRange             = errs.New("window start must be before window end")
	ErrEmptyEquipmentList       = errs.New("no equipment requested")
	ErrInvalidQuantity          = errs.New("requested quantity must be positive")
	ErrModelNotFound            = errs.New("equipment model not found")
	ErrAccessDenied             = errs.New("access tier too low for requested model")
	ErrInsufficientAvailability = errs.New("not enough available equipment")
	ErrBookingNotFound          = errs.New("booking not found")
	ErrBookingItemNotFound      = errs.New("booking item not found")
	ErrForbidden                = errs.New("operation not permitted for this actor")
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingApproved  = "booking_approved"
	EventBookingRejected  = "booking_rejected"
	EventBookingCancelled = "booking_cancelled"
	EventBookingCompleted = "booking_completed"

	notificationKindTelegram = "telegram"
)

type BookingLine struct {
	ModelName string
	Quantity  int
}

type CreateBookingParams struct {
	Reason    string
	StartTime time.Time
	EndTime   time.Time
	Comment   *string
	Equipment []BookingLine
}

type BookingCommands interface {
	// CreateBooking resolves every line to concrete equipment items and
	// commits the whole claim atomically; no partial booking survives a
	// failed line.
	CreateBooking(ctx context.Context, requesterID uuid.UUID, p CreateBookingParams) (uuid.UUID, error)
	Approve(ctx context.Context, actor shared.Actor, bookingID uuid.UUID, adminComment *string) error
	Reject(ctx context.Context, actor shared.Actor, bookingID uuid.UUID, reason string) error
	Cancel(ctx context.Context, actor shared.Actor, bookingID uuid.UUID, adminComment *string) error
	Complete(ctx context.Context, actor shared.Actor, bookingID uuid.UUID) error
	SetItemReturned(ctx context.Context, actor shared.Actor, bookingItemID uuid.UUID, returned bool) error
}

type bookingCommandsImpl struct {
	uow   shared.UnitOfWork
	clock clock.Clock
}

func NewBookingCommands(uow shared.UnitOfWork, clock clock.Clock) BookingCommands {
	return &bookingCommandsImpl{uow: uow, clock: clock}
}

type resolvedLine struct {
	model    *shared.ModelSnapshot
	quantity int
}

func (c *bookingCommandsImpl) CreateBooking(ctx context.Context, requesterID uuid.UUID, p CreateBookingParams) (uuid.UUID, error) {
	requester, err := c.uow.Reads().UserByID(ctx, requesterID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return uuid.Nil, ErrUserNotFound
		}
		return uuid.Nil, err
	}

	window, err := booking.NewWindow(p.StartTime, p.EndTime)
	if err != nil {
		return uuid.Nil, errs.Mark(err, ErrInvalidRange)
	}
	if len(p.Equipment) == 0 {
		return uuid.Nil, ErrEmptyEquipmentList
	}

	var bookingID uuid.UUID
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		lines, lineErr := c.resolveLines(ctx, tx, requester, p.Equipment)
		if lineErr != nil {
			return lineErr
		}

		// Serialize against concurrent allocators for the same models before
		// reading availability; lock order is sorted to avoid deadlocks.
		modelIDs := make([]uuid.UUID, 0, len(lines))
		for _, l := range lines {
			modelIDs = append(modelIDs, l.model.ID)
		}
		sort.Slice(modelIDs, func(i, j int) bool {
			return bytes.Compare(modelIDs[i][:], modelIDs[j][:]) < 0
		})
		if lockErr := tx.Equipment().LockModelsForAllocation(ctx, modelIDs); lockErr != nil {
			return lockErr
		}

		claimed := make([]uuid.UUID, 0, len(lines))
		for _, l := range lines {
			items, availErr := tx.Equipment().FindAvailableItems(ctx, l.model.ID, window, int32(l.quantity))
			if availErr != nil {
				return availErr
			}
			if len(items) < l.quantity {
				return errs.Mark(
					errs.Newf("model %q: available %d, requested %d", l.model.Name, len(items), l.quantity),
					ErrInsufficientAvailability,
				)
			}
			for _, item := range items {
				claimed = append(claimed, item.ID)
			}
		}

		b, domainErr := booking.NewBooking(c.clock.Now(), requester.ID, p.Reason, window, p.Comment, claimed)
		if domainErr != nil {
			return domainErr
		}

		id, createErr := tx.Bookings().Create(ctx, b)
		if createErr != nil {
			if infra.IsKind(createErr, infra.KindConflict) {
				return errs.Mark(createErr, ErrInsufficientAvailability)
			}
			return createErr
		}
		bookingID = id

		c.notify(ctx, tx, id, EventBookingCreated, "", booking.StatusPending)
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return bookingID, nil
}

func (c *bookingCommandsImpl) resolveLines(ctx context.Context, tx shared.Tx, requester *shared.UserSnapshot, reqLines []BookingLine) ([]resolvedLine, error) {
	lines := make([]resolvedLine, 0, len(reqLines))
	for _, line := range reqLines {
		if line.Quantity <= 0 {
			return nil, errs.Mark(
				errs.Newf("model %q: quantity must be greater than 0", line.ModelName),
				ErrInvalidQuantity,
			)
		}

		model, err := tx.Reads().ModelByName(ctx, line.ModelName)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, errs.Mark(errs.Newf("model %q not found", line.ModelName), ErrModelNotFound)
			}
			return nil, err
		}

		if !requester.Role.Satisfies(model.Access) {
			return nil, errs.Mark(
				errs.Newf("model %q requires %s access", model.Name, model.Access),
				ErrAccessDenied,
			)
		}

		lines = append(lines, resolvedLine{model: model, quantity: line.Quantity})
	}
	return lines, nil
}

func (c *bookingCommandsImpl) Approve(ctx context.Context, actor shared.Actor, bookingID uuid.UUID, adminComment *string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := c.loadBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		oldStatus := b.Status()

		if err := b.Approve(adminComment); err != nil {
			return err
		}
		if err := storeTransition(ctx, tx, bookingID, oldStatus, b); err != nil {
			return err
		}

		c.notify(ctx, tx, bookingID, EventBookingApproved, oldStatus, b.Status())
		return nil
	})
}

func (c *bookingCommandsImpl) Reject(ctx context.Context, actor shared.Actor, bookingID uuid.UUID, reason string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := c.loadBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		oldStatus := b.Status()

		// Rejection only applies to requests still awaiting a decision.
		if oldStatus != booking.StatusPending {
			return booking.ErrInvalidStateTransition
		}
		if err := b.Cancel(&reason); err != nil {
			return err
		}
		if err := storeTransition(ctx, tx, bookingID, oldStatus, b); err != nil {
			return err
		}

		c.notify(ctx, tx, bookingID, EventBookingRejected, oldStatus, b.Status())
		return nil
	})
}

func (c *bookingCommandsImpl) Cancel(ctx context.Context, actor shared.Actor, bookingID uuid.UUID, adminComment *string) error {
	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := c.loadBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && !b.OwnedBy(actor.ID) {
			return ErrForbidden
		}
		oldStatus := b.Status()

		// Only an administrator's comment is recorded on cancellation.
		var comment *string
		if actor.IsAdmin() {
			comment = adminComment
		}
		if err := b.Cancel(comment); err != nil {
			return err
		}
		if err := storeTransition(ctx, tx, bookingID, oldStatus, b); err != nil {
			return err
		}

		c.notify(ctx, tx, bookingID, EventBookingCancelled, oldStatus, b.Status())
		return nil
	})
}

func (c *bookingCommandsImpl) Complete(ctx context.Context, actor shared.Actor, bookingID uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := c.loadBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		oldStatus := b.Status()

		if err := b.Complete(); err != nil {
			return err
		}
		if err := storeTransition(ctx, tx, bookingID, oldStatus, b); err != nil {
			return err
		}

		c.notify(ctx, tx, bookingID, EventBookingCompleted, oldStatus, b.Status())
		return nil
	})
}

func (c *bookingCommandsImpl) SetItemReturned(ctx context.Context, actor shared.Actor, bookingItemID uuid.UUID, returned bool) error {
	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		item, err := tx.Reads().BookingItemByID(ctx, bookingItemID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrBookingItemNotFound
			}
			return err
		}

		parent, err := tx.Reads().BookingByID(ctx, item.BookingID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && parent.UserID != actor.ID {
			return ErrForbidden
		}

		return tx.Bookings().SetItemReturned(ctx, bookingItemID, returned)
	})
}

// storeTransition persists a lifecycle change guarded by the status the
// aggregate was loaded with. When a competing transition committed between
// the read and this write, the store refuses the stale write and the command
// fails the same way an out-of-order transition does.
func storeTransition(ctx context.Context, tx shared.Tx, id uuid.UUID, from booking.Status, b *booking.Booking) error {
	if err := tx.Bookings().UpdateStatus(ctx, id, from, b.Status(), b.AdminComment()); err != nil {
		if infra.IsKind(err, infra.KindConflict) {
			return booking.ErrInvalidStateTransition
		}
		return err
	}
	return nil
}

// loadBooking rehydrates the aggregate for a lifecycle transition; the item
// claims stay untouched by status changes and are not loaded.
func (c *bookingCommandsImpl) loadBooking(ctx context.Context, tx shared.Tx, id uuid.UUID) (*booking.Booking, error) {
	snap, err := tx.Reads().BookingByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	window, err := booking.NewWindow(snap.StartTime, snap.EndTime)
	if err != nil {
		return nil, err
	}

	return booking.ReconstructBooking(
		snap.ID, snap.UserID, snap.Reason, window, snap.Status,
		nil, snap.AdminComment, booking.Warnings{}, nil, snap.CreatedAt,
	), nil
}

// notify writes an outbox job for the notification sink. Delivery problems
// must never undo the state change that triggered them, so failures are
// logged and swallowed.
func (c *bookingCommandsImpl) notify(ctx context.Context, tx shared.Tx, bookingID uuid.UUID, event string, oldStatus, newStatus booking.Status) {
	payload, err := json.Marshal(map[string]any{
		"booking_id": bookingID,
		"event":      event,
		"old_status": oldStatus.String(),
		"new_status": newStatus.String(),
	})
	if err != nil {
		slog.Warn("failed to marshal notification payload", "event", event, "error", err.Error())
		return
	}

	if err := tx.Notifications().CreateJob(ctx, notificationKindTelegram, event, payload, c.clock.Now()); err != nil {
		slog.Warn("failed to enqueue notification job", "event", event, "booking_id", bookingID.String(), "error", err.Error())
	}
}
