//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"gearbook/internal/domain/booking"
	"gearbook/internal/pkg/clock"
	"gearbook/internal/usecase/commands"
	"gearbook/internal/usecase/shared"
	"gearbook/tests/common/builder"
	"gearbook/tests/common/fake"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type bookingFixture struct {
	uow      *fake.UoW
	commands commands.BookingCommands
	user     *shared.UserSnapshot
	admin    *shared.UserSnapshot
	model    *shared.ModelSnapshot
	items    []shared.ItemSnapshot
}

func newBookingFixture(t *testing.T, itemCount int) *bookingFixture {
	t.Helper()

	f := &bookingFixture{uow: fake.NewUoW()}
	f.commands = commands.NewBookingCommands(f.uow, clock.NewMockClock(testNow))

	f.user = builder.NewUserBuilder().BuildSnapshot()
	f.admin = builder.NewUserBuilder().AsAdmin().BuildSnapshot()
	f.uow.AddUser(f.user).AddUser(f.admin)

	f.model = builder.NewModelBuilder().BuildSnapshot()
	f.uow.AddModel(f.model)

	for i := 0; i < itemCount; i++ {
		item := builder.NewItemBuilder().WithModelID(f.model.ID).BuildSnapshot()
		f.items = append(f.items, item)
		f.uow.AddItem(item)
	}
	return f
}

func (f *bookingFixture) params(quantity int) commands.CreateBookingParams {
	return commands.CreateBookingParams{
		Reason:    "studio shoot",
		StartTime: testNow.Add(72 * time.Hour),
		EndTime:   testNow.Add(96 * time.Hour),
		Equipment: []commands.BookingLine{{ModelName: f.model.Name, Quantity: quantity}},
	}
}

func (f *bookingFixture) actorUser() shared.Actor {
	return shared.Actor{ID: f.user.ID, Role: f.user.Role}
}

func (f *bookingFixture) actorAdmin() shared.Actor {
	return shared.Actor{ID: f.admin.ID, Role: f.admin.Role}
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("claims items and enqueues notification", func(t *testing.T) {
		f := newBookingFixture(t, 2)

		id, err := f.commands.CreateBooking(ctx, f.user.ID, f.params(2))
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, id)

		stored := f.uow.Bookings[id]
		require.NotNil(t, stored)
		assert.Equal(t, booking.StatusPending, stored.Snapshot.Status)
		assert.Len(t, stored.ItemIDs, 2)

		require.Len(t, f.uow.Jobs, 1)
		assert.Equal(t, commands.EventBookingCreated, f.uow.Jobs[0].Topic)
	})

	t.Run("unknown requester reported before window validation", func(t *testing.T) {
		f := newBookingFixture(t, 1)
		p := f.params(1)
		p.StartTime, p.EndTime = p.EndTime, p.StartTime

		_, err := f.commands.CreateBooking(ctx, uuid.New(), p)
		require.ErrorIs(t, err, commands.ErrUserNotFound)
	})

	t.Run("input validation", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*commands.CreateBookingParams)
			errIs  error
		}{
			{
				name: "inverted window",
				mutate: func(p *commands.CreateBookingParams) {
					p.StartTime, p.EndTime = p.EndTime, p.StartTime
				},
				errIs: commands.ErrInvalidRange,
			},
			{
				name:   "empty equipment list",
				mutate: func(p *commands.CreateBookingParams) { p.Equipment = nil },
				errIs:  commands.ErrEmptyEquipmentList,
			},
			{
				name:   "zero quantity",
				mutate: func(p *commands.CreateBookingParams) { p.Equipment[0].Quantity = 0 },
				errIs:  commands.ErrInvalidQuantity,
			},
			{
				name:   "unknown model",
				mutate: func(p *commands.CreateBookingParams) { p.Equipment[0].ModelName = "Ghost Cam" },
				errIs:  commands.ErrModelNotFound,
			},
			{
				name:   "blank reason",
				mutate: func(p *commands.CreateBookingParams) { p.Reason = "  " },
				errIs:  booking.ErrEmptyReason,
			},
		}

		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				f := newBookingFixture(t, 1)
				p := f.params(1)
				c.mutate(&p)

				_, err := f.commands.CreateBooking(ctx, f.user.ID, p)
				require.ErrorIs(t, err, c.errIs)
				assert.Empty(t, f.uow.Bookings)
			})
		}
	})

	t.Run("model name matches case-insensitively", func(t *testing.T) {
		f := newBookingFixture(t, 1)
		p := f.params(1)
		p.Equipment[0].ModelName = "cAnOn eos r5"

		_, err := f.commands.CreateBooking(ctx, f.user.ID, p)
		require.NoError(t, err)
	})

	t.Run("access tier enforced per line", func(t *testing.T) {
		f := newBookingFixture(t, 1)

		ronin := builder.NewModelBuilder().WithName("DJI Ronin 4D").BuildSnapshot()
		f.uow.AddModel(ronin)
		f.uow.AddItem(builder.NewItemBuilder().WithModelID(ronin.ID).WithInventoryNumber("0-002-01").BuildSnapshot())

		p := f.params(1)
		p.Equipment = append(p.Equipment, commands.BookingLine{ModelName: ronin.Name, Quantity: 1})

		_, err := f.commands.CreateBooking(ctx, f.user.ID, p)
		require.ErrorIs(t, err, commands.ErrAccessDenied)
		assert.Empty(t, f.uow.Bookings)

		_, err = f.commands.CreateBooking(ctx, f.admin.ID, p)
		require.NoError(t, err)
	})

	t.Run("insufficient availability fails whole booking", func(t *testing.T) {
		f := newBookingFixture(t, 1)

		_, err := f.commands.CreateBooking(ctx, f.user.ID, f.params(2))
		require.ErrorIs(t, err, commands.ErrInsufficientAvailability)
		assert.Empty(t, f.uow.Bookings)
		assert.Empty(t, f.uow.Jobs)
	})

	t.Run("overlapping booking blocks the item", func(t *testing.T) {
		f := newBookingFixture(t, 1)

		_, err := f.commands.CreateBooking(ctx, f.user.ID, f.params(1))
		require.NoError(t, err)

		_, err = f.commands.CreateBooking(ctx, f.admin.ID, f.params(1))
		require.ErrorIs(t, err, commands.ErrInsufficientAvailability)
	})

	t.Run("adjacent window books the same item", func(t *testing.T) {
		f := newBookingFixture(t, 1)

		_, err := f.commands.CreateBooking(ctx, f.user.ID, f.params(1))
		require.NoError(t, err)

		p := f.params(1)
		p.StartTime = testNow.Add(96 * time.Hour)
		p.EndTime = testNow.Add(120 * time.Hour)
		_, err = f.commands.CreateBooking(ctx, f.admin.ID, p)
		require.NoError(t, err)
	})

	t.Run("cancelled booking frees the item", func(t *testing.T) {
		f := newBookingFixture(t, 1)

		id, err := f.commands.CreateBooking(ctx, f.user.ID, f.params(1))
		require.NoError(t, err)
		require.NoError(t, f.commands.Cancel(ctx, f.actorUser(), id, nil))

		_, err = f.commands.CreateBooking(ctx, f.admin.ID, f.params(1))
		require.NoError(t, err)
	})

	t.Run("storage conflict surfaces as insufficient availability", func(t *testing.T) {
		f := newBookingFixture(t, 1)
		f.uow.FailCreateBooking = true

		_, err := f.commands.CreateBooking(ctx, f.user.ID, f.params(1))
		require.ErrorIs(t, err, commands.ErrInsufficientAvailability)
	})

	t.Run("short notice window carries warning", func(t *testing.T) {
		f := newBookingFixture(t, 1)
		p := f.params(1)
		p.StartTime = testNow.Add(12 * time.Hour)
		p.EndTime = testNow.Add(36 * time.Hour)

		id, err := f.commands.CreateBooking(ctx, f.user.ID, p)
		require.NoError(t, err)
		assert.Contains(t, f.uow.Bookings[id].Warnings, booking.WarningShortNotice)
	})
}

func TestBookingLifecycle(t *testing.T) {
	ctx := context.Background()

	create := func(t *testing.T, f *bookingFixture) uuid.UUID {
		t.Helper()
		id, err := f.commands.CreateBooking(ctx, f.user.ID, f.params(1))
		require.NoError(t, err)
		return id
	}

	t.Run("approve requires admin", func(t *testing.T) {
		f := newBookingFixture(t, 1)
		id := create(t, f)

		require.ErrorIs(t, f.commands.Approve(ctx, f.actorUser(), id, nil), commands.ErrForbidden)

		require.NoError(t, f.commands.Approve(ctx, f.actorAdmin(), id, nil))
		assert.Equal(t, booking.StatusApproved, f.uow.Bookings[id].Snapshot.Status)
		assert.Equal(t, "studio shoot", f.uow.Bookings[id].Snapshot.Reason)
	})

	t.Run("approve cannot resurrect a cancellation that won the race", func(t *testing.T) {
		f := newBookingFixture(t, 1)
		id := create(t, f)

		// Between the approver's read of the pending booking and its write,
		// the owner cancels and the freed unit is claimed by a new booking.
		var rebooked uuid.UUID
		raced := &racingUoW{UoW: f.uow}
		raced.afterBookingRead = func() {
			require.NoError(t, f.commands.Cancel(ctx, f.actorUser(), id, nil))
			var err error
			rebooked, err = f.commands.CreateBooking(ctx, f.admin.ID, f.params(1))
			require.NoError(t, err)
		}

		racedCommands := commands.NewBookingCommands(raced, clock.NewMockClock(testNow))
		err := racedCommands.Approve(ctx, f.actorAdmin(), id, nil)
		require.ErrorIs(t, err, booking.ErrInvalidStateTransition)

		assert.Equal(t, booking.StatusCancelled, f.uow.Bookings[id].Snapshot.Status)
		assert.Equal(t, booking.StatusPending, f.uow.Bookings[rebooked].Snapshot.Status)
	})

	t.Run("approve unknown booking", func(t *testing.T) {
		f := newBookingFixture(t, 1)
		require.ErrorIs(t, f.commands.Approve(ctx, f.actorAdmin(), uuid.New(), nil), commands.ErrBookingNotFound)
	})

	t.Run("reject only from pending and records reason", func(t *testing.T) {
		f := newBookingFixture(t, 1)
		id := create(t, f)

		require.ErrorIs(t, f.commands.Reject(ctx, f.actorUser(), id, "no"), commands.ErrForbidden)

		require.NoError(t, f.commands.Reject(ctx, f.actorAdmin(), id, "gear under repair"))
		stored := f.uow.Bookings[id]
		assert.Equal(t, booking.StatusCancelled, stored.Snapshot.Status)
		require.NotNil(t, stored.Snapshot.AdminComment)
		assert.Equal(t, "gear under repair", *stored.Snapshot.AdminComment)

		id2 := create(t, f)
		require.NoError(t, f.commands.Approve(ctx, f.actorAdmin(), id2, nil))
		require.ErrorIs(t, f.commands.Reject(ctx, f.actorAdmin(), id2, "late"), booking.ErrInvalidStateTransition)
	})

	t.Run("cancel by owner, admin, and stranger", func(t *testing.T) {
		f := newBookingFixture(t, 1)
		stranger := builder.NewUserBuilder().WithLogin("other.user").BuildSnapshot()
		f.uow.AddUser(stranger)

		id := create(t, f)
		err := f.commands.Cancel(ctx, shared.Actor{ID: stranger.ID, Role: stranger.Role}, id, nil)
		require.ErrorIs(t, err, commands.ErrForbidden)

		require.NoError(t, f.commands.Cancel(ctx, f.actorUser(), id, nil))
		require.ErrorIs(t, f.commands.Cancel(ctx, f.actorUser(), id, nil), booking.ErrAlreadyCancelled)
	})

	t.Run("owner cancellation never records a comment", func(t *testing.T) {
		f := newBookingFixture(t, 1)
		id := create(t, f)

		note := "cancelled by user"
		require.NoError(t, f.commands.Cancel(ctx, f.actorUser(), id, &note))
		assert.Nil(t, f.uow.Bookings[id].Snapshot.AdminComment)
	})

	t.Run("admin cancellation records the comment", func(t *testing.T) {
		f := newBookingFixture(t, 1)
		id := create(t, f)

		note := "schedule conflict"
		require.NoError(t, f.commands.Cancel(ctx, f.actorAdmin(), id, &note))
		stored := f.uow.Bookings[id]
		require.NotNil(t, stored.Snapshot.AdminComment)
		assert.Equal(t, note, *stored.Snapshot.AdminComment)
	})

	t.Run("complete requires approved", func(t *testing.T) {
		f := newBookingFixture(t, 1)
		id := create(t, f)

		require.ErrorIs(t, f.commands.Complete(ctx, f.actorUser(), id), commands.ErrForbidden)
		require.ErrorIs(t, f.commands.Complete(ctx, f.actorAdmin(), id), booking.ErrInvalidStateTransition)

		require.NoError(t, f.commands.Approve(ctx, f.actorAdmin(), id, nil))
		require.NoError(t, f.commands.Complete(ctx, f.actorAdmin(), id))
		assert.Equal(t, booking.StatusCompleted, f.uow.Bookings[id].Snapshot.Status)
	})

	t.Run("each transition enqueues a notification", func(t *testing.T) {
		f := newBookingFixture(t, 1)
		id := create(t, f)
		require.NoError(t, f.commands.Approve(ctx, f.actorAdmin(), id, nil))
		require.NoError(t, f.commands.Complete(ctx, f.actorAdmin(), id))

		topics := make([]string, 0, len(f.uow.Jobs))
		for _, j := range f.uow.Jobs {
			topics = append(topics, j.Topic)
		}
		assert.Equal(t, []string{
			commands.EventBookingCreated,
			commands.EventBookingApproved,
			commands.EventBookingCompleted,
		}, topics)
	})
}

func TestSetItemReturned(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*bookingFixture, uuid.UUID) {
		t.Helper()
		f := newBookingFixture(t, 1)
		_, err := f.commands.CreateBooking(ctx, f.user.ID, f.params(1))
		require.NoError(t, err)

		for id := range f.uow.BookingItems {
			return f, id
		}
		t.Fatal("no booking item stored")
		return nil, uuid.Nil
	}

	t.Run("owner marks returned", func(t *testing.T) {
		f, itemID := setup(t)
		require.NoError(t, f.commands.SetItemReturned(ctx, f.actorUser(), itemID, true))
		assert.True(t, f.uow.BookingItems[itemID].Returned)
	})

	t.Run("admin marks returned", func(t *testing.T) {
		f, itemID := setup(t)
		require.NoError(t, f.commands.SetItemReturned(ctx, f.actorAdmin(), itemID, true))
	})

	t.Run("stranger forbidden", func(t *testing.T) {
		f, itemID := setup(t)
		stranger := builder.NewUserBuilder().WithLogin("other.user").BuildSnapshot()
		f.uow.AddUser(stranger)

		err := f.commands.SetItemReturned(ctx, shared.Actor{ID: stranger.ID, Role: stranger.Role}, itemID, true)
		require.ErrorIs(t, err, commands.ErrForbidden)
	})

	t.Run("unknown booking item", func(t *testing.T) {
		f, _ := setup(t)
		err := f.commands.SetItemReturned(ctx, f.actorUser(), uuid.New(), true)
		require.ErrorIs(t, err, commands.ErrBookingItemNotFound)
	})
}

// racingUoW lets a competing transaction commit between a command's booking
// read and its guarded write. Its Within does not roll back on failure: the
// hook's writes stand in for transactions that already committed elsewhere.
type racingUoW struct {
	*fake.UoW
	afterBookingRead func()
}

func (u *racingUoW) Within(ctx context.Context, fn func(context.Context, shared.Tx) error) error {
	var tx shared.Tx
	_ = u.UoW.Within(ctx, func(_ context.Context, t shared.Tx) error {
		tx = t
		return nil
	})
	return fn(ctx, &racingTx{Tx: tx, u: u})
}

type racingTx struct {
	shared.Tx
	u *racingUoW
}

func (t *racingTx) Reads() shared.CommandReads {
	return &racingReads{CommandReads: t.Tx.Reads(), u: t.u}
}

type racingReads struct {
	shared.CommandReads
	u *racingUoW
}

func (r *racingReads) BookingByID(ctx context.Context, id uuid.UUID) (*shared.BookingSnapshot, error) {
	snap, err := r.CommandReads.BookingByID(ctx, id)
	if hook := r.u.afterBookingRead; hook != nil {
		r.u.afterBookingRead = nil
		hook()
	}
	return snap, err
}
