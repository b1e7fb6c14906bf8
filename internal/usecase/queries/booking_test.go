//go:build unit

package queries_test

import (
	"context"
	"testing"

	"gearbook/internal/domain/user"
	"gearbook/internal/infra"
	"gearbook/internal/usecase/queries"
	"gearbook/internal/usecase/shared"
	"gearbook/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBookingViewRepo struct {
	views map[uuid.UUID]*queries.BookingView
	lists map[uuid.UUID][]*queries.BookingListItem

	lastFilter queries.BookingFilter
}

func newStubBookingViewRepo() *stubBookingViewRepo {
	return &stubBookingViewRepo{
		views: map[uuid.UUID]*queries.BookingView{},
		lists: map[uuid.UUID][]*queries.BookingListItem{},
	}
}

func (r *stubBookingViewRepo) FindByID(_ context.Context, id uuid.UUID) (*queries.BookingView, error) {
	view, ok := r.views[id]
	if !ok {
		return nil, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return view, nil
}

func (r *stubBookingViewRepo) FindByUserID(_ context.Context, userID uuid.UUID) ([]*queries.BookingListItem, error) {
	return r.lists[userID], nil
}

func (r *stubBookingViewRepo) FindAll(_ context.Context, filter queries.BookingFilter) ([]*queries.BookingListItem, error) {
	r.lastFilter = filter
	var all []*queries.BookingListItem
	for _, items := range r.lists {
		all = append(all, items...)
	}
	return all, nil
}

func memberActor(id uuid.UUID) shared.Actor {
	return shared.Actor{ID: id, Role: user.RoleUser}
}

func adminActor() shared.Actor {
	return shared.Actor{ID: uuid.New(), Role: user.RoleAdmin}
}

func TestBookingGetByID(t *testing.T) {
	repo := newStubBookingViewRepo()
	q := queries.NewBookingQueries(repo)

	owner := uuid.New()
	view := builder.NewBookingBuilder().WithUserID(owner).BuildView()
	repo.views[view.ID] = view

	t.Run("owner sees their booking", func(t *testing.T) {
		got, err := q.GetByID(context.Background(), memberActor(owner), view.ID)
		require.NoError(t, err)
		assert.Equal(t, view.ID, got.ID)
	})

	t.Run("admin sees any booking", func(t *testing.T) {
		got, err := q.GetByID(context.Background(), adminActor(), view.ID)
		require.NoError(t, err)
		assert.Equal(t, view.ID, got.ID)
	})

	t.Run("stranger is denied", func(t *testing.T) {
		_, err := q.GetByID(context.Background(), memberActor(uuid.New()), view.ID)
		assert.ErrorIs(t, err, queries.ErrAccessDenied)
	})

	t.Run("unknown booking", func(t *testing.T) {
		_, err := q.GetByID(context.Background(), adminActor(), uuid.New())
		assert.ErrorIs(t, err, queries.ErrBookingNotFound)
	})
}

func TestBookingListAll(t *testing.T) {
	repo := newStubBookingViewRepo()
	q := queries.NewBookingQueries(repo)

	owner := uuid.New()
	repo.lists[owner] = []*queries.BookingListItem{
		builder.NewBookingBuilder().WithUserID(owner).BuildListItem(),
	}

	t.Run("admin only", func(t *testing.T) {
		_, err := q.ListAll(context.Background(), memberActor(owner), queries.BookingFilter{})
		assert.ErrorIs(t, err, queries.ErrAccessDenied)
	})

	t.Run("forwards a valid status filter", func(t *testing.T) {
		status := "approved"
		_, err := q.ListAll(context.Background(), adminActor(), queries.BookingFilter{Status: &status})
		require.NoError(t, err)
		require.NotNil(t, repo.lastFilter.Status)
		assert.Equal(t, "approved", *repo.lastFilter.Status)
	})

	t.Run("forwards an inventory number filter", func(t *testing.T) {
		number := "0-001-01"
		_, err := q.ListAll(context.Background(), adminActor(), queries.BookingFilter{InventoryNumber: &number})
		require.NoError(t, err)
		require.NotNil(t, repo.lastFilter.InventoryNumber)
		assert.Equal(t, "0-001-01", *repo.lastFilter.InventoryNumber)
	})

	t.Run("rejects an unknown status filter", func(t *testing.T) {
		status := "bogus"
		_, err := q.ListAll(context.Background(), adminActor(), queries.BookingFilter{Status: &status})
		assert.ErrorIs(t, err, queries.ErrInvalidStatus)
	})
}

func TestBookingListByUser(t *testing.T) {
	repo := newStubBookingViewRepo()
	q := queries.NewBookingQueries(repo)

	owner := uuid.New()
	repo.lists[owner] = []*queries.BookingListItem{
		builder.NewBookingBuilder().WithUserID(owner).BuildListItem(),
	}

	t.Run("members list only themselves", func(t *testing.T) {
		got, err := q.ListByUser(context.Background(), memberActor(owner), owner)
		require.NoError(t, err)
		assert.Len(t, got, 1)

		_, err = q.ListByUser(context.Background(), memberActor(uuid.New()), owner)
		assert.ErrorIs(t, err, queries.ErrAccessDenied)
	})

	t.Run("admins list anyone", func(t *testing.T) {
		got, err := q.ListByUser(context.Background(), adminActor(), owner)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}
