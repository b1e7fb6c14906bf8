//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"gearbook/internal/domain/user"
	"gearbook/internal/pkg/config"
	"gearbook/internal/pkg/errs"
	"gearbook/internal/usecase/commands"
	"gearbook/internal/usecase/shared"
	"gearbook/tests/common/builder"
	"gearbook/tests/common/fake"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLinkCodes struct {
	codes map[string]uuid.UUID
}

func newMemLinkCodes() *memLinkCodes {
	return &memLinkCodes{codes: map[string]uuid.UUID{}}
}

func (m *memLinkCodes) Put(_ context.Context, code string, userID uuid.UUID, _ time.Duration) error {
	m.codes[code] = userID
	return nil
}

func (m *memLinkCodes) Pop(_ context.Context, code string) (uuid.UUID, error) {
	id, ok := m.codes[code]
	if !ok {
		return uuid.Nil, errs.New("code not found")
	}
	delete(m.codes, code)
	return id, nil
}

type userFixture struct {
	uow      *fake.UoW
	codes    *memLinkCodes
	commands commands.UserCommands
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	f := &userFixture{uow: fake.NewUoW(), codes: newMemLinkCodes()}
	f.commands = commands.NewUserCommands(f.uow, f.codes, config.TelegramConfig{
		BotUsername: "gearbook_bot",
		LinkCodeTTL: 10 * time.Minute,
	})
	return f
}

func registerParams() commands.RegisterParams {
	return commands.RegisterParams{
		Login:    "new.member",
		Password: "password123",
		Name:     "New Member",
		JoinYear: 2025,
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("regular member", func(t *testing.T) {
		f := newUserFixture(t)
		id, err := f.commands.Register(ctx, registerParams())
		require.NoError(t, err)
		require.Contains(t, f.uow.Users, id)
		assert.Equal(t, user.RoleUser, f.uow.Users[id].Role)
		assert.NotEqual(t, "password123", f.uow.Users[id].PasswordHash)
	})

	t.Run("ronin flag grants the role", func(t *testing.T) {
		f := newUserFixture(t)
		p := registerParams()
		p.Ronin = true
		id, err := f.commands.Register(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, user.RoleRonin, f.uow.Users[id].Role)
	})

	t.Run("duplicate login", func(t *testing.T) {
		f := newUserFixture(t)
		_, err := f.commands.Register(ctx, registerParams())
		require.NoError(t, err)

		p := registerParams()
		p.Login = "NEW.MEMBER"
		_, err = f.commands.Register(ctx, p)
		require.ErrorIs(t, err, commands.ErrLoginAlreadyTaken)
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*commands.RegisterParams)
			errIs  error
		}{
			{name: "bad login", mutate: func(p *commands.RegisterParams) { p.Login = "a b" }, errIs: user.ErrInvalidLogin},
			{name: "weak password", mutate: func(p *commands.RegisterParams) { p.Password = "short" }, errIs: user.ErrPasswordTooWeak},
			{name: "empty name", mutate: func(p *commands.RegisterParams) { p.Name = " " }, errIs: user.ErrEmptyName},
		}

		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				f := newUserFixture(t)
				p := registerParams()
				c.mutate(&p)
				_, err := f.commands.Register(ctx, p)
				require.ErrorIs(t, err, c.errIs)
			})
		}
	})
}

func TestGrantRonin(t *testing.T) {
	ctx := context.Background()

	t.Run("admin lifts a member", func(t *testing.T) {
		f := newUserFixture(t)
		admin := builder.NewUserBuilder().AsAdmin().BuildSnapshot()
		member := builder.NewUserBuilder().WithLogin("plain.member").BuildSnapshot()
		f.uow.AddUser(admin).AddUser(member)

		require.NoError(t, f.commands.GrantRonin(ctx, shared.Actor{ID: admin.ID, Role: admin.Role}, member.ID))
		assert.Equal(t, user.RoleRonin, f.uow.Users[member.ID].Role)
	})

	t.Run("grant is idempotent and never demotes", func(t *testing.T) {
		f := newUserFixture(t)
		admin := builder.NewUserBuilder().AsAdmin().BuildSnapshot()
		other := builder.NewUserBuilder().WithLogin("second.admin").AsAdmin().BuildSnapshot()
		f.uow.AddUser(admin).AddUser(other)

		require.NoError(t, f.commands.GrantRonin(ctx, shared.Actor{ID: admin.ID, Role: admin.Role}, other.ID))
		assert.Equal(t, user.RoleAdmin, f.uow.Users[other.ID].Role)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		f := newUserFixture(t)
		member := builder.NewUserBuilder().BuildSnapshot()
		f.uow.AddUser(member)

		err := f.commands.GrantRonin(ctx, shared.Actor{ID: member.ID, Role: member.Role}, member.ID)
		require.ErrorIs(t, err, commands.ErrForbidden)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newUserFixture(t)
		admin := builder.NewUserBuilder().AsAdmin().BuildSnapshot()
		f.uow.AddUser(admin)

		err := f.commands.GrantRonin(ctx, shared.Actor{ID: admin.ID, Role: admin.Role}, uuid.New())
		require.ErrorIs(t, err, commands.ErrUserNotFound)
	})
}

func TestTelegramLink(t *testing.T) {
	ctx := context.Background()

	t.Run("link code round trip", func(t *testing.T) {
		f := newUserFixture(t)
		member := builder.NewUserBuilder().BuildSnapshot()
		f.uow.AddUser(member)

		link, err := f.commands.GenerateTelegramLink(ctx, member.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, link.Code)
		assert.Contains(t, link.DeepURL, "https://t.me/gearbook_bot?start="+link.Code)

		userID, err := f.commands.ConsumeTelegramLink(ctx, link.Code, 777, "tg_member")
		require.NoError(t, err)
		assert.Equal(t, member.ID, userID)
	})

	t.Run("code is single use", func(t *testing.T) {
		f := newUserFixture(t)
		member := builder.NewUserBuilder().BuildSnapshot()
		f.uow.AddUser(member)

		link, err := f.commands.GenerateTelegramLink(ctx, member.ID)
		require.NoError(t, err)

		_, err = f.commands.ConsumeTelegramLink(ctx, link.Code, 777, "tg_member")
		require.NoError(t, err)

		_, err = f.commands.ConsumeTelegramLink(ctx, link.Code, 888, "someone_else")
		require.ErrorIs(t, err, commands.ErrLinkCodeInvalid)
	})

	t.Run("unknown code", func(t *testing.T) {
		f := newUserFixture(t)
		_, err := f.commands.ConsumeTelegramLink(ctx, "deadbeef", 777, "tg_member")
		require.ErrorIs(t, err, commands.ErrLinkCodeInvalid)
	})

	t.Run("unknown user cannot generate", func(t *testing.T) {
		f := newUserFixture(t)
		_, err := f.commands.GenerateTelegramLink(ctx, uuid.New())
		require.ErrorIs(t, err, commands.ErrUserNotFound)
	})
}
