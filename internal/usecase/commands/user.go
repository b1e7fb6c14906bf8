package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"gearbook/internal/domain/user"
	"gearbook/internal/infra"
	"gearbook/internal/pkg/config"
	"gearbook/internal/pkg/errs"
	"gearbook/internal/pkg/password"
	"gearbook/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrLoginAlreadyTaken = errs.New("login already taken")
	ErrLinkCodeInvalid   = errs.New("link code invalid or expired")
)

// LinkCodeStore keeps short-lived Telegram link codes. Put stores a code for
// the user with a TTL; Pop consumes it exactly once.
type LinkCodeStore interface {
	Put(ctx context.Context, code string, userID uuid.UUID, ttl time.Duration) error
	Pop(ctx context.Context, code string) (uuid.UUID, error)
}

type RegisterParams struct {
	Login    string
	Password string
	Name     string
	JoinYear int
	Ronin    bool
}

type TelegramLink struct {
	Code    string
	DeepURL string
}

type UserCommands interface {
	Register(ctx context.Context, p RegisterParams) (uuid.UUID, error)
	GrantRonin(ctx context.Context, actor shared.Actor, userID uuid.UUID) error
	// GenerateTelegramLink mints a one-shot code and returns the bot deep link
	// that carries it.
	GenerateTelegramLink(ctx context.Context, userID uuid.UUID) (*TelegramLink, error)
	// ConsumeTelegramLink is called on the bot's /start: it redeems the code
	// and binds the chat to the user who requested it.
	ConsumeTelegramLink(ctx context.Context, code string, chatID int64, username string) (uuid.UUID, error)
	UnlinkTelegram(ctx context.Context, userID uuid.UUID) error
}

type userCommandsImpl struct {
	uow       shared.UnitOfWork
	linkCodes LinkCodeStore
	telegram  config.TelegramConfig
}

func NewUserCommands(uow shared.UnitOfWork, linkCodes LinkCodeStore, telegram config.TelegramConfig) UserCommands {
	return &userCommandsImpl{
		uow:       uow,
		linkCodes: linkCodes,
		telegram:  telegram,
	}
}

func (c *userCommandsImpl) Register(ctx context.Context, p RegisterParams) (uuid.UUID, error) {
	login, err := user.NewLogin(p.Login)
	if err != nil {
		return uuid.Nil, err
	}
	pass, err := user.NewPassword(p.Password)
	if err != nil {
		return uuid.Nil, err
	}

	u, err := user.NewUser(login, p.Name, p.JoinYear, p.Ronin)
	if err != nil {
		return uuid.Nil, err
	}

	hash, err := password.HashPassword(pass.Value())
	if err != nil {
		return uuid.Nil, err
	}

	var userID uuid.UUID
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		id, createErr := tx.Users().Create(ctx, u, hash)
		if createErr != nil {
			if infra.IsKind(createErr, infra.KindDuplicateKey) {
				return errs.Mark(createErr, ErrLoginAlreadyTaken)
			}
			return createErr
		}
		userID = id
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return userID, nil
}

func (c *userCommandsImpl) GrantRonin(ctx context.Context, actor shared.Actor, userID uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		snap, err := tx.Reads().UserByID(ctx, userID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		// Admins keep their role; the grant only lifts lower tiers.
		if snap.Role == user.RoleAdmin || snap.Role == user.RoleRonin {
			return nil
		}
		return tx.Users().UpdateRole(ctx, userID, user.RoleRonin)
	})
}

func (c *userCommandsImpl) GenerateTelegramLink(ctx context.Context, userID uuid.UUID) (*TelegramLink, error) {
	if _, err := c.uow.Reads().UserByID(ctx, userID); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	code, err := newLinkCode()
	if err != nil {
		return nil, err
	}
	if err := c.linkCodes.Put(ctx, code, userID, c.telegram.LinkCodeTTL); err != nil {
		return nil, err
	}

	return &TelegramLink{
		Code:    code,
		DeepURL: fmt.Sprintf("https://t.me/%s?start=%s", c.telegram.BotUsername, code),
	}, nil
}

func (c *userCommandsImpl) ConsumeTelegramLink(ctx context.Context, code string, chatID int64, username string) (uuid.UUID, error) {
	userID, err := c.linkCodes.Pop(ctx, code)
	if err != nil {
		return uuid.Nil, errs.Mark(err, ErrLinkCodeInvalid)
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if _, readErr := tx.Reads().UserByID(ctx, userID); readErr != nil {
			if infra.IsKind(readErr, infra.KindNotFound) {
				return ErrUserNotFound
			}
			return readErr
		}
		return tx.Users().LinkTelegram(ctx, userID, chatID, username)
	})
	if err != nil {
		return uuid.Nil, err
	}

	return userID, nil
}

func (c *userCommandsImpl) UnlinkTelegram(ctx context.Context, userID uuid.UUID) error {
	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if _, err := tx.Reads().UserByID(ctx, userID); err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		return tx.Users().UnlinkTelegram(ctx, userID)
	})
}

func newLinkCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", errs.Wrap(err, "failed to generate link code")
	}
	return hex.EncodeToString(buf), nil
}
