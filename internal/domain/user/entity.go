package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyName   = errors.New("user name cannot be empty")
	ErrUserBanned  = errors.New("user is banned")
	ErrNotLinkable = errors.New("telegram account already linked")
)

type User struct {
	id               uuid.UUID
	login            Login
	name             string
	role             Role
	joinYear         int
	telegramChatID   *int64
	telegramUsername *string
	banned           bool
	createdAt        time.Time
}

// NewUser registers a member. The ronin flag grants the Ronin role up front;
// Osnova membership is granted later by an administrator.
func NewUser(login Login, name string, joinYear int, ronin bool) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	role := RoleUser
	if ronin {
		role = RoleRonin
	}

	return &User{
		id:       uuid.New(),
		login:    login,
		name:     name,
		role:     role,
		joinYear: joinYear,
	}, nil
}

func ReconstructUser(
	id uuid.UUID,
	login Login,
	name string,
	role Role,
	joinYear int,
	telegramChatID *int64,
	telegramUsername *string,
	banned bool,
	createdAt time.Time,
) *User {
	return &User{
		id:               id,
		login:            login,
		name:             name,
		role:             role,
		joinYear:         joinYear,
		telegramChatID:   telegramChatID,
		telegramUsername: telegramUsername,
		banned:           banned,
		createdAt:        createdAt,
	}
}

func (u *User) ID() uuid.UUID             { return u.id }
func (u *User) Login() Login              { return u.login }
func (u *User) Name() string              { return u.name }
func (u *User) Role() Role                { return u.role }
func (u *User) JoinYear() int             { return u.joinYear }
func (u *User) TelegramChatID() *int64    { return u.telegramChatID }
func (u *User) TelegramUsername() *string { return u.telegramUsername }
func (u *User) Banned() bool              { return u.banned }
func (u *User) CreatedAt() time.Time      { return u.createdAt }

func (u *User) IsTelegramLinked() bool {
	return u.telegramChatID != nil
}

func (u *User) GrantRonin() {
	if u.role == RoleUser || u.role == RoleOsnova {
		u.role = RoleRonin
	}
}

func (u *User) LinkTelegram(chatID int64, username string) error {
	if u.telegramChatID != nil {
		return ErrNotLinkable
	}
	u.telegramChatID = &chatID
	if username != "" {
		u.telegramUsername = &username
	}
	return nil
}

func (u *User) UnlinkTelegram() {
	u.telegramChatID = nil
	u.telegramUsername = nil
}
