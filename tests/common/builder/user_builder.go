//go:build unit || e2e

package builder

import (
	"time"

	"gearbook/internal/domain/user"
	"gearbook/internal/usecase/queries"
	"gearbook/internal/usecase/shared"

	"github.com/google/uuid"
)

type UserBuilder struct {
	ID       uuid.UUID
	Login    string
	Password string
	Name     string
	Role     string
	JoinYear int
	Banned   bool
}

func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		ID:       uuid.New(),
		Login:    "test.user",
		Password: "password123",
		Name:     "Test User",
		Role:     "user",
		JoinYear: 2023,
	}
}

func (b *UserBuilder) With(mutate func(*UserBuilder)) *UserBuilder {
	mutate(b)
	return b
}

func (b *UserBuilder) BuildDomain() (*user.User, error) {
	login, err := user.NewLogin(b.Login)
	if err != nil {
		return nil, err
	}
	return user.NewUser(login, b.Name, b.JoinYear, b.Role == "ronin")
}

func (b *UserBuilder) BuildSnapshot() *shared.UserSnapshot {
	return &shared.UserSnapshot{
		ID:           b.ID,
		Login:        b.Login,
		Name:         b.Name,
		Role:         user.Role(b.Role),
		PasswordHash: "$2a$10$hashedhashedhashedhashedhashedhash",
		Banned:       b.Banned,
	}
}

func (b *UserBuilder) BuildView() *queries.UserView {
	return &queries.UserView{
		ID:        b.ID,
		Login:     b.Login,
		Name:      b.Name,
		Role:      b.Role,
		JoinYear:  b.JoinYear,
		Banned:    b.Banned,
		CreatedAt: time.Now(),
	}
}

func (b *UserBuilder) WithLogin(login string) *UserBuilder {
	b.Login = login
	return b
}

func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.Name = name
	return b
}

func (b *UserBuilder) WithRole(role string) *UserBuilder {
	b.Role = role
	return b
}

func (b *UserBuilder) AsAdmin() *UserBuilder {
	b.Role = "admin"
	return b
}

func (b *UserBuilder) AsBanned() *UserBuilder {
	b.Banned = true
	return b
}
