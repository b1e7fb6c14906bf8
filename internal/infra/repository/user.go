package repository

import (
	"context"

	"gearbook/internal/domain/user"
	"gearbook/internal/infra"
	"gearbook/internal/infra/db"
	"gearbook/internal/usecase/shared"

	"github.com/google/uuid"
)

type UserRepository struct {
	db db.DBTX
}

func NewUserRepository(dbtx db.DBTX) shared.UserRepository {
	return &UserRepository{db: dbtx}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User, passwordHash string) (uuid.UUID, error) {
	const query = `
		INSERT INTO users (id, login, name, role, join_year, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		u.ID(), u.Login().Value(), u.Name(), u.Role().String(), u.JoinYear(), passwordHash,
	)
	if err != nil {
		return uuid.Nil, wrapWriteErr("failed to create user", err)
	}
	return u.ID(), nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role user.Role) error {
	const query = `UPDATE users SET role = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, role.String())
	if err != nil {
		return wrapWriteErr("failed to update user role", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("user not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *UserRepository) LinkTelegram(ctx context.Context, id uuid.UUID, chatID int64, username string) error {
	const query = `
		UPDATE users
		SET telegram_chat_id = $2, telegram_username = NULLIF($3, ''), updated_at = now()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, chatID, username)
	if err != nil {
		return wrapWriteErr("failed to link telegram account", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("user not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *UserRepository) UnlinkTelegram(ctx context.Context, id uuid.UUID) error {
	const query = `
		UPDATE users
		SET telegram_chat_id = NULL, telegram_username = NULL, updated_at = now()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return wrapWriteErr("failed to unlink telegram account", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("user not found", nil, infra.KindNotFound)
	}
	return nil
}
