package readstore

import (
	"context"
	"errors"
	"time"

	"gearbook/internal/infra"
	"gearbook/internal/infra/db"
	"gearbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserAuthRow carries the credential fields the command side needs; it never
// leaves the infra/uow boundary.
type UserAuthRow struct {
	ID           uuid.UUID
	Login        string
	Name         string
	Role         string
	PasswordHash string
	Banned       bool
}

type UserReadStore struct {
	db db.DBTX
}

func NewUserReadStore(dbtx db.DBTX) *UserReadStore {
	return &UserReadStore{db: dbtx}
}

func (s *UserReadStore) FindAuthRowByID(ctx context.Context, id uuid.UUID) (*UserAuthRow, error) {
	const query = `
		SELECT id, login, name, role, password_hash, banned
		FROM users
		WHERE id = $1
	`
	return s.scanAuthRow(s.db.QueryRow(ctx, query, id))
}

func (s *UserReadStore) FindAuthRowByLogin(ctx context.Context, login string) (*UserAuthRow, error) {
	const query = `
		SELECT id, login, name, role, password_hash, banned
		FROM users
		WHERE lower(login) = lower($1)
	`
	return s.scanAuthRow(s.db.QueryRow(ctx, query, login))
}

func (s *UserReadStore) scanAuthRow(row pgx.Row) (*UserAuthRow, error) {
	var r UserAuthRow
	err := row.Scan(&r.ID, &r.Login, &r.Name, &r.Role, &r.PasswordHash, &r.Banned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find user", err)
	}
	return &r, nil
}

func (s *UserReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.UserView, error) {
	const query = `
		SELECT id, login, name, role, join_year, telegram_username, telegram_chat_id IS NOT NULL, banned, created_at
		FROM users
		WHERE id = $1
	`
	view, err := scanUserView(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find user by ID", err)
	}
	return view, nil
}

func (s *UserReadStore) FindAll(ctx context.Context) ([]*queries.UserView, error) {
	const query = `
		SELECT id, login, name, role, join_year, telegram_username, telegram_chat_id IS NOT NULL, banned, created_at
		FROM users
		ORDER BY created_at
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list users", err)
	}
	defer rows.Close()

	var views []*queries.UserView
	for rows.Next() {
		view, scanErr := scanUserView(rows)
		if scanErr != nil {
			return nil, infra.WrapRepoErr("failed to scan user row", scanErr)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate user rows", err)
	}
	return views, nil
}

func scanUserView(row pgx.Row) (*queries.UserView, error) {
	var (
		v         queries.UserView
		createdAt time.Time
	)
	err := row.Scan(&v.ID, &v.Login, &v.Name, &v.Role, &v.JoinYear,
		&v.TelegramUsername, &v.TelegramLinked, &v.Banned, &createdAt)
	if err != nil {
		return nil, err
	}
	v.CreatedAt = createdAt
	return &v, nil
}
