package uow

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"gearbook/internal/domain/booking"
	"gearbook/internal/domain/equipment"
	"gearbook/internal/domain/user"
	"gearbook/internal/infra"
	"gearbook/internal/infra/db"
	"gearbook/internal/infra/readstore"
	"gearbook/internal/infra/repository"
	"gearbook/internal/pkg/errs"
	"gearbook/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"
)

var (
	errTransactionBegin   = errs.New("failed to begin transaction")
	errTransactionCommit  = errs.New("failed to commit transaction")
	errMaxRetriesExceeded = errs.New("transaction failed after max retries")
)

type PostgresUoW struct {
	pool *pgxpool.Pool
}

func NewPostgresUoW(pool *pgxpool.Pool) shared.UnitOfWork {
	return &PostgresUoW{pool: pool}
}

// ReadCommitted prevents dirty reads while allowing concurrent writes.
// Availability checks re-read under advisory locks, so a stronger level is
// not needed.
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return u.runInTxWithOptions(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

func (u *PostgresUoW) Reads() shared.CommandReads {
	return &commandReads{dbtx: u.pool}
}

// Avoids defer accumulation in retry loops to prevent connection leaks
func (u *PostgresUoW) runInTxWithOptions(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, tx shared.Tx) error) error {
	const maxRetries = 3
	base := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		pgxTx, err := u.pool.BeginTx(ctx, options)
		if err != nil {
			return errs.Mark(err, errTransactionBegin)
		}

		tx := &pgTx{dbtx: pgxTx}

		err = fn(ctx, tx)
		if err == nil {
			if err = pgxTx.Commit(ctx); err == nil {
				return nil
			}
			err = errs.Mark(err, errTransactionCommit)
		}

		if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				slog.Warn("rollback failed", "attempt", attempt+1, "error", rollbackErr.Error())
			}
		}

		if !shouldRetry(err, attempt, maxRetries) {
			if attempt == maxRetries {
				slog.Error("transaction failed after max retries",
					"attempts", attempt+1,
					"error", err.Error())
				return errs.Mark(err, errMaxRetriesExceeded)
			}
			return err
		}

		waitTime := calculateBackoff(attempt, base)

		slog.Warn("retrying transaction due to retryable error",
			"attempt", attempt+1,
			"wait_ms", waitTime.Milliseconds(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return errMaxRetriesExceeded
}

func shouldRetry(err error, attempt, maxRetries int) bool {
	return isRetryableError(err) && attempt < maxRetries
}

func calculateBackoff(attempt int, base time.Duration) time.Duration {
	waitTime := time.Duration(1<<attempt) * base
	jitter := cryptoRandInt63n(int64(waitTime / 5))
	return waitTime + time.Duration(jitter)
}

func cryptoRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	uval := binary.BigEndian.Uint64(buf[:]) & 0x7FFFFFFFFFFFFFFF
	return int64(uval) % n
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgErrCodeSerializationFailure, pgErrCodeDeadlockDetected:
		return true
	default:
		return false
	}
}

type pgTx struct {
	dbtx db.DBTX

	// Lazy-initialized repositories
	bookingRepo      shared.BookingRepository
	equipmentRepo    shared.EquipmentRepository
	userRepo         shared.UserRepository
	notificationRepo shared.NotificationRepository
	commandReads     shared.CommandReads
}

func (t *pgTx) DB() db.DBTX {
	return t.dbtx
}

func (t *pgTx) Bookings() shared.BookingRepository {
	if t.bookingRepo == nil {
		t.bookingRepo = repository.NewBookingRepository(t.dbtx)
	}
	return t.bookingRepo
}

func (t *pgTx) Equipment() shared.EquipmentRepository {
	if t.equipmentRepo == nil {
		t.equipmentRepo = repository.NewEquipmentRepository(t.dbtx)
	}
	return t.equipmentRepo
}

func (t *pgTx) Users() shared.UserRepository {
	if t.userRepo == nil {
		t.userRepo = repository.NewUserRepository(t.dbtx)
	}
	return t.userRepo
}

func (t *pgTx) Notifications() shared.NotificationRepository {
	if t.notificationRepo == nil {
		t.notificationRepo = repository.NewNotificationRepository(t.dbtx)
	}
	return t.notificationRepo
}

func (t *pgTx) Reads() shared.CommandReads {
	if t.commandReads == nil {
		t.commandReads = &commandReads{dbtx: t.dbtx}
	}
	return t.commandReads
}

type commandReads struct {
	dbtx db.DBTX

	// Lazy-initialized readstores
	userStore      *readstore.UserReadStore
	equipmentStore *readstore.EquipmentReadStore
	bookingStore   *readstore.BookingReadStore
}

func (r *commandReads) users() *readstore.UserReadStore {
	if r.userStore == nil {
		r.userStore = readstore.NewUserReadStore(r.dbtx)
	}
	return r.userStore
}

func (r *commandReads) equipment() *readstore.EquipmentReadStore {
	if r.equipmentStore == nil {
		r.equipmentStore = readstore.NewEquipmentReadStore(r.dbtx)
	}
	return r.equipmentStore
}

func (r *commandReads) bookings() *readstore.BookingReadStore {
	if r.bookingStore == nil {
		r.bookingStore = readstore.NewBookingReadStore(r.dbtx)
	}
	return r.bookingStore
}

func (r *commandReads) UserByID(ctx context.Context, id uuid.UUID) (*shared.UserSnapshot, error) {
	row, err := r.users().FindAuthRowByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return userSnapshot(row)
}

func (r *commandReads) UserByLogin(ctx context.Context, login string) (*shared.UserSnapshot, error) {
	row, err := r.users().FindAuthRowByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	return userSnapshot(row)
}

func userSnapshot(row *readstore.UserAuthRow) (*shared.UserSnapshot, error) {
	role, err := user.NewRole(row.Role)
	if err != nil {
		return nil, infra.WrapRepoErr("unknown role in users table", err)
	}
	return &shared.UserSnapshot{
		ID:           row.ID,
		Login:        row.Login,
		Name:         row.Name,
		Role:         role,
		PasswordHash: row.PasswordHash,
		Banned:       row.Banned,
	}, nil
}

func (r *commandReads) ModelByID(ctx context.Context, id uuid.UUID) (*shared.ModelSnapshot, error) {
	view, err := r.equipment().FindModelByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return modelSnapshot(view.ID, view.Code, view.Name, view.Category, view.Access)
}

func (r *commandReads) ModelByName(ctx context.Context, name string) (*shared.ModelSnapshot, error) {
	view, err := r.equipment().FindModelByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return modelSnapshot(view.ID, view.Code, view.Name, view.Category, view.Access)
}

func modelSnapshot(id uuid.UUID, code int32, name, category, access string) (*shared.ModelSnapshot, error) {
	cat, err := equipment.NewCategory(category)
	if err != nil {
		return nil, infra.WrapRepoErr("unknown category in equipment_models table", err)
	}
	tier, err := equipment.NewAccessTier(access)
	if err != nil {
		return nil, infra.WrapRepoErr("unknown access tier in equipment_models table", err)
	}
	return &shared.ModelSnapshot{
		ID:       id,
		Code:     code,
		Name:     name,
		Category: cat,
		Access:   tier,
	}, nil
}

func (r *commandReads) ItemByID(ctx context.Context, id uuid.UUID) (*shared.ItemSnapshot, error) {
	view, err := r.equipment().FindItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &shared.ItemSnapshot{
		ID:              view.ID,
		ModelID:         view.ModelID,
		InventoryNumber: view.InventoryNumber,
		Available:       view.Available,
	}, nil
}

func (r *commandReads) BookingByID(ctx context.Context, id uuid.UUID) (*shared.BookingSnapshot, error) {
	row, err := r.bookings().FindStatusRowByID(ctx, id)
	if err != nil {
		return nil, err
	}
	status, err := booking.NewStatus(row.Status)
	if err != nil {
		return nil, infra.WrapRepoErr("unknown status in bookings table", err)
	}
	return &shared.BookingSnapshot{
		ID:           row.ID,
		UserID:       row.UserID,
		Reason:       row.Reason,
		Status:       status,
		StartTime:    row.StartTime,
		EndTime:      row.EndTime,
		AdminComment: row.AdminComment,
		CreatedAt:    row.CreatedAt,
	}, nil
}

func (r *commandReads) BookingItemByID(ctx context.Context, id uuid.UUID) (*shared.BookingItemSnapshot, error) {
	row, err := r.bookings().FindItemRowByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &shared.BookingItemSnapshot{
		ID:              row.ID,
		BookingID:       row.BookingID,
		EquipmentItemID: row.EquipmentItemID,
		Returned:        row.Returned,
	}, nil
}
