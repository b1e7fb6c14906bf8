package shared

import (
	"context"
	"time"

	"gearbook/internal/domain/booking"
	"gearbook/internal/domain/equipment"
	"gearbook/internal/domain/user"
	"gearbook/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: full transaction for write operations with retry on
	// serialization failures and deadlocks.
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Reads: pool-backed reads for validation outside transactions.
	Reads() CommandReads
}

type Tx interface {
	Bookings() BookingRepository
	Equipment() EquipmentRepository
	Users() UserRepository
	Notifications() NotificationRepository
	Reads() CommandReads
	DB() db.DBTX
}

type CommandReads interface {
	UserByID(ctx context.Context, id uuid.UUID) (*UserSnapshot, error)
	UserByLogin(ctx context.Context, login string) (*UserSnapshot, error)
	ModelByID(ctx context.Context, id uuid.UUID) (*ModelSnapshot, error)
	// ModelByName matches the exact name case-insensitively.
	ModelByName(ctx context.Context, name string) (*ModelSnapshot, error)
	ItemByID(ctx context.Context, id uuid.UUID) (*ItemSnapshot, error)
	BookingByID(ctx context.Context, id uuid.UUID) (*BookingSnapshot, error)
	BookingItemByID(ctx context.Context, id uuid.UUID) (*BookingItemSnapshot, error)
}

type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) (uuid.UUID, error)
	// UpdateStatus moves the booking from expected to status in a single
	// guarded write; a row whose status no longer matches expected is left
	// untouched and reported as a conflict.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, status booking.Status, adminComment *string) error
	SetItemReturned(ctx context.Context, bookingItemID uuid.UUID, returned bool) error
}

type EquipmentRepository interface {
	// LockModelsForAllocation serializes concurrent allocators per model via
	// advisory transaction locks; ids must be pre-sorted by the caller.
	LockModelsForAllocation(ctx context.Context, modelIDs []uuid.UUID) error
	// FindAvailableItems is the availability resolver: items of the model
	// that are in service and free of active overlapping claims, at most
	// limit of them. A short result is not an error.
	FindAvailableItems(ctx context.Context, modelID uuid.UUID, window booking.Window, limit int32) ([]ItemSnapshot, error)

	CreateModel(ctx context.Context, m *equipment.Model) (uuid.UUID, error)
	UpdateModel(ctx context.Context, m *equipment.Model) error
	DeleteModel(ctx context.Context, id uuid.UUID) error
	CreateItem(ctx context.Context, item *equipment.Item) (uuid.UUID, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	SetItemAvailability(ctx context.Context, id uuid.UUID, available bool) error
	CountItemsByModel(ctx context.Context, modelID uuid.UUID) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *user.User, passwordHash string) (uuid.UUID, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role user.Role) error
	LinkTelegram(ctx context.Context, id uuid.UUID, chatID int64, username string) error
	UnlinkTelegram(ctx context.Context, id uuid.UUID) error
}

type NotificationRepository interface {
	CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
}
