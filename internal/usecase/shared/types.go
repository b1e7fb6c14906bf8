package shared

import (
	"time"

	"gearbook/internal/domain/booking"
	"gearbook/internal/domain/equipment"
	"gearbook/internal/domain/user"

	"github.com/google/uuid"
)

// Actor identifies who performs a command, resolved from the request context.
type Actor struct {
	ID   uuid.UUID
	Role user.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role.IsAdmin()
}

// Minimal snapshots for command-side reads.

type UserSnapshot struct {
	ID           uuid.UUID
	Login        string
	Name         string
	Role         user.Role
	PasswordHash string
	Banned       bool
}

type ModelSnapshot struct {
	ID       uuid.UUID
	Code     int32
	Name     string
	Category equipment.Category
	Access   equipment.AccessTier
}

type ItemSnapshot struct {
	ID              uuid.UUID
	ModelID         uuid.UUID
	InventoryNumber string
	Available       bool
}

type BookingSnapshot struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Reason       string
	Status       booking.Status
	StartTime    time.Time
	EndTime      time.Time
	AdminComment *string
	CreatedAt    time.Time
}

type BookingItemSnapshot struct {
	ID              uuid.UUID
	BookingID       uuid.UUID
	EquipmentItemID uuid.UUID
	Returned        bool
}
