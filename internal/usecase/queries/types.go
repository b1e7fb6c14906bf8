package queries

import (
	"time"

	"github.com/google/uuid"
)

// ModelView represents read-optimized equipment model data
type ModelView struct {
	ID          uuid.UUID      `json:"id"`
	Code        int32          `json:"code"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Access      string         `json:"access"`
	Attributes  map[string]any `json:"attributes"`
	ItemCount   int64          `json:"item_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ItemView represents read-optimized equipment item data
type ItemView struct {
	ID              uuid.UUID `json:"id"`
	ModelID         uuid.UUID `json:"model_id"`
	ModelName       string    `json:"model_name"`
	InventoryNumber string    `json:"inventory_number"`
	Available       bool      `json:"available"`
}

// ModelWithItemsView bundles a model with its physical units
type ModelWithItemsView struct {
	ModelView
	Items []*ItemView `json:"items"`
}

// BookingItemView represents one claimed unit inside a booking
type BookingItemView struct {
	ID              uuid.UUID `json:"id"`
	EquipmentItemID uuid.UUID `json:"equipment_item_id"`
	ModelName       string    `json:"model_name"`
	InventoryNumber string    `json:"inventory_number"`
	Returned        bool      `json:"returned"`
}

// BookingView represents read-optimized booking data
type BookingView struct {
	ID           uuid.UUID          `json:"id"`
	UserID       uuid.UUID          `json:"user_id"`
	UserName     string             `json:"user_name"`
	Reason       string             `json:"reason"`
	StartTime    time.Time          `json:"start_time"`
	EndTime      time.Time          `json:"end_time"`
	Status       string             `json:"status"`
	Comment      *string            `json:"comment,omitempty"`
	AdminComment *string            `json:"admin_comment,omitempty"`
	Warnings     map[string]string  `json:"warnings,omitempty"`
	Items        []*BookingItemView `json:"items"`
	CreatedAt    time.Time          `json:"created_at"`
}

// BookingListItem is the compact row for booking lists
type BookingListItem struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	Reason    string    `json:"reason"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
	ItemCount int64     `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
}

// UserView represents read-optimized user data
type UserView struct {
	ID               uuid.UUID `json:"id"`
	Login            string    `json:"login"`
	Name             string    `json:"name"`
	Role             string    `json:"role"`
	JoinYear         int       `json:"join_year"`
	TelegramUsername *string   `json:"telegram_username,omitempty"`
	TelegramLinked   bool      `json:"telegram_linked"`
	Banned           bool      `json:"banned"`
	CreatedAt        time.Time `json:"created_at"`
}
