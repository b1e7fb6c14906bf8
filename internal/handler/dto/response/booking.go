package response

import (
	"time"

	"gearbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type BookingItemResponse struct {
	ID              uuid.UUID `json:"id"`
	EquipmentItemID uuid.UUID `json:"equipmentItemId"`
	ModelName       string    `json:"modelName"`
	InventoryNumber string    `json:"inventoryNumber"`
	Returned        bool      `json:"returned"`
}

type BookingResponse struct {
	ID           uuid.UUID              `json:"id"`
	UserID       uuid.UUID              `json:"userId"`
	UserName     string                 `json:"userName"`
	Reason       string                 `json:"reason"`
	StartTime    time.Time              `json:"startTime"`
	EndTime      time.Time              `json:"endTime"`
	Status       string                 `json:"status"`
	Comment      *string                `json:"comment,omitempty"`
	AdminComment *string                `json:"adminComment,omitempty"`
	Warnings     map[string]string      `json:"warnings,omitempty"`
	Items        []*BookingItemResponse `json:"items"`
	CreatedAt    time.Time              `json:"createdAt"`
}

type BookingListResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	UserName  string    `json:"userName"`
	Reason    string    `json:"reason"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    string    `json:"status"`
	ItemCount int64     `json:"itemCount"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreatedBookingResponse struct {
	ID uuid.UUID `json:"id"`
}

func FromBookingView(rm *queries.BookingView) *BookingResponse {
	var resp BookingResponse
	_ = copier.Copy(&resp, rm)
	resp.Items = make([]*BookingItemResponse, len(rm.Items))
	for i, item := range rm.Items {
		var itemResp BookingItemResponse
		_ = copier.Copy(&itemResp, item)
		resp.Items[i] = &itemResp
	}
	return &resp
}

func FromBookingListItem(rm *queries.BookingListItem) *BookingListResponse {
	var resp BookingListResponse
	_ = copier.Copy(&resp, rm)
	return &resp
}
