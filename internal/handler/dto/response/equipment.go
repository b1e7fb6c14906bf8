package response

import (
	"time"

	"gearbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ModelResponse struct {
	ID          uuid.UUID      `json:"id"`
	Code        int32          `json:"code"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Access      string         `json:"access"`
	Attributes  map[string]any `json:"attributes"`
	ItemCount   int64          `json:"itemCount"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type ItemResponse struct {
	ID              uuid.UUID `json:"id"`
	ModelID         uuid.UUID `json:"modelId"`
	ModelName       string    `json:"modelName"`
	InventoryNumber string    `json:"inventoryNumber"`
	Available       bool      `json:"available"`
}

type ModelWithItemsResponse struct {
	ModelResponse
	Items []*ItemResponse `json:"items"`
}

type CreatedItemResponse struct {
	ID              uuid.UUID `json:"id"`
	InventoryNumber string    `json:"inventoryNumber"`
}

type AvailabilityResponse struct {
	ModelID   uuid.UUID `json:"modelId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Available int64     `json:"available"`
}

func FromModelView(rm *queries.ModelView) *ModelResponse {
	var resp ModelResponse
	_ = copier.Copy(&resp, rm)
	return &resp
}

func FromItemView(rm *queries.ItemView) *ItemResponse {
	var resp ItemResponse
	_ = copier.Copy(&resp, rm)
	return &resp
}

func FromModelWithItemsView(rm *queries.ModelWithItemsView) *ModelWithItemsResponse {
	resp := ModelWithItemsResponse{
		ModelResponse: *FromModelView(&rm.ModelView),
		Items:         make([]*ItemResponse, len(rm.Items)),
	}
	for i, item := range rm.Items {
		resp.Items[i] = FromItemView(item)
	}
	return &resp
}
