//go:build unit || e2e

package builder

import (
	"time"

	"gearbook/internal/domain/equipment"
	"gearbook/internal/usecase/queries"
	"gearbook/internal/usecase/shared"

	"github.com/google/uuid"
)

type ModelBuilder struct {
	ID          uuid.UUID
	Code        int32
	Name        string
	Description string
	Category    string
	OsnovaOnly  bool
	Attributes  map[string]any
	ItemCount   int64
}

func NewModelBuilder() *ModelBuilder {
	return &ModelBuilder{
		ID:       uuid.New(),
		Code:     1,
		Name:     "Canon EOS R5",
		Category: "camera",
	}
}

func (b *ModelBuilder) With(mutate func(*ModelBuilder)) *ModelBuilder {
	mutate(b)
	return b
}

func (b *ModelBuilder) BuildDomain() (*equipment.Model, error) {
	category, err := equipment.NewCategory(b.Category)
	if err != nil {
		return nil, err
	}
	return equipment.NewModel(b.Name, b.Description, category, b.OsnovaOnly, b.Attributes)
}

func (b *ModelBuilder) BuildSnapshot() *shared.ModelSnapshot {
	return &shared.ModelSnapshot{
		ID:       b.ID,
		Code:     b.Code,
		Name:     b.Name,
		Category: equipment.Category(b.Category),
		Access:   equipment.DeriveAccessTier(b.Name, b.OsnovaOnly),
	}
}

func (b *ModelBuilder) BuildView() *queries.ModelView {
	now := time.Now()
	return &queries.ModelView{
		ID:          b.ID,
		Code:        b.Code,
		Name:        b.Name,
		Description: b.Description,
		Category:    b.Category,
		Access:      equipment.DeriveAccessTier(b.Name, b.OsnovaOnly).String(),
		Attributes:  b.Attributes,
		ItemCount:   b.ItemCount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (b *ModelBuilder) WithName(name string) *ModelBuilder {
	b.Name = name
	return b
}

func (b *ModelBuilder) WithCategory(category string) *ModelBuilder {
	b.Category = category
	return b
}

func (b *ModelBuilder) AsOsnovaOnly() *ModelBuilder {
	b.OsnovaOnly = true
	return b
}

type ItemBuilder struct {
	ID              uuid.UUID
	ModelID         uuid.UUID
	InventoryNumber string
	Available       bool
}

func NewItemBuilder() *ItemBuilder {
	return &ItemBuilder{
		ID:              uuid.New(),
		ModelID:         uuid.New(),
		InventoryNumber: "0-001-01",
		Available:       true,
	}
}

func (b *ItemBuilder) BuildDomain() (*equipment.Item, error) {
	return equipment.NewItem(b.ModelID, b.InventoryNumber)
}

func (b *ItemBuilder) BuildSnapshot() shared.ItemSnapshot {
	return shared.ItemSnapshot{
		ID:              b.ID,
		ModelID:         b.ModelID,
		InventoryNumber: b.InventoryNumber,
		Available:       b.Available,
	}
}

func (b *ItemBuilder) WithModelID(id uuid.UUID) *ItemBuilder {
	b.ModelID = id
	return b
}

func (b *ItemBuilder) WithInventoryNumber(num string) *ItemBuilder {
	b.InventoryNumber = num
	return b
}

func (b *ItemBuilder) AsUnavailable() *ItemBuilder {
	b.Available = false
	return b
}
