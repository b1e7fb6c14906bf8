package equipment

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Model is an equipment type in the catalog, e.g. "Canon EOS R5". Physical
// units are tracked separately as Items. The short numeric code feeds the
// inventory number format.
type Model struct {
	id          uuid.UUID
	code        int32
	name        string
	description string
	category    Category
	access      AccessTier
	attributes  Attributes
	createdAt   time.Time
	updatedAt   time.Time
}

func NewModel(name, description string, category Category, osnovaOnly bool, attributes map[string]any) (*Model, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !category.IsValid() {
		return nil, ErrInvalidCategory
	}

	return &Model{
		id:          uuid.New(),
		name:        name,
		description: strings.TrimSpace(description),
		category:    category,
		access:      DeriveAccessTier(name, osnovaOnly),
		attributes:  NewAttributes(attributes),
	}, nil
}

func ReconstructModel(
	id uuid.UUID,
	code int32,
	name, description string,
	category Category,
	access AccessTier,
	attributes Attributes,
	createdAt, updatedAt time.Time,
) *Model {
	return &Model{
		id:          id,
		code:        code,
		name:        name,
		description: description,
		category:    category,
		access:      access,
		attributes:  attributes,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// Update replaces the mutable fields. The access tier is re-derived because
// renaming a model can move it across the naming convention boundary.
func (m *Model) Update(name, description string, category Category, osnovaOnly bool, attributes map[string]any) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if !category.IsValid() {
		return ErrInvalidCategory
	}

	m.name = name
	m.description = strings.TrimSpace(description)
	m.category = category
	m.access = DeriveAccessTier(name, osnovaOnly)
	m.attributes = NewAttributes(attributes)
	return nil
}

func (m *Model) ID() uuid.UUID          { return m.id }
func (m *Model) Code() int32            { return m.code }
func (m *Model) Name() string           { return m.name }
func (m *Model) Description() string    { return m.description }
func (m *Model) Category() Category     { return m.category }
func (m *Model) Access() AccessTier     { return m.access }
func (m *Model) Attributes() Attributes { return m.attributes.Clone() }
func (m *Model) CreatedAt() time.Time   { return m.createdAt }
func (m *Model) UpdatedAt() time.Time   { return m.updatedAt }

// Item is one physical, individually tracked unit of a model. The available
// flag is a manual service toggle (damaged, pulled from circulation); it is
// independent of bookings.
type Item struct {
	id              uuid.UUID
	modelID         uuid.UUID
	inventoryNumber string
	available       bool
}

func NewItem(modelID uuid.UUID, inventoryNumber string) (*Item, error) {
	num, err := NewInventoryNumber(inventoryNumber)
	if err != nil {
		return nil, err
	}
	return &Item{
		id:              uuid.New(),
		modelID:         modelID,
		inventoryNumber: num,
		available:       true,
	}, nil
}

func ReconstructItem(id, modelID uuid.UUID, inventoryNumber string, available bool) *Item {
	return &Item{
		id:              id,
		modelID:         modelID,
		inventoryNumber: inventoryNumber,
		available:       available,
	}
}

func (i *Item) ID() uuid.UUID           { return i.id }
func (i *Item) ModelID() uuid.UUID      { return i.modelID }
func (i *Item) InventoryNumber() string { return i.inventoryNumber }
func (i *Item) Available() bool         { return i.available }

func (i *Item) ToggleAvailability() {
	i.available = !i.available
}
