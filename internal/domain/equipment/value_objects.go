package equipment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyName           = errors.New("model name cannot be empty")
	ErrEmptyInventoryNum   = errors.New("inventory number cannot be empty")
	ErrInvalidInventoryNum = errors.New("invalid inventory number format")
)

// Attributes is the free-form key-value attribute map of a model. It is a
// domain-level mapping; serialization to JSON happens at the storage boundary.
type Attributes map[string]any

func NewAttributes(m map[string]any) Attributes {
	if m == nil {
		return Attributes{}
	}
	out := make(Attributes, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (a Attributes) Clone() Attributes {
	return NewAttributes(a)
}

// FormatInventoryNumber builds the inventory identifier of a physical unit:
// {categoryCode}-{modelCode:3}-{sequence:2}.
func FormatInventoryNumber(category Category, modelCode int32, sequence int) string {
	return fmt.Sprintf("%d-%03d-%02d", category.Code(), modelCode, sequence)
}

func NewInventoryNumber(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyInventoryNum
	}
	if strings.Count(s, "-") != 2 {
		return "", ErrInvalidInventoryNum
	}
	return s, nil
}
