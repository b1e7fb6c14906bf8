package equipment

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCategory = errors.New("invalid equipment category")
	ErrInvalidTier     = errors.New("invalid access tier")
)

// Category is the kind of equipment a model belongs to. The numeric code is
// part of the inventory number format and must stay stable.
type Category string

const (
	CategoryCamera  Category = "camera"
	CategoryLens    Category = "lens"
	CategoryCard    Category = "card"
	CategoryBattery Category = "battery"
	CategoryCharger Category = "charger"
	CategorySound   Category = "sound"
	CategoryStand   Category = "stand"
	CategoryLight   Category = "light"
	CategoryOther   Category = "other"
)

var categoryCodes = map[Category]int{
	CategoryCamera:  0,
	CategoryLens:    1,
	CategoryCard:    2,
	CategoryBattery: 3,
	CategoryCharger: 4,
	CategorySound:   5,
	CategoryStand:   6,
	CategoryLight:   7,
	CategoryOther:   8,
}

func (c Category) String() string {
	return string(c)
}

func (c Category) IsValid() bool {
	_, ok := categoryCodes[c]
	return ok
}

// Code returns the stable numeric code used in inventory numbers.
func (c Category) Code() int {
	return categoryCodes[c]
}

func NewCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// AccessTier gates which users may book a model. Tiers are totally ordered:
// User < Osnova < Ronin.
type AccessTier string

const (
	TierUser   AccessTier = "user"
	TierOsnova AccessTier = "osnova"
	TierRonin  AccessTier = "ronin"
)

var tierLevels = map[AccessTier]int{
	TierUser:   0,
	TierOsnova: 1,
	TierRonin:  2,
}

func (t AccessTier) String() string {
	return string(t)
}

func (t AccessTier) IsValid() bool {
	_, ok := tierLevels[t]
	return ok
}

// Level returns the tier's position in the privilege order.
func (t AccessTier) Level() int {
	return tierLevels[t]
}

func NewAccessTier(s string) (AccessTier, error) {
	t := AccessTier(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidTier
	}
	return t, nil
}

// DeriveAccessTier applies the catalog naming convention: models named after
// the "ronin" rigs are Ronin-tier, otherwise the osnova flag decides.
func DeriveAccessTier(name string, osnovaOnly bool) AccessTier {
	if strings.Contains(strings.ToLower(name), "ronin") {
		return TierRonin
	}
	if osnovaOnly {
		return TierOsnova
	}
	return TierUser
}
