package outfit

import (
	"errors"

	"fitbook/internal/domain"
)

// SlotName is one of the five fixed named positions in an outfit. Accessories
// never occupy a slot; they live in the builder's unbounded accessory list.
type SlotName string

const (
	SlotHeadwear  SlotName = "headwear"
	SlotOuterwear SlotName = "outerwear"
	SlotTop       SlotName = "top"
	SlotBottom    SlotName = "bottom"
	SlotShoes     SlotName = "shoes"
)

var (
	ErrInvalidCategory  = errors.New("item category is outside the closed set")
	ErrUnknownSlot      = errors.New("unknown slot name")
	ErrCategoryMismatch = errors.New("item category does not map onto the target slot")
)

// SlotOrder is the fixed enumeration order of the slot map, used when
// walking filled slots for totals and dominant-currency counting.
var SlotOrder = []SlotName{SlotHeadwear, SlotOuterwear, SlotTop, SlotBottom, SlotShoes}

// displayOrder is the top-to-bottom visual order of the reference slots in
// the builder's drop region, used only to infer an accessory's preferred
// display position from a cursor coordinate.
var displayOrder = []SlotName{SlotHeadwear, SlotTop, SlotOuterwear, SlotBottom, SlotShoes}

// categoryToSlot is the total mapping from the five non-accessory categories
// onto their slots.
var categoryToSlot = map[domain.Category]SlotName{
	domain.CategoryHeadwear:  SlotHeadwear,
	domain.CategoryTops:      SlotTop,
	domain.CategoryBottoms:   SlotBottom,
	domain.CategoryOuterwear: SlotOuterwear,
	domain.CategoryShoes:     SlotShoes,
}

// SlotFor returns the slot an item of the given category belongs to.
// Accessories have no slot; callers route them to the accessory list.
func SlotFor(category domain.Category) (SlotName, bool) {
	slot, ok := categoryToSlot[category]
	return slot, ok
}

// IsValid reports whether s names one of the five fixed slots.
func (s SlotName) IsValid() bool {
	switch s {
	case SlotHeadwear, SlotOuterwear, SlotTop, SlotBottom, SlotShoes:
		return true
	}
	return false
}

func (s SlotName) String() string {
	return string(s)
}
