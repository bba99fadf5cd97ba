package outfit

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fitbook/internal/domain"

	"github.com/google/uuid"
)

// Accessory is one entry in the builder's unbounded accessory list. Position
// is layout metadata only, recording which reference slot's band the item was
// dropped into.
type Accessory struct {
	Item     *domain.WardrobeItem
	Position SlotName
}

// State is the in-memory composition of one builder session. It is owned
// exclusively by the session that created it and is never shared.
type State struct {
	Slots       map[SlotName]*domain.WardrobeItem
	Accessories []Accessory
	Region      RegionGeometry
	Mode        Mode
}

// NewState creates an empty builder state for a fresh session.
func NewState(mode Mode, region RegionGeometry) *State {
	return &State{
		Slots:  make(map[SlotName]*domain.WardrobeItem),
		Region: region,
		Mode:   mode,
	}
}

// Clone returns a deep-enough copy for snapshot/revert: the slot map and
// accessory list are copied, the immutable items are shared.
func (s *State) Clone() *State {
	clone := &State{
		Slots:       make(map[SlotName]*domain.WardrobeItem, len(s.Slots)),
		Accessories: make([]Accessory, len(s.Accessories)),
		Region:      s.Region,
		Mode:        s.Mode,
	}
	for slot, item := range s.Slots {
		clone.Slots[slot] = item
	}
	copy(clone.Accessories, s.Accessories)
	return clone
}

// PlaceItem routes item into the composition. Non-accessory items overwrite
// their resolved slot's occupant; accessories are appended to the accessory
// list tagged with their resolved position. The same accessory may be added
// more than once.
func (s *State) PlaceItem(item *domain.WardrobeItem, cursorY *float64) error {
	target, err := ResolveTargetSlot(item, cursorY, s.Region)
	if err != nil {
		return err
	}

	if item.Category == domain.CategoryAccessories {
		s.Accessories = append(s.Accessories, Accessory{Item: item, Position: target})
		return nil
	}

	s.Slots[target] = item
	return nil
}

// PlaceInSlot places item into an explicitly chosen slot, the mobile picker
// path. The slot must exist and the item's category must map onto it.
func (s *State) PlaceInSlot(slot SlotName, item *domain.WardrobeItem) error {
	if !slot.IsValid() {
		return ErrUnknownSlot
	}

	expected, ok := SlotFor(item.Category)
	if !ok {
		return ErrInvalidCategory
	}
	if expected != slot {
		return ErrCategoryMismatch
	}

	s.Slots[slot] = item
	return nil
}

// RemoveFromSlot empties the named slot. A no-op when the slot is already
// empty or the name is unknown; removal never errors.
func (s *State) RemoveFromSlot(slot SlotName) {
	delete(s.Slots, slot)
}

// RemoveAccessory drops the accessory at index. Out-of-range indexes are
// ignored rather than crashing the session.
func (s *State) RemoveAccessory(index int) {
	if index < 0 || index >= len(s.Accessories) {
		return
	}
	s.Accessories = append(s.Accessories[:index], s.Accessories[index+1:]...)
}

// Items enumerates every contained item: filled slots in the fixed slot
// order, then accessories in insertion order.
func (s *State) Items() []*domain.WardrobeItem {
	items := make([]*domain.WardrobeItem, 0, len(s.Slots)+len(s.Accessories))
	for _, slot := range SlotOrder {
		if item, ok := s.Slots[slot]; ok && item != nil {
			items = append(items, item)
		}
	}
	for _, acc := range s.Accessories {
		items = append(items, acc.Item)
	}
	return items
}

// TotalCost sums the price of every filled slot and every accessory in each
// item's original currency. The raw sum is only meaningful when all items
// share a currency; display layers convert it via the currency service using
// DominantCurrency as the source label before showing a unified figure.
func (s *State) TotalCost() float64 {
	var total float64
	for _, item := range s.Items() {
		total += item.Price
	}
	return total
}

// DominantCurrency returns the currency used by the largest number of
// contained items, walking filled slots in the fixed slot order and then
// accessories in insertion order. Ties break toward the currency encountered
// first. An empty composition defaults to USD.
func (s *State) DominantCurrency() domain.Currency {
	items := s.Items()
	if len(items) == 0 {
		return domain.USD
	}

	counts := make(map[domain.Currency]int)
	firstSeen := make(map[domain.Currency]int)
	for i, item := range items {
		if _, seen := firstSeen[item.PriceCurrency]; !seen {
			firstSeen[item.PriceCurrency] = i
		}
		counts[item.PriceCurrency]++
	}

	best := items[0].PriceCurrency
	for cur, count := range counts {
		if count > counts[best] || (count == counts[best] && firstSeen[cur] < firstSeen[best]) {
			best = cur
		}
	}
	return best
}

// SavedItem is one entry of the flat composition list submitted to the save
// endpoint: a wardrobe item reference plus a position that is either a slot
// name or an accessory_<index> tag.
type SavedItem struct {
	WardrobeItemID uuid.UUID `json:"wardrobe_item_id"`
	Position       string    `json:"position"`
}

const accessoryPositionPrefix = "accessory_"

// SavePayload flattens the composition for persistence: filled slots in the
// fixed slot order, then accessories tagged accessory_0, accessory_1, ... in
// insertion order.
func (s *State) SavePayload() []SavedItem {
	payload := make([]SavedItem, 0, len(s.Slots)+len(s.Accessories))
	for _, slot := range SlotOrder {
		if item, ok := s.Slots[slot]; ok && item != nil {
			payload = append(payload, SavedItem{WardrobeItemID: item.ID, Position: slot.String()})
		}
	}
	for i, acc := range s.Accessories {
		payload = append(payload, SavedItem{
			WardrobeItemID: acc.Item.ID,
			Position:       accessoryPositionPrefix + strconv.Itoa(i),
		})
	}
	return payload
}

// AccessoryIndex parses an accessory position tag. Returns the index and true
// for a well-formed tag, false otherwise.
func AccessoryIndex(position string) (int, bool) {
	rest, ok := strings.CutPrefix(position, accessoryPositionPrefix)
	if !ok {
		return 0, false
	}
	index, err := strconv.Atoi(rest)
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}

// Rehydrate rebuilds a builder state from persisted outfit items, seeding an
// edit-existing session. Slot positions land in their slots; accessory tags
// are restored in index order. A position that is neither is rejected.
func Rehydrate(mode Mode, region RegionGeometry, items []domain.OutfitItem) (*State, error) {
	state := NewState(mode, region)

	type indexed struct {
		index int
		item  *domain.WardrobeItem
	}
	var accessories []indexed

	for _, oi := range items {
		if oi.Item == nil {
			continue
		}

		if slot := SlotName(oi.Position); slot.IsValid() {
			if err := state.PlaceInSlot(slot, oi.Item); err != nil {
				return nil, fmt.Errorf("failed to restore slot %s: %w", slot, err)
			}
			continue
		}

		index, ok := AccessoryIndex(oi.Position)
		if !ok {
			return nil, fmt.Errorf("unrecognized outfit position %q", oi.Position)
		}
		accessories = append(accessories, indexed{index: index, item: oi.Item})
	}

	sort.Slice(accessories, func(i, j int) bool { return accessories[i].index < accessories[j].index })
	for _, acc := range accessories {
		state.Accessories = append(state.Accessories, Accessory{Item: acc.item, Position: displayOrder[0]})
	}

	return state, nil
}
