package outfit

import (
	"math"

	"fitbook/internal/domain"
)

// RegionGeometry describes the builder's drop region as plain numbers so the
// cursor-to-slot mapping is testable without a rendering surface.
type RegionGeometry struct {
	Top    float64
	Height float64
}

// DefaultRegion is used when a session starts before the client has reported
// its real geometry.
var DefaultRegion = RegionGeometry{Top: 0, Height: 500}

// Mode selects how a session supplies placement targets. It is chosen once at
// session start from the viewport and does not change mid-session.
type Mode string

const (
	// ModeDesktop infers accessory positions from the drag cursor.
	ModeDesktop Mode = "desktop"
	// ModeMobile receives explicit slot selections from a picker sheet.
	ModeMobile Mode = "mobile"
)

// ResolveTargetSlot decides where a dragged item is headed. Non-accessory
// items resolve through the fixed category mapping. Accessories resolve to a
// preferred display position: the reference slot whose vertical band contains
// cursorY, clamped to the region. A nil cursorY defaults to the topmost band.
//
// The returned name is a real slot for non-accessories and a layout tag for
// accessories; accessories always live in the accessory list regardless.
func ResolveTargetSlot(item *domain.WardrobeItem, cursorY *float64, region RegionGeometry) (SlotName, error) {
	if item.Category != domain.CategoryAccessories {
		slot, ok := SlotFor(item.Category)
		if !ok {
			return "", ErrInvalidCategory
		}
		return slot, nil
	}

	if cursorY == nil {
		return displayOrder[0], nil
	}

	index := bandIndex(*cursorY, region, len(displayOrder))
	return displayOrder[index], nil
}

// bandIndex maps a vertical coordinate to one of count equal-height bands,
// clamped to [0, count-1]. A degenerate region height resolves to band 0.
func bandIndex(y float64, region RegionGeometry, count int) int {
	if region.Height <= 0 {
		return 0
	}

	perBand := region.Height / float64(count)
	index := int(math.Floor((y - region.Top) / perBand))

	if index < 0 {
		return 0
	}
	if index >= count {
		return count - 1
	}
	return index
}
