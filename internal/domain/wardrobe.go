package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a wardrobe item. The set is closed; incoming values are
// validated at the API boundary before they reach the outfit builder.
type Category string

const (
	CategoryHeadwear    Category = "headwear"
	CategoryTops        Category = "tops"
	CategoryBottoms     Category = "bottoms"
	CategoryOuterwear   Category = "outerwear"
	CategoryShoes       Category = "shoes"
	CategoryAccessories Category = "accessories"
)

// Categories lists every valid wardrobe item category.
var Categories = []Category{
	CategoryHeadwear,
	CategoryTops,
	CategoryBottoms,
	CategoryOuterwear,
	CategoryShoes,
	CategoryAccessories,
}

// IsValid reports whether c is a member of the closed category set.
func (c Category) IsValid() bool {
	switch c {
	case CategoryHeadwear, CategoryTops, CategoryBottoms,
		CategoryOuterwear, CategoryShoes, CategoryAccessories:
		return true
	}
	return false
}

// WardrobeItem represents a single cataloged clothing item
type WardrobeItem struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	OwnerID       uuid.UUID   `json:"owner_id" db:"owner_id"`
	Name          string      `json:"name" db:"name"`
	Description   string      `json:"description" db:"description"`
	Category      Category    `json:"category" db:"category"`
	Price         float64     `json:"price" db:"price"`
	PriceCurrency Currency    `json:"price_currency" db:"price_currency"`
	Images        []ItemImage `json:"images"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// PrimaryImage returns the image flagged as primary, or the first image when
// none is flagged. Returns nil for an item with no images.
func (w *WardrobeItem) PrimaryImage() *ItemImage {
	for i := range w.Images {
		if w.Images[i].IsPrimary {
			return &w.Images[i]
		}
	}
	if len(w.Images) > 0 {
		return &w.Images[0]
	}
	return nil
}

// ItemImage is one image attached to a wardrobe item. At most one image per
// item carries the primary flag; the invariant is enforced by the wardrobe
// service and a partial unique index.
type ItemImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ItemID    uuid.UUID `json:"item_id" db:"item_id"`
	URL       string    `json:"url" db:"url"`
	IsPrimary bool      `json:"is_primary" db:"is_primary"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
