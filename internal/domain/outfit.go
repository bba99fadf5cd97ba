package domain

import (
	"time"

	"github.com/google/uuid"
)

// Outfit is a saved composition of wardrobe items
type Outfit struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	OwnerID     uuid.UUID    `json:"owner_id" db:"owner_id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	IsPublic    bool         `json:"is_public" db:"is_public"`
	Items       []OutfitItem `json:"items"`
	Upvotes     int          `json:"upvotes"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// OutfitItem links one wardrobe item into an outfit. Position is either a
// slot name ("top", "shoes", ...) or an "accessory_<index>" tag, exactly as
// produced by the builder's save payload.
type OutfitItem struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OutfitID       uuid.UUID `json:"outfit_id" db:"outfit_id"`
	WardrobeItemID uuid.UUID `json:"wardrobe_item_id" db:"wardrobe_item_id"`
	Position       string    `json:"position" db:"position"`
	Item           *WardrobeItem `json:"item,omitempty"`
}
