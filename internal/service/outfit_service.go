package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitbook/internal/domain"
	"fitbook/internal/outfit"
	"fitbook/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotOutfitOwner   = errors.New("outfit belongs to another user")
	ErrOutfitNotVisible = errors.New("outfit is not public")
	ErrUnknownItems     = errors.New("composition references items outside the wardrobe")
)

// AmountConverter is the slice of the currency service the outfit service
// needs for display totals.
type AmountConverter interface {
	ConvertAmount(ctx context.Context, amount float64, from, to domain.Currency) (float64, error)
	FormatAmount(amount float64, cur domain.Currency) string
}

// OutfitInput is a builder save submission: metadata plus the flat
// composition list produced by the builder state.
type OutfitInput struct {
	Title       string
	Description string
	IsPublic    bool
	Items       []outfit.SavedItem
}

// Money is a display amount paired with its currency and formatted form.
type Money struct {
	Amount    float64         `json:"amount"`
	Currency  domain.Currency `json:"currency"`
	Formatted string          `json:"formatted"`
}

// OutfitView is an outfit enriched with computed totals. Total is the raw
// sum labeled with the dominant currency; DisplayTotal is that sum converted
// into the viewer's preferred currency. When the conversion is impossible
// (provider down, no fallback) DisplayTotal degrades to Total rather than
// failing the read.
type OutfitView struct {
	*domain.Outfit
	Total        Money `json:"total"`
	DisplayTotal Money `json:"display_total"`
}

// OutfitService defines the interface for outfit business logic
type OutfitService interface {
	CreateOutfit(ctx context.Context, ownerID uuid.UUID, input OutfitInput) (*OutfitView, error)
	UpdateOutfit(ctx context.Context, ownerID, outfitID uuid.UUID, input OutfitInput) (*OutfitView, error)
	DeleteOutfit(ctx context.Context, ownerID, outfitID uuid.UUID) error
	ForceDeleteOutfit(ctx context.Context, outfitID uuid.UUID) error
	GetOutfit(ctx context.Context, viewerID uuid.UUID, outfitID uuid.UUID, display domain.Currency) (*OutfitView, error)
	ListPublicOutfits(ctx context.Context, limit int, cursorToken string, display domain.Currency) ([]*OutfitView, string, error)
	ListMyOutfits(ctx context.Context, ownerID uuid.UUID, limit int, cursorToken string, display domain.Currency) ([]*OutfitView, string, error)
	Upvote(ctx context.Context, outfitID, userID uuid.UUID) error
	RemoveUpvote(ctx context.Context, outfitID, userID uuid.UUID) error
	SaveOutfit(ctx context.Context, outfitID, userID uuid.UUID) error
	UnsaveOutfit(ctx context.Context, outfitID, userID uuid.UUID) error
}

type outfitService struct {
	outfitRepo repository.OutfitRepository
	itemRepo   repository.WardrobeItemRepository
	converter  AmountConverter
	logger     *zap.Logger
}

// NewOutfitService creates a new instance of OutfitService
func NewOutfitService(
	outfitRepo repository.OutfitRepository,
	itemRepo repository.WardrobeItemRepository,
	converter AmountConverter,
	logger *zap.Logger,
) OutfitService {
	return &outfitService{
		outfitRepo: outfitRepo,
		itemRepo:   itemRepo,
		converter:  converter,
		logger:     logger,
	}
}

// resolveComposition checks every referenced item exists and belongs to the
// owner, then validates the position tags by rebuilding the builder state.
func (s *outfitService) resolveComposition(ctx context.Context, ownerID uuid.UUID, saved []outfit.SavedItem) ([]domain.OutfitItem, error) {
	ids := make([]uuid.UUID, 0, len(saved))
	for _, entry := range saved {
		ids = append(ids, entry.WardrobeItemID)
	}

	byID, err := s.itemRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]domain.OutfitItem, 0, len(saved))
	for _, entry := range saved {
		item, ok := byID[entry.WardrobeItemID]
		if !ok || item.OwnerID != ownerID {
			return nil, ErrUnknownItems
		}
		items = append(items, domain.OutfitItem{
			ID:             uuid.New(),
			WardrobeItemID: entry.WardrobeItemID,
			Position:       entry.Position,
			Item:           item,
		})
	}

	// Rehydration rejects malformed position tags and slot/category
	// mismatches before anything is persisted.
	if _, err := outfit.Rehydrate(outfit.ModeDesktop, outfit.DefaultRegion, items); err != nil {
		return nil, fmt.Errorf("invalid composition: %w", err)
	}

	return items, nil
}

// CreateOutfit persists a builder save submission
func (s *outfitService) CreateOutfit(ctx context.Context, ownerID uuid.UUID, input OutfitInput) (*OutfitView, error) {
	items, err := s.resolveComposition(ctx, ownerID, input.Items)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	o := &domain.Outfit{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		IsPublic:    input.IsPublic,
		Items:       items,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.outfitRepo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create outfit: %w", err)
	}

	return s.view(ctx, o, ""), nil
}

// UpdateOutfit replaces an outfit's metadata and composition wholesale,
// mirroring the builder's save-success semantics.
func (s *outfitService) UpdateOutfit(ctx context.Context, ownerID, outfitID uuid.UUID, input OutfitInput) (*OutfitView, error) {
	existing, err := s.outfitRepo.FindByID(ctx, outfitID)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != ownerID {
		return nil, ErrNotOutfitOwner
	}

	items, err := s.resolveComposition(ctx, ownerID, input.Items)
	if err != nil {
		return nil, err
	}

	existing.Title = input.Title
	existing.Description = input.Description
	existing.IsPublic = input.IsPublic
	existing.Items = items
	existing.UpdatedAt = time.Now()

	if err := s.outfitRepo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update outfit: %w", err)
	}

	return s.view(ctx, existing, ""), nil
}

// DeleteOutfit removes an outfit after an ownership check
func (s *outfitService) DeleteOutfit(ctx context.Context, ownerID, outfitID uuid.UUID) error {
	existing, err := s.outfitRepo.FindByID(ctx, outfitID)
	if err != nil {
		return err
	}
	if existing.OwnerID != ownerID {
		return ErrNotOutfitOwner
	}

	return s.outfitRepo.Delete(ctx, outfitID)
}

// ForceDeleteOutfit removes any outfit regardless of owner. Reserved for
// moderation; route-level authorization gates access.
func (s *outfitService) ForceDeleteOutfit(ctx context.Context, outfitID uuid.UUID) error {
	return s.outfitRepo.Delete(ctx, outfitID)
}

// GetOutfit retrieves one outfit, visible to its owner or anyone when public
func (s *outfitService) GetOutfit(ctx context.Context, viewerID uuid.UUID, outfitID uuid.UUID, display domain.Currency) (*OutfitView, error) {
	o, err := s.outfitRepo.FindByID(ctx, outfitID)
	if err != nil {
		return nil, err
	}
	if !o.IsPublic && o.OwnerID != viewerID {
		return nil, ErrOutfitNotVisible
	}

	return s.view(ctx, o, display), nil
}

// ListPublicOutfits returns one page of the public feed
func (s *outfitService) ListPublicOutfits(ctx context.Context, limit int, cursorToken string, display domain.Currency) ([]*OutfitView, string, error) {
	cursor, err := repository.DecodeCursor(cursorToken)
	if err != nil {
		return nil, "", err
	}

	outfits, next, err := s.outfitRepo.ListPublic(ctx, limit, cursor)
	if err != nil {
		return nil, "", err
	}

	return s.views(ctx, outfits, display), encodeCursor(next), nil
}

// ListMyOutfits returns one page of the owner's outfits, public or not
func (s *outfitService) ListMyOutfits(ctx context.Context, ownerID uuid.UUID, limit int, cursorToken string, display domain.Currency) ([]*OutfitView, string, error) {
	cursor, err := repository.DecodeCursor(cursorToken)
	if err != nil {
		return nil, "", err
	}

	outfits, next, err := s.outfitRepo.ListByOwner(ctx, ownerID, limit, cursor)
	if err != nil {
		return nil, "", err
	}

	return s.views(ctx, outfits, display), encodeCursor(next), nil
}

func (s *outfitService) requirePublicOrOwned(ctx context.Context, outfitID, userID uuid.UUID) error {
	o, err := s.outfitRepo.FindByID(ctx, outfitID)
	if err != nil {
		return err
	}
	if !o.IsPublic && o.OwnerID != userID {
		return ErrOutfitNotVisible
	}
	return nil
}

// Upvote records an upvote on a visible outfit
func (s *outfitService) Upvote(ctx context.Context, outfitID, userID uuid.UUID) error {
	if err := s.requirePublicOrOwned(ctx, outfitID, userID); err != nil {
		return err
	}
	return s.outfitRepo.Upvote(ctx, outfitID, userID)
}

// RemoveUpvote withdraws an upvote
func (s *outfitService) RemoveUpvote(ctx context.Context, outfitID, userID uuid.UUID) error {
	return s.outfitRepo.RemoveUpvote(ctx, outfitID, userID)
}

// SaveOutfit adds a visible outfit to the user's collection
func (s *outfitService) SaveOutfit(ctx context.Context, outfitID, userID uuid.UUID) error {
	if err := s.requirePublicOrOwned(ctx, outfitID, userID); err != nil {
		return err
	}
	return s.outfitRepo.SaveForUser(ctx, outfitID, userID)
}

// UnsaveOutfit removes an outfit from the user's collection
func (s *outfitService) UnsaveOutfit(ctx context.Context, outfitID, userID uuid.UUID) error {
	return s.outfitRepo.UnsaveForUser(ctx, outfitID, userID)
}

// view computes the outfit's totals. The raw sum is labeled with the
// dominant currency; when a display currency is given the sum is converted,
// degrading to the raw figure if no rate can be had.
func (s *outfitService) view(ctx context.Context, o *domain.Outfit, display domain.Currency) *OutfitView {
	state, err := outfit.Rehydrate(outfit.ModeDesktop, outfit.DefaultRegion, o.Items)
	if err != nil {
		// Persisted compositions are validated on write; log and fall
		// back to an empty state rather than failing the read.
		s.logger.Error("Stored outfit failed to rehydrate",
			zap.String("outfit_id", o.ID.String()),
			zap.Error(err),
		)
		state = outfit.NewState(outfit.ModeDesktop, outfit.DefaultRegion)
	}

	raw := state.TotalCost()
	dominant := state.DominantCurrency()

	total := Money{
		Amount:    raw,
		Currency:  dominant,
		Formatted: s.converter.FormatAmount(raw, dominant),
	}

	displayTotal := total
	if display.IsValid() && display != dominant {
		converted, err := s.converter.ConvertAmount(ctx, raw, dominant, display)
		if err != nil {
			s.logger.Warn("Display conversion unavailable, showing raw total",
				zap.String("from", dominant.String()),
				zap.String("to", display.String()),
				zap.Error(err),
			)
		} else {
			displayTotal = Money{
				Amount:    converted,
				Currency:  display,
				Formatted: s.converter.FormatAmount(converted, display),
			}
		}
	}

	return &OutfitView{Outfit: o, Total: total, DisplayTotal: displayTotal}
}

func (s *outfitService) views(ctx context.Context, outfits []*domain.Outfit, display domain.Currency) []*OutfitView {
	views := make([]*OutfitView, len(outfits))
	for i, o := range outfits {
		views[i] = s.view(ctx, o, display)
	}
	return views
}
