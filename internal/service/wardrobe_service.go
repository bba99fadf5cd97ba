package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitbook/internal/domain"
	"fitbook/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrNotItemOwner       = errors.New("wardrobe item belongs to another user")
	ErrInvalidCategory    = errors.New("unsupported item category")
	ErrInvalidPrice       = errors.New("price must be a non-negative number")
	ErrMultiplePrimary    = errors.New("an item may have at most one primary image")
)

// ItemInput carries the caller-supplied fields for creating or updating a
// wardrobe item.
type ItemInput struct {
	Name          string
	Description   string
	Category      domain.Category
	Price         float64
	PriceCurrency domain.Currency
	Images        []ImageInput
}

// ImageInput is one image URL attached to an item.
type ImageInput struct {
	URL       string
	IsPrimary bool
}

// WardrobeService defines the interface for wardrobe item business logic
type WardrobeService interface {
	CreateItem(ctx context.Context, ownerID uuid.UUID, input ItemInput) (*domain.WardrobeItem, error)
	UpdateItem(ctx context.Context, ownerID, itemID uuid.UUID, input ItemInput) (*domain.WardrobeItem, error)
	DeleteItem(ctx context.Context, ownerID, itemID uuid.UUID) error
	GetItem(ctx context.Context, itemID uuid.UUID) (*domain.WardrobeItem, error)
	ListItems(ctx context.Context, ownerID uuid.UUID, category *domain.Category, limit int, cursorToken string) ([]*domain.WardrobeItem, string, error)
	SearchItems(ctx context.Context, ownerID uuid.UUID, query string, limit int, cursorToken string) ([]*domain.WardrobeItem, string, error)
}

type wardrobeService struct {
	itemRepo repository.WardrobeItemRepository
}

// NewWardrobeService creates a new instance of WardrobeService
func NewWardrobeService(itemRepo repository.WardrobeItemRepository) WardrobeService {
	return &wardrobeService{itemRepo: itemRepo}
}

func (s *wardrobeService) validate(input ItemInput) error {
	if !input.Category.IsValid() {
		return ErrInvalidCategory
	}
	if input.Price < 0 {
		return ErrInvalidPrice
	}
	if !input.PriceCurrency.IsValid() {
		return ErrInvalidCurrency
	}

	primaries := 0
	for _, img := range input.Images {
		if img.IsPrimary {
			primaries++
		}
	}
	if primaries > 1 {
		return ErrMultiplePrimary
	}

	return nil
}

func buildImages(inputs []ImageInput, now time.Time) []domain.ItemImage {
	images := make([]domain.ItemImage, len(inputs))
	for i, in := range inputs {
		images[i] = domain.ItemImage{
			ID:        uuid.New(),
			URL:       in.URL,
			IsPrimary: in.IsPrimary,
			SortOrder: i,
			CreatedAt: now,
		}
	}
	return images
}

// CreateItem validates and stores a new wardrobe item
func (s *wardrobeService) CreateItem(ctx context.Context, ownerID uuid.UUID, input ItemInput) (*domain.WardrobeItem, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	now := time.Now()
	item := &domain.WardrobeItem{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Name:          input.Name,
		Description:   input.Description,
		Category:      input.Category,
		Price:         input.Price,
		PriceCurrency: input.PriceCurrency,
		Images:        buildImages(input.Images, now),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create wardrobe item: %w", err)
	}

	return item, nil
}

// UpdateItem validates ownership and rewrites the item
func (s *wardrobeService) UpdateItem(ctx context.Context, ownerID, itemID uuid.UUID, input ItemInput) (*domain.WardrobeItem, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	existing, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != ownerID {
		return nil, ErrNotItemOwner
	}

	now := time.Now()
	existing.Name = input.Name
	existing.Description = input.Description
	existing.Category = input.Category
	existing.Price = input.Price
	existing.PriceCurrency = input.PriceCurrency
	existing.Images = buildImages(input.Images, now)
	existing.UpdatedAt = now

	if err := s.itemRepo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update wardrobe item: %w", err)
	}

	return existing, nil
}

// DeleteItem validates ownership and removes the item
func (s *wardrobeService) DeleteItem(ctx context.Context, ownerID, itemID uuid.UUID) error {
	existing, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return err
	}
	if existing.OwnerID != ownerID {
		return ErrNotItemOwner
	}

	return s.itemRepo.Delete(ctx, itemID)
}

// GetItem retrieves one item with its images
func (s *wardrobeService) GetItem(ctx context.Context, itemID uuid.UUID) (*domain.WardrobeItem, error) {
	return s.itemRepo.FindByID(ctx, itemID)
}

// ListItems returns one page of the owner's wardrobe and the cursor token
// for the next page, empty when this is the last page.
func (s *wardrobeService) ListItems(ctx context.Context, ownerID uuid.UUID, category *domain.Category, limit int, cursorToken string) ([]*domain.WardrobeItem, string, error) {
	if category != nil && !category.IsValid() {
		return nil, "", ErrInvalidCategory
	}

	cursor, err := repository.DecodeCursor(cursorToken)
	if err != nil {
		return nil, "", err
	}

	items, next, err := s.itemRepo.ListByOwner(ctx, ownerID, category, limit, cursor)
	if err != nil {
		return nil, "", err
	}

	return items, encodeCursor(next), nil
}

// SearchItems returns one page of matches for a free-text query
func (s *wardrobeService) SearchItems(ctx context.Context, ownerID uuid.UUID, query string, limit int, cursorToken string) ([]*domain.WardrobeItem, string, error) {
	cursor, err := repository.DecodeCursor(cursorToken)
	if err != nil {
		return nil, "", err
	}

	items, next, err := s.itemRepo.Search(ctx, ownerID, query, limit, cursor)
	if err != nil {
		return nil, "", err
	}

	return items, encodeCursor(next), nil
}

func encodeCursor(c *repository.Cursor) string {
	if c == nil {
		return ""
	}
	return c.Encode()
}
