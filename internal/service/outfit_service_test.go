package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fitbook/internal/domain"
	"fitbook/internal/outfit"
	"fitbook/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Mock repositories for testing
type mockOutfitRepository struct {
	outfits map[uuid.UUID]*domain.Outfit
	upvotes map[uuid.UUID]map[uuid.UUID]bool
	saves   map[uuid.UUID]map[uuid.UUID]bool
}

func newMockOutfitRepository() *mockOutfitRepository {
	return &mockOutfitRepository{
		outfits: make(map[uuid.UUID]*domain.Outfit),
		upvotes: make(map[uuid.UUID]map[uuid.UUID]bool),
		saves:   make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (m *mockOutfitRepository) Create(ctx context.Context, o *domain.Outfit) error {
	m.outfits[o.ID] = o
	return nil
}

func (m *mockOutfitRepository) Update(ctx context.Context, o *domain.Outfit) error {
	if _, exists := m.outfits[o.ID]; !exists {
		return repository.ErrOutfitNotFound
	}
	m.outfits[o.ID] = o
	return nil
}

func (m *mockOutfitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.outfits[id]; !exists {
		return repository.ErrOutfitNotFound
	}
	delete(m.outfits, id)
	return nil
}

func (m *mockOutfitRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Outfit, error) {
	o, exists := m.outfits[id]
	if !exists {
		return nil, repository.ErrOutfitNotFound
	}
	return o, nil
}

func (m *mockOutfitRepository) ListPublic(ctx context.Context, limit int, cursor *repository.Cursor) ([]*domain.Outfit, *repository.Cursor, error) {
	var result []*domain.Outfit
	for _, o := range m.outfits {
		if o.IsPublic {
			result = append(result, o)
		}
	}
	return result, nil, nil
}

func (m *mockOutfitRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int, cursor *repository.Cursor) ([]*domain.Outfit, *repository.Cursor, error) {
	var result []*domain.Outfit
	for _, o := range m.outfits {
		if o.OwnerID == ownerID {
			result = append(result, o)
		}
	}
	return result, nil, nil
}

func (m *mockOutfitRepository) Upvote(ctx context.Context, outfitID, userID uuid.UUID) error {
	if m.upvotes[outfitID] == nil {
		m.upvotes[outfitID] = make(map[uuid.UUID]bool)
	}
	m.upvotes[outfitID][userID] = true
	return nil
}

func (m *mockOutfitRepository) RemoveUpvote(ctx context.Context, outfitID, userID uuid.UUID) error {
	delete(m.upvotes[outfitID], userID)
	return nil
}

func (m *mockOutfitRepository) SaveForUser(ctx context.Context, outfitID, userID uuid.UUID) error {
	if m.saves[outfitID] == nil {
		m.saves[outfitID] = make(map[uuid.UUID]bool)
	}
	m.saves[outfitID][userID] = true
	return nil
}

func (m *mockOutfitRepository) UnsaveForUser(ctx context.Context, outfitID, userID uuid.UUID) error {
	delete(m.saves[outfitID], userID)
	return nil
}

type mockItemRepository struct {
	items map[uuid.UUID]*domain.WardrobeItem
}

func newMockItemRepository() *mockItemRepository {
	return &mockItemRepository{items: make(map[uuid.UUID]*domain.WardrobeItem)}
}

func (m *mockItemRepository) Create(ctx context.Context, item *domain.WardrobeItem) error {
	m.items[item.ID] = item
	return nil
}

func (m *mockItemRepository) Update(ctx context.Context, item *domain.WardrobeItem) error {
	if _, exists := m.items[item.ID]; !exists {
		return repository.ErrItemNotFound
	}
	m.items[item.ID] = item
	return nil
}

func (m *mockItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.items[id]; !exists {
		return repository.ErrItemNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *mockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.WardrobeItem, error) {
	item, exists := m.items[id]
	if !exists {
		return nil, repository.ErrItemNotFound
	}
	return item, nil
}

func (m *mockItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.WardrobeItem, error) {
	found := make(map[uuid.UUID]*domain.WardrobeItem)
	for _, id := range ids {
		if item, exists := m.items[id]; exists {
			found[id] = item
		}
	}
	return found, nil
}

func (m *mockItemRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, category *domain.Category, limit int, cursor *repository.Cursor) ([]*domain.WardrobeItem, *repository.Cursor, error) {
	var result []*domain.WardrobeItem
	for _, item := range m.items {
		if item.OwnerID == ownerID && (category == nil || item.Category == *category) {
			result = append(result, item)
		}
	}
	return result, nil, nil
}

func (m *mockItemRepository) Search(ctx context.Context, ownerID uuid.UUID, query string, limit int, cursor *repository.Cursor) ([]*domain.WardrobeItem, *repository.Cursor, error) {
	return m.ListByOwner(ctx, ownerID, nil, limit, cursor)
}

// stubConverter applies fixed rates so display totals are predictable.
type stubConverter struct {
	rates map[string]float64
	err   error
}

func (s *stubConverter) ConvertAmount(ctx context.Context, amount float64, from, to domain.Currency) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if from == to {
		return amount, nil
	}
	return amount * s.rates[from.String()+to.String()], nil
}

func (s *stubConverter) FormatAmount(amount float64, cur domain.Currency) string {
	return cur.String()
}

func newTestOutfitService(conv AmountConverter) (OutfitService, *mockOutfitRepository, *mockItemRepository) {
	outfitRepo := newMockOutfitRepository()
	itemRepo := newMockItemRepository()
	if conv == nil {
		conv = &stubConverter{}
	}
	svc := NewOutfitService(outfitRepo, itemRepo, conv, zap.NewNop())
	return svc, outfitRepo, itemRepo
}

func seedItem(t *testing.T, repo *mockItemRepository, ownerID uuid.UUID, category domain.Category, price float64, cur domain.Currency) *domain.WardrobeItem {
	t.Helper()
	item := &domain.WardrobeItem{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Name:          string(category) + " item",
		Category:      category,
		Price:         price,
		PriceCurrency: cur,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := repo.Create(context.Background(), item); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func TestCreateOutfit_ComputesTotals(t *testing.T) {
	svc, _, itemRepo := newTestOutfitService(nil)
	ctx := context.Background()
	owner := uuid.New()

	top := seedItem(t, itemRepo, owner, domain.CategoryTops, 20, domain.USD)
	belt := seedItem(t, itemRepo, owner, domain.CategoryAccessories, 5, domain.USD)
	scarf := seedItem(t, itemRepo, owner, domain.CategoryAccessories, 3, domain.EUR)

	view, err := svc.CreateOutfit(ctx, owner, OutfitInput{
		Title:    "spring look",
		IsPublic: true,
		Items: []outfit.SavedItem{
			{WardrobeItemID: top.ID, Position: "top"},
			{WardrobeItemID: belt.ID, Position: "accessory_0"},
			{WardrobeItemID: scarf.ID, Position: "accessory_1"},
		},
	})
	if err != nil {
		t.Fatalf("CreateOutfit failed: %v", err)
	}

	// Raw sum across mixed currencies: 20 + 5 + 3.
	if view.Total.Amount != 28 {
		t.Errorf("expected total 28, got %v", view.Total.Amount)
	}
	if view.Total.Currency != domain.USD {
		t.Errorf("expected dominant currency USD, got %s", view.Total.Currency)
	}
}

func TestCreateOutfit_RejectsForeignItems(t *testing.T) {
	svc, _, itemRepo := newTestOutfitService(nil)
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	theirTop := seedItem(t, itemRepo, stranger, domain.CategoryTops, 20, domain.USD)

	_, err := svc.CreateOutfit(ctx, owner, OutfitInput{
		Title: "borrowed",
		Items: []outfit.SavedItem{{WardrobeItemID: theirTop.ID, Position: "top"}},
	})
	if !errors.Is(err, ErrUnknownItems) {
		t.Errorf("expected ErrUnknownItems for another user's item, got %v", err)
	}

	_, err = svc.CreateOutfit(ctx, owner, OutfitInput{
		Title: "phantom",
		Items: []outfit.SavedItem{{WardrobeItemID: uuid.New(), Position: "top"}},
	})
	if !errors.Is(err, ErrUnknownItems) {
		t.Errorf("expected ErrUnknownItems for a missing item, got %v", err)
	}
}

func TestCreateOutfit_RejectsBadPositions(t *testing.T) {
	svc, _, itemRepo := newTestOutfitService(nil)
	ctx := context.Background()
	owner := uuid.New()

	top := seedItem(t, itemRepo, owner, domain.CategoryTops, 20, domain.USD)

	_, err := svc.CreateOutfit(ctx, owner, OutfitInput{
		Title: "misfiled",
		Items: []outfit.SavedItem{{WardrobeItemID: top.ID, Position: "pocket"}},
	})
	if err == nil {
		t.Fatal("expected an error for an unknown position tag")
	}

	_, err = svc.CreateOutfit(ctx, owner, OutfitInput{
		Title: "mismatched",
		Items: []outfit.SavedItem{{WardrobeItemID: top.ID, Position: "shoes"}},
	})
	if err == nil {
		t.Fatal("expected an error for a category/slot mismatch")
	}
}

func TestGetOutfit_Visibility(t *testing.T) {
	svc, _, itemRepo := newTestOutfitService(nil)
	ctx := context.Background()
	owner := uuid.New()
	viewer := uuid.New()

	top := seedItem(t, itemRepo, owner, domain.CategoryTops, 20, domain.USD)

	private, err := svc.CreateOutfit(ctx, owner, OutfitInput{
		Title: "private",
		Items: []outfit.SavedItem{{WardrobeItemID: top.ID, Position: "top"}},
	})
	if err != nil {
		t.Fatalf("CreateOutfit failed: %v", err)
	}

	if _, err := svc.GetOutfit(ctx, owner, private.ID, domain.USD); err != nil {
		t.Errorf("owner should see their private outfit: %v", err)
	}
	if _, err := svc.GetOutfit(ctx, viewer, private.ID, domain.USD); !errors.Is(err, ErrOutfitNotVisible) {
		t.Errorf("expected ErrOutfitNotVisible for a stranger, got %v", err)
	}
}

func TestGetOutfit_DisplayConversion(t *testing.T) {
	conv := &stubConverter{rates: map[string]float64{"USDEUR": 0.9}}
	svc, _, itemRepo := newTestOutfitService(conv)
	ctx := context.Background()
	owner := uuid.New()

	top := seedItem(t, itemRepo, owner, domain.CategoryTops, 100, domain.USD)

	created, err := svc.CreateOutfit(ctx, owner, OutfitInput{
		Title:    "look",
		IsPublic: true,
		Items:    []outfit.SavedItem{{WardrobeItemID: top.ID, Position: "top"}},
	})
	if err != nil {
		t.Fatalf("CreateOutfit failed: %v", err)
	}

	view, err := svc.GetOutfit(ctx, owner, created.ID, domain.EUR)
	if err != nil {
		t.Fatalf("GetOutfit failed: %v", err)
	}

	if view.Total.Amount != 100 || view.Total.Currency != domain.USD {
		t.Errorf("raw total changed: %+v", view.Total)
	}
	if view.DisplayTotal.Amount != 90 || view.DisplayTotal.Currency != domain.EUR {
		t.Errorf("expected display total 90 EUR, got %+v", view.DisplayTotal)
	}
}

func TestGetOutfit_ConversionFailureDegradesToRaw(t *testing.T) {
	conv := &stubConverter{err: errors.New("provider down")}
	svc, _, itemRepo := newTestOutfitService(conv)
	ctx := context.Background()
	owner := uuid.New()

	top := seedItem(t, itemRepo, owner, domain.CategoryTops, 100, domain.USD)

	created, err := svc.CreateOutfit(ctx, owner, OutfitInput{
		Title: "look",
		Items: []outfit.SavedItem{{WardrobeItemID: top.ID, Position: "top"}},
	})
	if err != nil {
		t.Fatalf("CreateOutfit failed: %v", err)
	}

	view, err := svc.GetOutfit(ctx, owner, created.ID, domain.EUR)
	if err != nil {
		t.Fatalf("GetOutfit failed: %v", err)
	}

	if view.DisplayTotal.Amount != 100 || view.DisplayTotal.Currency != domain.USD {
		t.Errorf("expected display total to fall back to the raw sum, got %+v", view.DisplayTotal)
	}
}

func TestUpdateOutfit_OwnershipEnforced(t *testing.T) {
	svc, _, itemRepo := newTestOutfitService(nil)
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	top := seedItem(t, itemRepo, owner, domain.CategoryTops, 20, domain.USD)

	created, err := svc.CreateOutfit(ctx, owner, OutfitInput{
		Title: "mine",
		Items: []outfit.SavedItem{{WardrobeItemID: top.ID, Position: "top"}},
	})
	if err != nil {
		t.Fatalf("CreateOutfit failed: %v", err)
	}

	_, err = svc.UpdateOutfit(ctx, stranger, created.ID, OutfitInput{
		Title: "stolen",
		Items: []outfit.SavedItem{{WardrobeItemID: top.ID, Position: "top"}},
	})
	if !errors.Is(err, ErrNotOutfitOwner) {
		t.Errorf("expected ErrNotOutfitOwner, got %v", err)
	}

	if err := svc.DeleteOutfit(ctx, stranger, created.ID); !errors.Is(err, ErrNotOutfitOwner) {
		t.Errorf("expected ErrNotOutfitOwner on delete, got %v", err)
	}

	if err := svc.DeleteOutfit(ctx, owner, created.ID); err != nil {
		t.Errorf("owner delete failed: %v", err)
	}
}

func TestForceDeleteOutfit_IgnoresOwnership(t *testing.T) {
	svc, outfitRepo, itemRepo := newTestOutfitService(nil)
	ctx := context.Background()
	owner := uuid.New()

	top := seedItem(t, itemRepo, owner, domain.CategoryTops, 20, domain.USD)

	created, err := svc.CreateOutfit(ctx, owner, OutfitInput{
		Title: "reported",
		Items: []outfit.SavedItem{{WardrobeItemID: top.ID, Position: "top"}},
	})
	if err != nil {
		t.Fatalf("CreateOutfit failed: %v", err)
	}

	if err := svc.ForceDeleteOutfit(ctx, created.ID); err != nil {
		t.Fatalf("ForceDeleteOutfit failed: %v", err)
	}
	if _, exists := outfitRepo.outfits[created.ID]; exists {
		t.Error("outfit should be gone after takedown")
	}
}

func TestReactions_RequireVisibility(t *testing.T) {
	svc, outfitRepo, itemRepo := newTestOutfitService(nil)
	ctx := context.Background()
	owner := uuid.New()
	fan := uuid.New()

	top := seedItem(t, itemRepo, owner, domain.CategoryTops, 20, domain.USD)

	private, err := svc.CreateOutfit(ctx, owner, OutfitInput{
		Title: "private",
		Items: []outfit.SavedItem{{WardrobeItemID: top.ID, Position: "top"}},
	})
	if err != nil {
		t.Fatalf("CreateOutfit failed: %v", err)
	}

	if err := svc.Upvote(ctx, private.ID, fan); !errors.Is(err, ErrOutfitNotVisible) {
		t.Errorf("expected ErrOutfitNotVisible upvoting a private outfit, got %v", err)
	}
	if err := svc.SaveOutfit(ctx, private.ID, fan); !errors.Is(err, ErrOutfitNotVisible) {
		t.Errorf("expected ErrOutfitNotVisible saving a private outfit, got %v", err)
	}

	public, err := svc.CreateOutfit(ctx, owner, OutfitInput{
		Title:    "public",
		IsPublic: true,
		Items:    []outfit.SavedItem{{WardrobeItemID: top.ID, Position: "top"}},
	})
	if err != nil {
		t.Fatalf("CreateOutfit failed: %v", err)
	}

	if err := svc.Upvote(ctx, public.ID, fan); err != nil {
		t.Fatalf("Upvote failed: %v", err)
	}
	if !outfitRepo.upvotes[public.ID][fan] {
		t.Error("upvote not recorded")
	}

	if err := svc.RemoveUpvote(ctx, public.ID, fan); err != nil {
		t.Fatalf("RemoveUpvote failed: %v", err)
	}
	if outfitRepo.upvotes[public.ID][fan] {
		t.Error("upvote should be removed")
	}

	if err := svc.SaveOutfit(ctx, public.ID, fan); err != nil {
		t.Fatalf("SaveOutfit failed: %v", err)
	}
	if err := svc.UnsaveOutfit(ctx, public.ID, fan); err != nil {
		t.Fatalf("UnsaveOutfit failed: %v", err)
	}
	if outfitRepo.saves[public.ID][fan] {
		t.Error("save should be removed")
	}
}
