package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"testing"
	"time"

	"fitbook/internal/domain"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var testDB *sql.DB

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, err
	}

	connStr := "postgres://" + dbUser + ":" + dbPwd + "@" + dbHost + ":" + dbPort.Port() + "/" + dbName + "?sslmode=disable"
	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			display_name VARCHAR(100) NOT NULL,
			role VARCHAR(50) NOT NULL DEFAULT 'user',
			preferred_currency VARCHAR(3) NOT NULL DEFAULT 'USD',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS wardrobe_items (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(200) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category VARCHAR(20) NOT NULL,
			price NUMERIC(12, 2) NOT NULL DEFAULT 0,
			price_currency VARCHAR(3) NOT NULL DEFAULT 'USD',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS item_images (
			id UUID PRIMARY KEY,
			item_id UUID NOT NULL REFERENCES wardrobe_items(id) ON DELETE CASCADE,
			url TEXT NOT NULL,
			is_primary BOOLEAN NOT NULL DEFAULT FALSE,
			sort_order INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS outfits (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title VARCHAR(200) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			is_public BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS outfit_items (
			id UUID PRIMARY KEY,
			outfit_id UUID NOT NULL REFERENCES outfits(id) ON DELETE CASCADE,
			wardrobe_item_id UUID NOT NULL REFERENCES wardrobe_items(id) ON DELETE CASCADE,
			position VARCHAR(50) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outfit_upvotes (
			outfit_id UUID NOT NULL REFERENCES outfits(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (outfit_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS outfit_saves (
			outfit_id UUID NOT NULL REFERENCES outfits(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (outfit_id, user_id)
		)`,
	}

	for _, stmt := range schema {
		if _, err := testDB.Exec(stmt); err != nil {
			return dbContainer.Terminate, err
		}
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := setupTestDB()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
}

func createTestUser(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := testDB.Exec(
		`INSERT INTO users (id, email, password_hash, display_name) VALUES ($1, $2, 'x', 'Test User')`,
		id, fmt.Sprintf("%s@example.com", id),
	)
	if err != nil {
		t.Fatalf("could not create test user: %v", err)
	}
	return id
}

func newTestItem(ownerID uuid.UUID, name string, category domain.Category, createdAt time.Time) *domain.WardrobeItem {
	return &domain.WardrobeItem{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Name:          name,
		Description:   "test item",
		Category:      category,
		Price:         49.99,
		PriceCurrency: domain.USD,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func TestWardrobeItemCreateAndFind(t *testing.T) {
	repo := NewWardrobeItemRepository(testDB)
	ctx := context.Background()
	owner := createTestUser(t)

	now := time.Now().UTC().Truncate(time.Microsecond)
	item := newTestItem(owner, "denim jacket", domain.CategoryOuterwear, now)
	item.Images = []domain.ItemImage{
		{URL: "https://cdn.example.com/front.jpg", IsPrimary: true, CreatedAt: now},
		{URL: "https://cdn.example.com/back.jpg", CreatedAt: now},
	}

	if err := repo.Create(ctx, item); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := repo.FindByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}

	if found.Name != "denim jacket" || found.Category != domain.CategoryOuterwear {
		t.Errorf("unexpected item: %+v", found)
	}
	if found.Price != 49.99 || found.PriceCurrency != domain.USD {
		t.Errorf("unexpected price fields: %v %s", found.Price, found.PriceCurrency)
	}
	if len(found.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(found.Images))
	}
	if found.Images[0].URL != "https://cdn.example.com/front.jpg" || !found.Images[0].IsPrimary {
		t.Errorf("image ordering or primary flag wrong: %+v", found.Images)
	}
}

func TestWardrobeItemUpdateReplacesImages(t *testing.T) {
	repo := NewWardrobeItemRepository(testDB)
	ctx := context.Background()
	owner := createTestUser(t)

	now := time.Now().UTC().Truncate(time.Microsecond)
	item := newTestItem(owner, "sneakers", domain.CategoryShoes, now)
	item.Images = []domain.ItemImage{{URL: "https://cdn.example.com/old.jpg", CreatedAt: now}}

	if err := repo.Create(ctx, item); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	item.Name = "running sneakers"
	item.Images = []domain.ItemImage{
		{URL: "https://cdn.example.com/new-1.jpg", IsPrimary: true, CreatedAt: now},
		{URL: "https://cdn.example.com/new-2.jpg", CreatedAt: now},
	}
	item.UpdatedAt = now.Add(time.Minute)

	if err := repo.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	found, err := repo.FindByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}

	if found.Name != "running sneakers" {
		t.Errorf("expected updated name, got %q", found.Name)
	}
	if len(found.Images) != 2 {
		t.Fatalf("expected old image set replaced, got %d images", len(found.Images))
	}
	for _, img := range found.Images {
		if img.URL == "https://cdn.example.com/old.jpg" {
			t.Error("old image survived the update")
		}
	}
}

func TestWardrobeItemDelete(t *testing.T) {
	repo := NewWardrobeItemRepository(testDB)
	ctx := context.Background()
	owner := createTestUser(t)

	item := newTestItem(owner, "beanie", domain.CategoryHeadwear, time.Now().UTC())
	if err := repo.Create(ctx, item); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Delete(ctx, item.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := repo.FindByID(ctx, item.ID); err != ErrItemNotFound {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}

	if err := repo.Delete(ctx, item.ID); err != ErrItemNotFound {
		t.Errorf("expected ErrItemNotFound on second delete, got %v", err)
	}
}

func TestWardrobeItemKeysetPagination(t *testing.T) {
	repo := NewWardrobeItemRepository(testDB)
	ctx := context.Background()
	owner := createTestUser(t)

	base := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)
	total := 25
	for i := 0; i < total; i++ {
		item := newTestItem(owner, fmt.Sprintf("item-%02d", i), domain.CategoryTops, base.Add(time.Duration(i)*time.Second))
		if err := repo.Create(ctx, item); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	seen := make(map[uuid.UUID]bool)
	var cursor *Cursor
	var pages int
	var prev *domain.WardrobeItem

	for {
		items, next, err := repo.ListByOwner(ctx, owner, nil, 10, cursor)
		if err != nil {
			t.Fatalf("ListByOwner failed: %v", err)
		}
		pages++

		for _, item := range items {
			if seen[item.ID] {
				t.Fatalf("item %s appeared on two pages", item.ID)
			}
			seen[item.ID] = true

			if prev != nil && item.CreatedAt.After(prev.CreatedAt) {
				t.Fatalf("ordering violated: %v after %v", item.CreatedAt, prev.CreatedAt)
			}
			prev = item
		}

		if next == nil {
			break
		}
		cursor = next
	}

	if len(seen) != total {
		t.Errorf("expected %d distinct items across pages, got %d", total, len(seen))
	}
	if pages != 3 {
		t.Errorf("expected 3 pages for 25 items at size 10, got %d", pages)
	}
}

func TestWardrobeItemCategoryFilterAndSearch(t *testing.T) {
	repo := NewWardrobeItemRepository(testDB)
	ctx := context.Background()
	owner := createTestUser(t)

	now := time.Now().UTC().Truncate(time.Microsecond)
	jacket := newTestItem(owner, "Rain Jacket", domain.CategoryOuterwear, now)
	boots := newTestItem(owner, "Leather Boots", domain.CategoryShoes, now.Add(time.Second))

	for _, item := range []*domain.WardrobeItem{jacket, boots} {
		if err := repo.Create(ctx, item); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	shoes := domain.CategoryShoes
	filtered, _, err := repo.ListByOwner(ctx, owner, &shoes, 10, nil)
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != boots.ID {
		t.Errorf("category filter returned wrong items: %+v", filtered)
	}

	// Case-insensitive match against name.
	results, _, err := repo.Search(ctx, owner, "rain", 10, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != jacket.ID {
		t.Errorf("search returned wrong items: %+v", results)
	}
}

func TestFindByIDsSkipsMissing(t *testing.T) {
	repo := NewWardrobeItemRepository(testDB)
	ctx := context.Background()
	owner := createTestUser(t)

	item := newTestItem(owner, "scarf", domain.CategoryAccessories, time.Now().UTC())
	if err := repo.Create(ctx, item); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	missing := uuid.New()
	found, err := repo.FindByIDs(ctx, []uuid.UUID{item.ID, missing})
	if err != nil {
		t.Fatalf("FindByIDs failed: %v", err)
	}

	if len(found) != 1 {
		t.Fatalf("expected 1 item, got %d", len(found))
	}
	if _, ok := found[missing]; ok {
		t.Error("missing id should not be present in the result")
	}
}
