package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fitbook/internal/domain"

	"github.com/google/uuid"
)

var ErrItemNotFound = errors.New("wardrobe item not found")

// WardrobeItemRepository defines the interface for wardrobe item data access
type WardrobeItemRepository interface {
	Create(ctx context.Context, item *domain.WardrobeItem) error
	Update(ctx context.Context, item *domain.WardrobeItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.WardrobeItem, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.WardrobeItem, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, category *domain.Category, limit int, cursor *Cursor) ([]*domain.WardrobeItem, *Cursor, error)
	Search(ctx context.Context, ownerID uuid.UUID, query string, limit int, cursor *Cursor) ([]*domain.WardrobeItem, *Cursor, error)
}

type wardrobeItemRepository struct {
	db *sql.DB
}

// NewWardrobeItemRepository creates a new instance of WardrobeItemRepository
func NewWardrobeItemRepository(db *sql.DB) WardrobeItemRepository {
	return &wardrobeItemRepository{db: db}
}

const itemColumns = "id, owner_id, name, description, category, price, price_currency, created_at, updated_at"

// Create inserts a wardrobe item and its images in one transaction
func (r *wardrobeItemRepository) Create(ctx context.Context, item *domain.WardrobeItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO wardrobe_items (id, owner_id, name, description, category, price, price_currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = tx.ExecContext(
		ctx,
		query,
		item.ID,
		item.OwnerID,
		item.Name,
		item.Description,
		item.Category,
		item.Price,
		item.PriceCurrency,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create wardrobe item: %w", err)
	}

	if err := insertImages(ctx, tx, item.ID, item.Images); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit wardrobe item: %w", err)
	}
	return nil
}

// Update rewrites the item row and replaces its image set
func (r *wardrobeItemRepository) Update(ctx context.Context, item *domain.WardrobeItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE wardrobe_items
		SET name = $2, description = $3, category = $4, price = $5,
		    price_currency = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := tx.ExecContext(
		ctx,
		query,
		item.ID,
		item.Name,
		item.Description,
		item.Category,
		item.Price,
		item.PriceCurrency,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update wardrobe item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrItemNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM item_images WHERE item_id = $1`, item.ID); err != nil {
		return fmt.Errorf("failed to clear item images: %w", err)
	}
	if err := insertImages(ctx, tx, item.ID, item.Images); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit wardrobe item update: %w", err)
	}
	return nil
}

func insertImages(ctx context.Context, tx *sql.Tx, itemID uuid.UUID, images []domain.ItemImage) error {
	query := `
		INSERT INTO item_images (id, item_id, url, is_primary, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for i := range images {
		img := &images[i]
		if img.ID == uuid.Nil {
			img.ID = uuid.New()
		}
		img.ItemID = itemID
		img.SortOrder = i

		if _, err := tx.ExecContext(ctx, query, img.ID, img.ItemID, img.URL, img.IsPrimary, img.SortOrder, img.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert item image: %w", err)
		}
	}
	return nil
}

// Delete removes a wardrobe item; images cascade via the schema
func (r *wardrobeItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM wardrobe_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete wardrobe item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrItemNotFound
	}

	return nil
}

// FindByID retrieves a wardrobe item with its images
func (r *wardrobeItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.WardrobeItem, error) {
	query := fmt.Sprintf("SELECT %s FROM wardrobe_items WHERE id = $1", itemColumns)

	item := &domain.WardrobeItem{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID,
		&item.OwnerID,
		&item.Name,
		&item.Description,
		&item.Category,
		&item.Price,
		&item.PriceCurrency,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find wardrobe item: %w", err)
	}

	if err := r.loadImages(ctx, map[uuid.UUID]*domain.WardrobeItem{item.ID: item}); err != nil {
		return nil, err
	}

	return item, nil
}

// FindByIDs retrieves a batch of items keyed by id. Missing ids are simply
// absent from the result; callers decide whether that is an error.
func (r *wardrobeItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.WardrobeItem, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*domain.WardrobeItem{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf("SELECT %s FROM wardrobe_items WHERE id IN (%s)",
		itemColumns, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load wardrobe items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID]*domain.WardrobeItem)
	for rows.Next() {
		item := &domain.WardrobeItem{}
		err := rows.Scan(
			&item.ID,
			&item.OwnerID,
			&item.Name,
			&item.Description,
			&item.Category,
			&item.Price,
			&item.PriceCurrency,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wardrobe item: %w", err)
		}
		items[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wardrobe items: %w", err)
	}

	if err := r.loadImages(ctx, items); err != nil {
		return nil, err
	}

	return items, nil
}

// ListByOwner retrieves a page of the owner's items, optionally filtered by
// category, ordered newest first with cursor-based pagination.
func (r *wardrobeItemRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, category *domain.Category, limit int, cursor *Cursor) ([]*domain.WardrobeItem, *Cursor, error) {
	conditions := []string{"owner_id = $1"}
	args := []interface{}{ownerID}

	if category != nil {
		args = append(args, *category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	return r.listPage(ctx, conditions, args, limit, cursor)
}

// Search finds the owner's items by name or description, case-insensitive,
// with the same cursor pagination as ListByOwner.
func (r *wardrobeItemRepository) Search(ctx context.Context, ownerID uuid.UUID, query string, limit int, cursor *Cursor) ([]*domain.WardrobeItem, *Cursor, error) {
	if strings.TrimSpace(query) == "" {
		return r.ListByOwner(ctx, ownerID, nil, limit, cursor)
	}

	conditions := []string{"owner_id = $1", "(name ILIKE $2 OR description ILIKE $2)"}
	args := []interface{}{ownerID, "%" + query + "%"}

	return r.listPage(ctx, conditions, args, limit, cursor)
}

// listPage runs the shared keyset pagination query: fetch limit+1 rows to
// detect whether another page exists.
func (r *wardrobeItemRepository) listPage(ctx context.Context, conditions []string, args []interface{}, limit int, cursor *Cursor) ([]*domain.WardrobeItem, *Cursor, error) {
	if limit <= 0 {
		limit = 20
	}

	if cursor != nil {
		args = append(args, cursor.CreatedAt, cursor.ID)
		conditions = append(conditions,
			fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	args = append(args, limit+1)
	query := fmt.Sprintf(`
		SELECT %s
		FROM wardrobe_items
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d
	`, itemColumns, strings.Join(conditions, " AND "), len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list wardrobe items: %w", err)
	}
	defer rows.Close()

	items := []*domain.WardrobeItem{}
	for rows.Next() {
		item := &domain.WardrobeItem{}
		err := rows.Scan(
			&item.ID,
			&item.OwnerID,
			&item.Name,
			&item.Description,
			&item.Category,
			&item.Price,
			&item.PriceCurrency,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan wardrobe item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating wardrobe items: %w", err)
	}

	var next *Cursor
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		next = &Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	byID := make(map[uuid.UUID]*domain.WardrobeItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	if err := r.loadImages(ctx, byID); err != nil {
		return nil, nil, err
	}

	return items, next, nil
}

// loadImages attaches image rows to the given items, ordered for display.
func (r *wardrobeItemRepository) loadImages(ctx context.Context, items map[uuid.UUID]*domain.WardrobeItem) error {
	if len(items) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(items))
	args := make([]interface{}, 0, len(items))
	for id := range items {
		args = append(args, id)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT id, item_id, url, is_primary, sort_order, created_at
		FROM item_images
		WHERE item_id IN (%s)
		ORDER BY item_id, sort_order
	`, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load item images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		img := domain.ItemImage{}
		if err := rows.Scan(&img.ID, &img.ItemID, &img.URL, &img.IsPrimary, &img.SortOrder, &img.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan item image: %w", err)
		}
		if item, ok := items[img.ItemID]; ok {
			item.Images = append(item.Images, img)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating item images: %w", err)
	}

	return nil
}
